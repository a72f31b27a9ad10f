package player

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/deangi/photoframe/internal/display"
	"github.com/deangi/photoframe/internal/model"
	"github.com/deangi/photoframe/internal/schedule"
)

type waitResult struct {
	key display.Key
	err error
}

type fakeSurface struct {
	clock   *clockwork.FakeClock
	geom    model.ScreenGeometry
	script  []waitResult
	frames  []image.Rectangle
	waits   []time.Duration
	clears  int
	showErr error
}

func (s *fakeSurface) Geometry() model.ScreenGeometry { return s.geom }

func (s *fakeSurface) Show(frame image.Image) error {
	if s.showErr != nil {
		return s.showErr
	}
	s.frames = append(s.frames, frame.Bounds())
	return nil
}

func (s *fakeSurface) Clear() error {
	s.clears++
	return nil
}

func (s *fakeSurface) WaitKey(ctx context.Context, timeout time.Duration) (display.Key, error) {
	s.waits = append(s.waits, timeout)
	if len(s.script) == 0 {
		return display.NoKey, display.ErrCancelled
	}
	r := s.script[0]
	s.script = s.script[1:]
	if r.err == nil && r.key == display.NoKey {
		s.clock.Advance(timeout)
	}
	return r.key, r.err
}

func (s *fakeSurface) Close() error { return nil }

type fakeDecoder struct {
	bad     map[string]bool
	decoded []string
}

func (d *fakeDecoder) Decode(path string) (image.Image, error) {
	d.decoded = append(d.decoded, path)
	if d.bad[path] {
		return nil, &DecodeError{Path: path, Kind: DecodeCorrupt, Err: errors.New("bad data")}
	}
	return image.NewRGBA(image.Rect(0, 0, 16, 9)), nil
}

type onCounter struct{ on int }

func (c *onCounter) DisableBlanking() error { return nil }
func (c *onCounter) ForceOn() error         { c.on++; return nil }
func (c *onCounter) Standby() error         { return nil }

type rig struct {
	clock   *clockwork.FakeClock
	surface *fakeSurface
	decoder *fakeDecoder
	power   *onCounter
	scans   int
	player  *Player
}

func at(hour, minute, second int) time.Time {
	return time.Date(2024, 3, 10, hour, minute, second, 0, time.Local)
}

func tick() waitResult { return waitResult{key: display.NoKey} }

func press(k display.Key) waitResult { return waitResult{key: k} }

func newRig(t *testing.T, start time.Time, scan schedule.Scanner, script ...waitResult) *rig {
	t.Helper()
	r := &rig{
		clock:   clockwork.NewFakeClockAt(start),
		decoder: &fakeDecoder{bad: map[string]bool{}},
		power:   &onCounter{},
	}
	r.surface = &fakeSurface{
		clock:  r.clock,
		geom:   model.ScreenGeometry{Width: 100, Height: 50},
		script: script,
	}
	if scan == nil {
		scan = func(root string) ([]string, error) {
			r.scans++
			return []string{root + "/a.jpg", root + "/b.png", root + "/c.jpg"}, nil
		}
	}
	sched := schedule.New(schedule.Options{
		Clock: r.clock,
		Config: model.Configuration{
			Delay:     2 * time.Second,
			WakeHour:  7,
			SleepHour: 21,
			RootPath:  "/photos",
		},
		Scan:  scan,
		Power: r.power,
		Rand:  rand.New(rand.NewSource(3)),
	})
	r.player = New(Options{
		Surface:   r.surface,
		Scheduler: sched,
		Decoder:   r.decoder,
		Power:     r.power,
		Clock:     r.clock,
	})
	return r
}

func TestRunShowsEachImageThenStopsOnKey(t *testing.T) {
	r := newRig(t, at(10, 0, 0), nil, tick(), tick(), press('q'))

	require.NoError(t, r.player.Run(context.Background()))

	require.Len(t, r.surface.frames, 3)
	for _, f := range r.surface.frames {
		require.Equal(t, 1922, f.Dx())
		require.Equal(t, 1082, f.Dy())
	}
	require.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}, r.surface.waits)
	require.ElementsMatch(t, []string{"/photos/a.jpg", "/photos/b.png", "/photos/c.jpg"}, r.decoder.decoded)
	require.Equal(t, 3, r.power.on)
	require.Zero(t, r.surface.clears)
}

func TestRunRewindsInSameOrder(t *testing.T) {
	r := newRig(t, at(10, 0, 0), nil, tick(), tick(), tick(), tick(), press(' '))

	require.NoError(t, r.player.Run(context.Background()))

	require.Len(t, r.decoder.decoded, 5)
	require.Equal(t, r.decoder.decoded[:2], r.decoder.decoded[3:5])
	require.Equal(t, 1, r.scans)
}

func TestRunReturnsNilWhenCancelled(t *testing.T) {
	r := newRig(t, at(10, 0, 0), nil, tick(), waitResult{key: display.NoKey, err: display.ErrCancelled})

	require.NoError(t, r.player.Run(context.Background()))
	require.Len(t, r.surface.frames, 2)
}

func TestRunSkipsUndecodableWithoutPause(t *testing.T) {
	r := newRig(t, at(10, 0, 0), nil, press('x'))
	r.decoder.bad["/photos/a.jpg"] = true
	r.decoder.bad["/photos/c.jpg"] = true

	require.NoError(t, r.player.Run(context.Background()))

	require.Len(t, r.surface.frames, 1)
	require.Len(t, r.surface.waits, 1)
	require.Equal(t, "/photos/b.png", r.decoder.decoded[len(r.decoder.decoded)-1])
}

func TestRunWaitsOnceWhenNothingCanBeShown(t *testing.T) {
	r := newRig(t, at(10, 0, 0), nil, tick())
	for _, p := range []string{"/photos/a.jpg", "/photos/b.png", "/photos/c.jpg"} {
		r.decoder.bad[p] = true
	}

	require.NoError(t, r.player.Run(context.Background()))

	require.Empty(t, r.surface.frames)
	require.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, r.surface.waits)
	require.Len(t, r.decoder.decoded, 6)
}

func TestRunEmptyCatalogStillYields(t *testing.T) {
	empty := func(string) ([]string, error) { return nil, nil }
	r := newRig(t, at(10, 0, 0), empty, tick(), tick())

	require.NoError(t, r.player.Run(context.Background()))

	require.Empty(t, r.surface.frames)
	require.Len(t, r.surface.waits, 3)
}

func TestRunAsleepClearsOnceAndPolls(t *testing.T) {
	r := newRig(t, at(23, 0, 0), nil, tick(), tick())

	require.NoError(t, r.player.Run(context.Background()))

	require.Equal(t, 1, r.surface.clears)
	require.Empty(t, r.surface.frames)
	require.Equal(t, []time.Duration{SleepPoll, SleepPoll, SleepPoll}, r.surface.waits)
}

func TestRunWakesAndShows(t *testing.T) {
	r := newRig(t, at(6, 58, 0), nil, tick(), press('q'))

	require.NoError(t, r.player.Run(context.Background()))

	require.Equal(t, 1, r.surface.clears)
	require.Len(t, r.surface.frames, 1)
	require.Equal(t, []time.Duration{SleepPoll, 2 * time.Second}, r.surface.waits)
}

func TestRunHourlyRescanTakesOverAfterCurrentPass(t *testing.T) {
	var r *rig
	scan := func(root string) ([]string, error) {
		r.scans++
		if r.scans == 1 {
			return []string{"/old/1.jpg", "/old/2.jpg", "/old/3.jpg"}, nil
		}
		return []string{"/new/1.jpg", "/new/2.jpg", "/new/3.jpg"}, nil
	}
	r = newRig(t, at(10, 59, 59), scan, tick(), tick(), tick(), press('q'))

	require.NoError(t, r.player.Run(context.Background()))

	require.Equal(t, 2, r.scans)
	require.Len(t, r.decoder.decoded, 4)
	require.ElementsMatch(t, []string{"/old/1.jpg", "/old/2.jpg", "/old/3.jpg"}, r.decoder.decoded[:3])
	require.Contains(t, r.decoder.decoded[3], "/new/")
}

func TestRunPendingCatalogReplacesEmptyPass(t *testing.T) {
	var r *rig
	scan := func(root string) ([]string, error) {
		r.scans++
		if r.scans == 1 {
			return nil, nil
		}
		return []string{"/new/1.jpg"}, nil
	}
	r = newRig(t, at(10, 59, 59), scan, tick(), press('q'))

	require.NoError(t, r.player.Run(context.Background()))

	require.Equal(t, []string{"/new/1.jpg"}, r.decoder.decoded)
	require.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, r.surface.waits)
}

func TestRunScanErrorIsFatal(t *testing.T) {
	boom := errors.New("disk gone")
	failing := func(string) ([]string, error) { return nil, boom }
	r := newRig(t, at(10, 0, 0), failing)

	err := r.player.Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.Empty(t, r.surface.waits)
}

func TestRunShowErrorIsReturned(t *testing.T) {
	r := newRig(t, at(10, 0, 0), nil, tick())
	r.surface.showErr = errors.New("device lost")

	err := r.player.Run(context.Background())
	require.ErrorContains(t, err, "device lost")
}

func TestRunUsesRealGeometryWhenSane(t *testing.T) {
	r := newRig(t, at(10, 0, 0), nil, press('q'))
	r.surface.geom = model.ScreenGeometry{Width: 800, Height: 600}

	require.NoError(t, r.player.Run(context.Background()))

	require.Len(t, r.surface.frames, 1)
	// 16x9 at 800x600: scale 50, 800x450, borders 1 and 75.
	require.Equal(t, 802, r.surface.frames[0].Dx())
	require.Equal(t, 600, r.surface.frames[0].Dy())
}

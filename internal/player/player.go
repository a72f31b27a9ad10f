// Package player runs the slideshow presentation loop.
package player

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/jonboulle/clockwork"
	xdraw "golang.org/x/image/draw"

	"github.com/deangi/photoframe/internal/catalog"
	"github.com/deangi/photoframe/internal/display"
	"github.com/deangi/photoframe/internal/fit"
	"github.com/deangi/photoframe/internal/logger"
	"github.com/deangi/photoframe/internal/model"
	"github.com/deangi/photoframe/internal/power"
	"github.com/deangi/photoframe/internal/schedule"
)

// SleepPoll is how long the asleep loop waits between schedule checks.
const SleepPoll = 300 * time.Second

// Options wires a Player.
type Options struct {
	Surface   display.Surface
	Scheduler *schedule.Scheduler
	Decoder   Decoder
	Power     power.Controller
	Scaler    xdraw.Scaler
	Logger    *logger.Logger
	Clock     clockwork.Clock
}

// Player shows the catalog one image at a time and sleeps outside the
// wake window.
type Player struct {
	surface display.Surface
	sched   *schedule.Scheduler
	decoder Decoder
	power   power.Controller
	scaler  xdraw.Scaler
	log     *logger.Logger
	clock   clockwork.Clock

	screen  model.ScreenGeometry
	catalog *catalog.Catalog
	pending *catalog.Catalog // rescan result, swapped in when the pass ends
	shown   int              // images displayed in the current pass
	cleared bool
}

// New builds a player. Surface and Scheduler are required.
func New(opts Options) *Player {
	p := &Player{
		surface: opts.Surface,
		sched:   opts.Scheduler,
		decoder: opts.Decoder,
		power:   opts.Power,
		scaler:  opts.Scaler,
		log:     opts.Logger,
		clock:   opts.Clock,
	}
	if p.decoder == nil {
		p.decoder = FileDecoder{}
	}
	if p.power == nil {
		p.power = power.Noop{}
	}
	if p.scaler == nil {
		p.scaler = xdraw.ApproxBiLinear
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	return p
}

// Run starts the scheduler and loops until a key is pressed or ctx ends,
// both of which return nil. Scan and surface failures are returned.
func (p *Player) Run(ctx context.Context) error {
	if p.surface == nil || p.sched == nil {
		return errors.New("player needs a surface and a scheduler")
	}
	raw := p.surface.Geometry()
	p.screen = raw.Sanitize()
	p.log.Infow("screen geometry",
		"width", raw.Width,
		"height", raw.Height,
		"used_width", p.screen.Width,
		"used_height", p.screen.Height)

	cat, err := p.sched.Start()
	if err != nil {
		return err
	}
	p.replace(cat)

	for {
		step, err := p.sched.Step()
		if err != nil {
			return err
		}
		if step.Catalog != nil {
			p.pending = step.Catalog
		}

		var stop bool
		if step.State == schedule.Asleep {
			if err := p.blank(); err != nil {
				return err
			}
			stop, err = p.wait(ctx, SleepPoll)
		} else {
			p.cleared = false
			stop, err = p.advance(ctx)
		}
		if err != nil || stop {
			return err
		}
	}
}

func (p *Player) replace(cat *catalog.Catalog) {
	p.catalog = cat
	p.shown = 0
}

func (p *Player) blank() error {
	if p.cleared {
		return nil
	}
	if err := p.surface.Clear(); err != nil {
		return fmt.Errorf("clear screen: %w", err)
	}
	p.cleared = true
	return nil
}

// advance shows the next image and waits Delay. Decode failures move on
// without pausing. An exhausted catalog gives way to a pending rescan or
// rewinds, and a pass that showed nothing waits once so the loop always
// yields.
func (p *Player) advance(ctx context.Context) (bool, error) {
	delay := p.sched.Config().Delay
	path, ok := p.catalog.Next()
	if !ok {
		if p.pending != nil {
			p.replace(p.pending)
			p.pending = nil
			return false, nil
		}
		idle := p.shown == 0
		p.catalog.Rewind()
		p.shown = 0
		if idle {
			p.log.Debugw("nothing to show", "catalog", p.catalog.Len())
			return p.wait(ctx, delay)
		}
		return false, nil
	}

	img, err := p.decoder.Decode(path)
	if err != nil {
		p.log.Warnw("skipping image", "path", path, "error", err)
		return false, nil
	}
	if err := p.display(path, img); err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			p.log.Warnw("skipping image", "path", path, "error", err)
			return false, nil
		}
		return false, err
	}
	p.shown++
	return p.wait(ctx, delay)
}

func (p *Player) display(path string, img image.Image) error {
	start := p.clock.Now()
	b := img.Bounds()
	placement, err := fit.Compute(b.Dx(), b.Dy(), p.screen)
	if err != nil {
		return &DecodeError{Path: path, Kind: DecodeEmpty, Err: err}
	}
	_ = p.power.ForceOn()
	frame := fit.Compose(img, placement, p.scaler)
	if err := p.surface.Show(frame); err != nil {
		return fmt.Errorf("show %s: %w", path, err)
	}
	p.log.Infow("showing image",
		"path", path,
		"width", b.Dx(),
		"height", b.Dy(),
		"scale", placement.Scale,
		"elapsed", p.clock.Since(start))
	return nil
}

// wait blocks for d. It reports true when the user or ctx asked to stop.
func (p *Player) wait(ctx context.Context, d time.Duration) (bool, error) {
	key, err := p.surface.WaitKey(ctx, d)
	switch {
	case errors.Is(err, display.ErrCancelled):
		p.log.Infow("slideshow cancelled")
		return true, nil
	case err != nil:
		return false, fmt.Errorf("wait for key: %w", err)
	case key != display.NoKey:
		p.log.Infow("key pressed, stopping", "key", int(key))
		return true, nil
	}
	return false, nil
}

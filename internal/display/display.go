// Package display provides the fullscreen surfaces the slideshow draws on.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/deangi/photoframe/internal/model"
)

// Backends accepted by Open.
const (
	BackendAuto        = "auto"
	BackendFramebuffer = "framebuffer"
	BackendTerminal    = "terminal"
)

// Key is a key code read during a wait.
type Key int

// NoKey is returned when a wait times out without input.
const NoKey Key = -1

var (
	// ErrCancelled is returned by WaitKey when its context ends.
	ErrCancelled = errors.New("wait cancelled")
	// ErrUnsupported is returned for backends the platform cannot drive.
	ErrUnsupported = errors.New("display backend not supported on this platform")
)

// Surface is a fullscreen drawing target with blocking keyboard waits.
type Surface interface {
	// Geometry reports the raw screen size; callers sanity-check it.
	Geometry() model.ScreenGeometry
	// Show puts frame on screen anchored at the top-left corner, clipped.
	Show(frame image.Image) error
	// Clear blanks the screen.
	Clear() error
	// WaitKey blocks until a key arrives, timeout elapses (NoKey) or ctx
	// ends (ErrCancelled).
	WaitKey(ctx context.Context, timeout time.Duration) (Key, error)
	Close() error
}

// Options selects and configures a surface.
type Options struct {
	Backend string
	Device  string
	Scaler  string
	In      *os.File
	Out     *os.File
}

// ResolveBackend turns "auto" into a concrete backend name.
func ResolveBackend(backend, device string) string {
	if backend != BackendAuto && backend != "" {
		return backend
	}
	if framebufferUsable(device) {
		return BackendFramebuffer
	}
	return BackendTerminal
}

// Open creates the surface for a concrete backend.
func Open(opts Options) (Surface, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	switch opts.Backend {
	case BackendFramebuffer:
		return openFramebuffer(opts.Device, opts.In, opts.Out)
	case BackendTerminal:
		t, err := OpenTerminal(opts.In, opts.Out, opts.Scaler)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown display backend %q", opts.Backend)
	}
}

func framebufferUsable(device string) bool {
	if device == "" {
		return false
	}
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

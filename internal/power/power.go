// Package power issues best-effort display power directives.
package power

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/deangi/photoframe/internal/logger"
)

// Controller switches the physical display between on and standby.
// Callers ignore the returned errors apart from logging them.
type Controller interface {
	DisableBlanking() error
	ForceOn() error
	Standby() error
}

// Power modes accepted by Resolve.
const (
	ModeAuto        = "auto"
	ModeXSet        = "xset"
	ModeFramebuffer = "framebuffer"
	ModeNone        = "none"
)

// Noop is used where the platform has no power directive.
type Noop struct{}

func (Noop) DisableBlanking() error { return nil }
func (Noop) ForceOn() error         { return nil }
func (Noop) Standby() error         { return nil }

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

const commandTimeout = 5 * time.Second

func execRunner(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Run()
}

// XSet drives an X11 display through the xset tool.
type XSet struct {
	run Runner
}

// NewXSet returns an xset controller. A nil runner executes the real tool.
func NewXSet(run Runner) *XSet {
	if run == nil {
		run = execRunner
	}
	return &XSet{run: run}
}

func (x *XSet) DisableBlanking() error {
	return x.run(context.Background(), "xset", "s", "off")
}

func (x *XSet) ForceOn() error {
	return x.run(context.Background(), "xset", "dpms", "force", "on")
}

func (x *XSet) Standby() error {
	return x.run(context.Background(), "xset", "dpms", "force", "standby")
}

// Logged wraps a controller and logs failures at debug level.
type Logged struct {
	Controller
	Log *logger.Logger
}

func (l Logged) DisableBlanking() error { return l.note("disable blanking", l.Controller.DisableBlanking()) }
func (l Logged) ForceOn() error         { return l.note("force on", l.Controller.ForceOn()) }
func (l Logged) Standby() error         { return l.note("standby", l.Controller.Standby()) }

func (l Logged) note(op string, err error) error {
	if err != nil && l.Log != nil {
		l.Log.Debugw("display power directive failed", "op", op, "error", err)
	}
	return err
}

// Resolve picks the controller once at startup. fallback is the display
// surface's own capability, if it has one.
func Resolve(mode string, fallback Controller, log *logger.Logger) Controller {
	var c Controller
	switch mode {
	case ModeNone:
		c = Noop{}
	case ModeXSet:
		c = NewXSet(nil)
	case ModeFramebuffer:
		if fallback != nil {
			c = fallback
		} else {
			c = Noop{}
		}
	default:
		c = resolveAuto(fallback)
	}
	if log != nil {
		log.Infow("display power controller", "mode", mode, "controller", name(c))
	}
	return Logged{Controller: c, Log: log}
}

func xsetAvailable() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	_, err := exec.LookPath("xset")
	return err == nil
}

func name(c Controller) string {
	switch c.(type) {
	case Noop:
		return "none"
	case *XSet:
		return "xset"
	default:
		return "surface"
	}
}

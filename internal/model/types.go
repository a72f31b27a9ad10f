// Package model defines shared data structures.
package model

import "time"

// Default screen size used when the display reports a nonsense geometry.
const (
	DefaultScreenWidth  = 1920.0
	DefaultScreenHeight = 1080.0

	minScreenWidth  = 640.0
	minScreenHeight = 480.0
)

// Configuration holds the slideshow parameters read from the control file.
// A reload replaces the whole value; fields are never edited in place.
type Configuration struct {
	Delay     time.Duration
	WakeHour  int
	SleepHour int
	RootPath  string
}

// DefaultConfiguration mirrors the appliance defaults used before the first
// control file read.
func DefaultConfiguration() Configuration {
	return Configuration{
		Delay:     4 * time.Second,
		WakeHour:  7,
		SleepHour: 21,
		RootPath:  "/media/HDD",
	}
}

// ScreenGeometry is the size of the display surface in pixels.
type ScreenGeometry struct {
	Width  float64
	Height float64
}

// Sanitize substitutes 1920x1080 when the reported size is too small to be real.
func (g ScreenGeometry) Sanitize() ScreenGeometry {
	if g.Height < minScreenHeight || g.Width < minScreenWidth {
		return ScreenGeometry{Width: DefaultScreenWidth, Height: DefaultScreenHeight}
	}
	return g
}

// ScheduleState tracks the day/night machine.
type ScheduleState struct {
	LastProcessedHour int
	Asleep            bool
}

// Package schedule runs the awake/asleep state machine and the hourly
// configuration reload and image rescan.
package schedule

import (
	"fmt"
	"math/rand"

	"github.com/jonboulle/clockwork"

	"github.com/deangi/photoframe/internal/catalog"
	"github.com/deangi/photoframe/internal/config"
	"github.com/deangi/photoframe/internal/logger"
	"github.com/deangi/photoframe/internal/model"
	"github.com/deangi/photoframe/internal/power"
)

// State is the display state.
type State int

// Scheduler states.
const (
	Awake State = iota
	Asleep
)

func (s State) String() string {
	if s == Asleep {
		return "asleep"
	}
	return "awake"
}

// Reloader re-reads the control file, returning prev on failure.
type Reloader func(prev model.Configuration) config.Result

// Scanner lists the images under root.
type Scanner func(root string) ([]string, error)

// Options wires a Scheduler.
type Options struct {
	Clock  clockwork.Clock
	Config model.Configuration
	Reload Reloader
	Scan   Scanner
	Power  power.Controller
	Logger *logger.Logger
	Rand   *rand.Rand
}

// Step is the outcome of one evaluation.
type Step struct {
	State   State
	Entered bool             // State was entered on this step
	Catalog *catalog.Catalog // set when the image tree was rescanned
}

// Scheduler owns ScheduleState and the current Configuration.
type Scheduler struct {
	clock  clockwork.Clock
	cfg    model.Configuration
	state  model.ScheduleState
	reload Reloader
	scan   Scanner
	power  power.Controller
	log    *logger.Logger
	rnd    *rand.Rand
}

// New builds a scheduler. Start must be called before Step.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		clock:  opts.Clock,
		cfg:    opts.Config,
		reload: opts.Reload,
		scan:   opts.Scan,
		power:  opts.Power,
		log:    opts.Logger,
		rnd:    opts.Rand,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.scan == nil {
		s.scan = catalog.Scan
	}
	if s.reload == nil {
		s.reload = func(prev model.Configuration) config.Result {
			return config.Result{Config: prev}
		}
	}
	if s.power == nil {
		s.power = power.Noop{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.rnd == nil {
		s.rnd = catalog.NewRand()
	}
	return s
}

// InWindow reports whether hour lies in [wake, sleep). An empty window is
// never awake.
func InWindow(hour, wake, sleep int) bool {
	return hour >= wake && hour < sleep
}

// Start disables idle blanking, performs the initial scan and derives the
// initial state from the current hour.
func (s *Scheduler) Start() (*catalog.Catalog, error) {
	_ = s.power.DisableBlanking()
	cat, err := s.rescan()
	if err != nil {
		return nil, err
	}
	hour := s.clock.Now().Hour()
	s.state = model.ScheduleState{LastProcessedHour: hour}
	if !InWindow(hour, s.cfg.WakeHour, s.cfg.SleepHour) {
		s.goToSleep(hour)
	}
	return cat, nil
}

// Step runs the hourly refresh when due and applies any wake/sleep
// transition for the current hour.
func (s *Scheduler) Step() (Step, error) {
	hour := s.clock.Now().Hour()
	var step Step

	if !s.state.Asleep && hour != s.state.LastProcessedHour {
		cat, err := s.refresh(hour)
		if err != nil {
			return Step{}, err
		}
		step.Catalog = cat
	}

	awake := InWindow(hour, s.cfg.WakeHour, s.cfg.SleepHour)
	switch {
	case awake && s.state.Asleep:
		s.wakeUp(hour)
		step.Entered = true
	case !awake && !s.state.Asleep:
		s.goToSleep(hour)
		step.Entered = true
	}
	step.State = s.State()
	return step, nil
}

// State returns the current state.
func (s *Scheduler) State() State {
	if s.state.Asleep {
		return Asleep
	}
	return Awake
}

// Snapshot returns a copy of the schedule bookkeeping.
func (s *Scheduler) Snapshot() model.ScheduleState {
	return s.state
}

// Config returns the configuration currently in force.
func (s *Scheduler) Config() model.Configuration {
	return s.cfg
}

func (s *Scheduler) refresh(hour int) (*catalog.Catalog, error) {
	s.state.LastProcessedHour = hour
	_ = s.power.DisableBlanking()

	res := s.reload(s.cfg)
	if res.Valid {
		s.cfg = res.Config
	} else {
		s.log.Infow("keeping previous configuration", "error", res.Err)
	}
	return s.rescan()
}

func (s *Scheduler) rescan() (*catalog.Catalog, error) {
	paths, err := s.scan(s.cfg.RootPath)
	if err != nil {
		return nil, fmt.Errorf("scan photo root: %w", err)
	}
	s.log.Infow("scan found files", "count", len(paths), "root", s.cfg.RootPath)
	return catalog.New(paths, s.rnd), nil
}

func (s *Scheduler) goToSleep(hour int) {
	s.log.Infow("going to sleep", "hour", hour, "wake", s.cfg.WakeHour)
	s.state.Asleep = true
	_ = s.power.Standby()
}

func (s *Scheduler) wakeUp(hour int) {
	s.log.Infow("waking up", "hour", hour, "sleep", s.cfg.SleepHour)
	s.state.Asleep = false
	_ = s.power.DisableBlanking()
	_ = s.power.ForceOn()
}

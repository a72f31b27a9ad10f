package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deangi/photoframe/internal/logger"
	"github.com/deangi/photoframe/internal/model"
)

// Control file keys.
const (
	KeyDelay = "DELAY="
	KeyWake  = "WAKE="
	KeySleep = "SLEEP="
	KeyPath  = "PATH="
)

// Clamp ranges. WAKE tops out at 10.
const (
	MinDelaySeconds = 1.0
	MaxDelaySeconds = 60.0
	MinWakeHour     = 0
	MaxWakeHour     = 10
	MinSleepHour    = 0
	MaxSleepHour    = 23
)

const (
	seenDelay = 1 << iota
	seenWake
	seenSleep
	seenPath

	seenAll = seenDelay | seenWake | seenSleep | seenPath
)

// Kind classifies a failed control file read.
type Kind int

// Control file failure kinds.
const (
	KindNotFound Kind = iota + 1
	KindUnreadable
	KindMalformed
	KindIncomplete
)

// Sentinels matched by ControlError.Is.
var (
	ErrNotFound   = errors.New("control file not found")
	ErrUnreadable = errors.New("control file unreadable")
	ErrMalformed  = errors.New("control file malformed")
	ErrIncomplete = errors.New("control file incomplete")

	// ErrControlExists is returned by WriteControlTemplate without force.
	ErrControlExists = errors.New("control file already exists")
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUnreadable:
		return "unreadable"
	case KindMalformed:
		return "malformed"
	case KindIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindUnreadable:
		return ErrUnreadable
	case KindMalformed:
		return ErrMalformed
	case KindIncomplete:
		return ErrIncomplete
	default:
		return nil
	}
}

// ControlError describes why a control file could not be applied.
type ControlError struct {
	Path    string
	Kind    Kind
	Line    int      // 1-based, set for KindMalformed
	Missing []string // set for KindIncomplete
	Err     error
}

func (e *ControlError) Error() string {
	switch e.Kind {
	case KindMalformed:
		return fmt.Sprintf("control file %s: line %d malformed: %v", e.Path, e.Line, e.Err)
	case KindIncomplete:
		return fmt.Sprintf("control file %s: missing %s", e.Path, strings.Join(e.Missing, ", "))
	default:
		if e.Err != nil {
			return fmt.Sprintf("control file %s %s: %v", e.Path, e.Kind, e.Err)
		}
		return fmt.Sprintf("control file %s %s", e.Path, e.Kind)
	}
}

// Unwrap exposes the underlying cause.
func (e *ControlError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error kind.
func (e *ControlError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Result is the outcome of a control file read. When Valid is false Config
// holds the previous configuration unchanged.
type Result struct {
	Config model.Configuration
	Valid  bool
	Err    error
}

// LoadControl reads the four-key control file at path. Any failure returns
// prev untouched with Valid=false.
func LoadControl(path string, prev model.Configuration, log *logger.Logger) Result {
	if log == nil {
		log = logger.Nop()
	}
	cfg, err := readControl(path, prev, log)
	if err != nil {
		log.Warnw("control file not applied", "path", path, "error", err)
		return Result{Config: prev, Valid: false, Err: err}
	}
	log.Infow("control file read",
		"path", path,
		"delay_s", cfg.Delay.Seconds(),
		"wake", cfg.WakeHour,
		"sleep", cfg.SleepHour,
		"root", cfg.RootPath)
	return Result{Config: cfg, Valid: true}
}

func readControl(path string, prev model.Configuration, log *logger.Logger) (model.Configuration, error) {
	file, err := os.Open(path)
	if err != nil {
		kind := KindUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			kind = KindNotFound
		}
		return prev, &ControlError{Path: path, Kind: kind, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only control file.
			_ = cerr
		}
	}()

	log.Infow("reading control file", "path", path)

	cfg := prev
	seen := 0
	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, KeyDelay):
			x, err := parseNumber(line[len(KeyDelay):])
			if err != nil {
				return prev, &ControlError{Path: path, Kind: KindMalformed, Line: lineNo, Err: err}
			}
			x = clamp(x, MinDelaySeconds, MaxDelaySeconds)
			cfg.Delay = time.Duration(x * float64(time.Second))
			seen |= seenDelay
			log.Infow("control value", "key", "DELAY", "value", x)
		case strings.HasPrefix(line, KeyWake):
			x, err := parseNumber(line[len(KeyWake):])
			if err != nil {
				return prev, &ControlError{Path: path, Kind: KindMalformed, Line: lineNo, Err: err}
			}
			cfg.WakeHour = int(clamp(x, MinWakeHour, MaxWakeHour))
			seen |= seenWake
			log.Infow("control value", "key", "WAKE", "value", cfg.WakeHour)
		case strings.HasPrefix(line, KeySleep):
			x, err := parseNumber(line[len(KeySleep):])
			if err != nil {
				return prev, &ControlError{Path: path, Kind: KindMalformed, Line: lineNo, Err: err}
			}
			cfg.SleepHour = int(clamp(x, MinSleepHour, MaxSleepHour))
			seen |= seenSleep
			log.Infow("control value", "key", "SLEEP", "value", cfg.SleepHour)
		case strings.HasPrefix(line, KeyPath):
			cfg.RootPath = line[len(KeyPath):]
			seen |= seenPath
			log.Infow("control value", "key", "PATH", "value", cfg.RootPath)
		}
	}
	if err := scanner.Err(); err != nil {
		return prev, &ControlError{Path: path, Kind: KindUnreadable, Err: err}
	}
	if seen != seenAll {
		return prev, &ControlError{Path: path, Kind: KindIncomplete, Missing: missingKeys(seen)}
	}
	return cfg, nil
}

func parseNumber(raw string) (float64, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(x) {
		return 0, fmt.Errorf("value is not a number")
	}
	return x, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func missingKeys(seen int) []string {
	var missing []string
	for _, k := range []struct {
		bit  int
		name string
	}{
		{seenDelay, "DELAY"},
		{seenWake, "WAKE"},
		{seenSleep, "SLEEP"},
		{seenPath, "PATH"},
	} {
		if seen&k.bit == 0 {
			missing = append(missing, k.name)
		}
	}
	return missing
}

// WriteControlTemplate writes a complete control file for cfg. Existing
// files are left alone unless force is set.
func WriteControlTemplate(path string, cfg model.Configuration, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrControlExists, path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat control file: %w", err)
		}
	}
	body := fmt.Sprintf("%s%s\n%s%d\n%s%d\n%s%s\n",
		KeyDelay, strconv.FormatFloat(cfg.Delay.Seconds(), 'f', -1, 64),
		KeyWake, cfg.WakeHour,
		KeySleep, cfg.SleepHour,
		KeyPath, cfg.RootPath,
	)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write control file: %w", err)
	}
	return nil
}

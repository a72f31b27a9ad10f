// Package main provides the CLI entrypoint for photoframe.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deangi/photoframe/internal/catalog"
	"github.com/deangi/photoframe/internal/config"
	"github.com/deangi/photoframe/internal/display"
	"github.com/deangi/photoframe/internal/fit"
	"github.com/deangi/photoframe/internal/logger"
	"github.com/deangi/photoframe/internal/model"
	"github.com/deangi/photoframe/internal/player"
	"github.com/deangi/photoframe/internal/power"
	"github.com/deangi/photoframe/internal/schedule"
)

const (
	startBanner       = "---- Digital Foto Frame - Starting ----"
	unreadableControl = "--- Unable to read config file ---"
)

var (
	initForce bool

	countStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	rootStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photoframe [control-file]",
		Short: "Fullscreen photo slideshow with a day/night schedule",
		Long:  `Fullscreen photo slideshow with a day/night schedule.

The optional argument names the control file (default photoframe.ini).
A control file whose name matches a subcommand (config, scan, init, help)
must be given with a path, for example ./config.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runFrameCmd,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newInitCmd())

	return rootCmd
}

func controlName(args []string) string {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	return config.DefaultControlFile
}

func runFrameCmd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := controlName(args)
	printLine(out, startBanner)

	settings, err := config.LoadSettings(config.DefaultSettingsPath())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	log, closeLog, err := logger.Open(settings.LogLevel, settings.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}()
	log = log.With("run", uuid.NewString())

	res := config.LoadControl(name, model.DefaultConfiguration(), log)
	if !res.Valid {
		printLine(out, unreadableControl)
		return fmt.Errorf("failed to read control file: %w", res.Err)
	}

	backend := display.ResolveBackend(settings.DisplayBackend, settings.DisplayDevice)
	open := func() (display.Surface, error) {
		return display.Open(display.Options{
			Backend: backend,
			Device:  settings.DisplayDevice,
			Scaler:  settings.Scaler,
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSlideshow(ctx, open, slideshow{
		settings: settings,
		config:   res.Config,
		control:  name,
		log:      log.With("backend", backend),
	})
}

// slideshow carries what runSlideshow needs besides the surface.
type slideshow struct {
	settings config.Settings
	config   model.Configuration
	control  string
	log      *logger.Logger
}

// runSlideshow opens the surface, runs the player and releases the surface
// on every exit path.
func runSlideshow(ctx context.Context, open func() (display.Surface, error), s slideshow) error {
	log := s.log
	surface, err := open()
	if err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}
	defer func() {
		if cerr := surface.Close(); cerr != nil {
			logErrf("failed to close display: %v\n", cerr)
		}
	}()
	log.Infow("display opened")

	var surfacePower power.Controller
	if c, ok := surface.(power.Controller); ok {
		surfacePower = c
	}
	pc := power.Resolve(s.settings.PowerMode, surfacePower, log)

	sched := schedule.New(schedule.Options{
		Config: s.config,
		Reload: func(prev model.Configuration) config.Result {
			return config.LoadControl(config.ControlPath(prev.RootPath, s.control), prev, log)
		},
		Power:  pc,
		Logger: log,
	})

	p := player.New(player.Options{
		Surface:   surface,
		Scheduler: sched,
		Power:     pc,
		Scaler:    fit.Scaler(s.settings.Scaler),
		Logger:    log,
	})
	if err := p.Run(ctx); err != nil {
		log.Errorw("slideshow stopped", "error", err)
		return fmt.Errorf("slideshow failed: %w", err)
	}
	log.Infow("slideshow stopped")
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open appliance settings file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultSettingsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultSettingsTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [root]",
		Short: "List the images the slideshow would show",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScanCmd,
	}
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	var root string
	if len(args) == 1 {
		root = args[0]
	} else {
		res := config.LoadControl(config.DefaultControlFile, model.DefaultConfiguration(), logger.Nop())
		if !res.Valid {
			logErrf("using default photo root: %v\n", res.Err)
		}
		root = res.Config.RootPath
	}

	paths, err := catalog.Scan(root)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}
	out := cmd.OutOrStdout()
	for _, p := range paths {
		printLine(out, p)
	}
	printLine(out, scanSummary(root, paths))
	return nil
}

func scanSummary(root string, paths []string) string {
	var jpg, png int
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".png") {
			png++
		} else {
			jpg++
		}
	}
	return fmt.Sprintf("%s under %s (%d jpg, %d png)",
		countStyle.Render(fmt.Sprintf("%d images", len(paths))),
		rootStyle.Render(root),
		jpg, png)
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [control-file]",
		Short: "Write a control file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInitCmd,
	}
	cmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing control file")
	return cmd
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	path := controlName(args)
	if err := config.WriteControlTemplate(path, model.DefaultConfiguration(), initForce); err != nil {
		if errors.Is(err, config.ErrControlExists) {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		return err
	}
	printLine(cmd.OutOrStdout(), "Wrote "+path)
	return nil
}

func printLine(w io.Writer, s string) {
	if _, err := fmt.Fprintln(w, s); err != nil {
		// Best-effort console output.
		_ = err
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

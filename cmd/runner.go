package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/library"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
	"github.com/imanmossavat/litstage/internal/staging"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	client    *api.Client
	registry  *session.Registry
	libraries *library.Service
	logger    *log.Logger
	output    io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config
	Client    *api.Client
	Registry  *session.Registry
	Libraries *library.Service
	Logger    *log.Logger
	Output    io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:    opts.Config,
		client:    opts.Client,
		registry:  opts.Registry,
		libraries: opts.Libraries,
		logger:    opts.Logger,
		output:    opts.Output,
	}
}

// SetLogger replaces the runner's logger, used when the TUI redirects logs to
// a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, sessionCommand, importCommand, stageCommand, matchCommand,
		libraryCommand, settingsCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireSession returns the tracked workflow session or a guided error.
func (r *Runner) requireSession() (*session.Session, error) {
	s := r.registry.Get()
	if s == nil {
		return nil, fmt.Errorf("%w: start one with 'litstage session start'", shared.ErrNoSession)
	}
	return s, nil
}

// engineForSession builds a one-shot staging engine bound to the tracked
// session.
func (r *Runner) engineForSession() (*staging.Engine, error) {
	s, err := r.requireSession()
	if err != nil {
		return nil, err
	}
	return staging.NewEngine(r.client, s.ID, r.logger), nil
}

// parseFieldArgs turns k=v pairs into a partial-update field map. An empty
// value unsets the field.
func parseFieldArgs(pairs []string) (map[string]*string, error) {
	fields := make(map[string]*string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected field=value, got %q", shared.ErrInvalidArgument, pair)
		}
		if v == "" {
			fields[k] = nil
			continue
		}
		value := v
		fields[k] = &value
	}
	return fields, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

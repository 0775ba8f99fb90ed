package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/streamlyhq/streamly/internal/gateway"
	"github.com/streamlyhq/streamly/internal/session"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
	"github.com/streamlyhq/streamly/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	gateway  *gateway.Gateway
	auth     *streamly.AuthClient
	videos   *streamly.VideoClient
	admin    *streamly.AdminClient
	requests *streamly.UploaderRequestClient
	session  *session.Manager
	engine   *tasks.VideoEngine
	db       *sql.DB
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Gateway  *gateway.Gateway
	Auth     *streamly.AuthClient
	Videos   *streamly.VideoClient
	Admin    *streamly.AdminClient
	Requests *streamly.UploaderRequestClient
	Session  *session.Manager
	Engine   *tasks.VideoEngine
	DB       *sql.DB
	Logger   *log.Logger
	Output   io.Writer
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
		config:   opts.Config,
		gateway:  opts.Gateway,
		auth:     opts.Auth,
		videos:   opts.Videos,
		admin:    opts.Admin,
		requests: opts.Requests,
		session:  opts.Session,
		engine:   opts.Engine,
		db:       opts.DB,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

// SetLogger swaps the Runner's logger, e.g. to redirect logs away from the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, videosCommand, adminCommand, accountCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

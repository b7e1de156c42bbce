// Package shell provides the interactive REPL for noesis.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/branch"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/help"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/pkg/store"
)

// ErrQuit is returned by Execute when the user asks to leave.
var ErrQuit = errors.New("quit")

// Config holds shell configuration.
type Config struct {
	HistoryFile string
	UseColor    bool

	// ExportDir is used by /export when no directory is given.
	ExportDir string
}

// Shell is the interactive command-line interface over one session.
type Shell struct {
	sess   *session.Session
	store  store.Store
	cfg    Config
	out    io.Writer
	errs   *nerrors.Formatter
	help   *help.Renderer
	logger *zap.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithStore enables /save.
func WithStore(st store.Store) Option {
	return func(s *Shell) { s.store = st }
}

// WithOutput redirects command output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) { s.out = w }
}

// WithLogger sets the shell logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a shell over sess.
func New(sess *session.Session, cfg Config, opts ...Option) *Shell {
	s := &Shell{
		sess:   sess,
		cfg:    cfg,
		out:    os.Stdout,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errs = &nerrors.Formatter{UseColor: cfg.UseColor, Writer: s.out, Indent: "  "}
	s.help = help.NewRenderer(s.out)
	return s
}

// Run starts the interactive loop. It returns nil on /quit or EOF.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewShellCompleter(s.branchNames),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	s.println("Type a message to record a turn on the active branch.")
	s.println("Commands: /status, /branch, /switch, /merge, /travel, /checkpoint, /timeline, /help, /quit")
	s.println("")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			s.logger.Debug("command failed", zap.String("line", line), zap.Error(err))
			s.errs.Display(nerrors.FromCore(err))
		}
	}
}

// Execute runs one line of input. Lines starting with / are commands;
// anything else is recorded as a user turn.
func (s *Shell) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "/") {
		return s.handleCommand(ctx, line)
	}
	return s.handleMessage(line)
}

func (s *Shell) handleMessage(line string) error {
	auto, err := s.sess.RecordTurn(branch.NewMessage(branch.RoleUser, line), nil)
	if err != nil {
		return err
	}
	if auto != nil {
		s.printf("%s checkpoint %s recorded (%s)\n",
			s.paint(color.FgGreen)("✓"), auto.Checkpoint.Name, auto.Checkpoint.Fingerprint)
	}
	return nil
}

func (s *Shell) handleCommand(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	name := parts[0]
	args := parts[1:]

	if name == "/exit" {
		return ErrQuit
	}
	cmd, ok := help.GetCommand(name)
	if !ok {
		return nerrors.Newf(nerrors.ErrCommandUnknown, nerrors.CategoryCommand, "unknown command %s", name).
			WithSuggestion("Use /help to see all commands")
	}

	switch cmd.Name {
	case "/quit":
		return ErrQuit
	case "/help":
		if len(args) > 0 {
			s.help.RenderCommand(args[0])
		} else {
			s.help.RenderFull()
		}
		return nil

	case "/status":
		return s.cmdStatus()
	case "/stance":
		return s.cmdStance()
	case "/set":
		return s.cmdSet(args)
	case "/frame":
		return s.cmdFrame(args)
	case "/history":
		return s.cmdHistory(args)
	case "/diff":
		return s.cmdDiff()

	case "/branch":
		return s.cmdBranch(args)
	case "/branches":
		return s.cmdBranches()
	case "/switch":
		return s.cmdSwitch(args)
	case "/compare":
		return s.cmdCompare(args)
	case "/merge":
		return s.cmdMerge(args)
	case "/archive":
		return s.cmdArchive(args)
	case "/unarchive":
		return s.cmdUnarchive(args)
	case "/delete":
		return s.cmdDelete(args)
	case "/tree":
		return s.cmdTree()

	case "/travel":
		return s.cmdTravel(args)
	case "/rewind":
		return s.cmdRewind(args)
	case "/forget":
		return s.cmdForget(args)

	case "/checkpoint":
		return s.cmdCheckpoint(args)
	case "/timeline":
		return s.cmdTimeline()
	case "/rollback":
		return s.cmdRollback(args)
	case "/fingerprint":
		return s.cmdFingerprint()
	case "/values":
		return s.cmdValues()
	case "/value":
		return s.cmdValue(args)
	case "/decay":
		return s.cmdDecay(args)

	case "/save":
		return s.cmdSave(ctx)
	case "/export":
		return s.cmdExport(args)
	}

	return nerrors.Newf(nerrors.ErrCommandUnknown, nerrors.CategoryCommand, "command %s is not available", cmd.Name)
}

func (s *Shell) prompt() string {
	name := "?"
	if active := s.sess.Branches.Active(); active != nil {
		name = active.Name
	}
	return s.paint(color.FgGreen)("noesis") + s.paint(color.FgHiBlack)("("+name+")") + s.paint(color.FgGreen)(">") + " "
}

func (s *Shell) branchNames() []string {
	list := s.sess.Branches.List(true)
	names := make([]string, 0, len(list))
	for _, b := range list {
		names = append(names, b.Name)
	}
	return names
}

func (s *Shell) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if s.cfg.UseColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

// usageError reports missing arguments with the command's usage line.
func usageError(name string) error {
	cmd, _ := help.GetCommand(name)
	return nerrors.Newf(nerrors.ErrCommandMissingArgs, nerrors.CategoryCommand, "missing arguments for %s", cmd.Name).
		WithContext("usage", cmd.Usage).
		WithSuggestion("Use /help " + strings.TrimPrefix(cmd.Name, "/") + " for examples")
}

func invalidArg(arg, reason string) *nerrors.NoesisError {
	return nerrors.Newf(nerrors.ErrCommandInvalidArg, nerrors.CategoryCommand, "invalid argument %q", arg).
		WithContext("reason", reason)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

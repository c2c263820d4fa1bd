package shell

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/petriborg/follow/pkg/core"
	"github.com/petriborg/follow/pkg/providers/stream"
)

// DefaultKillTimeout is how long a child gets after SIGTERM before SIGKILL.
const DefaultKillTimeout = 5 * time.Second

// sshExitConnection is the exit status ssh uses for its own failures.
const sshExitConnection = 255

// Provider runs sources as child processes: remote files over ssh and
// arbitrary commands through sh.
type Provider struct {
	logger      *slog.Logger
	killTimeout time.Duration
}

// New creates a shell provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{logger: logger, killTimeout: DefaultKillTimeout}
}

// WithKillTimeout overrides the SIGTERM grace period.
func (p *Provider) WithKillTimeout(d time.Duration) *Provider {
	p.killTimeout = d
	return p
}

// Command returns the argv used to read src.
func Command(src core.Source) ([]string, error) {
	switch src.Kind {
	case core.KindFile:
		path := src.Path()
		return wrap(path, []string{"cat", path.File}), nil
	case core.KindFollow:
		path := src.Path()
		return wrap(path, []string{"tail", "-n", strconv.Itoa(src.TailLines()), "-F", path.File}), nil
	case core.KindCommand:
		if strings.TrimSpace(src.Target) == "" {
			return nil, fmt.Errorf("empty command")
		}
		return []string{"sh", "-c", src.Target}, nil
	}
	return nil, fmt.Errorf("unsupported source kind %q", src.Kind)
}

// SSH wraps argv to run on host as user.
func SSH(user, host string, argv []string) []string {
	args := []string{"ssh"}
	if user != "" {
		args = append(args, "-l", user)
	}
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = Quote(a)
	}
	return append(args, host, strings.Join(quoted, " "))
}

func wrap(path core.Path, argv []string) []string {
	if !path.Remote() {
		return argv
	}
	return SSH(path.User, path.Host, argv)
}

// Quote single-quotes s for a POSIX shell.
func Quote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' || r == ':' || r == '=' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Open implements core.Opener.
func (p *Provider) Open(ctx context.Context, src core.Source) (core.Stream, error) {
	argv, err := Command(src)
	if err != nil {
		return nil, core.OpenError(src, err)
	}
	return p.Start(ctx, src, argv)
}

// Start runs argv in its own process group and streams its combined
// stdout and stderr. Closing the stream terminates the group.
func (p *Provider) Start(ctx context.Context, src core.Source, argv []string) (core.Stream, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Merge stdout and stderr into one pipe
	r, w, err := os.Pipe()
	if err != nil {
		return nil, core.OpenError(src, fmt.Errorf("pipe: %w", err))
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", core.ErrNotFound, err)
		}
		return nil, core.OpenError(src, fmt.Errorf("start %s: %w", argv[0], err))
	}
	w.Close()

	p.logger.Debug("process started", "source", src.ID(), "pid", cmd.Process.Pid, "argv", argv)

	exited := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(exited)
	}()

	s := stream.New(0, func() error {
		p.terminate(cmd, exited)
		return nil
	})
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })

	go func() {
		defer stop()
		perr := stream.Pump(r, s)
		r.Close()
		<-exited

		select {
		case <-s.Done():
			s.Finish(nil)
			return
		default:
		}
		if perr != nil {
			s.Finish(perr)
			return
		}
		s.Finish(exitError(argv, waitErr))
	}()

	return s, nil
}

func exitError(argv []string, err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	if argv[0] == "ssh" && exitErr.ExitCode() == sshExitConnection {
		return fmt.Errorf("ssh %s: %w", argv[len(argv)-2], core.ErrConnectionFailed)
	}
	return fmt.Errorf("%s exited: %w", argv[0], err)
}

func (p *Provider) terminate(cmd *exec.Cmd, exited <-chan struct{}) {
	select {
	case <-exited:
		return
	default:
	}

	// Send SIGTERM to process group
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)

	select {
	case <-exited:
	case <-time.After(p.killTimeout):
		p.logger.Warn("process ignored SIGTERM, killing", "pid", cmd.Process.Pid)
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-exited
	}
}

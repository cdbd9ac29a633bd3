// Package phpexec is the process-execution collaborator of the notebook
// engine: it runs fragment code through an external PHP interpreter, either
// standalone or inside a Laravel project via artisan tinker. The engine
// itself never executes code; everything in here sits behind the Runner
// interface so tests can substitute a fake.
package phpexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single execution when the command does not set
// its own.
const DefaultTimeout = 30 * time.Second

// Command is one execution request.
type Command struct {
	// Code is the fragment source after reference substitution, without a
	// leading <?php tag.
	Code string

	// ProjectPath is the Laravel project root for framework-aware runs.
	// Ignored by the plain PHP runner.
	ProjectPath string

	// Timeout bounds the run; zero means DefaultTimeout.
	Timeout time.Duration

	// RequestID correlates log lines for one run. Assigned automatically
	// when empty.
	RequestID string
}

// Result is the raw outcome of one execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes fragment code. Implementations must honor context
// cancellation and must return a Result even for non-zero exits; a non-nil
// error is reserved for failures to launch at all.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// PHPRunner executes plain fragments with `php <tempfile>`.
type PHPRunner struct {
	Binary string
	log    *zap.Logger
}

// NewPHPRunner creates a runner invoking binary ("php" when empty).
func NewPHPRunner(binary string, log *zap.Logger) *PHPRunner {
	if binary == "" {
		binary = "php"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PHPRunner{Binary: binary, log: log}
}

func (r *PHPRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	file, err := writeTempScript(cmd.Code)
	if err != nil {
		return nil, err
	}
	defer os.Remove(file)
	return execute(ctx, r.log, cmd, r.Binary, file)
}

// TinkerRunner executes framework-aware fragments through
// `php artisan tinker --execute=<code>` inside a Laravel project.
type TinkerRunner struct {
	Binary string
	log    *zap.Logger
}

// NewTinkerRunner creates a tinker runner invoking binary ("php" when
// empty).
func NewTinkerRunner(binary string, log *zap.Logger) *TinkerRunner {
	if binary == "" {
		binary = "php"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TinkerRunner{Binary: binary, log: log}
}

func (r *TinkerRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.ProjectPath == "" {
		return nil, errors.New("tinker run requires a project path")
	}
	artisan := filepath.Join(cmd.ProjectPath, "artisan")
	if _, err := os.Stat(artisan); err != nil {
		return nil, fmt.Errorf("artisan not found in %s: %w", cmd.ProjectPath, err)
	}
	return execute(ctx, r.log, cmd, r.Binary, "artisan", "tinker", "--execute="+cmd.Code)
}

// LocateProject walks upward from start looking for the nearest directory
// containing an artisan script. Returns ok=false when no project encloses
// start; that is not an error, just the absence of a framework project.
func LocateProject(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "artisan")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// execute runs one interpreter invocation and normalizes the outcome into
// a Result. Non-zero exits are results, not errors.
func execute(ctx context.Context, log *zap.Logger, cmd Command, binary string, args ...string) (*Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestID := cmd.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c := exec.CommandContext(ctx, binary, args...)
	if cmd.ProjectPath != "" {
		c.Dir = cmd.ProjectPath
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	log.Debug("executing fragment",
		zap.String("request_id", requestID),
		zap.String("binary", binary),
		zap.Duration("timeout", timeout))

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		case ctx.Err() != nil:
			result.ExitCode = -1
			result.Stderr = strings.TrimSpace(result.Stderr + "\nexecution timed out or was canceled: " + ctx.Err().Error())
		default:
			return nil, fmt.Errorf("launch %s: %w", binary, err)
		}
	}

	log.Debug("execution finished",
		zap.String("request_id", requestID),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", duration))
	return result, nil
}

// writeTempScript materializes fragment code as a runnable PHP file.
func writeTempScript(code string) (string, error) {
	f, err := os.CreateTemp("", "tinkerpad-*.php")
	if err != nil {
		return "", fmt.Errorf("create temp script: %w", err)
	}
	source := code
	if !strings.HasPrefix(strings.TrimSpace(source), "<?php") {
		source = "<?php\n" + source
	}
	if _, err := f.WriteString(source); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp script: %w", err)
	}
	return f.Name(), nil
}

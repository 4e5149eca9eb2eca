package canon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnparseable marks a structure string that could not be canonicalized.
var ErrUnparseable = errors.New("unparseable structure")

// Canonicalizer converts a raw structure string to its canonical form.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, raw string) (string, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) (stdout []byte, stderr []byte, err error)
}

// Option configures a Command canonicalizer.
type Option func(*Command)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Command) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Command canonicalizes structures with an external tool. Args must contain
// the placeholder, which is replaced by the raw structure on each call.
type Command struct {
	binary      string
	args        []string
	placeholder string
	timeout     time.Duration
	exec        Executor
}

var _ Canonicalizer = (*Command)(nil)

// NewCommand constructs a command-backed canonicalizer.
func NewCommand(binary string, args []string, placeholder string, timeout time.Duration, opts ...Option) (*Command, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("canonicalizer binary required")
	}
	if placeholder == "" {
		return nil, errors.New("canonicalizer placeholder required")
	}
	found := false
	for _, arg := range args {
		if strings.Contains(arg, placeholder) {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("canonicalizer args must contain %s", placeholder)
	}
	c := &Command{
		binary:      binary,
		args:        append([]string(nil), args...),
		placeholder: placeholder,
		timeout:     timeout,
		exec:        commandExecutor{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Canonicalize runs the configured tool and returns the first token it
// prints. Empty output counts as a parse failure.
func (c *Command) Canonicalize(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty structure", ErrUnparseable)
	}
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := make([]string, len(c.args))
	for i, arg := range c.args {
		args[i] = strings.ReplaceAll(arg, c.placeholder, raw)
	}

	stdout, stderr, err := c.exec.Output(runCtx, c.binary, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		detail := strings.TrimSpace(string(stderr))
		if detail != "" {
			return "", fmt.Errorf("%w: %s: %v (%s)", ErrUnparseable, c.binary, err, detail)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrUnparseable, c.binary, err)
	}
	fields := strings.Fields(string(stdout))
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: %s produced no output for %q", ErrUnparseable, c.binary, raw)
	}
	return fields[0], nil
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

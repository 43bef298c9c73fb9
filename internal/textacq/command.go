package textacq

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *zap.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.logger.Debug("exec failed",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.Error(err))
	} else {
		r.logger.Debug("exec ok",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.Int("stdout_bytes", out.Len()))
	}

	return out.Bytes(), errb.Bytes(), err
}

// CommandBackend shells out to a pdftotext-compatible binary. It is the last
// resort of the cascade and only assembled when a binary path is configured.
type CommandBackend struct {
	binary string
	runner Runner
	logger *zap.Logger
}

// NewCommandBackend creates the external command backend. A nil runner uses
// the real exec-based one.
func NewCommandBackend(binary string, runner Runner, logger *zap.Logger) *CommandBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &CommandBackend{binary: binary, runner: runner, logger: logger}
}

// Type returns the backend identifier.
func (b *CommandBackend) Type() BackendType {
	return BackendCommand
}

// ExtractText writes the bytes to a temp file and runs
// `pdftotext -layout -enc UTF-8 -eol unix -l <maxPages> <file> -`.
func (b *CommandBackend) ExtractText(ctx context.Context, raw []byte, maxPages int) (string, error) {
	tmp, err := os.CreateTemp("", "planilla-*.pdf")
	if err != nil {
		return "", &BackendError{Backend: BackendCommand, Op: "tempfile", Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return "", &BackendError{Backend: BackendCommand, Op: "tempfile", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &BackendError{Backend: BackendCommand, Op: "tempfile", Err: err}
	}

	out, errb, err := b.runner.Run(ctx, b.binary,
		"-layout", "-enc", "UTF-8", "-eol", "unix",
		"-l", fmt.Sprintf("%d", maxPages),
		tmp.Name(), "-")
	if err != nil {
		return "", &BackendError{
			Backend: BackendCommand,
			Op:      "run",
			Err:     fmt.Errorf("%w: %s", err, truncate(string(errb), 1024)),
		}
	}

	// pdftotext separates pages with form feeds; normalize to the newline
	// separation the rest of the pipeline expects.
	return strings.ReplaceAll(string(out), "\f", "\n"), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

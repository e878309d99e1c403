package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("glslls.compiler")

// Compiler turns shader source into a free-text diagnostic log. Each call
// is stateless from the session's point of view.
type Compiler interface {
	Compile(ctx context.Context, stage Stage, source string) (string, error)
}

// Options configures the glslang invocation.
type Options struct {
	Path    string        `yaml:"path" json:"path"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultOptions are used when no configuration overrides them.
func DefaultOptions() Options {
	return Options{Path: "glslangValidator", Timeout: 15 * time.Second}
}

// Glslang runs the glslang reference front end as a subprocess. The log is
// captured into per-call buffers rather than a shared process stream, so
// concurrent invocations cannot race on output state.
type Glslang struct {
	options Options
}

// NewGlslang returns a glslang-backed compiler.
func NewGlslang(options Options) *Glslang {
	if options.Path == "" {
		options.Path = DefaultOptions().Path
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultOptions().Timeout
	}
	return &Glslang{options: options}
}

// Configure replaces the invocation options, e.g. after the client sent
// initializationOptions.
func (g *Glslang) Configure(options Options) {
	if options.Path != "" {
		g.options.Path = options.Path
	}
	if options.Timeout > 0 {
		g.options.Timeout = options.Timeout
	}
}

// Compile feeds source to glslang on stdin and returns its diagnostic log.
// A shader full of errors is not a Go error: glslang exits non-zero for
// those and the log is still the product. Only a missing binary, a killed
// process or a timeout surface as errors.
func (g *Glslang) Compile(ctx context.Context, stage Stage, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.options.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.options.Path, "--stdin", "-C", "-S", stage.String())
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return "", fmt.Errorf("glslang timed out after %s: %w", g.options.Timeout, ctx.Err())
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", fmt.Errorf("run %s: %w", g.options.Path, runErr)
		}
		log.Debugf("glslang exited with %d (diagnostics expected)", exitErr.ExitCode())
	}
	return stdout.String(), nil
}

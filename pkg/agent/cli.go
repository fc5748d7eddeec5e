package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// cliRunner executes one provider CLI subprocess per invocation. It is
// embedded by the concrete CLI invokers, which only differ in how they
// build their argument lists.
type cliRunner struct {
	provider string
	command  string
	timeout  time.Duration
	env      []string // nil inherits the parent environment
	logger   zerolog.Logger
}

// run spawns the provider binary with args and waits for completion.
// The binary is resolved via PATH lookup first so a missing install is
// reported as ErrUnavailable rather than a runtime failure.
func (r *cliRunner) run(ctx context.Context, args []string) (string, time.Duration, error) {
	path, err := exec.LookPath(r.command)
	if err != nil {
		return "", 0, unavailableError(r.provider,
			fmt.Sprintf("%s CLI not found in PATH", r.command), err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	if r.env != nil {
		cmd.Env = r.env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().
		Str("provider", r.provider).
		Str("command", r.command).
		Dur("timeout", r.timeout).
		Msg("invoking agent CLI")

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", elapsed, timeoutError(r.provider, r.timeout)
		}

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			message := strings.TrimSpace(stderr.String())
			if message == "" {
				message = fmt.Sprintf("exited with code %d", exitErr.ExitCode())
			} else {
				message = fmt.Sprintf("exited with code %d: %s", exitErr.ExitCode(), message)
			}
			return "", elapsed, runtimeError(r.provider, message, runErr)
		}

		return "", elapsed, runtimeError(r.provider, runErr.Error(), runErr)
	}

	return stdout.String(), elapsed, nil
}

// combinePrompt folds an optional system prompt into the user prompt
// for CLIs that only accept a single prompt argument.
func combinePrompt(systemPrompt, prompt string) string {
	if strings.TrimSpace(systemPrompt) == "" {
		return prompt
	}
	return fmt.Sprintf("[System Instructions]\n%s\n\n[User Request]\n%s", systemPrompt, prompt)
}

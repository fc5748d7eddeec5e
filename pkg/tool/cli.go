// Package tool wraps the external CLI under evaluation. The agents
// never talk to the tool directly; they receive its help output as
// prompt context, and in exploration mode they are told to run it
// themselves.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"focusgroup/internal/config"
)

// DefaultTimeout bounds individual tool commands. Help output should
// never take this long; a tool that does is hung.
const DefaultTimeout = 30 * time.Second

// CommandResult holds the output of one tool invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Command  string
	Duration time.Duration
}

// Success reports whether the command exited cleanly.
func (r CommandResult) Success() bool { return r.ExitCode == 0 }

// Help is the structured documentation pulled from the tool: the
// usage line, the leading description, and the parsed help sections,
// plus the raw output they came from.
type Help struct {
	ToolName    string
	Description string
	Usage       string
	Version     string
	Sections    []HelpSection
	RawOutput   string
}

// ContextString renders help as prompt context: a structured view of
// the parsed sections that agents can reference when giving feedback.
// With exploration enabled it also instructs agents to run the tool
// themselves.
func (h Help) ContextString(exploration bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", h.ToolName)
	if h.Version != "" {
		fmt.Fprintf(&b, "\nVersion: %s\n", h.Version)
	}
	if h.Description != "" {
		fmt.Fprintf(&b, "\n## Description\n%s\n", h.Description)
	}
	if h.Usage != "" {
		fmt.Fprintf(&b, "\n## Usage\n```\n%s\n```\n", h.Usage)
	}
	for _, sec := range h.Sections {
		fmt.Fprintf(&b, "\n## %s\n", sec.Name)
		switch {
		case len(sec.Items) > 0:
			for _, item := range sec.Items {
				fmt.Fprintf(&b, "- `%s`: %s\n", item.Name, item.Description)
			}
		case sec.Content != "":
			b.WriteString(sec.Content + "\n")
		}
	}
	if len(h.Sections) == 0 && h.RawOutput != "" {
		// Nothing parsed; fall back to the raw text.
		fmt.Fprintf(&b, "\n## Help Output\n```\n%s\n```\n", strings.TrimSpace(h.RawOutput))
	}
	if exploration {
		b.WriteString(explorationInstructions(h.ToolName))
	}
	return strings.TrimRight(b.String(), "\n")
}

func explorationInstructions(name string) string {
	return fmt.Sprintf(`
## Interactive Exploration

**IMPORTANT**: You can and should run %[1]q commands to explore this tool!

### How to Explore
1. Try running %[1]q with --help to see the full help
2. Run a few example commands to see actual output
3. Test edge cases and error handling
4. Explore subcommands that interest you

### What to Evaluate
- Does the output make sense? Is it parseable?
- Are error messages helpful?
- Does the tool behave as documented?
- What would make it easier for you as an AI agent to use?

Run commands now to form your opinion based on real usage, not just documentation.
`, name)
}

// CLITool executes the evaluated command and captures its output.
// Help is fetched once and cached for the session.
type CLITool struct {
	name       string
	command    string
	helpArgs   []string
	workingDir string
	timeout    time.Duration
	extraPath  []string
	logger     zerolog.Logger

	mu         sync.Mutex
	cachedHelp *Help
}

// New creates a tool wrapper from configuration.
func New(cfg config.ToolConfig, logger zerolog.Logger) *CLITool {
	helpArgs := cfg.HelpArgs
	if len(helpArgs) == 0 {
		helpArgs = []string{"--help"}
	}
	return &CLITool{
		name:       filepath.Base(cfg.Command),
		command:    cfg.Command,
		helpArgs:   helpArgs,
		workingDir: cfg.WorkingDir,
		timeout:    DefaultTimeout,
		extraPath:  cfg.PathAdditions,
		logger:     logger,
	}
}

// Name returns the tool's display name.
func (t *CLITool) Name() string { return t.name }

// Command returns the base command.
func (t *CLITool) Command() string { return t.command }

// Run executes the tool with the given arguments. A non-zero exit is
// not an error here; callers inspect the result.
func (t *CLITool) Run(ctx context.Context, args ...string) (*CommandResult, error) {
	if _, err := exec.LookPath(t.command); err != nil {
		return nil, fmt.Errorf("command %q not found in PATH", t.command)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.command, args...)
	cmd.Dir = t.workingDir
	if len(t.extraPath) > 0 {
		cmd.Env = append(os.Environ(),
			"PATH="+strings.Join(t.extraPath, string(os.PathListSeparator))+string(os.PathListSeparator)+os.Getenv("PATH"))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := &CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Command:  strings.Join(append([]string{t.command}, args...), " "),
		Duration: elapsed,
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("command timed out after %s: %s", t.timeout, result.Command)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to execute %s: %w", result.Command, err)
	}
	return result, nil
}

// GetHelp fetches and caches the tool's help documentation. Tools
// that print help on stderr are handled too.
func (t *CLITool) GetHelp(ctx context.Context) (*Help, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cachedHelp != nil {
		return t.cachedHelp, nil
	}

	result, err := t.Run(ctx, t.helpArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool help: %w", err)
	}

	raw := result.Stdout
	if raw == "" {
		raw = result.Stderr
	}

	help := parseHelp(t.name, raw)
	if version := t.probeVersion(ctx); version != "" {
		help.Version = version
	}

	t.cachedHelp = help
	t.logger.Debug().Str("tool", t.name).Int("help_bytes", len(raw)).Msg("tool help cached")
	return help, nil
}

// InvalidateCache clears cached help, forcing a refetch.
func (t *CLITool) InvalidateCache() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cachedHelp = nil
}

// probeVersion tries the common version flags in order.
func (t *CLITool) probeVersion(ctx context.Context) string {
	for _, args := range [][]string{{"--version"}, {"-v"}, {"-V"}, {"version"}} {
		result, err := t.Run(ctx, args...)
		if err != nil || !result.Success() || result.Stdout == "" {
			continue
		}

		line := strings.SplitN(strings.TrimSpace(result.Stdout), "\n", 2)[0]
		for _, prefix := range []string{t.name + " version ", t.name + " ", "v", "V"} {
			if strings.HasPrefix(strings.ToLower(line), strings.ToLower(prefix)) {
				line = line[len(prefix):]
				break
			}
		}
		return strings.TrimSpace(line)
	}
	return ""
}

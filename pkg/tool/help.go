package tool

import (
	"regexp"
	"strings"
)

// Section header forms commonly seen in CLI help output. The named
// patterns match case-insensitively; the last one catches ALL-CAPS
// headers like "ENVIRONMENT".
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(Commands?|Subcommands?):?\s*$`),
	regexp.MustCompile(`(?i)^(Options?|Flags?):?\s*$`),
	regexp.MustCompile(`(?i)^(Arguments?|Args?|Positional Arguments?):?\s*$`),
	regexp.MustCompile(`(?i)^(Description):?\s*$`),
	regexp.MustCompile(`(?i)^(Examples?):?\s*$`),
	regexp.MustCompile(`(?i)^(Environment Variables?|Env):?\s*$`),
	regexp.MustCompile(`(?i)^(Configuration|Config):?\s*$`),
	regexp.MustCompile(`(?i)^(Notes?):?\s*$`),
	regexp.MustCompile(`(?i)^(See Also):?\s*$`),
	regexp.MustCompile(`^([A-Z][A-Z\s]+):?\s*$`),
}

var (
	usagePattern = regexp.MustCompile(`(?i)^\s*usage:\s*(.*)$`)

	// "-o, --opt <val>  Description" style option lines.
	optionPattern = regexp.MustCompile(`^(-[\w-]+(?:\s*,\s*-[\w-]+)*(?:\s+<?\w+>?)?)\s{2,}(.+)$`)
	// "command  Description" style command/argument lines.
	commandPattern = regexp.MustCompile(`^([\w-]+)\s{2,}(.+)$`)
)

// HelpItem is one named entry within a help section: a command, an
// option, or an argument, paired with its description.
type HelpItem struct {
	Name        string
	Description string
}

// HelpSection is one named block of help output (Commands, Options,
// ...). Items holds the entries that parsed cleanly; Content keeps the
// raw block for sections that don't list items.
type HelpSection struct {
	Name    string
	Content string
	Items   []HelpItem
}

// parseHelp breaks raw help text into the structured form agents get
// as context: usage line, leading description, and named sections.
func parseHelp(toolName, raw string) *Help {
	lines := strings.Split(raw, "\n")
	usage, usageEnd := extractUsage(lines)

	return &Help{
		ToolName:    toolName,
		Usage:       usage,
		Description: extractDescription(lines, usageEnd),
		Sections:    parseSections(lines),
		RawOutput:   raw,
	}
}

// sectionHeader reports whether a line opens a new help section, and
// with what name.
func sectionHeader(line string) (string, bool) {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return "", false
	}
	for _, re := range sectionPatterns {
		if m := re.FindStringSubmatch(stripped); m != nil {
			return strings.TrimRight(strings.TrimSpace(m[1]), ":"), true
		}
	}
	return "", false
}

// extractUsage finds the usage line, folding in indented continuation
// lines. It returns the usage string and the index of the first line
// after it.
func extractUsage(lines []string) (string, int) {
	for i, line := range lines {
		m := usagePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		parts := []string{strings.TrimSpace(m[1])}
		j := i + 1
		for j < len(lines) {
			next := lines[j]
			if strings.TrimSpace(next) == "" {
				break
			}
			if len(next)-len(strings.TrimLeft(next, " \t")) == 0 {
				break
			}
			parts = append(parts, strings.TrimSpace(next))
			j++
		}
		return strings.Join(parts, " "), j
	}
	return "", 0
}

// extractDescription collects the free text between the usage line and
// the first section header. A blank line after content ends it.
func extractDescription(lines []string, usageEnd int) string {
	var desc []string
	for _, line := range lines[usageEnd:] {
		if _, ok := sectionHeader(line); ok {
			break
		}
		stripped := strings.TrimSpace(line)
		if stripped != "" {
			desc = append(desc, stripped)
		} else if len(desc) > 0 {
			break
		}
	}
	return strings.Join(desc, " ")
}

// parseItemLine tries to read a line as "item  description". Lines
// starting with a capitalized word are treated as prose, not commands.
func parseItemLine(line string) (HelpItem, bool) {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return HelpItem{}, false
	}

	if m := optionPattern.FindStringSubmatch(stripped); m != nil {
		return HelpItem{Name: strings.TrimSpace(m[1]), Description: strings.TrimSpace(m[2])}, true
	}

	if m := commandPattern.FindStringSubmatch(stripped); m != nil {
		if c := m[1][0]; c >= 'A' && c <= 'Z' {
			return HelpItem{}, false
		}
		return HelpItem{Name: m[1], Description: strings.TrimSpace(m[2])}, true
	}

	return HelpItem{}, false
}

// parseSections splits help output at section headers and parses each
// block's item lines.
func parseSections(lines []string) []HelpSection {
	var sections []HelpSection
	var current *HelpSection
	var content []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(content, "\n"))
		sections = append(sections, *current)
	}

	for _, line := range lines {
		if name, ok := sectionHeader(line); ok {
			flush()
			current = &HelpSection{Name: name}
			content = nil
			continue
		}
		if current == nil {
			continue
		}
		content = append(content, line)
		if item, ok := parseItemLine(line); ok {
			current.Items = append(current.Items, item)
		}
	}
	flush()

	return sections
}

// Subcommands lists the command names parsed out of help output.
func (h Help) Subcommands() []string {
	return h.sectionItems("command")
}

// Options lists the option strings parsed out of help output, e.g.
// "-v, --verbose".
func (h Help) Options() []string {
	return h.sectionItems("option", "flag")
}

func (h Help) sectionItems(nameFragments ...string) []string {
	var names []string
	for _, sec := range h.Sections {
		lower := strings.ToLower(sec.Name)
		matched := false
		for _, frag := range nameFragments {
			if strings.Contains(lower, frag) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, item := range sec.Items {
			names = append(names, item.Name)
		}
	}
	return names
}

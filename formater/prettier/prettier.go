// Package prettier pipes generated files through an external formatter.
package prettier

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// FilePlaceholder is replaced by the file name in command arguments.
const FilePlaceholder = "{file}"

// DefaultCommand runs the locally installed prettier.
var DefaultCommand = []string{"npx", "--no-install", "prettier", "--stdin-filepath", FilePlaceholder}

// Formatter formats sources through Command, reading stdin and writing stdout.
type Formatter struct {
	Command []string
}

// New returns a Formatter running command, or DefaultCommand when empty.
func New(command ...string) *Formatter {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Formatter{Command: command}
}

// FormatSource returns the formatted source of the file name.
func (f *Formatter) FormatSource(ctx context.Context, name, source string) (string, error) {
	args := make([]string, 0, len(f.Command)-1)
	for _, arg := range f.Command[1:] {
		args = append(args, strings.ReplaceAll(arg, FilePlaceholder, name))
	}

	cmd := exec.CommandContext(ctx, f.Command[0], args...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run %s: %w: %s", f.Command[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Format formats every file. A file that cannot be formatted keeps its
// content and the failure is logged.
func (f *Formatter) Format(ctx context.Context, files map[string]string) map[string]string {
	logger := zerolog.Ctx(ctx)
	formatted := make(map[string]string, len(files))
	for name, source := range files {
		out, err := f.FormatSource(ctx, name, source)
		if err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("failed to format file, keeping it as generated")
			formatted[name] = source
			continue
		}
		formatted[name] = out
	}
	return formatted
}

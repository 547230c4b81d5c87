package agent

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/seenimoa/flightdesk/pkg/models"
)

// cancelWords end a session at any prompt.
var cancelWords = map[string]bool{"cancel": true, "exit": true, "quit": true, "q": true}

// IsCancel reports whether input is a cancel sentinel.
func IsCancel(input string) bool {
	return cancelWords[strings.ToLower(strings.TrimSpace(input))]
}

// Console is the line-oriented terminal the session talks through.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole wraps a reader and writer, usually os.Stdin and os.Stdout.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Writer returns the output stream.
func (c *Console) Writer() io.Writer { return c.out }

// Printf writes formatted output.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Println writes a line.
func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// Ask shows prompt and returns the trimmed reply. Closed input counts as
// a cancellation, since nobody is left to answer.
func (c *Console) Ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: input closed", models.ErrUserCancelled)
		}
		return "", fmt.Errorf("agent/console: read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// AskOrCancel is Ask that also turns cancel words into ErrUserCancelled.
func (c *Console) AskOrCancel(prompt string) (string, error) {
	answer, err := c.Ask(prompt)
	if err != nil {
		return "", err
	}
	if IsCancel(answer) {
		return "", models.ErrUserCancelled
	}
	return answer, nil
}

// AskDefault is AskOrCancel with a default for empty replies.
func (c *Console) AskDefault(prompt, def string) (string, error) {
	answer, err := c.AskOrCancel(prompt)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

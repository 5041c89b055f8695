package permission

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Granter records a grant.
type Granter interface {
	Grant() error
}

// RequestFlow asks the user for usage access. It is the settings screen of
// rewind: it writes the grant when the user agrees and reports nothing
// about the outcome. Callers re-check their Gate afterwards.
type RequestFlow struct {
	In          io.Reader
	Out         io.Writer
	Interactive bool
	Granter     Granter
}

// Run shows the prompt, or instructions when the session is not interactive.
// Only I/O and write failures are returned.
func (f *RequestFlow) Run() error {
	if !f.Interactive {
		fmt.Fprintln(f.Out, "rewind needs access to your app usage history.")
		fmt.Fprintln(f.Out, "Run 'rewind grant' to allow it.")
		return nil
	}

	fmt.Fprint(f.Out, "Allow rewind to read app usage history? [y/N] ")

	line, err := bufio.NewReader(f.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return f.Granter.Grant()
	default:
		return nil
	}
}

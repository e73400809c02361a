package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// replaced in tests so nothing touches the real terminal
var readPassword = term.ReadPassword

// GetSimpleText writes "prompt: " to w and reads one line from reader with
// surrounding whitespace removed. A final line without a newline is accepted.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	fmt.Fprintf(w, "%s: ", prompt)

	line, err := reader.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	default:
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a secret from stdin with echo disabled. Callers wipe the
// returned slice once it has been sent.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprintf(w, "%s: ", prompt)
	defer fmt.Fprintln(w)

	return readPassword(int(os.Stdin.Fd()))
}

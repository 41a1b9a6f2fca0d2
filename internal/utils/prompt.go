package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptPassword writes prompt to stderr and reads a line from stdin without
// echo when stdin is a terminal.
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		bytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}
	return readLine(os.Stdin)
}

// PromptLine writes prompt to stderr and reads a visible line from stdin.
func PromptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	text, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// waitForKey blocks until a key is pressed and reports whether it asked to
// quit. On a terminal it reads one raw keypress; otherwise it reads a line.
func waitForKey(ctx context.Context) (quit bool, err error) {
	fd := int(os.Stdin.Fd())

	type result struct {
		key string
		err error
	}
	done := make(chan result, 1)

	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return false, fmt.Errorf("failed to set raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()

		go func() {
			buf := make([]byte, 1)
			_, err := os.Stdin.Read(buf)
			done <- result{string(buf), err}
		}()
	} else {
		go func() {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			done <- result{strings.TrimSpace(line), err}
		}()
	}

	select {
	case <-ctx.Done():
		return true, nil
	case r := <-done:
		if r.err != nil {
			// Closed stdin ends the session
			return true, nil
		}
		switch r.key {
		case "q", "Q", "\x03", "\x04": // Ctrl-C and Ctrl-D arrive as bytes in raw mode
			return true, nil
		}
		return false, nil
	}
}

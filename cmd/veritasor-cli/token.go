package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// tokenSource resolves the admin bearer token from the environment or by
// prompting once on the terminal.
type tokenSource struct {
	envVar string

	once  sync.Once
	value string
	err   error
}

func newTokenSource(envVar string) *tokenSource {
	return &tokenSource{envVar: strings.TrimSpace(envVar)}
}

func (s *tokenSource) Get() (string, error) {
	s.once.Do(func() {
		if value, ok := os.LookupEnv(s.envVar); ok {
			s.value = strings.TrimSpace(value)
			return
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			s.err = fmt.Errorf("admin token required; set %s or run interactively", s.envVar)
			return
		}
		fmt.Fprint(os.Stderr, "Enter admin bearer token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			s.err = fmt.Errorf("failed to read token: %w", err)
			return
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			s.err = errors.New("admin token cannot be empty")
			return
		}
		s.value = token
	})
	return s.value, s.err
}

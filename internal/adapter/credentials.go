package adapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mmcdole/checkmark/internal/domain"
	"golang.org/x/term"
)

// TokenVerifier checks that a pair of catalog tokens is accepted
type TokenVerifier func(ctx context.Context, tokens domain.Tokens) error

// LoginFlow prompts for catalog tokens on a terminal and verifies them
type LoginFlow struct {
	logger *slog.Logger
	in     *bufio.Reader
	out    io.Writer

	// readSecret reads a line without echo; swapped in tests
	readSecret func() (string, error)
}

// NewLoginFlow creates a login flow on stdin/stdout
func NewLoginFlow(logger *slog.Logger) *LoginFlow {
	if logger == nil {
		logger = slog.Default()
	}
	f := &LoginFlow{
		logger: logger,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	f.readSecret = f.readHidden
	return f
}

// Run prompts for both tokens, verifies them and returns them on success.
// An empty answer keeps the current value.
func (f *LoginFlow) Run(ctx context.Context, current domain.Tokens, verify TokenVerifier) (domain.Tokens, error) {
	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "Catalog Authentication")
	fmt.Fprintln(f.out, "━━━━━━━━━━━━━━━━━━━━━━")

	fmt.Fprint(f.out, "Developer token: ")
	developer, err := f.readSecret()
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to read developer token: %w", err)
	}

	fmt.Fprint(f.out, "Media user token: ")
	mediaUser, err := f.readSecret()
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("failed to read media user token: %w", err)
	}

	tokens := current
	if developer != "" {
		tokens.Developer = developer
	}
	if mediaUser != "" {
		tokens.MediaUser = mediaUser
	}
	if !tokens.Complete() {
		return domain.Tokens{}, domain.ErrNotAuthenticated
	}

	if verify != nil {
		fmt.Fprintln(f.out, "Verifying...")
		if err := verify(ctx, tokens); err != nil {
			f.logger.Warn("token verification failed", "error", err)
			return domain.Tokens{}, err
		}
	}

	fmt.Fprintln(f.out, "Authentication successful!")
	return tokens, nil
}

// readHidden reads without echo when stdin is a terminal, else reads a line
func (f *LoginFlow) readHidden() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(f.out) // newline after hidden input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return f.readLine()
}

func (f *LoginFlow) readLine() (string, error) {
	line, err := f.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

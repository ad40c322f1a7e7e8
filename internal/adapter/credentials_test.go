package adapter

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptedLogin(answers ...string) (*LoginFlow, *bytes.Buffer) {
	out := &bytes.Buffer{}
	f := &LoginFlow{logger: NullLogger(), out: out}
	f.readSecret = func() (string, error) {
		if len(answers) == 0 {
			return "", nil
		}
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}
	return f, out
}

func TestLoginFlow_Success(t *testing.T) {
	f, out := scriptedLogin("dev", "user")

	var verified domain.Tokens
	tokens, err := f.Run(context.Background(), domain.Tokens{}, func(_ context.Context, t domain.Tokens) error {
		verified = t
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Tokens{Developer: "dev", MediaUser: "user"}, tokens)
	assert.Equal(t, tokens, verified)
	assert.Contains(t, out.String(), "Authentication successful")
}

func TestLoginFlow_BlankKeepsCurrent(t *testing.T) {
	f, _ := scriptedLogin("", "new-user")

	tokens, err := f.Run(context.Background(), domain.Tokens{Developer: "old-dev", MediaUser: "old-user"}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.Tokens{Developer: "old-dev", MediaUser: "new-user"}, tokens)
}

func TestLoginFlow_Incomplete(t *testing.T) {
	f, _ := scriptedLogin("dev", "")

	_, err := f.Run(context.Background(), domain.Tokens{}, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestLoginFlow_VerificationFails(t *testing.T) {
	f, out := scriptedLogin("dev", "user")

	_, err := f.Run(context.Background(), domain.Tokens{}, func(context.Context, domain.Tokens) error {
		return fmt.Errorf("status 401: %w", domain.ErrAuthFailed)
	})

	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.NotContains(t, out.String(), "Authentication successful")
}

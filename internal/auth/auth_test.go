package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// staticTokenSource satisfies oauth2.TokenSource for test credentials.
type staticTokenSource struct{}

func (staticTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "test-token"}, nil
}

func testCreds() *google.Credentials {
	return &google.Credentials{TokenSource: staticTokenSource{}}
}

func TestTokenSourceAmbientCredentials(t *testing.T) {
	t.Parallel()

	logins := 0
	p := &Provider{
		logger: testLogger(t),
		findCredentials: func(_ context.Context, _ ...string) (*google.Credentials, error) {
			return testCreds(), nil
		},
		runLogin: func() error {
			logins++
			return nil
		},
	}

	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ts)

	assert.Zero(t, logins, "login must not run when ambient credentials exist")
}

func TestTokenSourceLoginFallback(t *testing.T) {
	t.Parallel()

	loads := 0
	logins := 0
	p := &Provider{
		logger: testLogger(t),
		findCredentials: func(_ context.Context, _ ...string) (*google.Credentials, error) {
			loads++
			if loads == 1 {
				return nil, errors.New("could not find default credentials")
			}

			return testCreds(), nil
		},
		runLogin: func() error {
			logins++
			return nil
		},
	}

	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ts)

	assert.Equal(t, 1, logins)
	assert.Equal(t, 2, loads)
}

func TestTokenSourceLoginFailureIsFatal(t *testing.T) {
	t.Parallel()

	loads := 0
	p := &Provider{
		logger: testLogger(t),
		findCredentials: func(_ context.Context, _ ...string) (*google.Credentials, error) {
			loads++
			return nil, errors.New("could not find default credentials")
		},
		runLogin: func() error {
			return errors.New("auth: gcloud authentication failed: exit status 1")
		},
	}

	_, err := p.TokenSource(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcloud authentication failed")
	assert.Equal(t, 1, loads, "credential load must not be retried after a failed login")
}

// The retry is exactly once: a load that still fails after a successful
// login is surfaced, not retried again.
func TestTokenSourceSecondLoadFailureIsFatal(t *testing.T) {
	t.Parallel()

	loads := 0
	logins := 0
	p := &Provider{
		logger: testLogger(t),
		findCredentials: func(_ context.Context, _ ...string) (*google.Credentials, error) {
			loads++
			return nil, errors.New("could not find default credentials")
		},
		runLogin: func() error {
			logins++
			return nil
		},
	}

	_, err := p.TokenSource(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading credentials after login")
	assert.Equal(t, 1, logins)
	assert.Equal(t, 2, loads)
}

func TestNewProviderWiresGcloud(t *testing.T) {
	t.Parallel()

	p := NewProvider("gcloud", nil)

	require.NotNil(t, p.findCredentials)
	require.NotNil(t, p.runLogin)
}

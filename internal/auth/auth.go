// Package auth obtains Google credentials for read-only Drive access. It
// loads application default credentials (ADC) and falls back to running the
// interactive gcloud login, which opens a browser and blocks until the user
// completes the flow.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gdocmd/internal/gdrive"
)

// loginScopes is the scope list passed to gcloud. cloud-platform rides
// along because gcloud needs it to mint ADC tokens for a user account.
var loginScopes = []string{
	gdrive.ReadonlyScope,
	"https://www.googleapis.com/auth/cloud-platform",
}

// Provider yields OAuth2 token sources, running the interactive login once
// when no ambient credentials can be loaded.
type Provider struct {
	logger *slog.Logger

	// findCredentials and runLogin are replaced in tests.
	findCredentials func(ctx context.Context, scopes ...string) (*google.Credentials, error)
	runLogin        func() error
}

// NewProvider returns a Provider that shells out to gcloudPath for the
// interactive login.
func NewProvider(gcloudPath string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		logger:          logger,
		findCredentials: google.FindDefaultCredentials,
		runLogin: func() error {
			return runGcloudLogin(gcloudPath, logger)
		},
	}
}

// TokenSource loads application default credentials scoped to read-only
// Drive access. When none are found it runs the interactive login and
// retries the load exactly once; a second load failure is returned to the
// caller, as is a login failure.
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	creds, err := p.findCredentials(ctx, gdrive.ReadonlyScope)
	if err == nil {
		return creds.TokenSource, nil
	}

	p.logger.Debug("no ambient credentials, starting interactive login",
		slog.String("error", err.Error()),
	)

	if loginErr := p.Login(); loginErr != nil {
		return nil, loginErr
	}

	creds, err = p.findCredentials(ctx, gdrive.ReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("auth: loading credentials after login: %w", err)
	}

	return creds.TokenSource, nil
}

// Login runs the external interactive login. It blocks until the user
// completes the browser flow or the login process exits non-zero.
func (p *Provider) Login() error {
	return p.runLogin()
}

// runGcloudLogin shells out to `gcloud auth application-default login`,
// wiring the subprocess to this terminal so the user can interact with it.
func runGcloudLogin(gcloudPath string, logger *slog.Logger) error {
	fmt.Fprintln(os.Stderr, "Authenticating with Google (this will open a browser)...")

	logger.Debug("running interactive login",
		slog.String("gcloud", gcloudPath),
	)

	cmd := exec.Command(gcloudPath, "auth", "application-default", "login",
		"--scopes="+strings.Join(loginScopes, ","))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("auth: gcloud authentication failed: %w", err)
	}

	return nil
}

// Package fetch implements the cached document fetch: a metadata freshness
// check against the local sidecar, followed by a Markdown export only when
// the remote document changed. Every API call carries a single re-auth
// retry, so an expired credential costs one interactive login instead of a
// failed run.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gdocmd/internal/cache"
	"gdocmd/internal/docid"
	"gdocmd/internal/gdrive"
	"gdocmd/internal/markdown"
)

// API is the subset of the Drive client the fetcher consumes. Narrow so
// tests can count calls.
type API interface {
	Metadata(ctx context.Context, id string) (*gdrive.DocMeta, error)
	ExportMarkdown(ctx context.Context, id string) ([]byte, error)
}

// Fetcher resolves a document identifier or URL to a cached Markdown file.
type Fetcher struct {
	API    API
	Store  *cache.Store
	Logger *slog.Logger

	// Reauth runs the interactive login and returns a refreshed API
	// client. Invoked at most once per run, when an API call fails with an
	// authentication error.
	Reauth func(ctx context.Context) (API, error)

	reauthed bool
}

// Result describes a completed fetch.
type Result struct {
	Path         string
	Title        string
	ModifiedTime string
	// Cached is true when the freshness check matched and no export ran.
	Cached bool
}

// Fetch normalizes the identifier, checks remote metadata against the
// sidecar, and re-exports the body when the remote timestamp differs (or
// force is set). It returns the path of the cached Markdown file.
func (f *Fetcher) Fetch(ctx context.Context, idOrURL string, force bool) (*Result, error) {
	id := docid.Extract(idOrURL)
	if !docid.Valid(id) {
		return nil, fmt.Errorf("invalid document identifier %q", idOrURL)
	}

	meta, err := f.callMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	if !force {
		stored, err := f.Store.ModifiedTime(id)
		if err != nil {
			return nil, err
		}

		if stored != "" && stored == meta.ModifiedTime {
			f.logger().Debug("cache hit",
				slog.String("id", id),
				slog.String("modified", stored),
			)

			return &Result{
				Path:         f.Store.DocPath(id),
				Title:        meta.Name,
				ModifiedTime: meta.ModifiedTime,
				Cached:       true,
			}, nil
		}
	}

	body, err := f.callExport(ctx, id)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(markdown.StripImages(strings.TrimSpace(string(body))))

	path, err := f.Store.Write(id, []byte(content), cache.Record{
		Title:        meta.Name,
		ModifiedTime: meta.ModifiedTime,
		URL:          docid.CanonicalURL(id),
	})
	if err != nil {
		return nil, err
	}

	f.logger().Debug("document exported and cached",
		slog.String("id", id),
		slog.String("modified", meta.ModifiedTime),
	)

	return &Result{
		Path:         path,
		Title:        meta.Name,
		ModifiedTime: meta.ModifiedTime,
	}, nil
}

// callMetadata fetches metadata with the re-auth retry applied.
func (f *Fetcher) callMetadata(ctx context.Context, id string) (*gdrive.DocMeta, error) {
	meta, err := f.API.Metadata(ctx, id)
	if err == nil {
		return meta, nil
	}

	if recErr := f.recover(ctx, err); recErr != nil {
		return nil, fatalErr(id, recErr)
	}

	meta, err = f.API.Metadata(ctx, id)
	if err != nil {
		return nil, fatalErr(id, err)
	}

	return meta, nil
}

// callExport exports the document body with the re-auth retry applied.
func (f *Fetcher) callExport(ctx context.Context, id string) ([]byte, error) {
	body, err := f.API.ExportMarkdown(ctx, id)
	if err == nil {
		return body, nil
	}

	if recErr := f.recover(ctx, err); recErr != nil {
		return nil, fatalErr(id, recErr)
	}

	body, err = f.API.ExportMarkdown(ctx, id)
	if err != nil {
		return nil, fatalErr(id, err)
	}

	return body, nil
}

// recover decides whether a failed API call may be retried. Returning nil
// means "retry the call". A 404 is never retried: the document either does
// not exist or is not shared with this account. An authentication failure
// triggers the interactive login once per invocation and swaps in the
// refreshed API client; any other failure, and the second auth failure,
// propagate unchanged.
func (f *Fetcher) recover(ctx context.Context, err error) error {
	if gdrive.IsNotFound(err) {
		return err
	}

	if !gdrive.IsAuthError(err) || f.reauthed {
		return err
	}

	f.reauthed = true

	f.logger().Warn("authentication error, re-authenticating",
		slog.String("error", err.Error()),
	)

	api, reauthErr := f.Reauth(ctx)
	if reauthErr != nil {
		return fmt.Errorf("re-authentication failed: %w", reauthErr)
	}

	f.API = api

	return nil
}

// fatalErr dresses a non-retryable API error for the user. A 404, or a 403
// that survived re-authentication, almost always means the document was
// never shared with the authenticated account.
func fatalErr(id string, err error) error {
	if errors.Is(err, gdrive.ErrNotFound) || errors.Is(err, gdrive.ErrForbidden) {
		return notSharedError(id, err)
	}

	return err
}

// notSharedError explains the likely causes of an inaccessible document.
// The API reports "exists but not shared" identically to "does not exist".
func notSharedError(id string, err error) error {
	return fmt.Errorf(`could not access document %q: %w

This usually means:
  1. the document has not been shared directly with your authenticated Google account, or
  2. the active GCP quota project cannot access your organization's Google Workspace

Try opening %s in a browser, or copy the document into your own Drive for direct access`,
		id, err, docid.CanonicalURL(id))
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}

	return f.Logger
}

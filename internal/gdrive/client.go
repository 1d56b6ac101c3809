// Package gdrive wraps the Google Drive v3 API for the two read operations
// this program consumes: a metadata lookup (display name + last-modified
// timestamp) and a Markdown export of a document body. Errors are
// classified into sentinels so callers can tell an auth failure from a
// missing document.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// ReadonlyScope is the only Drive scope this program ever requests.
const ReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"

// exportMIMEType is the export format requested for document bodies.
const exportMIMEType = "text/markdown"

// metadataFields limits files.get responses to the two fields the
// freshness check needs.
const metadataFields = "name,modifiedTime"

// DocMeta is the subset of file metadata the cache consults.
// ModifiedTime is an opaque server-assigned timestamp string; it is only
// ever compared for equality, never parsed.
type DocMeta struct {
	Name         string
	ModifiedTime string
}

// Client wraps a Drive service handle.
type Client struct {
	svc    *drive.Service
	logger *slog.Logger
}

// NewClient builds a Drive client from an OAuth2 token source. The
// service's own HTTP transport handles per-request retry of transient
// failures.
func NewClient(ctx context.Context, ts oauth2.TokenSource, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(ts), option.WithScopes(ReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("gdrive: creating service: %w", err)
	}

	return &Client{svc: svc, logger: logger}, nil
}

// Metadata fetches a document's display name and last-modified timestamp.
func (c *Client) Metadata(ctx context.Context, id string) (*DocMeta, error) {
	f, err := c.svc.Files.Get(id).Fields(metadataFields).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr(err)
	}

	c.logger.Debug("metadata fetched",
		slog.String("id", id),
		slog.String("name", f.Name),
		slog.String("modified", f.ModifiedTime),
	)

	return &DocMeta{Name: f.Name, ModifiedTime: f.ModifiedTime}, nil
}

// ExportMarkdown exports the full document body as Markdown.
func (c *Client) ExportMarkdown(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.svc.Files.Export(id, exportMIMEType).Context(ctx).Download()
	if err != nil {
		return nil, wrapErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gdrive: reading export of %s: %w", id, err)
	}

	c.logger.Debug("document exported",
		slog.String("id", id),
		slog.Int("bytes", len(body)),
	)

	return body, nil
}

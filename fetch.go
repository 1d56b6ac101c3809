package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gdocmd/internal/auth"
	"gdocmd/internal/cache"
	"gdocmd/internal/fetch"
	"gdocmd/internal/gdrive"
)

// runFetch is the whole program: authenticate, fetch with the freshness
// check, print path or content.
func runFetch(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	provider := auth.NewProvider(resolvedCfg.Gcloud, logger)

	ts, err := provider.TokenSource(ctx)
	if err != nil {
		return err
	}

	client, err := gdrive.NewClient(ctx, ts, logger)
	if err != nil {
		return err
	}

	f := &fetch.Fetcher{
		API:    client,
		Store:  cache.New(resolvedCfg.CacheDir),
		Logger: logger,
		// Re-auth runs the interactive login, reloads credentials, and
		// rebuilds the Drive client on the fresh token source.
		Reauth: func(ctx context.Context) (fetch.API, error) {
			if err := provider.Login(); err != nil {
				return nil, err
			}

			ts, err := provider.TokenSource(ctx)
			if err != nil {
				return nil, err
			}

			return gdrive.NewClient(ctx, ts, logger)
		},
	}

	res, err := f.Fetch(ctx, args[0], flagForce)
	if err != nil {
		return err
	}

	if res.Cached {
		statusf(flagQuiet, "Cached (unchanged): %s\n", res.Title)
	} else {
		statusf(flagQuiet, "Downloaded: %s\n", res.Title)
	}

	if flagPathOnly {
		fmt.Println(res.Path)
		return nil
	}

	content, err := os.ReadFile(res.Path)
	if err != nil {
		return fmt.Errorf("reading cached document: %w", err)
	}

	fmt.Println(string(content))

	return nil
}

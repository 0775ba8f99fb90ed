package main

import (
	"context"
	"fmt"

	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet performs a direct GET against the backend and prints the raw response.
//
// A browser's "Copy as cURL" file can seed the cookie jar, letting an existing
// web session drive authenticated endpoints without logging in here.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: API path", shared.ErrMissingArgument)
	}

	if curlFile := cmd.String("curl-file"); curlFile != "" {
		headers, err := shared.ParseCurlFile(curlFile)
		if err != nil {
			return err
		}
		if headers.Cookie == "" {
			return fmt.Errorf("%w: no Cookie header in %s", shared.ErrMissingCredentials, curlFile)
		}
		if err := r.gateway.SeedCookies(headers.Cookie); err != nil {
			return err
		}
		r.logger.Info("seeded session cookies", "file", curlFile)
	}

	resp, err := r.gateway.Get(ctx, path)
	if err != nil {
		return err
	}

	if err := shared.ValidateJSON(resp.Body); err != nil {
		return r.writePlain("%s\n", string(resp.Body))
	}

	var data any
	if err := resp.Decode(&data); err != nil {
		return err
	}
	return r.writeJSON(data, cmd.Bool("pretty"))
}

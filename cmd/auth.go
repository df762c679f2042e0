package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Token requests a new access token with the configured client credentials and prints it.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.catalog()
	if err != nil {
		return err
	}

	r.logger.Info("requesting access token")
	cred, err := provider.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(cred, true)
	}
	return r.writePlain("%s\n", cred.AccessToken)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/spotdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config to --config unless a file is already there, then creates the downloads directory.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file already exists, keeping it", "path", configPath)
	} else {
		r.logger.Info("config file created", "path", configPath)
	}

	config, err := shared.ResolveConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		config = shared.DefaultConfig()
	}
	r.config = config

	dir, err := config.DownloadsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}
	r.logger.Infof("setup complete, downloads go to %v", dir)

	r.writePlain("✓ Config: %s\n", configPath)
	r.writePlain("✓ Downloads: %s\n", dir)
	if err := config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set %s and %s in %s or a .env file\n", shared.EnvClientID, shared.EnvClientSecret, configPath)
		r.writePlain("2. Optionally set %s to search with the YouTube Data API instead of yt-dlp\n", shared.EnvAPIKey)
		r.writePlain("3. Run 'spotdl token' to test the credentials\n")
	}
	return nil
}

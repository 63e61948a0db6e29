// Command sefs keeps a directory organised by the meaning of its files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/sefs/internal/adapters/driving/cli"
	"github.com/custodia-labs/sefs/internal/app"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	settingsSvc, err := app.NewSettingsService("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetServices(settingsSvc, func(ctx context.Context, root string, exclusive bool) (*cli.Session, error) {
		settings, err := settingsSvc.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		a, err := app.Open(ctx, *settings, app.Options{Root: root, Exclusive: exclusive})
		if err != nil {
			return nil, err
		}
		return &cli.Session{Organiser: a.Organiser(), Settings: a.Settings(), Close: a.Close}, nil
	})

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

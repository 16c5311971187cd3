package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mannaz/internal"
	"github.com/starford/mannaz/internal/apperr"
	pkgconfig "github.com/starford/mannaz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// withApp loads config, assembles the client (restoring any persisted
// session), runs fn, and tears the client down.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		app, err := internal.NewApp(ctx, internal.WithConfig(cfg))
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		if err := fn(ctx, cmd, app); err != nil {
			if errors.Is(err, apperr.ErrUnauthenticated) {
				return fmt.Errorf("not signed in (run 'mannaz login'): %w", err)
			}
			return err
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "mannaz",
		Usage: "Student social platform client: typed post feed, replies, direct messages, profiles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			signupCommand(),
			logoutCommand(),
			whoamiCommand(),
			forgotPasswordCommand(),
			resetPasswordCommand(),
			profileCommand(),
			postsCommand(),
			usersCommand(),
			messagesCommand(),
			uploadCommand(),
			stubCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

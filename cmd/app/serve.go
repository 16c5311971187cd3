package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/starford/mannaz/internal"
	"github.com/starford/mannaz/internal/mcpserver"
)

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload files for use in posts and profiles",
		Commands: []*cli.Command{
			{
				Name:  "image",
				Usage: "Upload an image and print its public URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "Path to the image", Required: true},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					path := cmd.String("file")
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer func() { _ = f.Close() }()

					url, err := app.Client.UploadImage(ctx, filepath.Base(path), f)
					if err != nil {
						return err
					}
					fmt.Println(url)
					return nil
				}),
			},
			{
				Name:  "document",
				Usage: "Upload a document and print its public URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "Path to the document", Required: true},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					path := cmd.String("file")
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer func() { _ = f.Close() }()

					doc, err := app.Client.UploadDocument(ctx, filepath.Base(path), f)
					if err != nil {
						return err
					}
					fmt.Printf("%s (%s)\n", doc.URL, doc.Name)
					return nil
				}),
			},
		},
	}
}

func stubCommand() *cli.Command {
	return &cli.Command{
		Name:  "stub",
		Usage: "Local development backend",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the in-memory stub backend",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					if err := internal.RunStub(ctx, internal.WithConfig(cfg)); err != nil {
						return fmt.Errorf("stub run error: %w", err)
					}
					return nil
				},
			},
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdin/stdout",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			return mcpserver.New(app.Session, app.Feed, app.Messaging).ServeStdio()
		}),
	}
}

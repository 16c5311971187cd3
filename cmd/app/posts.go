package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/mannaz/internal"
	"github.com/starford/mannaz/internal/feed"
	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/remote"
)

func postsCommand() *cli.Command {
	return &cli.Command{
		Name:  "posts",
		Usage: "Browse and write feed posts",
		Commands: []*cli.Command{
			postsListCommand(),
			postsSearchCommand(),
			postsCreateCommand(),
			postsReplyCommand(),
		},
	}
}

func postsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Show the feed, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "replies", Usage: "Include replies"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if err := app.Feed.LoadPosts(ctx); err != nil {
				return err
			}
			printPosts(app.Feed.Snapshot().Visible, cmd.Bool("replies"))
			return nil
		}),
	}
}

func postsSearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Filter the feed server-side by text and/or category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search text"},
			&cli.StringFlag{Name: "category", Usage: "Post category (note, job, thread, all)", Value: feed.CategoryAll},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if err := app.Feed.LoadPosts(ctx); err != nil {
				return err
			}
			app.Feed.Filter(ctx, cmd.String("query"), cmd.String("category"))
			snap := app.Feed.Snapshot()
			if snap.FilterErr != nil {
				return snap.FilterErr
			}
			if len(snap.Visible) == 0 {
				fmt.Println("No matching posts")
				return nil
			}
			printPosts(snap.Visible, false)
			return nil
		}),
	}
}

func postsCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Publish a note, job posting, or discussion thread",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Usage: "Post type: note, job, or thread", Required: true},
			&cli.StringFlag{Name: "title", Usage: "Post title", Required: true},
			&cli.StringFlag{Name: "content", Usage: "Post body", Required: true},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags (notes)"},
			&cli.StringFlag{Name: "company", Usage: "Hiring company (jobs)"},
			&cli.StringFlag{Name: "location", Usage: "Job location (jobs)"},
			&cli.StringFlag{Name: "job-link", Usage: "Application link (jobs)"},
			&cli.StringFlag{Name: "document-url", Usage: "Attached document URL (notes)"},
			&cli.StringFlag{Name: "document-name", Usage: "Attached document display name (notes)"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			draft := remote.PostDraft{
				Type:         cmd.String("type"),
				Title:        cmd.String("title"),
				Content:      cmd.String("content"),
				Tags:         feed.SplitTags(cmd.String("tags")),
				Company:      cmd.String("company"),
				Location:     cmd.String("location"),
				JobLink:      cmd.String("job-link"),
				DocumentURL:  cmd.String("document-url"),
				DocumentName: cmd.String("document-name"),
			}
			if err := draft.Validate(); err != nil {
				return err
			}
			post, err := app.Feed.CreatePost(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Printf("Published %s %s\n", post.Type, post.ID)
			return nil
		}),
	}
}

func postsReplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "reply",
		Usage: "Reply to a post",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "post", Usage: "Post ID", Required: true},
			&cli.StringFlag{Name: "content", Usage: "Reply text", Required: true},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			reply, err := app.Feed.AddReply(ctx, cmd.String("post"), cmd.String("content"))
			if err != nil {
				return err
			}
			fmt.Printf("Replied %s\n", reply.ID)
			return nil
		}),
	}
}

func printPosts(posts []models.Post, withReplies bool) {
	for _, p := range posts {
		fmt.Printf("[%s] %s  %s\n", p.Type, p.ID, p.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("  %s  by %s (@%s)\n", p.Title, p.AuthorName, p.AuthorUsername)
		fmt.Printf("  %s\n", p.Content)
		if len(p.Tags) > 0 {
			fmt.Printf("  tags: %s\n", strings.Join(p.Tags, ", "))
		}
		if p.Type == models.PostTypeJob {
			fmt.Printf("  %s, %s", p.Company, p.Location)
			if p.JobLink != "" {
				fmt.Printf("  %s", p.JobLink)
			}
			fmt.Println()
		}
		if p.DocumentURL != "" {
			fmt.Printf("  document: %s (%s)\n", p.DocumentName, p.DocumentURL)
		}
		if withReplies {
			for _, r := range p.Replies {
				fmt.Printf("    > @%s: %s\n", r.AuthorUsername, r.Content)
			}
		} else if len(p.Replies) > 0 {
			fmt.Printf("  replies: %d\n", len(p.Replies))
		}
		fmt.Println()
	}
}

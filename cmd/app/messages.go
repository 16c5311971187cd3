package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/mannaz/internal"
)

func messagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "messages",
		Usage: "Direct messaging",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List conversations, most recent first",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					app.Messaging.LoadConversations(ctx)
					snap := app.Messaging.Snapshot()
					if snap.Err != nil {
						return snap.Err
					}
					if len(snap.Conversations) == 0 {
						fmt.Println("No conversations yet")
						return nil
					}
					for _, c := range snap.Conversations {
						marker := " "
						if c.UnreadCount > 0 {
							marker = fmt.Sprintf("(%d)", c.UnreadCount)
						}
						fmt.Printf("%s %s (@%s) [%s]\n", marker, c.Participant.Name, c.Participant.Username, c.Participant.ID)
						fmt.Printf("    %s  %s\n", c.LastMessage.Content, c.LastMessage.CreatedAt.Format("2006-01-02 15:04"))
					}
					return nil
				}),
			},
			{
				Name:  "with",
				Usage: "Show the full history with one user, oldest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "Counterpart user ID", Required: true},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					app.Messaging.LoadMessages(ctx, cmd.String("user"))
					snap := app.Messaging.Snapshot()
					if snap.Err != nil {
						return snap.Err
					}
					self := app.Session.Snapshot()
					for _, m := range snap.Messages {
						who := m.SenderID
						if self.User != nil && m.SenderID == self.User.ID {
							who = "me"
						}
						fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("2006-01-02 15:04"), who, m.Content)
					}
					return nil
				}),
			},
			{
				Name:  "send",
				Usage: "Send a direct message",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "Recipient user ID", Required: true},
					&cli.StringFlag{Name: "content", Usage: "Message text", Required: true},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					if err := app.Messaging.SendMessage(ctx, cmd.String("to"), cmd.String("content")); err != nil {
						return err
					}
					fmt.Println("Sent")
					return nil
				}),
			},
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Look up other users",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Find users by name or username (at least two characters)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Name or username fragment", Required: true},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					users := app.Messaging.SearchUsers(ctx, cmd.String("query"))
					if len(users) == 0 {
						fmt.Println("No users found")
						return nil
					}
					for _, u := range users {
						fmt.Printf("%s (@%s) [%s]\n", u.Name, u.Username, u.ID)
					}
					return nil
				}),
			},
			{
				Name:  "show",
				Usage: "Show a public profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "User ID", Required: true},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					u, err := app.Client.UserProfile(ctx, cmd.String("id"))
					if err != nil {
						return err
					}
					fmt.Printf("%s (@%s)\n", u.Name, u.Username)
					if u.Bio != "" {
						fmt.Printf("  bio:   %s\n", u.Bio)
					}
					fmt.Printf("  posts: %d\n", u.PostsCount)
					return nil
				}),
			},
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/mannaz/internal"
	"github.com/starford/mannaz/internal/remote"
	"github.com/starford/mannaz/internal/session"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and persist the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Account password", Required: true},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if err := app.Session.Login(ctx, cmd.String("email"), cmd.String("password")); err != nil {
				return err
			}
			snap := app.Session.Snapshot()
			fmt.Printf("Signed in as %s (@%s)\n", snap.User.Name, snap.User.Username)
			return nil
		}),
	}
}

func signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
			&cli.StringFlag{Name: "username", Usage: "Unique handle", Required: true},
			&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Password (minimum 8 characters)", Required: true},
			&cli.StringFlag{Name: "bio", Usage: "Short bio"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			params := remote.SignupParams{
				Name:     cmd.String("name"),
				Username: cmd.String("username"),
				Email:    cmd.String("email"),
				Password: cmd.String("password"),
				Bio:      cmd.String("bio"),
			}
			if err := params.Validate(); err != nil {
				return err
			}
			if err := app.Session.Signup(ctx, params); err != nil {
				return err
			}
			snap := app.Session.Snapshot()
			fmt.Printf("Welcome, %s (@%s)\n", snap.User.Name, snap.User.Username)
			return nil
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and clear the persisted session",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			app.Session.Logout()
			fmt.Println("Signed out")
			return nil
		}),
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			snap := app.Session.Snapshot()
			if snap.State != session.Authenticated {
				fmt.Println("Not signed in")
				return nil
			}
			u := snap.User
			fmt.Printf("%s (@%s)\n", u.Name, u.Username)
			fmt.Printf("  email: %s\n", u.Email)
			if u.Bio != "" {
				fmt.Printf("  bio:   %s\n", u.Bio)
			}
			return nil
		}),
	}
}

func forgotPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "forgot-password",
		Usage: "Request a password reset email",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			// The confirmation never varies: not on failure, not on unknown
			// addresses. No signal about which emails are registered.
			if err := app.Client.ForgotPassword(ctx, cmd.String("email")); err != nil {
				app.Logger.Debug("forgot password request failed", "error", err.Error())
			}
			fmt.Println("If the email exists, a reset link has been sent")
			return nil
		}),
	}
}

func resetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "Set a new password using a reset token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Usage: "Reset token from the email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "New password (minimum 8 characters)", Required: true},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
			if err := app.Client.ResetPassword(ctx, cmd.String("token"), cmd.String("password")); err != nil {
				return err
			}
			fmt.Println("Password has been reset; sign in with the new password")
			return nil
		}),
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage the signed-in profile",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update profile fields; only the provided flags are sent",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "username", Usage: "Unique handle"},
					&cli.StringFlag{Name: "email", Usage: "Account email"},
					&cli.StringFlag{Name: "bio", Usage: "Short bio"},
					&cli.StringFlag{Name: "picture", Usage: "Profile picture URL"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					if app.Session.Snapshot().State != session.Authenticated {
						return fmt.Errorf("not signed in")
					}
					var update remote.ProfileUpdate
					if cmd.IsSet("name") {
						v := cmd.String("name")
						update.Name = &v
					}
					if cmd.IsSet("username") {
						v := cmd.String("username")
						update.Username = &v
					}
					if cmd.IsSet("email") {
						v := cmd.String("email")
						update.Email = &v
					}
					if cmd.IsSet("bio") {
						v := cmd.String("bio")
						update.Bio = &v
					}
					if cmd.IsSet("picture") {
						v := cmd.String("picture")
						update.ProfilePicture = &v
					}
					if update.Empty() {
						fmt.Println("Nothing to update")
						return nil
					}
					if err := app.Session.UpdateProfile(ctx, update); err != nil {
						return err
					}
					snap := app.Session.Snapshot()
					fmt.Printf("Profile updated: %s (@%s)\n", snap.User.Name, snap.User.Username)
					return nil
				}),
			},
		},
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/smartagrinode/agrinode/pkg/api"
	"github.com/smartagrinode/agrinode/pkg/auth"
	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var username, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: `Sign in with username and password. With auth.mode set to bearer an
existing token can be supplied with --token instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			creds := auth.Credentials{Username: username, Token: token}

			if token == "" {
				if creds.Username == "" {
					u, err := app.prompt(cmd, "Enter username: ")
					if err != nil {
						return err
					}
					creds.Username = u
				}
				password, err := app.promptPassword(cmd, "Enter password: ")
				if err != nil {
					return err
				}
				creds.Password = password
			}

			session, err := app.provider.SignIn(cmd.Context(), creds)
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Unauthorized() {
				// A 401 here means rejected credentials, not a missing session.
				return errors.New(apiErr.Message)
			}
			if err != nil {
				return err
			}
			app.printer.Success("Signed in as %s", session.User.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVar(&token, "token", "", "bearer token to use instead of a password")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)

			if req.Username == "" {
				u, err := app.prompt(cmd, "Enter username: ")
				if err != nil {
					return err
				}
				req.Username = u
			}
			if req.Email == "" {
				e, err := app.prompt(cmd, "Enter email: ")
				if err != nil {
					return err
				}
				req.Email = e
			}

			password, err := app.promptPassword(cmd, "Enter password: ")
			if err != nil {
				return err
			}
			confirm, err := app.promptPassword(cmd, "Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}
			req.Password = password

			if err := app.provider.SignUp(cmd.Context(), req); err != nil {
				return err
			}
			app.printer.Success("Account %s created. Sign in with `agrinode login`.", req.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "email address")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			if err := app.provider.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("sign out: %w", err)
			}
			app.printer.Success("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			session, err := app.provider.Session(cmd.Context())
			if err != nil {
				return err
			}
			app.printer.User(session.User)
			return nil
		},
	}
}

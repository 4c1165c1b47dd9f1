package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zefruta/storefront/internal/storefront/app"
	"github.com/zefruta/storefront/pkg/authsdk"
)

// withApp opens the application for a one-shot command and closes it after.
func withApp(opts *rootOptions, fn func(*app.Application) error) error {
	application, err := app.New(opts.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return errors.Join(fn(application), application.Close())
}

func newSessionCommand(opts *rootOptions) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change the stored login session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the session state (never the token)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.Application) error {
				out, err := json.MarshalIndent(a.Sessions.Snapshot(cmd.Context()), "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(out))
				return nil
			})
		},
	})

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.Application) error {
				if err := a.Provider.Logout(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("Session cleared.")
				return nil
			})
		},
	})

	var role string
	loginCmd := &cobra.Command{
		Use:   "login <token>",
		Short: "Store a token issued by the backend, as the OAuth callback would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.Application) error {
				user, err := a.Sessions.Commit(cmd.Context(), args[0], role)
				if err != nil {
					return err
				}
				path, _ := authsdk.DashboardPath(user.UserType)
				cmd.Printf("Logged in as %s (%s), dashboard %s\n", displayName(user), user.UserType.Label(), path)
				return nil
			})
		},
	}
	loginCmd.Flags().StringVar(&role, "type", "", "Role hint as sent by the backend (comprador, vendedor, entregador, admin, usuario).")
	sessionCmd.AddCommand(loginCmd)

	return sessionCmd
}

func displayName(u authsdk.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

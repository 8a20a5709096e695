package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devaloi/guestbook/internal/domain"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "guestbook",
		Short: "Read and sign the guestbook",
		Long: `guestbook talks to a guestbook server (GUESTBOOK_URL).

Without a subcommand it prints the guestbook page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.show(cmd.Context())
		},
	}
	root.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		listCmd(a),
		postCmd(a),
		watchCmd(a),
	)
	return root
}

func loginCmd(a *app) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through Google or Discord",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.login(ctx, provider)
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", domain.ProviderGoogle,
		fmt.Sprintf("identity provider (%s)", strings.Join(domain.Providers, "|")))
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.logout(cmd.Context())
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.whoami(cmd.Context())
		},
	}
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.list(cmd.Context())
		},
	}
}

func postCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "post <message>",
		Short: fmt.Sprintf("Sign the guestbook (%d to %d characters)", domain.MinMessageLength, domain.MaxMessageLength),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.post(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the guestbook and follow new messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx)
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Short:   "List active trust sessions",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := apiClient.ListSessions(context.Background())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if jsonOutput {
			return printJSON(sessions)
		}
		printSessionsTable(os.Stdout, sessions, time.Now())
		return nil
	},
}

var identitiesCmd = &cobra.Command{
	Use:     "identities [sender-id]",
	Short:   "Show known senders",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if len(args) == 1 {
			id, err := apiClient.GetIdentity(ctx, args[0])
			if err != nil {
				return fmt.Errorf("getting identity: %w", err)
			}
			return printJSON(id)
		}

		ids, err := apiClient.ListIdentities(ctx)
		if err != nil {
			return fmt.Errorf("listing identities: %w", err)
		}
		if jsonOutput {
			return printJSON(ids)
		}
		printIdentitiesTable(os.Stdout, ids)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the responder",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := apiClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}
		if jsonOutput {
			if err := printJSON(h); err != nil {
				return err
			}
		} else {
			fmt.Printf("Health: %s (pending %d, sessions %d)\n", h.Status, h.Pending, h.Sessions)
		}
		if h.Status != "ok" {
			return fmt.Errorf("unhealthy: %s", h.Status)
		}
		return nil
	},
}

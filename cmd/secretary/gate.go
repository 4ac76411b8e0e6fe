package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alfredjeanlab/secretary/internal/client"
	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:     "pending",
	Short:   "List requests waiting for approval",
	GroupID: "gate",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := apiClient.ListPending(context.Background())
		if err != nil {
			return fmt.Errorf("listing pending requests: %w", err)
		}
		if jsonOutput {
			return printJSON(reqs)
		}
		printPendingTable(os.Stdout, reqs, time.Now())
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:     "approve <sender-id>",
	Short:   "Approve the pending request from a sender",
	GroupID: "gate",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(args[0], model.DecisionApprove)
	},
}

var denyCmd = &cobra.Command{
	Use:     "deny <sender-id>",
	Short:   "Deny the pending request from a sender",
	GroupID: "gate",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(args[0], model.DecisionDeny)
	},
}

func decide(senderID string, d model.Decision) error {
	res, err := apiClient.Decide(context.Background(), senderID, d)
	if client.IsNotFound(err) {
		return fmt.Errorf("no pending request from %s", senderID)
	}
	if err != nil {
		return fmt.Errorf("deciding %s: %w", senderID, err)
	}
	if jsonOutput {
		return printJSON(res)
	}
	printResolution(os.Stdout, res)
	return nil
}

var replyCmd = &cobra.Command{
	Use:     "reply <text>...",
	Short:   "Answer as the approver would in chat (yes / no / yes 3)",
	GroupID: "gate",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient.Reply(context.Background(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("sending reply: %w", err)
		}
		if jsonOutput {
			return printJSON(resp)
		}
		if !resp.Applied || resp.Resolution == nil {
			fmt.Println("Reply was not a decision, or nothing was pending.")
			return nil
		}
		printResolution(os.Stdout, resp.Resolution)
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:     "revoke <sender-id>",
	Short:   "End a sender's trust session early",
	GroupID: "gate",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := apiClient.RevokeSession(context.Background(), args[0])
		if client.IsNotFound(err) {
			return fmt.Errorf("no active session for %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("revoking session: %w", err)
		}
		fmt.Printf("Revoked session for %s\n", args[0])
		return nil
	},
}

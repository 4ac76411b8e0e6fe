package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alfredjeanlab/secretary/internal/config"
	"github.com/alfredjeanlab/secretary/internal/events"
	"github.com/alfredjeanlab/secretary/internal/idgen"
	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/transport"
	"github.com/spf13/cobra"
)

func defaultNATSURL() string {
	if s := os.Getenv("SECRETARY_NATS_URL"); s != "" {
		return s
	}
	return config.Default().NATSURL
}

// emitCmd injects an inbound message as if the chat bridge had received it.
var emitCmd = &cobra.Command{
	Use:     "emit <text>...",
	Short:   "Publish a test inbound message",
	GroupID: "system",
	Long: `Publishes a chat message on the inbound subject so a running
"secretary serve" handles it exactly like one from the chat bridge.

  secretary emit --from 15550001 --name "Sam" hello, are you there?
  secretary emit --from owner yes`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Args:              cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		subject, _ := cmd.Flags().GetString("subject")
		msg := model.Message{
			ID:         idgen.MessageID(),
			Text:       strings.Join(args, " "),
			ReceivedAt: time.Now().UTC(),
		}
		msg.SenderID, _ = cmd.Flags().GetString("from")
		msg.PushName, _ = cmd.Flags().GetString("name")
		msg.ChatID, _ = cmd.Flags().GetString("chat")
		msg.IsGroup, _ = cmd.Flags().GetBool("group")
		if msg.SenderID == "" {
			return fmt.Errorf("--from is required")
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshaling message: %w", err)
		}

		nc, err := events.Connect(natsURL)
		if err != nil {
			return err
		}
		defer nc.Close()
		if err := nc.Publish(subject, data); err != nil {
			return fmt.Errorf("publishing to %s: %w", subject, err)
		}
		if err := nc.Flush(); err != nil {
			return fmt.Errorf("flushing: %w", err)
		}

		if jsonOutput {
			return printJSON(msg)
		}
		fmt.Printf("Published %s from %s to %s\n", msg.ID, msg.SenderID, subject)
		return nil
	},
}

func init() {
	emitCmd.Flags().String("nats-url", defaultNATSURL(), "NATS server URL")
	emitCmd.Flags().String("subject", transport.DefaultInboundSubject, "inbound subject")
	emitCmd.Flags().String("from", "", "sender id (required)")
	emitCmd.Flags().String("name", "", "sender push name")
	emitCmd.Flags().String("chat", "", "chat id, defaults to the sender")
	emitCmd.Flags().Bool("group", false, "mark the message as a group message")
}

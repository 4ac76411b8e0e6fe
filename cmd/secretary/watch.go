package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/alfredjeanlab/secretary/internal/events"
	"github.com/alfredjeanlab/secretary/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:               "watch",
	Short:             "Tail gate and session events from NATS",
	GroupID:           "views",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		type delivery struct {
			topic string
			data  []byte
		}
		merged := make(chan delivery, 64)
		for _, topic := range events.Topics {
			ch, cancel, err := sub.Subscribe(topic)
			if err != nil {
				return fmt.Errorf("subscribing to events: %w", err)
			}
			defer cancel()
			go func() {
				for data := range ch {
					select {
					case merged <- delivery{topic: topic, data: data}:
					case <-ctx.Done():
						return
					}
				}
			}()
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case d := <-merged:
				if jsonOutput {
					fmt.Printf("{\"topic\":%q,\"event\":%s}\n", d.topic, d.data)
					continue
				}
				line, err := formatEvent(d.topic, d.data)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skipping %s: %v\n", d.topic, err)
					continue
				}
				fmt.Println(line)
			}
		}
	},
}

func init() {
	watchCmd.Flags().String("nats-url", defaultNATSURL(), "NATS server URL")
}

// formatEvent renders one event payload as a single human-readable line.
func formatEvent(topic string, data []byte) (string, error) {
	switch topic {
	case events.TopicGateRequested:
		var e events.GateRequested
		if err := json.Unmarshal(data, &e); err != nil {
			return "", err
		}
		line := fmt.Sprintf("%s #%d %s (%s) %q",
			ui.RenderAccent("requested"), e.Request.Number, e.Request.SenderID, e.Request.DisplayName, truncate(e.Request.Excerpt, 60))
		if !e.Notified {
			line += " " + ui.RenderMuted("[notice failed]")
		}
		return line, nil
	case events.TopicGateResolved:
		var e events.GateResolved
		if err := json.Unmarshal(data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s #%d %s %s",
			ui.RenderVerdict(e.Resolution.Verdict), e.Resolution.Request.Number, e.Resolution.Request.SenderID, ui.RenderMuted(string(e.Resolution.Cause))), nil
	case events.TopicSessionGranted:
		var e events.SessionGranted
		if err := json.Unmarshal(data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s until %s",
			ui.RenderAccent("session"), e.Session.SenderID, ui.RenderOrigin(e.Session.Origin), e.Session.ExpiresAt.Local().Format(timeLayout)), nil
	case events.TopicSessionRevoked:
		var e events.SessionRevoked
		if err := json.Unmarshal(data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s", ui.RenderAccent("revoked"), e.SenderID), nil
	}
	return "", fmt.Errorf("unknown topic %s", topic)
}

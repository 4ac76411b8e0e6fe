package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/secretary/internal/client"
	"github.com/alfredjeanlab/secretary/internal/config"
	"github.com/alfredjeanlab/secretary/internal/model"
)

func startTestNATS(t *testing.T) *natsserver.Server {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func nextOutbound(t *testing.T, ch <-chan *nats.Msg) model.Outbound {
	t.Helper()
	select {
	case m := <-ch:
		var out model.Outbound
		if err := json.Unmarshal(m.Data, &out); err != nil {
			t.Fatalf("decode outbound: %v", err)
		}
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outbound message")
	}
	return model.Outbound{}
}

func publishInbound(t *testing.T, nc *nats.Conn, msg model.Message) {
	t.Helper()
	data, _ := json.Marshal(msg)
	if err := nc.Publish("chat.inbound", data); err != nil {
		t.Fatalf("publish inbound: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestServe_ApprovalRoundTrip(t *testing.T) {
	ns := startTestNATS(t)
	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	outbound := make(chan *nats.Msg, 16)
	sub, err := nc.ChanSubscribe("chat.outbound", outbound)
	if err != nil {
		t.Fatalf("subscribe outbound: %v", err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}
	baseSubs := ns.NumSubscriptions()

	cfg := config.Default()
	cfg.ApproverID = "owner"
	cfg.NATSURL = ns.ClientURL()
	cfg.HTTPAddr = freeAddr(t)
	cfg.SyncInterval = 0
	cfg.Contacts = map[string]string{"friend": "Best Friend"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, slog.New(slog.DiscardHandler)) }()

	api := client.NewHTTPClient("http://"+cfg.HTTPAddr, "")
	waitFor(t, "inbound subscription", func() bool { return ns.NumSubscriptions() > baseSubs })
	waitFor(t, "admin API", func() bool {
		h, err := api.Health(context.Background())
		return err == nil && h.Status == "ok"
	})

	publishInbound(t, nc, model.Message{SenderID: "friend", Text: "are you around?"})
	notice := nextOutbound(t, outbound)
	if notice.To != "owner" {
		t.Fatalf("notice went to %q, want owner", notice.To)
	}
	if !strings.Contains(notice.Text, "#1") || !strings.Contains(notice.Text, "Best Friend") {
		t.Fatalf("unexpected notice:\n%s", notice.Text)
	}

	pending, err := api.ListPending(context.Background())
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPending = %v, %v", pending, err)
	}

	publishInbound(t, nc, model.Message{SenderID: "owner", Text: "yes"})
	reply := nextOutbound(t, outbound)
	if reply.To != "friend" || !strings.Contains(reply.Text, "Best Friend") {
		t.Fatalf("unexpected reply %+v", reply)
	}

	sessions, err := api.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Origin != model.OriginExplicitApproval {
		t.Fatalf("sessions = %+v", sessions)
	}

	// Trusted now, so the next message is answered without a notice.
	publishInbound(t, nc, model.Message{SenderID: "friend", Text: "thanks"})
	if out := nextOutbound(t, outbound); out.To != "friend" {
		t.Fatalf("trusted sender reply went to %q", out.To)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

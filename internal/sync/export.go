package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/secretary/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	IdentityCount int       `json:"identity_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every sender profile in the store as JSONL to w,
// sorted by sender ID.
func ExportJSONL(ctx context.Context, s store.IdentityStore, w io.Writer) error {
	identities, err := s.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("list identities: %w", err)
	}
	sort.Slice(identities, func(i, j int) bool {
		return identities[i].ID < identities[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		IdentityCount: len(identities),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, p := range identities {
		if err := enc.Encode(record{Type: "identity", Data: p}); err != nil {
			return fmt.Errorf("encode identity %s: %w", p.ID, err)
		}
	}

	return nil
}

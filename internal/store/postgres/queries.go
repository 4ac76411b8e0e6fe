package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// identityColumns is the column list used for SELECT statements on the
// sender_identities table.
const identityColumns = `id, display_name, source, first_seen_at, last_seen_at, message_count`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryUpsertIdentity writes the profile. first_seen_at is kept from the
// existing row; everything else is replaced.
func queryUpsertIdentity(ctx context.Context, db executor, p *model.SenderIdentity) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sender_identities (
			id, display_name, source, first_seen_at, last_seen_at, message_count
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			source = EXCLUDED.source,
			last_seen_at = EXCLUDED.last_seen_at,
			message_count = EXCLUDED.message_count`,
		p.ID,
		p.DisplayName,
		string(p.Source),
		p.FirstSeenAt,
		p.LastSeenAt,
		p.MessageCount,
	)
	if err != nil {
		return fmt.Errorf("upsert identity %s: %w", p.ID, err)
	}
	return nil
}

// queryGetIdentity returns nil, nil when the sender has no row.
func queryGetIdentity(ctx context.Context, db executor, id string) (*model.SenderIdentity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM sender_identities WHERE id = $1`, id)
	p, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity %s: %w", id, err)
	}
	return p, nil
}

func queryListIdentities(ctx context.Context, db executor) ([]*model.SenderIdentity, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+identityColumns+` FROM sender_identities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*model.SenderIdentity
	for rows.Next() {
		p, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

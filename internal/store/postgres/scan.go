package postgres

import (
	"github.com/alfredjeanlab/secretary/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanIdentity scans a single row into a model.SenderIdentity.
// The row must contain columns in the order defined by identityColumns.
func scanIdentity(row scannable) (*model.SenderIdentity, error) {
	var (
		p      model.SenderIdentity
		source string
	)
	err := row.Scan(
		&p.ID,
		&p.DisplayName,
		&source,
		&p.FirstSeenAt,
		&p.LastSeenAt,
		&p.MessageCount,
	)
	if err != nil {
		return nil, err
	}
	p.Source = model.IdentitySource(source)
	return &p, nil
}

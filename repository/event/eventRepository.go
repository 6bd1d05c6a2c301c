// repository/event/repo.go
package eventrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
)

// Repo is the domain-event outbox. Events are inserted in the same
// transaction as the state change they describe.
type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, ev *model.Event) error
	ListByType(ctx context.Context, t model.EventType, limit int) ([]model.Event, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, ev *model.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO events (id, type, payload)
		VALUES ($1, $2, $3)`
	if _, err = tx.ExecContext(ctx, q, ev.ID, ev.Type, payload); err != nil {
		return err
	}
	slog.Info("event", "type", ev.Type, "id", ev.ID)
	return nil
}

func (r *repo) ListByType(ctx context.Context, t model.EventType, limit int) ([]model.Event, error) {
	const q = `
		SELECT id, type, payload, created_at
		FROM events
		WHERE type = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, t, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var ev model.Event
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.Type, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &ev.Payload); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

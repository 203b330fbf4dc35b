package store

import "context"

const insertEvent = `
INSERT INTO events (topic, payload)
VALUES ($1, $2)
RETURNING id, topic, payload, created_at
`

func (q *Queries) InsertEvent(ctx context.Context, topic string, payload []byte) (Event, error) {
	var e Event
	err := q.db.QueryRow(ctx, insertEvent, topic, payload).Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt)
	return e, err
}

const listRecentEvents = `
SELECT id, topic, payload, created_at
FROM events
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListRecentEvents(ctx context.Context, limit int32) ([]Event, error) {
	rows, err := q.db.Query(ctx, listRecentEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

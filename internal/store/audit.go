package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertAuditLog = `
INSERT INTO audit_logs (actor_id, actor_role, action, resource, resource_id, status, ip, request_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, actor_id, actor_role, action, resource, resource_id, status, ip, request_id, metadata, created_at
`

type InsertAuditLogParams struct {
	ActorID    pgtype.UUID
	ActorRole  pgtype.Text
	Action     string
	Resource   string
	ResourceID pgtype.Text
	Status     int32
	IP         pgtype.Text
	RequestID  pgtype.Text
	Metadata   []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, insertAuditLog,
		arg.ActorID, arg.ActorRole, arg.Action, arg.Resource, arg.ResourceID,
		arg.Status, arg.IP, arg.RequestID, arg.Metadata)
	return scanAuditLog(row)
}

const listAuditLogs = `
SELECT id, actor_id, actor_role, action, resource, resource_id, status, ip, request_id, metadata, created_at
FROM audit_logs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

func (q *Queries) ListAuditLogs(ctx context.Context, limit, offset int32) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditLog
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanAuditLog(row interface{ Scan(dest ...any) error }) (AuditLog, error) {
	var a AuditLog
	err := row.Scan(&a.ID, &a.ActorID, &a.ActorRole, &a.Action, &a.Resource, &a.ResourceID,
		&a.Status, &a.IP, &a.RequestID, &a.Metadata, &a.CreatedAt)
	return a, err
}

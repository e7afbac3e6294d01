package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"clientportal/internal/domain"
)

const activityColumns = `id,project_id,update_type,message,metadata_json,created_by,created_at`

func scanActivity(row scanner) (domain.ActivityEntry, error) {
	var e domain.ActivityEntry
	var meta sql.NullString
	if err := row.Scan(&e.ID, &e.ProjectID, &e.UpdateType, &e.Message, &meta, &e.CreatedBy, &e.CreatedAt); err != nil {
		return e, err
	}
	m, err := domain.DecodeMetadata(e.UpdateType, meta.String)
	if err != nil {
		return e, fmt.Errorf("activity %d: %w", e.ID, err)
	}
	e.Metadata = m
	return e, nil
}

// InsertActivity appends e and returns it with the assigned id and timestamp.
func (r Repo) InsertActivity(ctx context.Context, e domain.ActivityEntry) (domain.ActivityEntry, error) {
	meta, err := domain.EncodeMetadata(e.Metadata)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	e.CreatedAt = r.timestamp()
	res, err := r.DB.ExecContext(ctx, `INSERT INTO project_updates(project_id,update_type,message,metadata_json,created_by,created_at) VALUES (?,?,?,?,?,?)`,
		e.ProjectID, string(e.UpdateType), e.Message, nullable(meta), e.CreatedBy, e.CreatedAt)
	if err != nil {
		return domain.ActivityEntry{}, fmt.Errorf("insert project update: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return domain.ActivityEntry{}, err
	}
	return e, nil
}

// ListActivity returns entries newest first.
func (r Repo) ListActivity(ctx context.Context, f domain.ActivityFilter) ([]domain.ActivityEntry, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.UpdateType != "" {
		clauses = append(clauses, "update_type=?")
		args = append(args, string(f.UpdateType))
	}
	query := `SELECT ` + activityColumns + ` FROM project_updates WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return r.queryActivity(ctx, query, args...)
}

// ActivityAfter returns entries with ids greater than cursor in ascending order.
func (r Repo) ActivityAfter(ctx context.Context, cursor int64, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.queryActivity(ctx, `SELECT `+activityColumns+` FROM project_updates WHERE id>? ORDER BY id ASC LIMIT ?`, cursor, limit)
}

// LatestActivityID returns the most recent entry id, 0 when the log is empty.
func (r Repo) LatestActivityID(ctx context.Context) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM project_updates`).Scan(&id)
	return id, err
}

func (r Repo) queryActivity(ctx context.Context, query string, args ...any) ([]domain.ActivityEntry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ActivityEntry{}
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

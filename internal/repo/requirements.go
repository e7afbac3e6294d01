package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"clientportal/internal/domain"
)

const requirementColumns = `id,project_id,title,description,status,priority,created_by,assigned_to,due_date,created_at,updated_at`

func scanRequirement(row scanner) (domain.Requirement, error) {
	var q domain.Requirement
	var desc, createdBy, assignedTo, dueDate sql.NullString
	err := row.Scan(&q.ID, &q.ProjectID, &q.Title, &desc, &q.Status, &q.Priority, &createdBy, &assignedTo, &dueDate, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrNotFound
	}
	if err != nil {
		return q, err
	}
	q.Description = desc.String
	q.CreatedBy = createdBy.String
	q.AssignedTo = stringPtr(assignedTo)
	q.DueDate = stringPtr(dueDate)
	return q, nil
}

// InsertRequirement stores q, assigning its id and timestamps.
func (r Repo) InsertRequirement(ctx context.Context, q domain.Requirement) (domain.Requirement, error) {
	q.ID = uuid.NewString()
	q.CreatedAt = r.timestamp()
	q.UpdatedAt = q.CreatedAt
	_, err := r.DB.ExecContext(ctx, `INSERT INTO requirements(`+requirementColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		q.ID, q.ProjectID, q.Title, nullable(q.Description), string(q.Status), string(q.Priority), nullable(q.CreatedBy),
		nullableStringPtr(q.AssignedTo), nullableStringPtr(q.DueDate), q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return domain.Requirement{}, fmt.Errorf("insert requirement: %w", err)
	}
	return q, nil
}

func (r Repo) GetRequirement(ctx context.Context, id string) (domain.Requirement, error) {
	return scanRequirement(r.DB.QueryRowContext(ctx, `SELECT `+requirementColumns+` FROM requirements WHERE id=?`, id))
}

// ListRequirements returns a project's requirements newest first; never nil.
func (r Repo) ListRequirements(ctx context.Context, projectID string) ([]domain.Requirement, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+requirementColumns+` FROM requirements WHERE project_id=? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Requirement{}
	for rows.Next() {
		q, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, q)
	}
	return res, rows.Err()
}

func (r Repo) UpdateRequirement(ctx context.Context, id string, patch domain.RequirementPatch) (domain.Requirement, error) {
	var (
		fields []string
		args   []any
	)
	set := func(column string, v any) {
		fields = append(fields, column+"=?")
		args = append(args, v)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", nullable(*patch.Description))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	if patch.AssignedTo != nil {
		set("assigned_to", nullableStringPtr(patch.AssignedTo))
	}
	if patch.DueDate != nil {
		set("due_date", nullableStringPtr(patch.DueDate))
	}
	set("updated_at", r.timestamp())
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE requirements SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return domain.Requirement{}, fmt.Errorf("update requirement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Requirement{}, ErrNotFound
	}
	return r.GetRequirement(ctx, id)
}

func (r Repo) DeleteRequirement(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM requirements WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

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

const projectColumns = `id,user_id,title,description,status,priority,budget,start_date,end_date,estimated_hours,actual_hours,progress,tags_json,created_at,updated_at`

// ProjectFilters narrows ListProjects. Empty fields match everything.
type ProjectFilters struct {
	OwnerID  string
	Status   domain.ProjectStatus
	Priority domain.ProjectPriority
}

func scanProject(row scanner) (domain.Project, error) {
	var p domain.Project
	var desc, startDate, endDate sql.NullString
	var budget sql.NullFloat64
	var estimated sql.NullInt64
	var tags string
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &desc, &p.Status, &p.Priority, &budget, &startDate, &endDate,
		&estimated, &p.ActualHours, &p.Progress, &tags, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.Description = desc.String
	if budget.Valid {
		b := budget.Float64
		p.Budget = &b
	}
	p.StartDate = stringPtr(startDate)
	p.EndDate = stringPtr(endDate)
	if estimated.Valid {
		h := int(estimated.Int64)
		p.EstimatedHours = &h
	}
	p.Tags, err = decodeTags(tags)
	return p, err
}

// InsertProject stores p, assigning its id and timestamps.
func (r Repo) InsertProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = r.timestamp()
	p.UpdatedAt = p.CreatedAt
	if p.Tags == nil {
		p.Tags = []string{}
	}
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return domain.Project{}, err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OwnerID, p.Title, nullable(p.Description), string(p.Status), string(p.Priority), nullableFloatPtr(p.Budget),
		nullableStringPtr(p.StartDate), nullableStringPtr(p.EndDate), nullableIntPtr(p.EstimatedHours),
		p.ActualHours, p.Progress, tags, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

// ListProjects returns matching projects newest first; never nil.
func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	var clauses []string
	var args []any
	if f.OwnerID != "" {
		clauses = append(clauses, "user_id=?")
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority=?")
		args = append(args, string(f.Priority))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects `+where+` ORDER BY created_at DESC, rowid DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// UpdateProject applies the non-nil fields of patch and refreshes updated_at.
func (r Repo) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
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
	if patch.ClearBudget {
		set("budget", nil)
	} else if patch.Budget != nil {
		set("budget", *patch.Budget)
	}
	if patch.StartDate != nil {
		set("start_date", nullableStringPtr(patch.StartDate))
	}
	if patch.EndDate != nil {
		set("end_date", nullableStringPtr(patch.EndDate))
	}
	if patch.ClearEstimatedHours {
		set("estimated_hours", nil)
	} else if patch.EstimatedHours != nil {
		set("estimated_hours", *patch.EstimatedHours)
	}
	if patch.ActualHours != nil {
		set("actual_hours", *patch.ActualHours)
	}
	if patch.Progress != nil {
		set("progress", *patch.Progress)
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return domain.Project{}, err
		}
		set("tags_json", tags)
	}
	set("updated_at", r.timestamp())
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE projects SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return domain.Project{}, fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Project{}, ErrNotFound
	}
	return r.GetProject(ctx, id)
}

func (r Repo) DeleteProject(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

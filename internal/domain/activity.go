package domain

import (
	"encoding/json"
	"fmt"
)

// UpdateType classifies an activity entry.
type UpdateType string

const (
	UpdateComment            UpdateType = "comment"
	UpdateStatusChange       UpdateType = "status_change"
	UpdateRequirementAdded   UpdateType = "requirement_added"
	UpdateRequirementUpdated UpdateType = "requirement_updated"
)

var UpdateTypes = []UpdateType{UpdateComment, UpdateStatusChange, UpdateRequirementAdded, UpdateRequirementUpdated}

func (t UpdateType) Valid() bool {
	for _, v := range UpdateTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ActivityMetadata is the payload attached to an activity entry. Each
// update type has exactly one metadata variant.
type ActivityMetadata interface {
	UpdateType() UpdateType
}

type CommentMetadata struct{}

func (CommentMetadata) UpdateType() UpdateType { return UpdateComment }

type StatusChangeMetadata struct {
	NewStatus ProjectStatus `json:"new_status"`
}

func (StatusChangeMetadata) UpdateType() UpdateType { return UpdateStatusChange }

type RequirementAddedMetadata struct {
	RequirementID string `json:"requirement_id"`
}

func (RequirementAddedMetadata) UpdateType() UpdateType { return UpdateRequirementAdded }

type RequirementUpdatedMetadata struct {
	RequirementID string            `json:"requirement_id"`
	NewStatus     RequirementStatus `json:"new_status"`
}

func (RequirementUpdatedMetadata) UpdateType() UpdateType { return UpdateRequirementUpdated }

// ActivityEntry is one row of a project's append-only activity log.
type ActivityEntry struct {
	ID         int64            `json:"id"`
	ProjectID  string           `json:"project_id"`
	UpdateType UpdateType       `json:"update_type"`
	Message    string           `json:"message"`
	Metadata   ActivityMetadata `json:"metadata,omitempty"`
	CreatedBy  string           `json:"created_by"`
	CreatedAt  string           `json:"created_at" format:"date-time"`
}

type ActivityFilter struct {
	ProjectID  string
	UpdateType UpdateType
	Limit      int
}

// EncodeMetadata renders metadata as a JSON object. Comments carry no
// metadata and encode to the empty string.
func EncodeMetadata(m ActivityMetadata) (string, error) {
	if m == nil {
		return "", nil
	}
	if _, ok := m.(CommentMetadata); ok {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal %s metadata: %w", m.UpdateType(), err)
	}
	return string(b), nil
}

// DecodeMetadata parses stored metadata into the variant matching t.
func DecodeMetadata(t UpdateType, raw string) (ActivityMetadata, error) {
	switch t {
	case UpdateComment:
		return CommentMetadata{}, nil
	case UpdateStatusChange:
		var m StatusChangeMetadata
		if err := unmarshalMetadata(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	case UpdateRequirementAdded:
		var m RequirementAddedMetadata
		if err := unmarshalMetadata(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	case UpdateRequirementUpdated:
		var m RequirementUpdatedMetadata
		if err := unmarshalMetadata(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown update type %q", t)
	}
}

func unmarshalMetadata(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	return nil
}

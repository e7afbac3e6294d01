package engine

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func requireTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", validationErr("title", "is required")
	}
	return title, nil
}

// validateDate accepts nil, the empty string (clears the column), or YYYY-MM-DD.
func validateDate(field string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, *v); err != nil {
		return validationErr(field, "must be a YYYY-MM-DD date")
	}
	return nil
}

func validateNonNegativeInt(field string, v *int) error {
	if v != nil && *v < 0 {
		return validationErr(field, "must not be negative")
	}
	return nil
}

func validateProgress(v *int) error {
	if v != nil && (*v < 0 || *v > 100) {
		return validationErr("progress", "must be between 0 and 100")
	}
	return nil
}

func validateBudget(v *float64) error {
	if v != nil && *v < 0 {
		return validationErr("budget", "must not be negative")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// matchesSearch reports whether term occurs, ignoring case, in the title or
// the description. A blank term matches everything.
func matchesSearch(title, description, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), term) ||
		strings.Contains(strings.ToLower(description), term)
}

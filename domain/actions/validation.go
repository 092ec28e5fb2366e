package actions

import (
	"strings"

	"github.com/google/uuid"

	"github.com/actionforest/api/pkg/apperror"
)

// MaxTitleLength bounds the title column. Longer titles get rejected
// with a validation error before touching the database.
const MaxTitleLength = 500

// ValidateTitle checks a title for create and update requests.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return apperror.NewValidation("title must not be empty")
	}
	if len(trimmed) > MaxTitleLength {
		return apperror.NewValidation("title exceeds maximum length")
	}
	return nil
}

// ParseID parses a path or body identifier, mapping malformed input
// to a validation error rather than a 404.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.NewValidation("invalid action id")
	}
	return id, nil
}

// ValidateDeleteRequest checks the child handling strategy and its
// new_parent_id argument.
func (r *DeleteActionRequest) Validate() error {
	switch r.ChildHandling {
	case "", ChildHandlingDeleteRecursive:
		// delete_recursive is the default
	case ChildHandlingReparent:
	default:
		return apperror.NewValidation("child_handling must be delete_recursive or reparent")
	}
	if r.NewParentID != nil {
		if _, err := ParseID(*r.NewParentID); err != nil {
			return apperror.NewValidation("invalid new_parent_id")
		}
	}
	return nil
}

// Strategy returns the effective child handling strategy.
func (r *DeleteActionRequest) Strategy() string {
	if r.ChildHandling == "" {
		return ChildHandlingDeleteRecursive
	}
	return r.ChildHandling
}

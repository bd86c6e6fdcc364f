package sqlite

import (
	"errors"
	"strings"

	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"gorm.io/gorm"
)

// translate maps store failures onto the application error taxonomy. The
// driver reports constraint failures only through the message text.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.CodeNotFound, err, what+" not found")
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperr.Wrap(apperr.CodeConflict, err, what+" already exists")
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return apperr.Wrap(apperr.CodeConflict, err, what+" references a missing record")
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return apperr.Wrap(apperr.CodeValidation, err, what+" violates a column constraint")
	}
	return err
}

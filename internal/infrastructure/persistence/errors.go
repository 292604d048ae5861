package persistence

import (
	"errors"
	"strings"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgCheckViolation  = "23514"
	pgUniqueViolation = "23505"
)

// translateError maps driver errors to domain errors. Postgres errors are
// matched by SQLSTATE; sqlite only exposes a message.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation:
			return errors.Join(fiscal.ErrStatusRejected, err)
		case pgUniqueViolation:
			return errors.Join(shared.ErrAlreadyExists, err)
		}
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "check constraint"):
		return errors.Join(fiscal.ErrStatusRejected, err)
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return errors.Join(shared.ErrAlreadyExists, err)
	}
	return err
}

package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), shared.ErrNotFound)
	assert.ErrorIs(t, translateError(&pgconn.PgError{Code: "23514"}), fiscal.ErrStatusRejected)
	assert.ErrorIs(t, translateError(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})), shared.ErrAlreadyExists)
	assert.ErrorIs(t, translateError(errors.New("CHECK constraint failed: chk_fiscal_documents_status")), fiscal.ErrStatusRejected)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateError(plain))
}

package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/apperror"
	"billing/internal/core/numerator"
)

func newMockTxManager(t *testing.T) (*TxManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTxManager(db), mock
}

func TestNumberStore_PropagatesQueryErrors(t *testing.T) {
	ctx := context.Background()
	txm, mock := newMockTxManager(t)
	store := NewNumberStore(txm)
	diskErr := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT number FROM documents").WillReturnError(diskErr)
	_, err := store.FindByPrefix(ctx, numerator.DocInvoice, "JMD/2025-26/")
	assert.ErrorIs(t, err, diskErr)
	assert.NotErrorIs(t, err, numerator.ErrSequenceExhausted)

	mock.ExpectQuery("SELECT number FROM documents").WillReturnError(diskErr)
	_, _, err = store.FindLatest(ctx, numerator.DocInvoice)
	assert.ErrorIs(t, err, diskErr)

	mock.ExpectQuery("SELECT EXISTS").WillReturnError(diskErr)
	_, err = store.Exists(ctx, numerator.DocInvoice, "JMD/2025-26/1")
	assert.ErrorIs(t, err, diskErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNumberStore_ScanRows(t *testing.T) {
	txm, mock := newMockTxManager(t)

	mock.ExpectQuery("SELECT number FROM documents").
		WithArgs("invoice", 12, "JMD/2025-26/").
		WillReturnRows(sqlmock.NewRows([]string{"number"}).AddRow("JMD/2025-26/1").AddRow("JMD/2025-26/7"))

	numbers, err := NewNumberStore(txm).FindByPrefix(context.Background(), numerator.DocInvoice, "JMD/2025-26/")
	require.NoError(t, err)
	assert.Equal(t, []string{"JMD/2025-26/1", "JMD/2025-26/7"}, numbers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapWriteError(t *testing.T) {
	dup := errors.New("constraint failed: UNIQUE constraint failed: documents.doc_type, documents.number (2067)")
	err := mapWriteError(dup)
	assert.ErrorIs(t, err, numerator.ErrDuplicateNumber)
	assert.ErrorIs(t, err, dup)

	pk := errors.New("constraint failed: UNIQUE constraint failed: documents.id (1555)")
	err = mapWriteError(pk)
	assert.NotErrorIs(t, err, numerator.ErrDuplicateNumber)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	other := errors.New("database is locked")
	err = mapWriteError(other)
	assert.ErrorIs(t, err, other)
	assert.False(t, apperror.IsAppError(err))

	assert.NoError(t, mapWriteError(nil))
}

func TestDocumentRepo_CreateMapsDuplicate(t *testing.T) {
	txm, mock := newMockTxManager(t)
	repo := NewChallanRepo(txm)

	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(errors.New("UNIQUE constraint failed: documents.doc_type, documents.number"))

	err := repo.Create(context.Background(), newChallan("JMD/2025-26/001"))
	assert.ErrorIs(t, err, numerator.ErrDuplicateNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

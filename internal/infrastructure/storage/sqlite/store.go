package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"billing/internal/core/numerator"
)

// Ensure compile-time interface compliance.
var _ numerator.Store = (*NumberStore)(nil)

// NumberStore reads document numbers for the numerator.
// Soft-deleted documents are included: their numbers stay taken.
type NumberStore struct {
	txm *TxManager
}

// NewNumberStore creates a numerator.Store over the documents table.
func NewNumberStore(txm *TxManager) *NumberStore {
	return &NumberStore{txm: txm}
}

// FindByPrefix implements numerator.Store.
func (s *NumberStore) FindByPrefix(ctx context.Context, docType numerator.DocumentType, prefix string) ([]string, error) {
	sqlStr, args, err := builder().
		Select("number").
		From("documents").
		Where(squirrel.Eq{"doc_type": string(docType)}).
		Where(prefixPredicate(prefix)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.txm.GetQuerier(ctx).QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s numbers: %w", docType, err)
	}
	defer func() { _ = rows.Close() }()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s numbers: %w", docType, err)
	}
	return numbers, nil
}

// FindLatest implements numerator.Store.
func (s *NumberStore) FindLatest(ctx context.Context, docType numerator.DocumentType) (string, bool, error) {
	sqlStr, args, err := builder().
		Select("number").
		From("documents").
		Where(squirrel.Eq{"doc_type": string(docType)}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var number string
	err = s.txm.GetQuerier(ctx).QueryRowContext(ctx, sqlStr, args...).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select latest %s number: %w", docType, err)
	}
	return number, true, nil
}

// Exists implements numerator.Store.
func (s *NumberStore) Exists(ctx context.Context, docType numerator.DocumentType, number string) (bool, error) {
	var exists bool
	err := s.txm.GetQuerier(ctx).QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM documents WHERE doc_type = ? AND number = ?)",
		string(docType), number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s number: %w", docType, err)
	}
	return exists, nil
}

package document_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"billing/internal/core/numerator"
	"billing/internal/infrastructure/storage/postgres"
)

// Ensure compile-time interface compliance.
var _ numerator.Store = (*NumberStore)(nil)

// NumberStore reads document numbers for the numerator.
// Soft-deleted documents are included: their numbers stay taken.
type NumberStore struct {
	txm    *postgres.TxManager
	tables map[numerator.DocumentType]string
}

// NewNumberStore creates a numerator.Store over the document tables.
func NewNumberStore(txm *postgres.TxManager) *NumberStore {
	return &NumberStore{
		txm: txm,
		tables: map[numerator.DocumentType]string{
			numerator.DocInvoice:     invoicesTable,
			numerator.DocChallan:     challansTable,
			numerator.DocEstimate:    estimatesTable,
			numerator.DocCertificate: certificatesTable,
		},
	}
}

func (s *NumberStore) table(docType numerator.DocumentType) (string, error) {
	table, ok := s.tables[docType]
	if !ok {
		return "", fmt.Errorf("no table for document type %q", docType)
	}
	return table, nil
}

func numbersByPrefixQuery(table, prefix string) squirrel.SelectBuilder {
	return builder().
		Select("number").
		From(table).
		Where("number LIKE ? ESCAPE '\\'", likePrefix(prefix))
}

func latestNumberQuery(table string) squirrel.SelectBuilder {
	return builder().
		Select("number").
		From(table).
		OrderBy("created_at DESC", "id DESC").
		Limit(1)
}

// FindByPrefix implements numerator.Store.
func (s *NumberStore) FindByPrefix(ctx context.Context, docType numerator.DocumentType, prefix string) ([]string, error) {
	table, err := s.table(docType)
	if err != nil {
		return nil, err
	}

	sql, args, err := numbersByPrefixQuery(table, prefix).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var numbers []string
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &numbers, sql, args...); err != nil {
		return nil, fmt.Errorf("select numbers from %s: %w", table, err)
	}
	return numbers, nil
}

// FindLatest implements numerator.Store.
func (s *NumberStore) FindLatest(ctx context.Context, docType numerator.DocumentType) (string, bool, error) {
	table, err := s.table(docType)
	if err != nil {
		return "", false, err
	}

	sql, args, err := latestNumberQuery(table).ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var number string
	err = s.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select latest number from %s: %w", table, err)
	}
	return number, true, nil
}

// Exists implements numerator.Store.
func (s *NumberStore) Exists(ctx context.Context, docType numerator.DocumentType, number string) (bool, error) {
	table, err := s.table(docType)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.txm.GetQuerier(ctx).
		QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE number = $1)", number).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check number in %s: %w", table, err)
	}
	return exists, nil
}

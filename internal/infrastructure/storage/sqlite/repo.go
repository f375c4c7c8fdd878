package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"

	"billing/internal/core/apperror"
	"billing/internal/core/entity"
	"billing/internal/core/id"
	"billing/internal/core/numerator"
	"billing/internal/domain"
)

// Document is what the SQLite repository can store.
type Document interface {
	domain.NumberedDocument
	GetDocument() *entity.Document
}

// DocumentRepo implements domain.DocumentRepository for one document type.
type DocumentRepo[T Document] struct {
	txm     *TxManager
	docType numerator.DocumentType
	newFn   func() T
}

// NewDocumentRepo creates a repository for docType.
func NewDocumentRepo[T Document](txm *TxManager, docType numerator.DocumentType, newFn func() T) *DocumentRepo[T] {
	return &DocumentRepo[T]{txm: txm, docType: docType, newFn: newFn}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// Create inserts doc. A taken number yields numerator.ErrDuplicateNumber.
func (r *DocumentRepo[T]) Create(ctx context.Context, doc T) error {
	d := doc.GetDocument()
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.docType, err)
	}

	sqlStr, args, err := builder().
		Insert("documents").
		Columns("id", "doc_type", "number", "date", "client_name", "deletion_mark", "version", "created_at", "updated_at", "payload").
		Values(d.ID.String(), string(r.docType), d.Number, millis(d.Date), d.ClientName, d.DeletionMark, d.Version,
			millis(d.CreatedAt), millis(d.UpdatedAt), string(payload)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sqlStr, args...); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Update stores doc if its version still matches, bumping the version.
func (r *DocumentRepo[T]) Update(ctx context.Context, doc T) error {
	d := doc.GetDocument()
	prevVersion, prevUpdated := d.Version, d.UpdatedAt
	d.Version++
	d.UpdatedAt = time.Now().UTC()

	restore := func() { d.Version, d.UpdatedAt = prevVersion, prevUpdated }

	payload, err := json.Marshal(doc)
	if err != nil {
		restore()
		return fmt.Errorf("encode %s: %w", r.docType, err)
	}

	sqlStr, args, err := builder().
		Update("documents").
		Set("number", d.Number).
		Set("date", millis(d.Date)).
		Set("client_name", d.ClientName).
		Set("version", d.Version).
		Set("updated_at", millis(d.UpdatedAt)).
		Set("payload", string(payload)).
		Where(squirrel.Eq{"id": d.ID.String(), "doc_type": string(r.docType), "version": prevVersion}).
		ToSql()
	if err != nil {
		restore()
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sqlStr, args...)
	if err != nil {
		restore()
		return mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		restore()
		return apperror.NewConcurrentModification(string(r.docType), d.ID.String())
	}
	return nil
}

// Delete soft-deletes a document. Its number stays taken.
func (r *DocumentRepo[T]) Delete(ctx context.Context, docID id.ID) error {
	sqlStr, args, err := builder().
		Update("documents").
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", millis(time.Now())).
		Where(squirrel.Eq{"id": docID.String(), "doc_type": string(r.docType)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.docType, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound(string(r.docType), docID.String())
	}
	return nil
}

// GetByID retrieves a document by ID.
func (r *DocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.getOne(ctx, squirrel.Eq{"id": docID.String()}, docID.String())
}

// GetByNumber retrieves a document by number.
func (r *DocumentRepo[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	return r.getOne(ctx, squirrel.Eq{"number": number}, number)
}

var selectCols = []string{"payload", "number", "deletion_mark", "version", "updated_at"}

func (r *DocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return builder().
		Select(selectCols...).
		From("documents").
		Where(squirrel.Eq{"doc_type": string(r.docType)})
}

func (r *DocumentRepo[T]) getOne(ctx context.Context, where squirrel.Eq, key string) (T, error) {
	var zero T

	sqlStr, args, err := r.baseSelect().Where(where).ToSql()
	if err != nil {
		return zero, fmt.Errorf("build query: %w", err)
	}

	doc, err := r.scan(r.txm.GetQuerier(ctx).QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, apperror.NewNotFound(string(r.docType), key)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", r.docType, key, err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scan decodes the payload and overlays the columns the store owns.
func (r *DocumentRepo[T]) scan(row rowScanner) (T, error) {
	var (
		payload   string
		number    string
		deleted   bool
		version   int
		updatedAt int64
	)
	doc := r.newFn()
	if err := row.Scan(&payload, &number, &deleted, &version, &updatedAt); err != nil {
		return doc, err
	}
	if err := json.Unmarshal([]byte(payload), doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", r.docType, err)
	}

	d := doc.GetDocument()
	d.Number = number
	d.DeletionMark = deleted
	d.Version = version
	d.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return doc, nil
}

var orderColumns = map[string]string{
	"number":     "number",
	"date":       "date",
	"clientName": "client_name",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

func orderBy(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "date DESC", nil
	}
	direction := "ASC"
	if strings.HasPrefix(spec, "-") {
		direction = "DESC"
	}
	field := strings.TrimLeft(spec, "+-")
	col, ok := orderColumns[field]
	if !ok {
		col, ok = orderColumnByName(field)
	}
	if !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", spec)
	}
	return col + " " + direction, nil
}

func orderColumnByName(name string) (string, bool) {
	for _, col := range orderColumns {
		if col == name {
			return col, true
		}
	}
	return "", false
}

func (r *DocumentRepo[T]) applyFilter(q squirrel.SelectBuilder, filter domain.ListFilter) squirrel.SelectBuilder {
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.NumberPrefix != "" {
		q = q.Where(prefixPredicate(filter.NumberPrefix))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		// LIKE is case-insensitive for ASCII in SQLite
		pattern := "%" + escapeLike(s) + "%"
		q = q.Where(squirrel.Or{
			squirrel.Expr(`number LIKE ? ESCAPE '\'`, pattern),
			squirrel.Expr(`client_name LIKE ? ESCAPE '\'`, pattern),
		})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": millis(*filter.DateFrom)})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": millis(*filter.DateTo)})
	}
	return q
}

// prefixPredicate matches numbers starting with prefix, case-sensitively.
func prefixPredicate(prefix string) squirrel.Sqlizer {
	return squirrel.Expr("substr(number, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// List retrieves documents with filtering and pagination.
func (r *DocumentRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset, Items: make([]T, 0)}
	querier := r.txm.GetQuerier(ctx)

	q := r.applyFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRowContext(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	order, err := orderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(order, "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	rows, err := querier.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return result, fmt.Errorf("list %s: %w", r.docType, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		doc, err := r.scan(rows)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, doc)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("list %s: %w", r.docType, err)
	}
	return result, nil
}

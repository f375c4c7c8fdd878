// Package document_repo provides PostgreSQL implementations for document repositories.
// Every document type has its own table with a unique index on number.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"billing/internal/core/apperror"
	coreentity "billing/internal/core/entity"
	"billing/internal/core/id"
	"billing/internal/domain"
	"billing/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo implements the storage operations shared by all numbered
// document types. T is a pointer to a struct carrying db tags.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a repository over tableName. selectCols is both
// the SELECT list and the allowlist for writes and ordering.
func NewBaseDocumentRepo[T any](
	txm *postgres.TxManager,
	tableName string,
	selectCols []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) exec(ctx context.Context, q squirrel.Sqlizer, op string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapWriteError(r.tableName, err)
	}
	return tag.RowsAffected(), nil
}

// Create inserts a new document. A taken number yields numerator.ErrDuplicateNumber.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("%s: entity has no db columns", r.tableName)
	}

	_, err := r.exec(ctx, builder().
		Insert(r.tableName).
		SetMap(postgres.PickColumns(data, r.selectCols)), "insert")
	return err
}

// Update rewrites a document if its version still matches, bumping version.
// The number column is writable so callers can rename a document; the unique
// index still guards it. The stored version and updated_at are copied back
// onto entity.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("%s: entity has no id column", r.tableName)
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("%s: entity has no int version column", r.tableName)
	}

	values := postgres.PickColumns(data, r.selectCols,
		"id", "created_at", "version", "updated_at", "deletion_mark")

	sql, args, err := builder().
		Update(r.tableName).
		SetMap(values).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID, "version": version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	var (
		newVersion int
		updatedAt  time.Time
	)
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}
	if err != nil {
		return postgres.MapWriteError(r.tableName, err)
	}

	if rev, ok := any(entity).(coreentity.Revisable); ok {
		rev.SetRevision(newVersion, updatedAt.UTC())
	}
	return nil
}

// Delete soft-deletes a document. Its number stays in the table and remains taken.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	n, err := r.exec(ctx, builder().
		Update(r.tableName).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}), "delete")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves a document by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.getOne(ctx, squirrel.Eq{"id": entityID}, entityID.String())
}

// GetByNumber retrieves a document by its assigned number, deleted or not.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	return r.getOne(ctx, squirrel.Eq{"number": number}, number)
}

func (r *BaseDocumentRepo[T]) getOne(ctx context.Context, where squirrel.Eq, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := r.baseSelect().Where(where).ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, key)
		}
		return entity, fmt.Errorf("get %s %s: %w", r.tableName, key, err)
	}

	return entity, nil
}

// List returns one page of documents plus the total matching count.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.applyFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q, err = r.page(q, filter)
	if err != nil {
		return result, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}

	return result, nil
}

func (r *BaseDocumentRepo[T]) applyFilter(q squirrel.SelectBuilder, filter domain.ListFilter) squirrel.SelectBuilder {
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.NumberPrefix != "" {
		q = q.Where("number LIKE ? ESCAPE '\\'", likePrefix(filter.NumberPrefix))
	}

	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"client_name": pattern},
		})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	return q
}

func (r *BaseDocumentRepo[T]) page(q squirrel.SelectBuilder, filter domain.ListFilter) (squirrel.SelectBuilder, error) {
	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return q, err
	}
	q = q.OrderBy(orderBy, "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q, nil
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" || !slices.Contains(r.selectCols, field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user or prefix text.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func likePrefix(prefix string) string {
	return escapeLike(prefix) + "%"
}

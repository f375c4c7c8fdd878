package domain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/apperror"
	"billing/internal/core/entity"
	"billing/internal/core/id"
	"billing/internal/core/numerator"
	infranumerator "billing/internal/infrastructure/numerator"
)

type testDoc struct {
	entity.Document
}

func newTestDoc(client string) *testDoc {
	d := &testDoc{Document: entity.NewDocument()}
	d.ClientName = client
	d.Date = time.Date(2025, time.August, 14, 10, 0, 0, 0, time.UTC)
	return d
}

// memoryRepo enforces number uniqueness like the unique index does.
type memoryRepo struct {
	mu   sync.Mutex
	docs map[id.ID]testDoc
	// order of creation, for FindLatest
	order []id.ID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{docs: make(map[id.ID]testDoc)}
}

func (r *memoryRepo) taken(number string, except id.ID) bool {
	for docID, d := range r.docs {
		if d.Number == number && docID != except {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(ctx context.Context, doc *testDoc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(doc.Number, id.ID{}) {
		return fmt.Errorf("insert: %w", numerator.ErrDuplicateNumber)
	}
	r.docs[doc.ID] = *doc
	r.order = append(r.order, doc.ID)
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, docID id.ID) (*testDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("test", docID)
	}
	return &d, nil
}

func (r *memoryRepo) GetByNumber(ctx context.Context, number string) (*testDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.Number == number {
			return &d, nil
		}
	}
	return nil, apperror.NewNotFound("test", number)
}

func (r *memoryRepo) Update(ctx context.Context, doc *testDoc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(doc.Number, doc.ID) {
		return fmt.Errorf("update: %w", numerator.ErrDuplicateNumber)
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.docs[docID]
	d.MarkDeleted()
	r.docs[docID] = d
	return nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) (ListResult[*testDoc], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res ListResult[*testDoc]
	for _, docID := range r.order {
		d := r.docs[docID]
		res.Items = append(res.Items, &d)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memoryRepo) FindByPrefix(ctx context.Context, _ numerator.DocumentType, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, d := range r.docs {
		if strings.HasPrefix(d.Number, prefix) {
			out = append(out, d.Number)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindLatest(ctx context.Context, _ numerator.DocumentType) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return "", false, nil
	}
	return r.docs[r.order[len(r.order)-1]].Number, true, nil
}

func (r *memoryRepo) Exists(ctx context.Context, _ numerator.DocumentType, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.taken(number, id.ID{}), nil
}

type directTx struct{ calls int }

func (d *directTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	d.calls++
	return fn(ctx)
}

func newTestService(repo *memoryRepo) (*DocumentService[*testDoc], *directTx) {
	txm := &directTx{}
	gen := infranumerator.New(repo, infranumerator.Options{Org: "JMD"})
	return NewDocumentService(DocumentServiceConfig[*testDoc]{
		Repo:         repo,
		TxManager:    txm,
		Numerator:    gen,
		DocumentType: numerator.DocChallan,
		EntityName:   "test",
	}), txm
}

func TestDocumentService_CreateAssignsNumbers(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	first := newTestDoc("Acme")
	require.NoError(t, svc.Create(ctx, first))
	assert.Equal(t, "JMD/2025-26/001", first.Number)

	second := newTestDoc("Acme")
	require.NoError(t, svc.Create(ctx, second))
	assert.Equal(t, "JMD/2025-26/002", second.Number)

	stored, err := svc.GetByNumber(ctx, "JMD/2025-26/002")
	require.NoError(t, err)
	assert.Equal(t, second.ID, stored.ID)
}

func TestDocumentService_CreateExplicitNumber(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	manual := newTestDoc("Acme")
	manual.Number = "JMD/2025-26/010"
	require.NoError(t, svc.Create(ctx, manual))
	assert.Equal(t, "JMD/2025-26/010", manual.Number)

	// Same number again falls back to the next generated one
	dup := newTestDoc("Acme")
	dup.Number = "JMD/2025-26/010"
	require.NoError(t, svc.Create(ctx, dup))
	assert.Equal(t, "JMD/2025-26/011", dup.Number)

	padded := newTestDoc("Acme")
	padded.Number = "  JMD/2025-26/030 "
	require.NoError(t, svc.Create(ctx, padded))
	assert.Equal(t, "JMD/2025-26/030", padded.Number)

	stored, err := svc.GetByNumber(ctx, "JMD/2025-26/030")
	require.NoError(t, err)
	assert.Equal(t, padded.ID, stored.ID)
}

func TestDocumentService_CreateRunsHooksBeforeValidate(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	svc.Hooks().OnBeforeCreate(func(ctx context.Context, d *testDoc) error {
		if d.ClientName == "" {
			d.ClientName = "Walk-in"
		}
		return nil
	})

	doc := newTestDoc("")
	require.NoError(t, svc.Create(context.Background(), doc))
	assert.Equal(t, "Walk-in", doc.ClientName)
}

func TestDocumentService_CreateValidationFails(t *testing.T) {
	repo := newMemoryRepo()
	svc, txm := newTestService(repo)

	err := svc.Create(context.Background(), newTestDoc(""))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Zero(t, txm.calls)
}

func TestDocumentService_CreateExhausted(t *testing.T) {
	repo := newMemoryRepo()
	txm := &directTx{}
	gen := &numerator.MockGenerator{
		AllocateAndStoreFunc: func(ctx context.Context, req numerator.Request, persist numerator.PersistFunc) (string, error) {
			return "", apperror.NewSequenceExhausted(string(req.DocumentType), "JMD/2025-26/", 5).
				WithCause(numerator.ErrSequenceExhausted)
		},
	}
	svc := NewDocumentService(DocumentServiceConfig[*testDoc]{
		Repo: repo, TxManager: txm, Numerator: gen, DocumentType: numerator.DocChallan, EntityName: "test",
	})

	doc := newTestDoc("Acme")
	err := svc.Create(context.Background(), doc)
	assert.ErrorIs(t, err, numerator.ErrSequenceExhausted)
	assert.True(t, apperror.IsSequenceExhausted(err))
	assert.Empty(t, doc.Number)
	assert.Empty(t, repo.docs)
}

func TestDocumentService_Update(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	a := newTestDoc("Acme")
	b := newTestDoc("Bolt")
	require.NoError(t, svc.Create(ctx, a))
	require.NoError(t, svc.Create(ctx, b))

	t.Run("blank number keeps existing", func(t *testing.T) {
		edit := *b
		edit.Number = ""
		edit.Comment = "revised"
		require.NoError(t, svc.Update(ctx, &edit))
		assert.Equal(t, "JMD/2025-26/002", edit.Number)
	})

	t.Run("own number is not a conflict", func(t *testing.T) {
		edit := *b
		require.NoError(t, svc.Update(ctx, &edit))
	})

	t.Run("free number is accepted", func(t *testing.T) {
		edit := *b
		edit.Number = "JMD/2025-26/020"
		require.NoError(t, svc.Update(ctx, &edit))

		stored, err := svc.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "JMD/2025-26/020", stored.Number)
	})

	t.Run("surrounding spaces are trimmed", func(t *testing.T) {
		edit := *b
		edit.Number = " JMD/2025-26/021\t"
		require.NoError(t, svc.Update(ctx, &edit))

		stored, err := svc.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "JMD/2025-26/021", stored.Number)
	})

	t.Run("number of another document is rejected", func(t *testing.T) {
		edit := *b
		edit.Number = a.Number
		err := svc.Update(ctx, &edit)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	})
}

func TestDocumentService_DeleteKeepsNumberReserved(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	doc := newTestDoc("Acme")
	require.NoError(t, svc.Create(ctx, doc))
	require.NoError(t, svc.Delete(ctx, doc.ID))

	next := newTestDoc("Acme")
	require.NoError(t, svc.Create(ctx, next))
	assert.Equal(t, "JMD/2025-26/002", next.Number)

	deleted, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	err = svc.Update(ctx, deleted)
	require.Error(t, err)
}

func TestDocumentService_GetByIDNotFound(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())

	_, err := svc.GetByID(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

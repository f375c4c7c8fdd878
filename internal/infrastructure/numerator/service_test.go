package numerator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"billing/internal/core/apperror"
	corenumerator "billing/internal/core/numerator"
)

// memoryStore keeps numbers per document type and rejects duplicates on insert.
type memoryStore struct {
	mu      sync.Mutex
	numbers map[corenumerator.DocumentType][]string
	delay   time.Duration
	err     error
}

func newMemoryStore(numbers ...string) *memoryStore {
	s := &memoryStore{numbers: make(map[corenumerator.DocumentType][]string)}
	s.numbers[corenumerator.DocChallan] = append(s.numbers[corenumerator.DocChallan], numbers...)
	return s
}

func (s *memoryStore) FindByPrefix(_ context.Context, docType corenumerator.DocumentType, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []string
	for _, n := range s.numbers[docType] {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *memoryStore) FindLatest(_ context.Context, docType corenumerator.DocumentType) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	all := s.numbers[docType]
	if len(all) == 0 {
		return "", false, nil
	}
	return all[len(all)-1], true, nil
}

func (s *memoryStore) Exists(_ context.Context, docType corenumerator.DocumentType, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	for _, n := range s.numbers[docType] {
		if n == number {
			return true, nil
		}
	}
	return false, nil
}

// insert simulates a write guarded by a unique index, after a delay that
// widens the window between reading the max and writing.
func (s *memoryStore) insert(docType corenumerator.DocumentType) corenumerator.PersistFunc {
	return func(ctx context.Context, number string) error {
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, n := range s.numbers[docType] {
			if n == number {
				return fmt.Errorf("insert %s: %w", number, corenumerator.ErrDuplicateNumber)
			}
		}
		s.numbers[docType] = append(s.numbers[docType], number)
		return nil
	}
}

var fy2025 = time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

func newTestService(store corenumerator.Store, opts Options) *Service {
	if opts.Org == "" {
		opts.Org = "JMD"
	}
	return New(store, opts)
}

func TestAllocate_FirstOfYear(t *testing.T) {
	svc := newTestService(newMemoryStore(), Options{})

	num, err := svc.Allocate(context.Background(), corenumerator.Request{
		DocumentType: corenumerator.DocChallan,
		AsOf:         fy2025,
	})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/001", num)
}

func TestAllocate_NextAfterMax(t *testing.T) {
	store := newMemoryStore("JMD/2025-26/001", "JMD/2025-26/003")
	svc := newTestService(store, Options{})
	ctx := context.Background()

	maxSeq, err := svc.FindMaxSequence(ctx, corenumerator.DocChallan, "JMD/2025-26/")
	require.NoError(t, err)
	assert.Equal(t, int64(3), maxSeq)

	num, err := svc.Allocate(ctx, corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/004", num)
}

func TestAllocate_IgnoresOtherYearsAndMalformed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := newMemoryStore(
		"JMD/2024-25/090",
		"JMD/2025-26/002",
		"JMD/2025-26/abc",
		"JMD/2025-26/7x",
	)
	svc := newTestService(store, Options{Metrics: metrics})

	num, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/003", num)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.malformed.WithLabelValues("challan")))
}

func TestAllocate_NewFiscalYearRestarts(t *testing.T) {
	store := newMemoryStore("JMD/2025-26/041")
	svc := newTestService(store, Options{})

	num, err := svc.Allocate(context.Background(), corenumerator.Request{
		DocumentType: corenumerator.DocChallan,
		AsOf:         time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2026-27/001", num)
}

func TestAllocate_UsesBusinessTimeZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC)
	svc := newTestService(newMemoryStore(), Options{
		Location: ist,
		Now:      func() time.Time { return now },
	})

	num, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocInvoice})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2026-27/1", num)
}

func TestAllocate_Floor(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, Options{})
	ctx := context.Background()

	num, err := svc.Allocate(ctx, corenumerator.Request{DocumentType: corenumerator.DocEstimate, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/141", num)

	store.numbers[corenumerator.DocEstimate] = []string{"JMD/2025-26/150"}
	num, err = svc.Allocate(ctx, corenumerator.Request{DocumentType: corenumerator.DocEstimate, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/151", num)
}

func TestAllocate_StylePerType(t *testing.T) {
	svc := newTestService(newMemoryStore(), Options{
		Types: map[corenumerator.DocumentType]corenumerator.Config{
			corenumerator.DocInvoice: {Org: "ACME", Style: corenumerator.ZeroPadded(5)},
		},
	})
	ctx := context.Background()

	inv, err := svc.Allocate(ctx, corenumerator.Request{DocumentType: corenumerator.DocInvoice, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "ACME/2025-26/00001", inv)

	cert, err := svc.Allocate(ctx, corenumerator.Request{DocumentType: corenumerator.DocCertificate, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/1", cert)
}

func TestAllocate_UnknownType(t *testing.T) {
	svc := newTestService(newMemoryStore(), Options{})

	_, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: "purchase"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAllocate_RetriesOnCollision(t *testing.T) {
	store := newMemoryStore("JMD/2025-26/003")
	taken := map[string]bool{"JMD/2025-26/004": true, "JMD/2025-26/005": true}
	mock := &corenumerator.MockStore{
		FindByPrefixFunc: store.FindByPrefix,
		ExistsFunc: func(ctx context.Context, docType corenumerator.DocumentType, number string) (bool, error) {
			return taken[number], nil
		},
	}
	svc := newTestService(mock, Options{})

	num, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/006", num)
}

func TestAllocate_Exhausted(t *testing.T) {
	var checks int
	mock := &corenumerator.MockStore{
		ExistsFunc: func(ctx context.Context, docType corenumerator.DocumentType, number string) (bool, error) {
			checks++
			return true, nil
		},
	}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	svc := newTestService(mock, Options{Metrics: metrics})

	num, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
	require.Error(t, err)
	assert.Empty(t, num)
	assert.Equal(t, corenumerator.DefaultMaxAttempts, checks)
	assert.ErrorIs(t, err, corenumerator.ErrSequenceExhausted)
	assert.True(t, apperror.IsSequenceExhausted(err))
	assert.Equal(t, 503, apperror.GetHTTPStatus(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.allocations.WithLabelValues("challan", OutcomeExhausted)))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.collisions.WithLabelValues("challan")))
}

func TestAllocate_SequenceCeiling(t *testing.T) {
	ctx := context.Background()
	req := corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025}

	t.Run("stored max is the largest sequence", func(t *testing.T) {
		svc := newTestService(newMemoryStore("JMD/2025-26/9223372036854775807"), Options{})

		num, err := svc.Allocate(ctx, req)
		require.Error(t, err)
		assert.Empty(t, num)
		assert.ErrorIs(t, err, corenumerator.ErrSequenceExhausted)
	})

	t.Run("last free sequence collides", func(t *testing.T) {
		var checked []string
		mock := &corenumerator.MockStore{
			FindByPrefixFunc: func(ctx context.Context, docType corenumerator.DocumentType, prefix string) ([]string, error) {
				return []string{prefix + "9223372036854775806"}, nil
			},
			ExistsFunc: func(ctx context.Context, docType corenumerator.DocumentType, number string) (bool, error) {
				checked = append(checked, number)
				return true, nil
			},
		}
		svc := newTestService(mock, Options{})

		num, err := svc.Allocate(ctx, req)
		require.Error(t, err)
		assert.Empty(t, num)
		assert.ErrorIs(t, err, corenumerator.ErrSequenceExhausted)
		assert.Equal(t, []string{"JMD/2025-26/9223372036854775807"}, checked)
	})

	t.Run("largest sequence is still handed out", func(t *testing.T) {
		svc := newTestService(newMemoryStore("JMD/2025-26/9223372036854775806"), Options{})

		num, err := svc.Allocate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "JMD/2025-26/9223372036854775807", num)
		seq, ok := corenumerator.ParseSequence(num, "JMD/2025-26/")
		require.True(t, ok)
		assert.Equal(t, int64(math.MaxInt64), seq)
	})
}

func TestAllocate_CustomAttemptBound(t *testing.T) {
	var checks int
	mock := &corenumerator.MockStore{
		ExistsFunc: func(ctx context.Context, docType corenumerator.DocumentType, number string) (bool, error) {
			checks++
			return checks < 8, nil
		},
	}
	svc := newTestService(mock, Options{MaxAttempts: 8})

	num, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/008", num)
}

func TestAllocate_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")

	t.Run("scan", func(t *testing.T) {
		store := newMemoryStore()
		store.err = storeErr
		svc := newTestService(store, Options{})

		_, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
		require.Error(t, err)
		assert.ErrorIs(t, err, storeErr)
		assert.NotErrorIs(t, err, corenumerator.ErrSequenceExhausted)
	})

	t.Run("exists", func(t *testing.T) {
		var calls int
		mock := &corenumerator.MockStore{
			ExistsFunc: func(ctx context.Context, docType corenumerator.DocumentType, number string) (bool, error) {
				calls++
				return false, storeErr
			},
		}
		svc := newTestService(mock, Options{})

		_, err := svc.Allocate(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
		assert.ErrorIs(t, err, storeErr)
		assert.Equal(t, 1, calls, "I/O errors must not be retried")
	})
}

func TestAllocate_Explicit(t *testing.T) {
	store := newMemoryStore("JMD/2025-26/001", "JMD/2025-26/002")
	svc := newTestService(store, Options{})
	ctx := context.Background()

	t.Run("free explicit number is kept", func(t *testing.T) {
		num, err := svc.Allocate(ctx, corenumerator.Request{
			DocumentType: corenumerator.DocChallan,
			AsOf:         fy2025,
			Explicit:     "JMD/2025-26/050",
		})
		require.NoError(t, err)
		assert.Equal(t, "JMD/2025-26/050", num)
	})

	t.Run("explicit number is trimmed", func(t *testing.T) {
		num, err := svc.Allocate(ctx, corenumerator.Request{
			DocumentType: corenumerator.DocChallan,
			AsOf:         fy2025,
			Explicit:     " JMD/2025-26/051 ",
		})
		require.NoError(t, err)
		assert.Equal(t, "JMD/2025-26/051", num)
	})

	t.Run("taken explicit number falls back", func(t *testing.T) {
		num, err := svc.Allocate(ctx, corenumerator.Request{
			DocumentType: corenumerator.DocChallan,
			AsOf:         fy2025,
			Explicit:     "JMD/2025-26/002",
		})
		require.NoError(t, err)
		assert.NotEqual(t, "JMD/2025-26/002", num)
		assert.Equal(t, "JMD/2025-26/003", num)
	})

	t.Run("own number is exempt", func(t *testing.T) {
		num, err := svc.Allocate(ctx, corenumerator.Request{
			DocumentType:  corenumerator.DocChallan,
			AsOf:          fy2025,
			Explicit:      "JMD/2025-26/002",
			CurrentNumber: "JMD/2025-26/002",
		})
		require.NoError(t, err)
		assert.Equal(t, "JMD/2025-26/002", num)
	})

	t.Run("blank explicit is auto", func(t *testing.T) {
		num, err := svc.Allocate(ctx, corenumerator.Request{
			DocumentType: corenumerator.DocChallan,
			AsOf:         fy2025,
			Explicit:     "   ",
		})
		require.NoError(t, err)
		assert.Equal(t, "JMD/2025-26/003", num)
	})
}

func TestFindMaxSequence_Latest(t *testing.T) {
	store := newMemoryStore("JMD/2025-26/009", "JMD/2025-26/004")
	svc := newTestService(store, Options{
		Types: map[corenumerator.DocumentType]corenumerator.Config{
			corenumerator.DocChallan: {Org: "JMD", Style: corenumerator.ZeroPadded(3), Finder: corenumerator.FinderLatest},
		},
	})
	ctx := context.Background()

	seq, err := svc.FindMaxSequence(ctx, corenumerator.DocChallan, "JMD/2025-26/")
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq, "latest strategy only looks at the newest document")

	seq, err = svc.FindMaxSequence(ctx, corenumerator.DocChallan, "JMD/2026-27/")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	// Exists still prevents handing out the higher, older number
	num, err := svc.Allocate(ctx, corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025})
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/005", num)
}

func TestAllocateAndStore_Collision(t *testing.T) {
	store := newMemoryStore("JMD/2025-26/001")
	var persisted []string
	persist := func(ctx context.Context, number string) error {
		persisted = append(persisted, number)
		if number == "JMD/2025-26/002" {
			return fmt.Errorf("unique violation: %w", corenumerator.ErrDuplicateNumber)
		}
		return nil
	}
	svc := newTestService(store, Options{})

	num, err := svc.AllocateAndStore(context.Background(), corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025}, persist)
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/003", num)
	assert.Equal(t, []string{"JMD/2025-26/002", "JMD/2025-26/003"}, persisted)
}

func TestAllocateAndStore_PersistErrorAborts(t *testing.T) {
	writeErr := errors.New("disk full")
	var calls int
	svc := newTestService(newMemoryStore(), Options{})

	_, err := svc.AllocateAndStore(context.Background(),
		corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025},
		func(ctx context.Context, number string) error {
			calls++
			return writeErr
		})
	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, 1, calls)
}

func TestAllocateAndStore_ExplicitTakenFallsBack(t *testing.T) {
	store := newMemoryStore("JMD/2025-26/001", "JMD/2025-26/002")
	svc := newTestService(store, Options{})

	num, err := svc.AllocateAndStore(context.Background(), corenumerator.Request{
		DocumentType: corenumerator.DocChallan,
		AsOf:         fy2025,
		Explicit:     "JMD/2025-26/001",
	}, store.insert(corenumerator.DocChallan))
	require.NoError(t, err)
	assert.Equal(t, "JMD/2025-26/003", num)
}

// Concurrent writers that all read the same max before any of them writes
// must still end up with distinct numbers.
func TestAllocateAndStore_ConcurrentUnique(t *testing.T) {
	tests := []struct {
		name        string
		writers     int
		maxAttempts int
	}{
		{"default bound", corenumerator.DefaultMaxAttempts, 0},
		{"wide bound", 16, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			store.delay = 5 * time.Millisecond
			svc := newTestService(store, Options{MaxAttempts: tt.maxAttempts})

			results := make([]string, tt.writers)
			g, ctx := errgroup.WithContext(context.Background())
			for i := 0; i < tt.writers; i++ {
				g.Go(func() error {
					num, err := svc.AllocateAndStore(ctx,
						corenumerator.Request{DocumentType: corenumerator.DocChallan, AsOf: fy2025},
						store.insert(corenumerator.DocChallan))
					results[i] = num
					return err
				})
			}
			require.NoError(t, g.Wait())

			seen := make(map[string]bool, len(results))
			for _, n := range results {
				assert.False(t, seen[n], "duplicate number %s", n)
				seen[n] = true
			}
			assert.Len(t, seen, tt.writers)

			sort.Strings(results)
			assert.Equal(t, "JMD/2025-26/001", results[0])
			assert.Equal(t, fmt.Sprintf("JMD/2025-26/%03d", tt.writers), results[len(results)-1])
		})
	}
}

package numerator

import (
	"context"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	AllocateFunc         func(ctx context.Context, req Request) (string, error)
	AllocateAndStoreFunc func(ctx context.Context, req Request, persist PersistFunc) (string, error)
}

// Allocate implements Generator.
func (m *MockGenerator) Allocate(ctx context.Context, req Request) (string, error) {
	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, req)
	}
	if req.Explicit != "" {
		return req.Explicit, nil
	}
	// Default: return predictable mock number
	return "MOCK/2025-26/1", nil
}

// AllocateAndStore implements Generator.
func (m *MockGenerator) AllocateAndStore(ctx context.Context, req Request, persist PersistFunc) (string, error) {
	if m.AllocateAndStoreFunc != nil {
		return m.AllocateAndStoreFunc(ctx, req, persist)
	}
	number, err := m.Allocate(ctx, req)
	if err != nil {
		return "", err
	}
	if err := persist(ctx, number); err != nil {
		return "", err
	}
	return number, nil
}

// MockStore is a test implementation of Store.
type MockStore struct {
	FindByPrefixFunc func(ctx context.Context, docType DocumentType, prefix string) ([]string, error)
	FindLatestFunc   func(ctx context.Context, docType DocumentType) (string, bool, error)
	ExistsFunc       func(ctx context.Context, docType DocumentType, number string) (bool, error)
}

// FindByPrefix implements Store.
func (m *MockStore) FindByPrefix(ctx context.Context, docType DocumentType, prefix string) ([]string, error) {
	if m.FindByPrefixFunc != nil {
		return m.FindByPrefixFunc(ctx, docType, prefix)
	}
	return nil, nil
}

// FindLatest implements Store.
func (m *MockStore) FindLatest(ctx context.Context, docType DocumentType) (string, bool, error) {
	if m.FindLatestFunc != nil {
		return m.FindLatestFunc(ctx, docType)
	}
	return "", false, nil
}

// Exists implements Store.
func (m *MockStore) Exists(ctx context.Context, docType DocumentType, number string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, docType, number)
	}
	return false, nil
}

// Ensure compile-time interface compliance.
var (
	_ Generator = (*MockGenerator)(nil)
	_ Store     = (*MockStore)(nil)
)

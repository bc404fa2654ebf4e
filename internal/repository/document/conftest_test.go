package document

import "context"

// mockStore implements the consumer interface for tests.
type mockStore struct {
	putFn    func(ctx context.Context, index, key string, body []byte) error
	getFn    func(ctx context.Context, index, key string) ([]byte, error)
	deleteFn func(ctx context.Context, index, key string) error
}

func (m *mockStore) PutDocument(ctx context.Context, index, key string, body []byte) error {
	if m.putFn != nil {
		return m.putFn(ctx, index, key, body)
	}
	return nil
}

func (m *mockStore) GetDocument(ctx context.Context, index, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, key)
	}
	return []byte(`{}`), nil
}

func (m *mockStore) DeleteDocument(ctx context.Context, index, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, index, key)
	}
	return nil
}

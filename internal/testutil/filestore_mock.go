package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// StoredObject is one object held by MockStore.
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MockStore is an in-memory filestore.Store. PutErr, when set, is returned
// from every Put call.
type MockStore struct {
	mu      sync.Mutex
	objects map[string]StoredObject
	PutErr  error
}

func NewMockStore() *MockStore {
	return &MockStore{objects: map[string]StoredObject{}}
}

func (m *MockStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (m *MockStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", errors.New("no such object")
	}
	return "https://files.test/" + key + "?expires=" + expiry.String(), nil
}

func (m *MockStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Object returns the stored object for key.
func (m *MockStore) Object(key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

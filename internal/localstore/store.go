// Package localstore is the per-session key-value storage the views would
// otherwise keep in the browser. Each session is a namespace.
package localstore

import (
	"context"
	"errors"
	"sync"
)

var ErrNamespaceRequired = errors.New("namespace is required")

type Store interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	Clear(ctx context.Context, namespace string) error
}

// Memory keeps everything in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

func (m *Memory) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if namespace == "" {
		return "", false, ErrNamespaceRequired
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[namespace][key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, namespace, key, value string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]string)
		m.data[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, namespace, key string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[namespace], key)
	return nil
}

func (m *Memory) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace)
	return nil
}

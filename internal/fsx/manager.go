package fsx

import (
	"context"
	"sync"
	"time"

	appconfig "autobahn/internal/config"
)

// Manager picks the adapter for a URI and caches adapters per scheme.
type Manager struct {
	mu    sync.Mutex
	cfg   appconfig.S3Config
	local Adapter
	s3    Adapter
}

func NewManager(cfg appconfig.S3Config) *Manager {
	return &Manager{cfg: cfg, local: LocalAdapter{}}
}

// WithAdapters injects adapters directly; used by tests.
func (m *Manager) WithAdapters(local, s3a Adapter) *Manager {
	m.local = local
	m.s3 = s3a
	return m
}

func (m *Manager) adapterFor(ctx context.Context, uri string) (Adapter, error) {
	if !IsS3URI(uri) {
		return m.local, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s3 == nil {
		a, err := NewS3Adapter(ctx, m.cfg)
		if err != nil {
			return nil, err
		}
		m.s3 = a
	}
	return m.s3, nil
}

func (m *Manager) ReadBytes(ctx context.Context, uri string) ([]byte, error) {
	a, err := m.adapterFor(ctx, uri)
	if err != nil {
		return nil, err
	}
	return a.ReadBytes(ctx, uri)
}

func (m *Manager) WriteBytes(ctx context.Context, uri string, data []byte) error {
	a, err := m.adapterFor(ctx, uri)
	if err != nil {
		return err
	}
	return a.WriteBytes(ctx, uri, data)
}

func (m *Manager) Exists(ctx context.Context, uri string) (bool, error) {
	a, err := m.adapterFor(ctx, uri)
	if err != nil {
		return false, err
	}
	return a.Exists(ctx, uri)
}

func (m *Manager) List(ctx context.Context, uri string) ([]Entry, error) {
	a, err := m.adapterFor(ctx, uri)
	if err != nil {
		return nil, err
	}
	return a.List(ctx, uri)
}

func (m *Manager) Remove(ctx context.Context, uri string) error {
	a, err := m.adapterFor(ctx, uri)
	if err != nil {
		return err
	}
	return a.Remove(ctx, uri)
}

func (m *Manager) Size(ctx context.Context, uri string) (int64, error) {
	a, err := m.adapterFor(ctx, uri)
	if err != nil {
		return 0, err
	}
	return a.Size(ctx, uri)
}

// PresignGet returns a time-limited download URL; only s3 URIs qualify.
func (m *Manager) PresignGet(ctx context.Context, uri string, expiry time.Duration) (string, error) {
	a, err := m.adapterFor(ctx, uri)
	if err != nil {
		return "", err
	}
	return a.PresignGet(ctx, uri, expiry)
}

package repository

import (
	"context"
	"sync"
)

// Avatar is an uploaded profile picture.
type Avatar struct {
	ContentType string
	Data        []byte
}

// MemoryAvatarRepository keeps uploaded pictures by file name.
type MemoryAvatarRepository struct {
	mu    sync.RWMutex
	files map[string]Avatar
}

// NewMemoryAvatarRepository creates an empty repository.
func NewMemoryAvatarRepository() *MemoryAvatarRepository {
	return &MemoryAvatarRepository{files: make(map[string]Avatar)}
}

// Put stores a picture under name, replacing any previous one.
func (r *MemoryAvatarRepository) Put(ctx context.Context, name string, a Avatar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[name] = Avatar{ContentType: a.ContentType, Data: append([]byte(nil), a.Data...)}
	return nil
}

// Get returns the picture stored under name.
func (r *MemoryAvatarRepository) Get(ctx context.Context, name string) (Avatar, error) {
	if err := ctx.Err(); err != nil {
		return Avatar{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.files[name]
	if !ok {
		return Avatar{}, ErrNotFound
	}
	return a, nil
}

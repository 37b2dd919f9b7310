package address

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu        sync.RWMutex
	addresses map[string]Address
}

// NewMemoryRepository builds an in-memory address store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{addresses: make(map[string]Address)}
}

func (r *memoryRepository) Create(_ context.Context, addr Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.addresses[addr.AddressID]; exists {
		return errors.New("address exists")
	}
	r.addresses[addr.AddressID] = addr
	return nil
}

func (r *memoryRepository) FindByAddressID(_ context.Context, addressID string) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.addresses[addressID]
	if !ok {
		return Address{}, ErrAddressNotFound
	}
	return addr, nil
}

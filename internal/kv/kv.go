// Package kv provides the small local key-value store used for
// device-resident state such as the signed-in user's cached profile.
package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"plantcore/pkg/domain"
)

// Driver identifies a concrete key-value backend implementation.
type Driver string

const (
	// DriverFilesystem persists entries as files under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverMemory keeps entries in process memory (tests).
	DriverMemory Driver = "memory"
)

// Store is a minimal local key-value contract. Get reports presence
// explicitly; Delete of an absent key is a no-op.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Driver() Driver
}

// Open selects a Store implementation using environment variables.
//
//	PLANTCORE_KV_DRIVER: fs|memory (default fs)
//	PLANTCORE_KV_FS_ROOT: directory root when driver=fs (default ./kvdata)
func Open() (Store, error) {
	driver := os.Getenv("PLANTCORE_KV_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("PLANTCORE_KV_FS_ROOT"))
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown kv driver %s", driver)
	}
}

// Memory implements Store in process memory.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Driver returns the kv driver identifier.
func (m *Memory) Driver() Driver { return DriverMemory }

// Get returns the value stored under key.
func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores value under key, replacing any prior entry.
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes the entry under key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// profileKey addresses the cached signed-in profile.
const profileKey = "users/current"

// ProfileCache wraps a Store with typed access to the cached user profile.
type ProfileCache struct {
	store Store
}

// NewProfileCache constructs a cache over the given store.
func NewProfileCache(store Store) *ProfileCache {
	return &ProfileCache{store: store}
}

// Save caches the signed-in user's profile.
func (c *ProfileCache) Save(profile domain.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return c.store.Set(profileKey, data)
}

// Load returns the cached profile, reporting absence explicitly.
func (c *ProfileCache) Load() (domain.UserProfile, bool, error) {
	data, ok, err := c.store.Get(profileKey)
	if err != nil || !ok {
		return domain.UserProfile{}, false, err
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return domain.UserProfile{}, false, fmt.Errorf("decode profile: %w", err)
	}
	return profile, true, nil
}

// Clear removes the cached profile.
func (c *ProfileCache) Clear() error {
	return c.store.Delete(profileKey)
}

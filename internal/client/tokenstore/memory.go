package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/common"
)

// MemoryStore keeps the slots in a map. It is used in tests and when the
// client runs without a database file.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// SetSlot writes a raw slot value, bypassing validation. Tests use it to
// seed partial or corrupt state.
func (m *MemoryStore) SetSlot(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), value...)
}

// Slot returns a raw slot value, or nil.
func (m *MemoryStore) Slot(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.slots[key]...)
}

func (m *MemoryStore) Get(_ context.Context) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return credentialFromSlots(m.slots)
}

func (m *MemoryStore) Set(_ context.Context, cred models.Credential) error {
	if !cred.Complete() {
		return ErrPartialCredential
	}
	user, err := json.Marshal(cred.User)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[common.SlotAccess] = []byte(cred.AccessToken)
	m.slots[common.SlotRefresh] = []byte(cred.RefreshToken)
	m.slots[common.SlotUser] = user
	return nil
}

func (m *MemoryStore) UpdateAccess(_ context.Context, expectedRefresh, access, refresh string) (bool, error) {
	if access == "" {
		return false, ErrPartialCredential
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.slots[common.SlotRefresh]
	if !ok || string(current) != expectedRefresh {
		return false, nil
	}
	m.slots[common.SlotAccess] = []byte(access)
	if refresh != "" {
		m.slots[common.SlotRefresh] = []byte(refresh)
	}
	return true, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, common.SlotAccess)
	delete(m.slots, common.SlotRefresh)
	delete(m.slots, common.SlotUser)
	return nil
}

func (m *MemoryStore) ClearIf(_ context.Context, expectedAccess, expectedRefresh string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	access, refresh := string(m.slots[common.SlotAccess]), string(m.slots[common.SlotRefresh])
	if access != "" && refresh != "" && (access != expectedAccess || refresh != expectedRefresh) {
		return false, nil
	}
	delete(m.slots, common.SlotAccess)
	delete(m.slots, common.SlotRefresh)
	delete(m.slots, common.SlotUser)
	return true, nil
}

func (m *MemoryStore) GetDemo(_ context.Context) (*models.DemoSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	demo := &models.DemoSession{
		Token: string(m.slots[common.SlotDemoToken]),
		Name:  string(m.slots[common.SlotDemoName]),
	}
	if !demo.Complete() {
		return nil, nil
	}
	return demo, nil
}

func (m *MemoryStore) SetDemo(_ context.Context, demo models.DemoSession) error {
	if !demo.Complete() {
		return ErrPartialCredential
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[common.SlotDemoToken] = []byte(demo.Token)
	m.slots[common.SlotDemoName] = []byte(demo.Name)
	return nil
}

func (m *MemoryStore) ClearDemo(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, common.SlotDemoToken)
	delete(m.slots, common.SlotDemoName)
	return nil
}

package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/dmitrijs2005/atolye/internal/server/models"
)

// MemoryRepository keeps users in process memory. Logins are matched
// case-insensitively.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*models.User
	byLogin map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[int64]*models.User),
		byLogin: make(map[string]int64),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	key := strings.ToLower(user.UserName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byLogin[key]; ok {
		return nil, common.ErrorAlreadyExists
	}

	r.nextID++
	u := *user
	u.ID = r.nextID
	u.CreatedAt = time.Now()

	r.byID[u.ID] = &u
	r.byLogin[key] = u.ID

	out := u
	return &out, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byLogin[strings.ToLower(login)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

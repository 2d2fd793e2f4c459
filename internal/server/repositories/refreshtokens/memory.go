package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/dmitrijs2005/atolye/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.RefreshToken)}
}

func (r *MemoryRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.ID]; ok {
		return common.ErrorAlreadyExists
	}
	t := *token
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.tokens[t.ID] = t
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, id string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tokens, id)
	return nil
}

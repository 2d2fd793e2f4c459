package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/dmitrijs2005/atolye/internal/dbx"
)

// SQLiteStore implements Store and DemoStore on the metadata table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context) (*models.Credential, error) {
	slots, err := metadata.NewSQLiteRepository(s.db).GetMany(ctx, common.SlotAccess, common.SlotRefresh, common.SlotUser)
	if err != nil {
		return nil, err
	}
	return credentialFromSlots(slots)
}

func (s *SQLiteStore) Set(ctx context.Context, cred models.Credential) error {
	if !cred.Complete() {
		return ErrPartialCredential
	}
	user, err := json.Marshal(cred.User)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.SlotAccess, []byte(cred.AccessToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, common.SlotRefresh, []byte(cred.RefreshToken)); err != nil {
			return err
		}
		return repo.Set(ctx, common.SlotUser, user)
	})
}

func (s *SQLiteStore) UpdateAccess(ctx context.Context, expectedRefresh, access, refresh string) (bool, error) {
	if access == "" {
		return false, ErrPartialCredential
	}

	updated := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		current, err := repo.Get(ctx, common.SlotRefresh)
		if err != nil {
			return err
		}
		if current == nil || string(current) != expectedRefresh {
			return nil
		}

		if err := repo.Set(ctx, common.SlotAccess, []byte(access)); err != nil {
			return err
		}
		if refresh != "" {
			if err := repo.Set(ctx, common.SlotRefresh, []byte(refresh)); err != nil {
				return err
			}
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, common.SlotAccess, common.SlotRefresh, common.SlotUser)
	})
}

func (s *SQLiteStore) ClearIf(ctx context.Context, expectedAccess, expectedRefresh string) (bool, error) {
	cleared := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		slots, err := repo.GetMany(ctx, common.SlotAccess, common.SlotRefresh)
		if err != nil {
			return err
		}
		access, refresh := string(slots[common.SlotAccess]), string(slots[common.SlotRefresh])
		if access != "" && refresh != "" && (access != expectedAccess || refresh != expectedRefresh) {
			return nil
		}

		if err := repo.Delete(ctx, common.SlotAccess, common.SlotRefresh, common.SlotUser); err != nil {
			return err
		}
		cleared = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return cleared, nil
}

func (s *SQLiteStore) GetDemo(ctx context.Context) (*models.DemoSession, error) {
	slots, err := metadata.NewSQLiteRepository(s.db).GetMany(ctx, common.SlotDemoToken, common.SlotDemoName)
	if err != nil {
		return nil, err
	}
	demo := &models.DemoSession{
		Token: string(slots[common.SlotDemoToken]),
		Name:  string(slots[common.SlotDemoName]),
	}
	if !demo.Complete() {
		return nil, nil
	}
	return demo, nil
}

func (s *SQLiteStore) SetDemo(ctx context.Context, demo models.DemoSession) error {
	if !demo.Complete() {
		return ErrPartialCredential
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.SlotDemoToken, []byte(demo.Token)); err != nil {
			return err
		}
		return repo.Set(ctx, common.SlotDemoName, []byte(demo.Name))
	})
}

func (s *SQLiteStore) ClearDemo(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, common.SlotDemoToken, common.SlotDemoName)
}

// credentialFromSlots builds a credential from raw slot values. A missing
// user slot yields an empty profile; an undecodable one is an error.
func credentialFromSlots(slots map[string][]byte) (*models.Credential, error) {
	cred := &models.Credential{
		AccessToken:  string(slots[common.SlotAccess]),
		RefreshToken: string(slots[common.SlotRefresh]),
	}
	if !cred.Complete() {
		return nil, nil
	}

	if raw := slots[common.SlotUser]; len(raw) > 0 {
		if err := json.Unmarshal(raw, &cred.User); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptProfile, err)
		}
	}
	return cred, nil
}

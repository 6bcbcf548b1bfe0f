// internal/storage/kv/store.go
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/storage"
	"go.uber.org/zap"
)

// Префиксы ключей
const (
	globalKey         = "g"
	curvePrefix       = "c/"
	holderPrefix      = "h/"
	walletIdentPrefix = "iw/"
	streamerIDPrefix  = "is/"
)

func curveKey(mint solana.PublicKey) []byte {
	return []byte(curvePrefix + mint.String())
}

func holderKey(mint, user solana.PublicKey) []byte {
	return []byte(holderPrefix + mint.String() + "/" + user.String())
}

func walletIdentKey(wallet solana.PublicKey) []byte {
	return []byte(walletIdentPrefix + wallet.String())
}

func streamerIDKey(id string) []byte {
	return []byte(streamerIDPrefix + id)
}

// Store implements storage.StateStore over a Database with JSON values.
type Store struct {
	db     Database
	logger *zap.Logger
}

var _ storage.StateStore = (*Store)(nil)

// NewStore wraps db.
func NewStore(db Database, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("state_store")}
}

// Open builds a Store for driver "memory" or "leveldb".
func Open(driver, path string, logger *zap.Logger) (*Store, error) {
	switch driver {
	case "", "memory":
		return NewStore(NewMemDB(), logger), nil
	case "leveldb":
		db, err := NewLevelDB(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
		}
		return NewStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

func (s *Store) load(key []byte, out interface{}) error {
	raw, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) Global(_ context.Context) (*domain.GlobalConfig, error) {
	var g domain.GlobalConfig
	if err := s.load([]byte(globalKey), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) Curve(_ context.Context, mint solana.PublicKey) (*domain.Curve, error) {
	var c domain.Curve
	if err := s.load(curveKey(mint), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCurves(_ context.Context) ([]*domain.Curve, error) {
	var curves []*domain.Curve
	err := s.db.Iterate([]byte(curvePrefix), func(key, value []byte) error {
		var c domain.Curve
		if err := json.Unmarshal(value, &c); err != nil {
			return fmt.Errorf("failed to decode %s: %w", key, err)
		}
		curves = append(curves, &c)
		return nil
	})
	return curves, err
}

func (s *Store) Holder(_ context.Context, mint, user solana.PublicKey) (*domain.HolderRecord, error) {
	var h domain.HolderRecord
	if err := s.load(holderKey(mint, user), &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) IdentityByWallet(_ context.Context, wallet solana.PublicKey) (*domain.StreamerIdentity, error) {
	var id domain.StreamerIdentity
	if err := s.load(walletIdentKey(wallet), &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *Store) IdentityByStreamerID(_ context.Context, streamerID string) (*domain.StreamerIdentity, error) {
	var id domain.StreamerIdentity
	if err := s.load(streamerIDKey(streamerID), &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Commit encodes every change first and then writes one batch.
func (s *Store) Commit(ctx context.Context, changes *storage.Changes) error {
	if changes == nil || changes.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := new(Batch)
	put := func(key []byte, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		batch.Put(key, raw)
		return nil
	}

	if changes.Global != nil {
		if err := put([]byte(globalKey), changes.Global); err != nil {
			return err
		}
	}
	for _, c := range changes.Curves {
		if err := put(curveKey(c.Mint), c); err != nil {
			return err
		}
	}
	for _, h := range changes.Holders {
		if err := put(holderKey(h.Mint, h.User), h); err != nil {
			return err
		}
	}
	for _, id := range changes.DeleteIdentities {
		batch.Delete(walletIdentKey(id.Wallet))
		batch.Delete(streamerIDKey(id.StreamerID))
	}
	for _, id := range changes.PutIdentities {
		if err := put(walletIdentKey(id.Wallet), id); err != nil {
			return err
		}
		if err := put(streamerIDKey(id.StreamerID), id); err != nil {
			return err
		}
	}

	if err := s.db.Write(batch); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.logger.Debug("Committed state", zap.Int("writes", batch.Len()))
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/storage/models"
)

// ErrNotFound is returned by lookups of absent records.
var ErrNotFound = errors.New("record not found")

// Changes bundles every record one engine operation touched. Commit applies
// all of them or none.
type Changes struct {
	Global           *domain.GlobalConfig
	Curves           []*domain.Curve
	Holders          []*domain.HolderRecord
	PutIdentities    []*domain.StreamerIdentity
	DeleteIdentities []*domain.StreamerIdentity
}

// Empty reports whether there is nothing to write.
func (c *Changes) Empty() bool {
	return c.Global == nil && len(c.Curves) == 0 && len(c.Holders) == 0 &&
		len(c.PutIdentities) == 0 && len(c.DeleteIdentities) == 0
}

// StateStore определяет интерфейс для хранения состояния движка
type StateStore interface {
	// Глобальная конфигурация
	Global(ctx context.Context) (*domain.GlobalConfig, error)

	// Кривые и держатели
	Curve(ctx context.Context, mint solana.PublicKey) (*domain.Curve, error)
	ListCurves(ctx context.Context) ([]*domain.Curve, error)
	Holder(ctx context.Context, mint, user solana.PublicKey) (*domain.HolderRecord, error)

	// Идентичности стримеров
	IdentityByWallet(ctx context.Context, wallet solana.PublicKey) (*domain.StreamerIdentity, error)
	IdentityByStreamerID(ctx context.Context, streamerID string) (*domain.StreamerIdentity, error)

	Commit(ctx context.Context, changes *Changes) error
	Close() error
}

// TradeFilter narrows ListTrades. Zero values match everything.
type TradeFilter struct {
	Mint         string
	Trader       string
	Side         string
	Start        time.Time
	End          time.Time
	OnlyBuybacks bool
	Limit        int
	Offset       int
}

// RecordStore определяет интерфейс для журнала сделок и выплат
type RecordStore interface {
	// Сделки
	SaveTrade(ctx context.Context, trade *models.TradeRecord) error
	ListTrades(ctx context.Context, filter TradeFilter) ([]*models.TradeRecord, error)

	// Снимки кривых и выплаты
	SaveCurveSnapshot(ctx context.Context, snapshot *models.CurveSnapshot) error
	SaveClaim(ctx context.Context, claim *models.ClaimRecord) error
	ListClaims(ctx context.Context, mint string) ([]*models.ClaimRecord, error)

	// Миграции
	RunMigrations() error
	Close() error
}

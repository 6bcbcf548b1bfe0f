// internal/utils/metrics/metrics.go
package metrics

import (
	"context"
	"time"

	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/events"
	"github.com/yoinknow/curve-engine/internal/storage/models"
)

// ObserveOperation записывает длительность и ошибку операции движка
func (c *Collector) ObserveOperation(op string, elapsed time.Duration, err error) {
	c.operationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		c.operationErrors.WithLabelValues(op, string(domain.KindOf(err))).Inc()
	}
}

// Attach подписывает коллектор на все события шины
func (c *Collector) Attach(bus *events.Bus) events.Subscription {
	return bus.SubscribeAll(c)
}

// Handle implements events.Handler.
func (c *Collector) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.TradeEvent:
		c.recordTrade(e)
	case *events.CompleteEvent:
		c.curvesCompleted.Inc()
	case *events.CreatorFeeClaimedEvent:
		c.claims.WithLabelValues(models.ClaimCreatorFees).Inc()
	case *events.EarlyBirdClaimedEvent:
		c.claims.WithLabelValues(models.ClaimEarlyBird).Inc()
	}
	return nil
}

func (c *Collector) recordTrade(e *events.TradeEvent) {
	side := e.Side()
	c.trades.WithLabelValues(side).Inc()
	c.tradeVolume.WithLabelValues(side).Add(float64(e.SolAmount))

	if e.IsBuyback {
		c.buybacks.Inc()
		c.tokensBurned.Add(float64(e.BurnAmount))
	}

	// Асинхронная шина не гарантирует порядок: учитываем только рост.
	mint := e.Mint.String()
	c.totalsMu.Lock()
	prev := c.totals[mint]
	next := prev
	if e.TotalBurnedSupply > next.burned {
		next.burned = e.TotalBurnedSupply
	}
	if e.TotalTreasurySpent > next.spent {
		next.spent = e.TotalTreasurySpent
	}
	c.totals[mint] = next
	c.totalsMu.Unlock()

	if delta := next.spent - prev.spent; delta > 0 {
		c.treasurySpent.Add(float64(delta))
	}
	c.curveBurned.WithLabelValues(mint).Set(float64(next.burned))
	c.curveSpent.WithLabelValues(mint).Set(float64(next.spent))
}

// internal/utils/metrics/collector.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "curve_engine"

// MetricType представляет тип метрики
type MetricType string

const (
	TradeCounterType       MetricType = "trades"
	TradeVolumeType        MetricType = "trade_volume"
	BuybackCounterType     MetricType = "buybacks"
	TokensBurnedType       MetricType = "tokens_burned"
	TreasurySpentType      MetricType = "treasury_spent"
	CurvesCompletedType    MetricType = "curves_completed"
	ClaimCounterType       MetricType = "claims"
	OperationErrorType     MetricType = "operation_errors"
	OperationDurationType  MetricType = "operation_duration"
	CurveBurnedSupplyType  MetricType = "curve_burned_supply"
	CurveTreasurySpentType MetricType = "curve_treasury_spent"
)

// Collector управляет набором метрик движка
type Collector struct {
	metrics sync.Map

	trades            *prometheus.CounterVec
	tradeVolume       *prometheus.CounterVec
	buybacks          prometheus.Counter
	tokensBurned      prometheus.Counter
	treasurySpent     prometheus.Counter
	curvesCompleted   prometheus.Counter
	claims            *prometheus.CounterVec
	operationErrors   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	curveBurned       *prometheus.GaugeVec
	curveSpent        *prometheus.GaugeVec

	// последние накопительные значения по mint
	totalsMu sync.Mutex
	totals   map[string]curveTotals
}

type curveTotals struct {
	burned uint64
	spent  uint64
}

// NewCollector создает коллектор и регистрирует метрики в reg.
// nil означает prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{totals: make(map[string]curveTotals)}
	c.initializeMetrics(reg)
	return c
}

func (c *Collector) initializeMetrics(reg prometheus.Registerer) {
	c.trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Total number of executed trades",
		},
		[]string{"side"},
	)
	c.tradeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trade_volume_lamports_total",
			Help:      "Curve SOL moved by trades, excluding fees",
		},
		[]string{"side"},
	)
	c.buybacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "buybacks_total",
		Help:      "Treasury buybacks executed",
	})
	c.tokensBurned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_burned_total",
		Help:      "Tokens burned by buybacks",
	})
	c.treasurySpent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "treasury_spent_lamports_total",
		Help:      "Treasury lamports spent on buybacks",
	})
	c.curvesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "curves_completed_total",
		Help:      "Bonding curves that sold out",
	})
	c.claims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Creator fee and early bird claims",
		},
		[]string{"kind"},
	)
	c.operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Rejected engine operations by error kind",
		},
		[]string{"op", "kind"},
	)
	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"op"},
	)
	c.curveBurned = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "curve_burned_supply",
			Help:      "Cumulative burned supply per curve",
		},
		[]string{"mint"},
	)
	c.curveSpent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "curve_treasury_spent_lamports",
			Help:      "Cumulative treasury spend per curve",
		},
		[]string{"mint"},
	)

	metricsMap := map[MetricType]prometheus.Collector{
		TradeCounterType:       c.trades,
		TradeVolumeType:        c.tradeVolume,
		BuybackCounterType:     c.buybacks,
		TokensBurnedType:       c.tokensBurned,
		TreasurySpentType:      c.treasurySpent,
		CurvesCompletedType:    c.curvesCompleted,
		ClaimCounterType:       c.claims,
		OperationErrorType:     c.operationErrors,
		OperationDurationType:  c.operationDuration,
		CurveBurnedSupplyType:  c.curveBurned,
		CurveTreasurySpentType: c.curveSpent,
	}

	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
		reg.MustRegister(metric)
	}
}

// Reset сбрасывает все векторные метрики (полезно для тестирования)
func (c *Collector) Reset() {
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})

	c.totalsMu.Lock()
	c.totals = make(map[string]curveTotals)
	c.totalsMu.Unlock()
}

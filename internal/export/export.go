// internal/export/export.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/storage/models"
	"go.uber.org/zap"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format       ExportFormat
	StartTime    time.Time
	EndTime      time.Time
	MintFilter   string // Filter by token mint
	SideFilter   string // buy or sell
	OnlyBuybacks bool   // Only treasury buyback trades
	OutputDir    string
}

// TradeExporter writes recorded trades to files.
type TradeExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewTradeExporter creates a new trade exporter
func NewTradeExporter(logger *zap.Logger) *TradeExporter {
	return &TradeExporter{
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// ExportTrades exports trades based on the provided options
func (te *TradeExporter) ExportTrades(trades []*models.TradeRecord, options ExportOptions) (string, error) {
	filtered := te.filterTrades(trades, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no trades match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].TradedAt.Before(filtered[j].TradedAt)
	})

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, te.generateFilename(options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = te.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = te.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func (te *TradeExporter) filterTrades(trades []*models.TradeRecord, options ExportOptions) []*models.TradeRecord {
	var filtered []*models.TradeRecord

	for _, trade := range trades {
		if !options.StartTime.IsZero() && trade.TradedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && !trade.TradedAt.Before(options.EndTime) {
			continue
		}
		if options.MintFilter != "" && trade.Mint != options.MintFilter {
			continue
		}
		if options.SideFilter != "" && trade.Side != options.SideFilter {
			continue
		}
		if options.OnlyBuybacks && !trade.IsBuyback {
			continue
		}
		filtered = append(filtered, trade)
	}

	return filtered
}

func (te *TradeExporter) generateFilename(options ExportOptions) string {
	timestamp := te.now().Format("20060102_150405")

	prefix := "trades_all"
	if options.SideFilter != "" {
		prefix = "trades_" + options.SideFilter
	}
	if options.OnlyBuybacks {
		prefix += "_buybacks"
	}
	if mint := options.MintFilter; mint != "" {
		if len(mint) > 8 {
			mint = mint[:8]
		}
		prefix += "_" + mint
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// CSVHeaders returns the column order used by ToCSV.
func CSVHeaders() []string {
	return []string{
		"traded_at", "mint", "trader", "side", "sol", "tokens",
		"buyback", "burned", "price_per_token", "creator_fee",
		"real_sol_reserves", "real_token_reserves", "circulating_supply",
		"entry_state", "entry_rank", "early_bird",
	}
}

// ToCSV renders one trade as a CSV row.
func ToCSV(t *models.TradeRecord) []string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	return []string{
		t.TradedAt.UTC().Format(time.RFC3339),
		t.Mint,
		t.Trader,
		t.Side,
		curve.LamportsToSol(t.SolAmount).String(),
		u(t.TokenAmount),
		strconv.FormatBool(t.IsBuyback),
		u(t.BurnAmount),
		u(t.PricePerToken),
		u(t.CreatorFeeAmount),
		u(t.RealSolReserves),
		u(t.RealTokenReserves),
		u(t.CirculatingSupply),
		t.EntryState,
		u(t.EntryRank),
		strconv.FormatBool(t.IsEarlyBird),
	}
}

func (te *TradeExporter) exportToCSV(trades []*models.TradeRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, trade := range trades {
		if err := writer.Write(ToCSV(trade)); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	writer.Flush()

	return writer.Error()
}

func (te *TradeExporter) exportToJSON(trades []*models.TradeRecord, outputPath string) error {
	exportData := struct {
		ExportTime time.Time             `json:"export_time"`
		TradeCount int                   `json:"trade_count"`
		Trades     []*models.TradeRecord `json:"trades"`
		Summary    ExportSummary         `json:"summary"`
	}{
		ExportTime: te.now(),
		TradeCount: len(trades),
		Trades:     trades,
		Summary:    CalculateSummary(trades),
	}

	return writeJSON(outputPath, exportData)
}

func writeJSON(outputPath string, v any) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary contains summary statistics for exported trades
type ExportSummary struct {
	TotalTrades   int             `json:"total_trades"`
	BuyCount      int             `json:"buy_count"`
	SellCount     int             `json:"sell_count"`
	BuybackCount  int             `json:"buyback_count"`
	UniqueMints   int             `json:"unique_mints"`
	UniqueTraders int             `json:"unique_traders"`
	BuyVolume     uint64          `json:"buy_volume_lamports"`
	SellVolume    uint64          `json:"sell_volume_lamports"`
	TotalVolume   decimal.Decimal `json:"total_volume_sol"`
	TokensBurned  uint64          `json:"tokens_burned"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
}

// CalculateSummary aggregates trades in any order.
func CalculateSummary(trades []*models.TradeRecord) ExportSummary {
	summary := ExportSummary{
		TotalTrades: len(trades),
		TotalVolume: decimal.Zero,
	}
	if len(trades) == 0 {
		return summary
	}

	summary.StartDate = trades[0].TradedAt
	summary.EndDate = trades[0].TradedAt

	mints := make(map[string]struct{})
	traders := make(map[string]struct{})
	for _, trade := range trades {
		mints[trade.Mint] = struct{}{}
		traders[trade.Trader] = struct{}{}
		if trade.TradedAt.Before(summary.StartDate) {
			summary.StartDate = trade.TradedAt
		}
		if trade.TradedAt.After(summary.EndDate) {
			summary.EndDate = trade.TradedAt
		}

		switch trade.Side {
		case "buy":
			summary.BuyCount++
			summary.BuyVolume += trade.SolAmount
		case "sell":
			summary.SellCount++
			summary.SellVolume += trade.SolAmount
		}
		if trade.IsBuyback {
			summary.BuybackCount++
			summary.TokensBurned += trade.BurnAmount
		}
	}

	summary.UniqueMints = len(mints)
	summary.UniqueTraders = len(traders)
	summary.TotalVolume = curve.LamportsToSol(summary.BuyVolume).Add(curve.LamportsToSol(summary.SellVolume))

	return summary
}

// DailyReport represents a daily trading report
type DailyReport struct {
	Date            time.Time             `json:"date"`
	TradeCount      int                   `json:"trade_count"`
	Summary         ExportSummary         `json:"summary"`
	HourlyBreakdown []HourlyStats         `json:"hourly_breakdown"`
	Trades          []*models.TradeRecord `json:"trades"`
}

// HourlyStats represents trading statistics for an hour
type HourlyStats struct {
	Hour         int    `json:"hour"`
	TradeCount   int    `json:"trade_count"`
	BuyCount     int    `json:"buy_count"`
	SellCount    int    `json:"sell_count"`
	BuybackCount int    `json:"buyback_count"`
	Volume       uint64 `json:"volume_lamports"`
	Burned       uint64 `json:"burned"`
}

// ExportDailyReport exports a daily summary report. An empty day writes
// nothing and returns an empty path.
func (te *TradeExporter) ExportDailyReport(trades []*models.TradeRecord, date time.Time, outputDir string) (string, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	filtered := te.filterTrades(trades, ExportOptions{
		StartTime: startOfDay,
		EndTime:   startOfDay.Add(24 * time.Hour),
	})
	if len(filtered) == 0 {
		te.logger.Info("No trades for daily report", zap.Time("date", startOfDay))
		return "", nil
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].TradedAt.Before(filtered[j].TradedAt)
	})

	report := DailyReport{
		Date:            startOfDay,
		TradeCount:      len(filtered),
		Trades:          filtered,
		Summary:         CalculateSummary(filtered),
		HourlyBreakdown: hourlyBreakdown(filtered),
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102")))
	if err := writeJSON(outputPath, report); err != nil {
		return "", err
	}

	te.logger.Info("Daily report exported",
		zap.String("file", outputPath),
		zap.Time("date", startOfDay),
		zap.Int("trades", len(filtered)))

	return outputPath, nil
}

func hourlyBreakdown(trades []*models.TradeRecord) []HourlyStats {
	hourlyMap := make(map[int]*HourlyStats)

	for _, trade := range trades {
		hour := trade.TradedAt.Hour()
		stats, exists := hourlyMap[hour]
		if !exists {
			stats = &HourlyStats{Hour: hour}
			hourlyMap[hour] = stats
		}

		stats.TradeCount++
		stats.Volume += trade.SolAmount
		switch trade.Side {
		case "buy":
			stats.BuyCount++
		case "sell":
			stats.SellCount++
		}
		if trade.IsBuyback {
			stats.BuybackCount++
			stats.Burned += trade.BurnAmount
		}
	}

	var breakdown []HourlyStats
	for hour := 0; hour < 24; hour++ {
		if stats, exists := hourlyMap[hour]; exists {
			breakdown = append(breakdown, *stats)
		}
	}

	return breakdown
}

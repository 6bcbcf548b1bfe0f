// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/yoinknow/curve-engine/internal/curve"
	"github.com/yoinknow/curve-engine/internal/domain"
	"github.com/yoinknow/curve-engine/internal/engine"
	"github.com/yoinknow/curve-engine/internal/utils/logger"
	"go.uber.org/zap"
)

// Reader is the read side of the engine.
type Reader interface {
	Global(ctx context.Context) (*domain.GlobalConfig, error)
	Curve(ctx context.Context, mint solana.PublicKey) (*domain.Curve, error)
	Curves(ctx context.Context) ([]*domain.Curve, error)
	Holder(ctx context.Context, mint, user solana.PublicKey) (*domain.HolderRecord, error)
	QuoteBuy(ctx context.Context, mint solana.PublicKey, amount uint64) (engine.Quote, error)
	QuoteSell(ctx context.Context, mint solana.PublicKey, amount uint64) (engine.Quote, error)
	EstimateTokensForSol(ctx context.Context, mint solana.PublicKey, lamports uint64) (curve.Estimate, error)
}

// LogSource serves recent log entries at /debug/logs.
type LogSource interface {
	Entries(limit int) []logger.Entry
}

// Server serves read-only inspection endpoints.
type Server struct {
	router *chi.Mux
	reader Reader
	logger *zap.Logger
	srv    *http.Server
	logs   LogSource
}

// NewServer builds the router. gatherer may be nil to use the default registry.
func NewServer(addr string, reader Reader, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		router: chi.NewRouter(),
		reader: reader,
		logger: logger.Named("api"),
	}
	s.setupRoutes(gatherer)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/global", s.handleGlobal)
		r.Get("/curves", s.handleCurves)
		r.Route("/curves/{mint}", func(r chi.Router) {
			r.Get("/", s.handleCurve)
			r.Get("/quote", s.handleQuote)
			r.Get("/estimate", s.handleEstimate)
			r.Get("/holders/{user}", s.handleHolder)
		})
	})
}

// WithLogs enables /debug/logs. Call before Start.
func (s *Server) WithLogs(src LogSource) *Server {
	s.logs = src
	s.router.Get("/debug/logs", s.handleLogs)
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	s.logger.Info("🌐 API listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// CurveView is a curve plus derived human-unit figures.
type CurveView struct {
	*domain.Curve
	SpotPriceSol    decimal.Decimal `json:"spot_price_sol"`
	MarketCapSol    decimal.Decimal `json:"market_cap_sol"`
	BackingPerToken uint64          `json:"backing_per_token_lamports"`
}

func newCurveView(c *domain.Curve) CurveView {
	return CurveView{
		Curve:           c,
		SpotPriceSol:    curve.SpotPrice(c),
		MarketCapSol:    curve.MarketCap(c),
		BackingPerToken: curve.BackingPerToken(c),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGlobal(w http.ResponseWriter, r *http.Request) {
	g, err := s.reader.Global(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCurves(w http.ResponseWriter, r *http.Request) {
	curves, err := s.reader.Curves(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]CurveView, 0, len(curves))
	for _, c := range curves {
		views = append(views, newCurveView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathKey(w, r, "mint")
	if !ok {
		return
	}
	c, err := s.reader.Curve(r.Context(), mint)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCurveView(c))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathKey(w, r, "mint")
	if !ok {
		return
	}
	amount, ok := queryUint(w, r, "amount")
	if !ok {
		return
	}

	var (
		q   engine.Quote
		err error
	)
	switch side := r.URL.Query().Get("side"); side {
	case "", "buy":
		q, err = s.reader.QuoteBuy(r.Context(), mint, amount)
	case "sell":
		q, err = s.reader.QuoteSell(r.Context(), mint, amount)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "side must be buy or sell"})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathKey(w, r, "mint")
	if !ok {
		return
	}
	lamports, ok := queryUint(w, r, "lamports")
	if !ok {
		return
	}
	est, err := s.reader.EstimateTokensForSol(r.Context(), mint, lamports)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleHolder(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathKey(w, r, "mint")
	if !ok {
		return
	}
	user, ok := pathKey(w, r, "user")
	if !ok {
		return
	}
	h, err := s.reader.Holder(r.Context(), mint, user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid limit"})
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.logs.Entries(limit))
}

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		s.logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrCurveNotFound), errors.Is(err, domain.ErrHolderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	case de.Kind == domain.KindState:
		status = http.StatusConflict
	}
	writeJSON(w, status, errorBody{Error: de.Message, Code: de.Code})
}

func pathKey(w http.ResponseWriter, r *http.Request, name string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return solana.PublicKey{}, false
	}
	return key, true
}

func queryUint(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

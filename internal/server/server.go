// Package server exposes the inbound HTTP surface: the signal webhook
// that feeds the coordinator, the force-exit toggle, and a live
// open-position probe.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/scheduler"
	"github.com/ericyong81/nova-trader/internal/types"
	"github.com/ericyong81/nova-trader/internal/venue"
)

// Defaults stamped onto intents when the signal omits a field.
type Defaults struct {
	Symbol     string
	SeriesCode string
	LotSize    int
	StrategyID string
}

// Server is the inbound webhook server.
type Server struct {
	handler    scheduler.IntentHandler
	feed       venue.PositionFeed
	toggle     *scheduler.ForceExitToggle
	defaults   Defaults
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a webhook server listening on addr.
func New(addr string, handler scheduler.IntentHandler, feed venue.PositionFeed, toggle *scheduler.ForceExitToggle, defaults Defaults, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		handler:  handler,
		feed:     feed,
		toggle:   toggle,
		defaults: defaults,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.statusHandler)
	mux.HandleFunc("/signal", s.signalHandler)
	mux.HandleFunc("/positions", s.positionsHandler)
	mux.HandleFunc("/forceexit/enable", s.forceExitHandler(true))
	mux.HandleFunc("/forceexit/disable", s.forceExitHandler(false))

	// No write deadline: the signal handler blocks through flatten and
	// history confirmation, which can take minutes at the configured
	// poll bounds. A deadline here would cut the connection before the
	// terminal status is written.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the server in the background.
func (s *Server) Start() error {
	s.logger.Info("starting webhook server", "addr", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("webhook server error", "err", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down webhook server")
	return s.httpServer.Shutdown(ctx)
}

// signalPayload is the inbound signal wire shape. Type "1" opens long,
// "-1" opens short, "0" closes; side narrows a close to one direction.
type signalPayload struct {
	Type       string `json:"type"`
	Symbol     string `json:"symbol"`
	SeriesCode string `json:"seriesCode"`
	LotSize    int    `json:"lotSize"`
	AlgoName   string `json:"algoName"`
	EntryPrice string `json:"entryPrice"`
	Side       string `json:"side"`
}

type signalResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message,omitempty"`
	PL        string `json:"profitLoss,omitempty"`
	PLSkipped bool   `json:"profitLossSkipped,omitempty"`
}

func (s *Server) signalHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload signalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	intent, err := s.buildIntent(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Info("signal received",
		"intent_id", intent.ID,
		"kind", intent.Kind.String(),
		"action", intent.Action.String(),
		"strategy", intent.StrategyID)

	outcome, err := s.handler.Handle(r.Context(), intent)

	resp := signalResponse{
		Status:    string(outcome.Status),
		Reference: outcome.Reference,
		Message:   outcome.Message,
		PLSkipped: outcome.ProfitLossSkipped,
	}
	if outcome.ProfitLossKnown {
		resp.PL = outcome.ProfitLoss.String()
	}

	code := http.StatusOK
	switch {
	case errors.Is(err, types.ErrActionInProgress):
		code = http.StatusConflict
	case errors.Is(err, types.ErrMarketClosingSoon):
		code = http.StatusUnprocessableEntity
	case err != nil:
		code = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) buildIntent(p signalPayload) (types.Intent, error) {
	intent := types.Intent{
		ID:         uuid.NewString(),
		Symbol:     s.defaults.Symbol,
		SeriesCode: s.defaults.SeriesCode,
		LotSize:    s.defaults.LotSize,
		StrategyID: s.defaults.StrategyID,
		ReceivedAt: time.Now(),
	}

	if p.Symbol != "" {
		intent.Symbol = p.Symbol
	}
	if p.SeriesCode != "" {
		intent.SeriesCode = p.SeriesCode
	}
	if p.LotSize > 0 {
		intent.LotSize = p.LotSize
	}
	if p.AlgoName != "" {
		intent.StrategyID = p.AlgoName
	}
	if p.EntryPrice != "" {
		if price, err := decimal.NewFromString(p.EntryPrice); err == nil {
			intent.SignalPrice = price
		}
	}

	switch p.Type {
	case "1":
		intent.Kind = types.IntentEntry
		intent.Action = types.SideBuy
	case "-1":
		intent.Kind = types.IntentEntry
		intent.Action = types.SideSell
	case "0":
		intent.Kind = types.IntentExit
		intent.Action = types.ParseSide(p.Side)
	default:
		return types.Intent{}, types.ErrInvalidIntent
	}

	return intent, nil
}

type statusResponse struct {
	Status           string    `json:"status"`
	ForceExitEnabled bool      `json:"forceExitEnabled"`
	Timestamp        time.Time `json:"timestamp"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	resp := statusResponse{Status: "running", Timestamp: time.Now()}
	if s.toggle != nil {
		resp.ForceExitEnabled = s.toggle.Enabled()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) positionsHandler(w http.ResponseWriter, r *http.Request) {
	positions, err := s.feed.OpenPositions(r.Context())
	if err != nil {
		s.logger.Error("position probe failed", "err", err)
		http.Error(w, "position feed unavailable", http.StatusBadGateway)
		return
	}

	type wirePosition struct {
		Symbol       string `json:"symbol"`
		SeriesCode   string `json:"seriesCode"`
		OpenQuantity string `json:"openQuantity"`
		AveragePrice string `json:"averagePrice"`
	}
	out := make([]wirePosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, wirePosition{
			Symbol:       p.Symbol,
			SeriesCode:   p.SeriesCode,
			OpenQuantity: p.OpenQuantity.String(),
			AveragePrice: p.AveragePrice.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) forceExitHandler(enable bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.toggle == nil {
			http.Error(w, "force-exit toggle not configured", http.StatusNotFound)
			return
		}

		var err error
		if enable {
			err = s.toggle.Enable()
		} else {
			err = s.toggle.Disable()
		}
		if err != nil {
			s.logger.Error("force-exit toggle failed", "enable", enable, "err", err)
			http.Error(w, "toggle failed", http.StatusInternalServerError)
			return
		}

		s.logger.Info("force-exit toggled", "enabled", enable)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"forceExitEnabled": enable})
	}
}

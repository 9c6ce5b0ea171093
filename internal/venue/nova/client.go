package nova

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ericyong81/nova-trader/internal/types"
	"github.com/ericyong81/nova-trader/internal/venue"
)

// Client talks to the Nova mobile-control API. Read endpoints retry
// transient transport failures up to the configured bound; order
// placement is submitted exactly once.
type Client struct {
	cfg      Config
	sessions venue.SessionSource
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewClient creates a Nova client.
func NewClient(cfg Config, sessions venue.SessionSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}

	return &Client{
		cfg:      cfg,
		sessions: sessions,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		logger:   logger,
	}
}

// OpenPositions implements venue.PositionFeed.
func (c *Client) OpenPositions(ctx context.Context) ([]types.Position, error) {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	body := listRequest{Language: "EN", Token: session.Token}

	var resp openPositionsResponse
	if err := c.postWithRetry(ctx, "/GetOpenPositionList", session, body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		// The venue answers 200 with an empty envelope once the session dies.
		return nil, types.ErrSessionExpired
	}

	positions := make([]types.Position, 0, len(resp.Result.Item1))
	for _, p := range resp.Result.Item1 {
		positions = append(positions, p.toPosition())
	}
	return positions, nil
}

// OrderHistory implements venue.OrderHistory.
func (c *Client) OrderHistory(ctx context.Context) ([]types.Order, error) {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	body := listRequest{Language: "EN", Token: session.Token, ViewType: "desktop"}

	var resp orderHistoryResponse
	if err := c.postWithRetry(ctx, "/GetOrderHistory", session, body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, types.ErrSessionExpired
	}

	orders := make([]types.Order, 0, len(resp.Result))
	for _, o := range resp.Result {
		orders = append(orders, o.toOrder())
	}
	return orders, nil
}

// PlaceMarketOrder implements venue.OrderPlacer. The request is sent
// exactly once: resubmitting a market order that may have been accepted
// risks a duplicate fill.
func (c *Client) PlaceMarketOrder(ctx context.Context, side types.Side, seriesCode string, quantity int) (*venue.OrderAck, error) {
	if side == types.SideUnknown {
		return nil, fmt.Errorf("%w: no side", types.ErrInvalidIntent)
	}
	if quantity <= 0 {
		quantity = 1
	}

	session, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	body := placeOrderRequest{
		Order: placeOrderBody{
			AccountNo:      session.Token,
			OrderType:      "M",
			BuySell:        wireSide(side),
			InstrumentCode: c.cfg.InstrumentCode,
			SeriesCode:     seriesCode,
			OrderQuantity:  quantity,
			ExpiryType:     "DAY",
			SenderLocation: "MY",
			OpenOrClose:    "O",
		},
		Source:       "S_0",
		PlatformCode: "M",
	}

	c.logger.Debug("placing market order",
		"side", side,
		"series", seriesCode,
		"quantity", quantity,
	)

	var resp placeOrderResponse
	if err := c.post(ctx, "/PlaceFuturesOrder", session, body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, types.ErrSessionExpired
	}
	if resp.Result.ErrorCode != 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrOrderRejected, resp.Result.ErrorMessage)
	}

	return &venue.OrderAck{
		Reference: resp.Result.OrderNo,
		Message:   resp.Result.ErrorMessage,
	}, nil
}

// postWithRetry posts to a read endpoint, retrying transient transport
// failures with a bounded attempt count. Session expiry and malformed
// payloads are not retried.
func (c *Client) postWithRetry(ctx context.Context, endpoint string, session venue.Session, body, out any) error {
	attempts := c.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.post(ctx, endpoint, session, body, out)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
		c.logger.Warn("venue request failed",
			"endpoint", endpoint,
			"attempt", attempt,
			"err", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return fmt.Errorf("%w: %s: %v", venue.ErrUnavailable, endpoint, lastErr)
}

// post issues one POST to the endpoint with per-call headers.
func (c *Client) post(ctx context.Context, endpoint string, session venue.Session, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL()+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Session-IV", session.SessionIV)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return types.ErrSessionExpired
	}
	// 5xx from the gateway is a transient outage, not a malformed
	// exchange; postWithRetry may try again.
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s returned %d", venue.ErrUnavailable, endpoint, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", venue.ErrBadResponse, endpoint, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", venue.ErrBadResponse, endpoint, err)
	}

	return nil
}

// isTransient reports whether an error is worth another attempt.
func isTransient(err error) bool {
	if errors.Is(err, types.ErrSessionExpired) || errors.Is(err, types.ErrOrderRejected) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, venue.ErrUnavailable) {
		return true
	}
	if errors.Is(err, venue.ErrBadResponse) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// url.Error wrapping of timeouts and connection resets lands here.
	return errors.Is(err, io.ErrUnexpectedEOF) || containsTransportError(err)
}

func containsTransportError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

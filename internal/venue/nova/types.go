package nova

import (
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"
)

// BuySell codes on the Nova wire: 1 = buy, 2 = sell.
const (
	wireBuy  = 1
	wireSell = 2
)

func wireSide(s types.Side) int {
	if s == types.SideSell {
		return wireSell
	}
	return wireBuy
}

func sideFromWire(code int) types.Side {
	switch code {
	case wireBuy:
		return types.SideBuy
	case wireSell:
		return types.SideSell
	default:
		return types.SideUnknown
	}
}

// listRequest is the body shared by the read endpoints.
type listRequest struct {
	Language   string  `json:"Language"`
	SubAccount *string `json:"SubAccount"`
	Token      string  `json:"Token"`
	ViewType   string  `json:"ViewType,omitempty"`
}

// wirePosition mirrors one entry of GetOpenPositionListResult.Item1.
type wirePosition struct {
	SeriesCode      string          `json:"SeriesCode"`
	SeriesTradeCode string          `json:"SeriesTradeCode"`
	OpenQuantity    decimal.Decimal `json:"OpenQuantity"`
	AveragePrice    decimal.Decimal `json:"AveragePrice"`
}

func (w wirePosition) toPosition() types.Position {
	return types.Position{
		Symbol:       w.SeriesTradeCode,
		SeriesCode:   w.SeriesCode,
		OpenQuantity: w.OpenQuantity,
		AveragePrice: w.AveragePrice,
	}
}

// openPositionsResponse mirrors the GetOpenPositionList envelope.
type openPositionsResponse struct {
	Result *struct {
		Item1 []wirePosition `json:"Item1"`
	} `json:"GetOpenPositionListResult"`
}

// wireOrder mirrors one entry of GetOrderHistoryResult.
type wireOrder struct {
	OrderID         string          `json:"OrderId"`
	SeriesCode      string          `json:"SeriesCode"`
	SeriesTradeCode string          `json:"SeriesTradeCode"`
	BuySell         int             `json:"BuySell"`
	OrderQuantity   int             `json:"OrderQuantity"`
	AveragePrice    decimal.Decimal `json:"AveragePrice"`
	OrderStatusDesc string          `json:"OrderStatusDesc"`
	CreatedTime     string          `json:"CreatedTime"`
}

func (w wireOrder) toOrder() types.Order {
	return types.Order{
		OrderID:     w.OrderID,
		Symbol:      w.SeriesTradeCode,
		SeriesCode:  w.SeriesCode,
		Side:        sideFromWire(w.BuySell),
		Quantity:    w.OrderQuantity,
		Price:       w.AveragePrice,
		Status:      types.OrderStatus(w.OrderStatusDesc),
		CreatedTime: parseWireTime(w.CreatedTime),
	}
}

// orderHistoryResponse mirrors the GetOrderHistory envelope.
type orderHistoryResponse struct {
	Result []wireOrder `json:"GetOrderHistoryResult"`
}

// placeOrderRequest mirrors the PlaceFuturesOrder body.
type placeOrderRequest struct {
	Order        placeOrderBody `json:"Order"`
	SubAccount   *string        `json:"SubAccount"`
	Source       string         `json:"Source"`
	PlatformCode string         `json:"PlatformCode"`
}

type placeOrderBody struct {
	AccountNo      string `json:"AccountNo"`
	OrderType      string `json:"OrderType"` // "M" = market
	BuySell        int    `json:"BuySell"`
	InstrumentCode string `json:"InstrumentCode"`
	SeriesCode     string `json:"SeriesCode"`
	OrderQuantity  int    `json:"OrderQuantity"`
	LimitPrice     int    `json:"LimitPrice"`
	StopPrice      int    `json:"StopPrice"`
	ExpiryType     string `json:"ExpiryType"`
	SenderLocation string `json:"SenderLocation"`
	OpenOrClose    string `json:"OpenOrClose"`
	FreeText04     string `json:"FreeText04"`
}

// placeOrderResponse mirrors the PlaceFuturesOrder envelope.
type placeOrderResponse struct {
	Result *struct {
		OrderNo      string `json:"OrderNo"`
		ErrorCode    int    `json:"ErrorCode"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"PlaceFuturesOrderResult"`
}

var wcfDateRe = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

// parseWireTime accepts both the WCF "/Date(ms)/" form and RFC3339.
// A zero time is returned for anything else; callers tolerate it.
func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if m := wcfDateRe.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package alerting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"
)

// TradeSummary aggregates realized trades into a report message.
func TradeSummary(trades []types.RealizedTrade) string {
	if len(trades) == 0 {
		return "No realized trades."
	}

	var total decimal.Decimal
	wins := 0
	for _, t := range trades {
		total = total.Add(t.ProfitLossAmount)
		if t.ProfitLossResult == "Profit" {
			wins++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Realized trades: %d (%d profit, %d loss)\n", len(trades), wins, len(trades)-wins)
	fmt.Fprintf(&b, "Net P/L: %s\n", total.String())
	for _, t := range trades {
		fmt.Fprintf(&b, "  %s -> %s qty=%d amount=%s (%s)\n",
			t.EntryOrderID, t.ExitOrderID, t.Quantity, t.ProfitLossAmount.String(), t.ProfitLossResult)
	}
	return strings.TrimRight(b.String(), "\n")
}

package alert

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"hotelprices/models"
)

// RenderTable formats rows as a GitHub markdown table.
func RenderTable(rows []models.PriceAlertRow) string {
	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"room_name", "check_in", "check_out", "new_low_price", "all_past_prices"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.RoomName,
			r.StartDate,
			r.StopDate,
			r.NewLowPrice.String(),
			joinPrices(r.AllPastPrices),
		})
	}
	return t.RenderMarkdown()
}

func joinPrices(prices []decimal.Decimal) string {
	parts := make([]string, 0, len(prices))
	for _, p := range prices {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ", ")
}

// ComposeMessage builds the chat message announcing rows. Recipients are
// chat user ids mentioned at the top of the message.
func ComposeMessage(rows []models.PriceAlertRow, recipients []string, hotel, dashboardURL string) string {
	var b strings.Builder
	if len(recipients) > 0 {
		mentions := make([]string, 0, len(recipients))
		for _, id := range recipients {
			mentions = append(mentions, fmt.Sprintf("<@%s>", id))
		}
		b.WriteString(strings.Join(mentions, " "))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Found new low prices on %s rooms!  Here are the rooms and check-in/check-out dates with lower prices than those ever seen before:\n", hotel)
	b.WriteString("```\n")
	b.WriteString(RenderTable(rows))
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "For more details see %s.", dashboardURL)
	return b.String()
}

// Package alert finds rooms whose latest price is the lowest ever seen for
// their stay and reports them to a chat webhook.
package alert

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hotelprices/models"
)

// Engine detects new all-time low prices.
type Engine struct {
	discountRoom string
	discountRate decimal.Decimal
}

// NewEngine models a members-only rate for discountRoom at
// price*(1-discountRate). An empty room disables the synthetic rate.
func NewEngine(discountRoom string, discountRate float64) *Engine {
	return &Engine{
		discountRoom: discountRoom,
		discountRate: decimal.NewFromFloat(discountRate),
	}
}

// groupStats accumulates one (room, check-in, check-out) group.
type groupStats struct {
	key         models.StayKey
	prices      []decimal.Decimal
	minPrice    decimal.Decimal
	minSeenAt   time.Time
	lastCollect time.Time
}

// Detect returns one row per stay whose minimum price changed and was first
// seen in the latest collection of that stay. Rows are ordered by room,
// check-in and check-out.
func (e *Engine) Detect(observations []models.PriceObservation) []models.PriceAlertRow {
	rows := e.augment(observations)
	sortObservations(rows)

	var (
		out []models.PriceAlertRow
		cur *groupStats
	)
	flush := func() {
		if cur == nil {
			return
		}
		if len(cur.prices) > 1 && cur.minSeenAt.Equal(cur.lastCollect) {
			out = append(out, models.PriceAlertRow{
				RoomName:      cur.key.RoomName,
				StartDate:     cur.key.StartDate,
				StopDate:      cur.key.StopDate,
				NewLowPrice:   cur.minPrice,
				AllPastPrices: cur.prices,
			})
		}
	}

	for _, o := range rows {
		if cur == nil || o.Key() != cur.key {
			flush()
			// Rows are sorted by price then collection date inside a group,
			// so the first row holds the minimum and its earliest sighting.
			cur = &groupStats{
				key:         o.Key(),
				minPrice:    o.Price,
				minSeenAt:   o.CollectionDate,
				lastCollect: o.CollectionDate,
			}
		}
		if n := len(cur.prices); n == 0 || !cur.prices[n-1].Equal(o.Price) {
			cur.prices = append(cur.prices, o.Price)
		}
		if o.CollectionDate.After(cur.lastCollect) {
			cur.lastCollect = o.CollectionDate
		}
	}
	flush()

	return out
}

// augment copies observations and adds a discounted twin for every
// observation of the membership room.
func (e *Engine) augment(observations []models.PriceObservation) []models.PriceObservation {
	rows := make([]models.PriceObservation, len(observations), len(observations)*2)
	copy(rows, observations)
	if e.discountRoom == "" {
		return rows
	}

	factor := decimal.NewFromInt(1).Sub(e.discountRate)
	for _, o := range observations {
		if o.RoomName != e.discountRoom {
			continue
		}
		member := o
		member.Price = o.Price.Mul(factor)
		rows = append(rows, member)
	}
	return rows
}

func sortObservations(rows []models.PriceObservation) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.RoomName != b.RoomName {
			return a.RoomName < b.RoomName
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		if a.StopDate != b.StopDate {
			return a.StopDate < b.StopDate
		}
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
		return a.CollectionDate.Before(b.CollectionDate)
	})
}

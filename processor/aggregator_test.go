package processor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hotelprices/logger"
	"hotelprices/models"
	"hotelprices/snapshot"
)

func quote(name string, prices ...int64) models.RoomQuote {
	ps := make([]decimal.Decimal, 0, len(prices))
	for _, p := range prices {
		ps = append(ps, decimal.NewFromInt(p))
	}
	return models.RoomQuote{RoomName: name, Prices: models.NewPriceSet(ps)}
}

func snap(ts int64, quotes ...models.RoomQuote) models.Snapshot {
	return models.Snapshot{
		Quotes:      quotes,
		StartDate:   "04/01/2024",
		StopDate:    "04/08/2024",
		Hotel:       "Seven Stars",
		CollectedAt: time.Unix(ts, 500).UTC(),
	}
}

func TestFlatten(t *testing.T) {
	rows := Flatten(snap(1712000000, quote("A", 200, 100), quote("B", 50)))
	require.Len(t, rows, 3)

	require.Equal(t, "A", rows[0].RoomName)
	require.Equal(t, "100", rows[0].Price.String())
	require.Equal(t, "200", rows[1].Price.String())
	require.Equal(t, "B", rows[2].RoomName)

	for _, r := range rows {
		require.Equal(t, int64(1712000000), r.Timestamp)
		require.Equal(t, time.Unix(1712000000, 0).UTC(), r.CollectionDate)
		require.Equal(t, "Seven Stars", r.Hotel)
		require.Equal(t, "04/01/2024", r.StartDate)
		require.Equal(t, "04/08/2024", r.StopDate)
	}
}

func TestAggregateKeepsFileOrder(t *testing.T) {
	agg := NewAggregator(nil, logger.Discard())
	files := []snapshot.File{
		{Path: "runs/data_1_2.json", Snapshots: []models.Snapshot{snap(1, quote("A", 10)), snap(2, quote("A", 9))}},
		{Path: "runs/data_3.json", Snapshots: []models.Snapshot{snap(3, quote("B", 7, 8))}},
	}

	rows, err := agg.Aggregate(files)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var stamps []int64
	for _, r := range rows {
		stamps = append(stamps, r.Timestamp)
	}
	require.Equal(t, []int64{1, 2, 3, 3}, stamps)
}

func TestAggregateRejectsFileWithoutPrices(t *testing.T) {
	agg := NewAggregator(nil, logger.Discard())
	files := []snapshot.File{
		{Path: "runs/data_1.json", Snapshots: []models.Snapshot{snap(1, quote("A", 10))}},
		{Path: "runs/data_2.json", Snapshots: []models.Snapshot{snap(2, models.RoomQuote{RoomName: "B"})}},
	}

	_, err := agg.Aggregate(files)
	require.ErrorIs(t, err, ErrNoObservations)
	require.Contains(t, err.Error(), "runs/data_2.json")
}

func TestAggregateEmptyInput(t *testing.T) {
	rows, err := NewAggregator(nil, logger.Discard()).Aggregate(nil)
	require.NoError(t, err)
	require.Empty(t, rows)
}

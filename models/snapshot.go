package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSet is an ascending, duplicate free list of prices. It is encoded
// in JSON as a plain array of numbers.
type PriceSet []decimal.Decimal

// NewPriceSet sorts and deduplicates prices.
func NewPriceSet(prices []decimal.Decimal) PriceSet {
	sorted := make([]decimal.Decimal, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	out := make(PriceSet, 0, len(sorted))
	for _, p := range sorted {
		if len(out) > 0 && out[len(out)-1].Equal(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MarshalJSON writes the prices as unquoted JSON numbers.
func (p PriceSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(d.String())
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts numbers or numeric strings.
func (p *PriceSet) UnmarshalJSON(data []byte) error {
	var raw []decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode prices: %w", err)
	}
	*p = raw
	return nil
}

// RoomQuote is the set of prices offered for one room type in a single
// collection run.
type RoomQuote struct {
	RoomName string   `json:"room_name"`
	Prices   PriceSet `json:"room_prices"`
}

// Snapshot is the output of one collection run for one stay range.
type Snapshot struct {
	Quotes      []RoomQuote
	StartDate   string
	StopDate    string
	Hotel       string
	CollectedAt time.Time
}

// snapshotRecord is the persisted JSON shape of a Snapshot.
type snapshotRecord struct {
	Prices    []RoomQuote `json:"prices"`
	StartDate string      `json:"start_date"`
	StopDate  string      `json:"stop_date"`
	Hotel     string      `json:"hotel"`
	Timestamp int64       `json:"timestamp"`
}

// MarshalJSON encodes the snapshot in the on-disk record format. The
// collection time is truncated to whole seconds.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	quotes := s.Quotes
	if quotes == nil {
		quotes = []RoomQuote{}
	}
	return json.Marshal(snapshotRecord{
		Prices:    quotes,
		StartDate: s.StartDate,
		StopDate:  s.StopDate,
		Hotel:     s.Hotel,
		Timestamp: s.CollectedAt.Unix(),
	})
}

// UnmarshalJSON decodes the on-disk record format. Unknown fields written
// by older collectors (such as output_path) are ignored.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*s = Snapshot{
		Quotes:      rec.Prices,
		StartDate:   rec.StartDate,
		StopDate:    rec.StopDate,
		Hotel:       rec.Hotel,
		CollectedAt: time.Unix(rec.Timestamp, 0).UTC(),
	}
	return nil
}

// PriceCount returns the number of individual prices across all quotes.
func (s Snapshot) PriceCount() int {
	n := 0
	for _, q := range s.Quotes {
		n += len(q.Prices)
	}
	return n
}

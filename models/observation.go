package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one price seen for one room and stay in one
// snapshot.
type PriceObservation struct {
	RoomName       string
	StartDate      string
	StopDate       string
	Hotel          string
	Timestamp      int64
	CollectionDate time.Time
	Price          decimal.Decimal
}

// StayKey identifies a room for a given check-in/check-out pair.
type StayKey struct {
	RoomName  string
	StartDate string
	StopDate  string
}

// Key returns the grouping key of the observation.
func (o PriceObservation) Key() StayKey {
	return StayKey{RoomName: o.RoomName, StartDate: o.StartDate, StopDate: o.StopDate}
}

// PriceAlertRow reports a room and stay whose latest price is the lowest
// ever observed.
type PriceAlertRow struct {
	RoomName      string
	StartDate     string
	StopDate      string
	NewLowPrice   decimal.Decimal
	AllPastPrices []decimal.Decimal
}

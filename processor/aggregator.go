package processor

import (
	"errors"
	"fmt"
	"time"

	"hotelprices/internal/metrics"
	"hotelprices/logger"
	"hotelprices/models"
	"hotelprices/snapshot"
)

// ErrNoObservations is returned when a snapshot file flattens to no rows.
// Every written snapshot carries at least one price, so this means the
// file is damaged.
var ErrNoObservations = errors.New("snapshot file produced no observations")

// Flatten returns one observation per price of every quote in snap.
func Flatten(snap models.Snapshot) []models.PriceObservation {
	ts := snap.CollectedAt.Unix()
	collected := time.Unix(ts, 0).UTC()

	rows := make([]models.PriceObservation, 0, snap.PriceCount())
	for _, quote := range snap.Quotes {
		for _, price := range quote.Prices {
			rows = append(rows, models.PriceObservation{
				RoomName:       quote.RoomName,
				StartDate:      snap.StartDate,
				StopDate:       snap.StopDate,
				Hotel:          snap.Hotel,
				Timestamp:      ts,
				CollectionDate: collected,
				Price:          price,
			})
		}
	}
	return rows
}

// Aggregator turns decoded snapshot files into one observation table.
type Aggregator struct {
	metrics *metrics.Recorder
	log     *logger.Log
}

func NewAggregator(rec *metrics.Recorder, log *logger.Log) *Aggregator {
	return &Aggregator{metrics: rec, log: log}
}

// Aggregate concatenates the observations of files in file then snapshot
// order.
func (a *Aggregator) Aggregate(files []snapshot.File) ([]models.PriceObservation, error) {
	log := a.log.WithComponent("aggregator")

	var rows []models.PriceObservation
	for _, file := range files {
		before := len(rows)
		for _, snap := range file.Snapshots {
			rows = append(rows, Flatten(snap)...)
		}
		if len(rows) == before {
			log.WithFields(logger.Fields{"path": file.Path}).Error("snapshot file has no prices")
			return nil, fmt.Errorf("%w: %s", ErrNoObservations, file.Path)
		}
	}

	a.metrics.Emit("aggregator", "observations", float64(len(rows)), "count", nil)
	log.WithFields(logger.Fields{
		"files":        len(files),
		"observations": len(rows),
	}).Info("snapshots aggregated")
	return rows, nil
}

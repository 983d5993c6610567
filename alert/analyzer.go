package alert

import (
	"context"
	"fmt"

	"hotelprices/config"
	"hotelprices/internal/metrics"
	"hotelprices/logger"
	"hotelprices/models"
)

// Analyzer runs detection and notifies when something qualifies.
type Analyzer struct {
	engine       *Engine
	notifier     Notifier
	recipients   []string
	hotel        string
	dashboardURL string
	metrics      *metrics.Recorder
	log          *logger.Log
}

func NewAnalyzer(cfg config.AlertConfig, hotel string, notifier Notifier, rec *metrics.Recorder, log *logger.Log) *Analyzer {
	return &Analyzer{
		engine:       NewEngine(cfg.MembershipDiscountRoom, cfg.MembershipDiscountRate),
		notifier:     notifier,
		recipients:   cfg.Recipients,
		hotel:        hotel,
		dashboardURL: cfg.DashboardURL,
		metrics:      rec,
		log:          log,
	}
}

// Run returns the qualifying rows. The notifier is called exactly once when
// there is at least one row and never otherwise.
func (a *Analyzer) Run(ctx context.Context, observations []models.PriceObservation) ([]models.PriceAlertRow, error) {
	log := a.log.WithComponent("analyzer")

	rows := a.engine.Detect(observations)
	a.metrics.Emit("analyzer", "alerts_found", float64(len(rows)), "count", logger.Fields{"hotel": a.hotel})
	if len(rows) == 0 {
		log.WithFields(logger.Fields{"observations": len(observations)}).Info("no new low prices")
		return rows, nil
	}

	msg := ComposeMessage(rows, a.recipients, a.hotel, a.dashboardURL)
	if err := a.notifier.Notify(ctx, msg); err != nil {
		log.WithError(err).Error("failed to deliver price alert")
		return rows, fmt.Errorf("notify: %w", err)
	}

	a.metrics.Emit("analyzer", "alerts_sent", 1, "count", logger.Fields{"hotel": a.hotel})
	log.WithFields(logger.Fields{"rooms": len(rows)}).Info("new low prices reported")
	return rows, nil
}

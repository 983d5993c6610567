package reader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"hotelprices/config"
	"hotelprices/internal/metrics"
	"hotelprices/logger"
	"hotelprices/models"
)

// ErrNoQuotes means a page produced no room with a readable price. It
// almost always points at a markup change rather than a sold-out hotel.
var ErrNoQuotes = errors.New("no room quotes extracted")

// Stay is a check-in/check-out pair as entered on the booking page.
type Stay struct {
	Start string
	Stop  string
}

// ParseStay reads "start:stop".
func ParseStay(raw string) (Stay, error) {
	start, stop, ok := strings.Cut(raw, ":")
	start, stop = strings.TrimSpace(start), strings.TrimSpace(stop)
	if !ok || start == "" || stop == "" {
		return Stay{}, fmt.Errorf("invalid stay %q: want start:stop", raw)
	}
	return Stay{Start: start, Stop: stop}, nil
}

// BuildURL fills the {start_date} and {stop_date} placeholders.
func BuildURL(template string, stay Stay) string {
	return strings.NewReplacer(
		"{start_date}", url.QueryEscape(stay.Start),
		"{stop_date}", url.QueryEscape(stay.Stop),
	).Replace(template)
}

// SnapshotWriter persists one snapshot and returns where it went.
type SnapshotWriter interface {
	Write(ctx context.Context, prefix string, snap models.Snapshot) (string, error)
}

// Collector runs fetch, extract and write for each requested stay.
type Collector struct {
	fetcher   PageFetcher
	extractor *Extractor
	snapshots SnapshotWriter
	source    config.SourceConfig
	limiter   *rate.Limiter
	metrics   *metrics.Recorder
	log       *logger.Log
	now       func() time.Time
}

func NewCollector(source config.SourceConfig, fetcher PageFetcher, snapshots SnapshotWriter, rec *metrics.Recorder, log *logger.Log) *Collector {
	limit := rate.Inf
	if source.RequestInterval > 0 {
		limit = rate.Every(source.RequestInterval)
	}
	return &Collector{
		fetcher:   fetcher,
		extractor: NewExtractor(source.HeadingSelector, source.PriceSelector, log),
		snapshots: snapshots,
		source:    source,
		limiter:   rate.NewLimiter(limit, 1),
		metrics:   rec,
		log:       log,
		now:       time.Now,
	}
}

// Collect fetches the page for stay and writes one snapshot under prefix.
func (c *Collector) Collect(ctx context.Context, prefix string, stay Stay) (string, error) {
	runID := uuid.NewString()
	log := c.log.WithComponent("collector").WithFields(logger.Fields{
		"run_id":     runID,
		"start_date": stay.Start,
		"stop_date":  stay.Stop,
	})

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	pageURL := BuildURL(c.source.URLTemplate, stay)
	log.WithFields(logger.Fields{"url": pageURL}).Info("collecting prices")

	rows, err := c.fetcher.FetchRows(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("collect %s-%s: %w", stay.Start, stay.Stop, err)
	}

	quotes := c.extractor.Extract(rows)
	c.metrics.Emit("collector", "quotes_extracted", float64(len(quotes)), "count", logger.Fields{"hotel": c.source.Hotel})
	if len(quotes) == 0 {
		log.WithFields(logger.Fields{"rows": len(rows)}).Error("page yielded no quotes")
		return "", fmt.Errorf("collect %s-%s: %w", stay.Start, stay.Stop, ErrNoQuotes)
	}

	snap := models.Snapshot{
		Quotes:      quotes,
		StartDate:   stay.Start,
		StopDate:    stay.Stop,
		Hotel:       c.source.Hotel,
		CollectedAt: c.now().UTC(),
	}
	path, err := c.snapshots.Write(ctx, prefix, snap)
	if err != nil {
		return "", err
	}

	c.metrics.Emit("collector", "snapshots_written", 1, "count", logger.Fields{"hotel": c.source.Hotel})
	log.WithFields(logger.Fields{
		"path":   path,
		"rows":   len(rows),
		"quotes": len(quotes),
	}).Info("collection finished")
	return path, nil
}

// CollectAll collects each stay in turn and stops at the first failure.
// Fetches are spaced by the configured request interval.
func (c *Collector) CollectAll(ctx context.Context, prefix string, stays []Stay) ([]string, error) {
	paths := make([]string, 0, len(stays))
	for _, stay := range stays {
		path, err := c.Collect(ctx, prefix, stay)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

package reader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"hotelprices/config"
	"hotelprices/logger"
)

// PageFetcher loads a booking page and returns its room rows.
type PageFetcher interface {
	FetchRows(ctx context.Context, url string) ([]RowElement, error)
}

// HTTPFetcher downloads the page over HTTP and selects rows from the
// returned markup.
type HTTPFetcher struct {
	client      *resty.Client
	rowSelector string
	settleWait  time.Duration
	log         *logger.Log
}

var _ PageFetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(cfg config.SourceConfig, log *logger.Log) *HTTPFetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("User-Agent", cfg.UserAgent)

	return &HTTPFetcher{
		client:      client,
		rowSelector: cfg.RowSelector,
		settleWait:  cfg.SettleWait,
		log:         log,
	}
}

// FetchRows waits for the configured settle time after the response
// arrives, then parses the body. The wait is cut short when ctx is done.
func (f *HTTPFetcher) FetchRows(ctx context.Context, url string) ([]RowElement, error) {
	log := f.log.WithComponent("fetcher").WithFields(logger.Fields{"url": url})
	start := time.Now()

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch page: unexpected status %s", res.Status())
	}

	if f.settleWait > 0 {
		timer := time.NewTimer(f.settleWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	rows := RowsFromDocument(doc, f.rowSelector)

	logger.LogPerformanceEntry(log, "fetcher", "fetch_rows", time.Since(start), logger.Fields{
		"rows":   len(rows),
		"status": res.StatusCode(),
	})
	return rows, nil
}

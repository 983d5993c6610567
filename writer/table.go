// Package writer stores the aggregated observation table as parquet.
package writer

import (
	"context"
	"fmt"
	"time"

	"hotelprices/config"
	"hotelprices/internal/metrics"
	"hotelprices/internal/objectstore"
	"hotelprices/logger"
	"hotelprices/models"
)

// TableWriter replaces the observation table under an output prefix.
type TableWriter struct {
	objects objectstore.Store
	cfg     config.ParquetConfig
	metrics *metrics.Recorder
	log     *logger.Log
}

func NewTableWriter(objects objectstore.Store, cfg config.ParquetConfig, rec *metrics.Recorder, log *logger.Log) *TableWriter {
	return &TableWriter{objects: objects, cfg: cfg, metrics: rec, log: log}
}

// Write encodes rows and stores them at <prefix>/<file name>, replacing
// any previous table.
func (w *TableWriter) Write(ctx context.Context, prefix string, rows []models.PriceObservation) (string, error) {
	start := time.Now()
	data, err := Encode(rows, w.cfg)
	if err != nil {
		return "", err
	}

	key := objectstore.Join(prefix, w.cfg.FileName)
	if err := w.objects.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("write table %s: %w", key, err)
	}

	log := w.log.WithComponent("table_writer")
	logger.LogPerformanceEntry(log, "table_writer", "write_table", time.Since(start), logger.Fields{
		"path":  key,
		"rows":  len(rows),
		"bytes": len(data),
	})
	w.metrics.Emit("table_writer", "table_bytes", float64(len(data)), "bytes", nil)
	return key, nil
}

// ReadTable loads the table stored at key.
func ReadTable(ctx context.Context, objects objectstore.Store, key string) ([]models.PriceObservation, error) {
	data, err := objects.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", key, err)
	}
	rows, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode table %s: %w", key, err)
	}
	return rows, nil
}

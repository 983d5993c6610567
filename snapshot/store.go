// Package snapshot persists collection runs as JSON files in an object
// store and folds many single-run files into range files.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"hotelprices/internal/objectstore"
	"hotelprices/logger"
	"hotelprices/models"
)

var (
	// ErrEmptyFile marks a snapshot file without a single decodable record.
	ErrEmptyFile = errors.New("snapshot file holds no records")
	// ErrSnapshotExists is returned by Write when the target name is taken.
	ErrSnapshotExists = errors.New("snapshot already exists")
)

var (
	snapshotFile = regexp.MustCompile(`^data_(\d+)(?:_(\d+))?\.json$`)
	singleFile   = regexp.MustCompile(`^data_(\d+)\.json$`)
)

// File is one decoded snapshot file.
type File struct {
	Path      string
	Snapshots []models.Snapshot
}

// Store reads and writes snapshot files below a key prefix.
type Store struct {
	objects objectstore.Store
	log     *logger.Log
}

func NewStore(objects objectstore.Store, log *logger.Log) *Store {
	return &Store{objects: objects, log: log}
}

// FileName is the name a snapshot collected at t is stored under.
func FileName(t time.Time) string {
	return fmt.Sprintf("data_%d.json", t.UnixNano())
}

// Write stores snap as a new single-run file. It never replaces an
// existing file.
func (s *Store) Write(ctx context.Context, prefix string, snap models.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := objectstore.Join(prefix, FileName(snap.CollectedAt))
	if err := s.objects.Create(ctx, key, data); err != nil {
		if errors.Is(err, objectstore.ErrExists) {
			return "", fmt.Errorf("%w: %s", ErrSnapshotExists, key)
		}
		return "", fmt.Errorf("write snapshot %s: %w", key, err)
	}

	s.log.WithComponent("snapshot").WithFields(logger.Fields{
		"path":   key,
		"quotes": len(snap.Quotes),
		"prices": snap.PriceCount(),
	}).Info("snapshot written")
	return key, nil
}

// ListFiles returns the single-run and range files directly under prefix.
func (s *Store) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	return s.list(ctx, prefix, snapshotFile)
}

func (s *Store) list(ctx context.Context, prefix string, pattern *regexp.Regexp) ([]string, error) {
	keys, err := s.objects.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	files := make([]string, 0, len(keys))
	for _, key := range keys {
		if pattern.MatchString(objectstore.Base(key)) {
			files = append(files, key)
		}
	}
	return files, nil
}

// ReadAll decodes every snapshot file under prefix. Any file that fails to
// decode, or decodes to nothing, aborts the read.
func (s *Store) ReadAll(ctx context.Context, prefix string) ([]File, error) {
	keys, err := s.ListFiles(ctx, prefix)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(keys))
	total := 0
	for _, key := range keys {
		data, err := s.objects.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", key, err)
		}
		snaps, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
		}
		files = append(files, File{Path: key, Snapshots: snaps})
		total += len(snaps)
	}

	logger.LogDataFlowEntry(s.log.WithComponent("snapshot"), prefix, "aggregator", total, "snapshot")
	return files, nil
}

// Decode reads a file body holding either one JSON object or one object
// per line.
func Decode(data []byte) ([]models.Snapshot, error) {
	var snaps []models.Snapshot
	err := eachRecord(data, func(raw json.RawMessage) error {
		var snap models.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		snaps = append(snaps, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

// eachRecord calls fn for every top-level JSON value in data. It returns
// ErrEmptyFile when there are none.
func eachRecord(data []byte, fn func(json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	n := 0
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", n+1, err)
		}
		if err := fn(raw); err != nil {
			return fmt.Errorf("record %d: %w", n+1, err)
		}
		n++
	}
	if n == 0 {
		return ErrEmptyFile
	}
	return nil
}

package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"hotelprices/internal/objectstore"
	"hotelprices/logger"
)

// CompactResult describes one compaction pass.
type CompactResult struct {
	Target  string
	Sources []string
	Records int
	// Deleted counts the sources removed after the merged file was written.
	Deleted int
}

// Compact merges every single-run file under prefix into one file named
// after the smallest and largest run keys. Range files are left alone. The
// merged file is written before any source is removed, so an interrupted
// pass can only leave duplicates behind.
func (s *Store) Compact(ctx context.Context, prefix string) (CompactResult, error) {
	log := s.log.WithComponent("compaction").WithFields(logger.Fields{"prefix": prefix})

	sources, err := s.list(ctx, prefix, singleFile)
	if err != nil {
		return CompactResult{}, err
	}
	if len(sources) == 0 {
		log.Info("no snapshot files to compact")
		return CompactResult{}, nil
	}

	var (
		minTS, maxTS int64
		lines        [][]byte
	)
	for i, key := range sources {
		ts, err := fileTimestamp(key)
		if err != nil {
			return CompactResult{}, err
		}
		if i == 0 || ts < minTS {
			minTS = ts
		}
		if i == 0 || ts > maxTS {
			maxTS = ts
		}

		data, err := s.objects.Get(ctx, key)
		if err != nil {
			return CompactResult{}, fmt.Errorf("read snapshot %s: %w", key, err)
		}
		records, err := recordLines(data)
		if err != nil {
			return CompactResult{}, fmt.Errorf("compact snapshot %s: %w", key, err)
		}
		lines = append(lines, records...)
	}

	target := objectstore.Join(prefix, fmt.Sprintf("data_%d_%d.json", minTS, maxTS))
	result := CompactResult{Target: target, Sources: sources}

	lines, err = s.mergeExisting(ctx, target, lines)
	if err != nil {
		return result, err
	}
	result.Records = len(lines)

	if err := s.objects.Put(ctx, target, bytes.Join(lines, []byte("\n"))); err != nil {
		return result, fmt.Errorf("write compacted snapshot %s: %w", target, err)
	}

	var errs []error
	for _, key := range sources {
		if err := s.objects.Delete(ctx, key); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete compacted source %s: %w", key, err))
			continue
		}
		result.Deleted++
	}
	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	log.WithFields(logger.Fields{
		"target":  target,
		"sources": len(sources),
		"records": result.Records,
	}).Info("snapshot files compacted")
	return result, nil
}

// mergeExisting keeps the records of a range file already stored at target,
// which happens when an earlier pass wrote it but did not finish deleting
// its sources. Records already present are not repeated.
func (s *Store) mergeExisting(ctx context.Context, target string, lines [][]byte) ([][]byte, error) {
	data, err := s.objects.Get(ctx, target)
	if errors.Is(err, objectstore.ErrNotFound) {
		return lines, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read compacted snapshot %s: %w", target, err)
	}
	existing, err := recordLines(data)
	if err != nil {
		return nil, fmt.Errorf("read compacted snapshot %s: %w", target, err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, line := range existing {
		seen[string(line)] = struct{}{}
	}
	merged := existing
	for _, line := range lines {
		if _, ok := seen[string(line)]; ok {
			continue
		}
		seen[string(line)] = struct{}{}
		merged = append(merged, line)
	}
	return merged, nil
}

// recordLines returns each JSON record of a file body on a single line.
func recordLines(data []byte) ([][]byte, error) {
	var lines [][]byte
	err := eachRecord(data, func(raw json.RawMessage) error {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return err
		}
		lines = append(lines, buf.Bytes())
		return nil
	})
	return lines, err
}

func fileTimestamp(key string) (int64, error) {
	m := singleFile.FindStringSubmatch(objectstore.Base(key))
	if m == nil {
		return 0, fmt.Errorf("not a snapshot file: %s", key)
	}
	ts, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("snapshot timestamp in %s: %w", key, err)
	}
	return ts, nil
}

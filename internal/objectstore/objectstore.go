// Package objectstore is the blob storage used for snapshot files and the
// aggregated price table. Keys are slash separated and relative to the
// backend root (a bucket or a directory).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	appconfig "hotelprices/config"
	"hotelprices/logger"
)

var (
	// ErrNotFound is returned by Get and Delete for a missing key.
	ErrNotFound = errors.New("object not found")
	// ErrExists is returned by Create when the key is already taken.
	ErrExists = errors.New("object already exists")
)

// Store is the narrow set of blob operations the pipeline needs.
type Store interface {
	// Put writes data at key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error
	// Create writes data at key only if no object exists there yet.
	Create(ctx context.Context, key string, data []byte) error
	// List returns the keys directly under prefix (not recursive), sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Backends that cannot tell a missing key apart
	// (S3) treat it as success; others return ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// Location is a parsed storage URL.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocation accepts s3://bucket/prefix, file:///dir and bare paths.
// Bare paths and file URLs are resolved against the local filesystem with
// the whole path as the prefix.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty storage location")
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: "file", Prefix: cleanPrefix(raw)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse storage location %q: %w", raw, err)
	}
	switch u.Scheme {
	case "s3":
		bucket := strings.TrimSpace(u.Host)
		if !appconfig.IsValidS3Bucket(bucket) {
			return Location{}, fmt.Errorf("invalid s3 bucket %q", bucket)
		}
		return Location{Scheme: "s3", Bucket: bucket, Prefix: cleanPrefix(strings.TrimPrefix(u.Path, "/"))}, nil
	case "file":
		return Location{Scheme: "file", Prefix: cleanPrefix(u.Host + u.Path)}, nil
	default:
		return Location{}, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

// Open returns the backend serving loc and the key prefix inside it.
func Open(ctx context.Context, loc Location, cfg appconfig.S3Config, log *logger.Log) (Store, string, error) {
	switch loc.Scheme {
	case "s3":
		store, err := NewS3Store(ctx, loc.Bucket, cfg, log)
		if err != nil {
			return nil, "", err
		}
		return store, loc.Prefix, nil
	case "file":
		return NewLocalStore(""), loc.Prefix, nil
	default:
		return nil, "", fmt.Errorf("unsupported storage scheme %q", loc.Scheme)
	}
}

// Join builds a key from a prefix and a file name.
func Join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

// Base returns the last element of key.
func Base(key string) string {
	return path.Base(key)
}

func cleanPrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

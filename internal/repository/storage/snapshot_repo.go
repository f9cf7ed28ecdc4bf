package storage

import (
	"context"
	"fmt"
	"path"
	"time"
)

// SnapshotStore defines the interface for archived report snapshot storage.
// Snapshots are audit artifacts: they are written once and never replaced or
// removed, so the interface has no delete.
type SnapshotStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// SnapshotObjectPath builds the object key for an archived report snapshot.
// Keys group by year so lifecycle rules can expire whole years at once.
func SnapshotObjectPath(year int, view string, takenAt time.Time) string {
	filename := fmt.Sprintf("%s-%s.csv", view, takenAt.UTC().Format("20060102T150405Z"))
	return path.Join("reports", fmt.Sprintf("%d", year), filename)
}

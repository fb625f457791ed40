package sync

import "errors"

var ErrSnapshotNotFound = errors.New("snapshot not found")

package artifact

import "errors"

var (
	// ErrSnapshotNotFound is returned when the ref file or the snapshot directory is missing.
	ErrSnapshotNotFound = errors.New("model snapshot not found")
	// ErrCorruptArtifact is returned when the ref or snapshot content is unusable.
	ErrCorruptArtifact = errors.New("corrupt model artifact")
)

package npz

import "github.com/meigma/npz/internal/npztype"

// Re-export progress types from npztype.
type (
	// ProgressEvent represents a progress update during a scan, read or
	// append.
	ProgressEvent = npztype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = npztype.ProgressStage

	// ProgressFunc receives progress updates.
	// Implementations must be safe for concurrent calls when used with
	// Archive.ReadAll.
	ProgressFunc = npztype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageScanning indicates an entry header was visited.
	StageScanning = npztype.StageScanning

	// StageReading indicates an entry payload was materialized.
	StageReading = npztype.StageReading

	// StageWriting indicates an entry was written by Append.
	StageWriting = npztype.StageWriting
)

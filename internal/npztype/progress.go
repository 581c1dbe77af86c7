package npztype

// ProgressEvent represents a progress update during a scan, read or append.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Name is the entry currently being processed, if applicable.
	Name string

	// EntriesDone is the number of entry headers visited so far.
	EntriesDone int

	// Bytes is the payload size involved in this event.
	Bytes uint64
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

const (
	// StageScanning indicates an entry header was visited.
	StageScanning ProgressStage = iota

	// StageReading indicates an entry payload was materialized.
	StageReading

	// StageWriting indicates an entry was written by Append.
	StageWriting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageReading:
		return "reading"
	case StageWriting:
		return "writing"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates.
// Archive.ReadAll may call it from several goroutines.
type ProgressFunc func(ProgressEvent)

package domain

// Stage is the ingestion step a file is currently in.
type Stage int

const (
	StageUploading Stage = iota
	StageAnalyzing
	StagePersistingRecord
	StagePersistingIndex
	StageComplete
	StageError
)

var stageNames = map[Stage]string{
	StageUploading:        "uploading",
	StageAnalyzing:        "analyzing",
	StagePersistingRecord: "saving-record",
	StagePersistingIndex:  "indexing",
	StageComplete:         "complete",
	StageError:            "error",
}

var stageLabels = map[Stage]string{
	StageUploading:        "Uploading",
	StageAnalyzing:        "Analyzing",
	StagePersistingRecord: "Saving to database",
	StagePersistingIndex:  "Indexing for search",
	StageComplete:         "Complete",
	StageError:            "Error",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// Label is the human-readable progress text for the stage.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return "Unknown"
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool { return s == StageComplete || s == StageError }

// ProcessingEntry tracks one file of an upload batch.
type ProcessingEntry struct {
	Name  string
	Stage Stage
	Error string
}

// Status returns the inline error when present, otherwise the stage label.
func (e ProcessingEntry) Status() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Stage.Label()
}

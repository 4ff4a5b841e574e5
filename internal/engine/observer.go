package engine

import "time"

// Observer receives pipeline stage transitions for one transcription
// job. Implementations must be safe for concurrent use; chunk callbacks
// fire from the worker goroutines.
type Observer interface {
	JobStarted(jobID, input string)
	Preprocessed(jobID string, total time.Duration)
	Planned(jobID string, windows []Window)
	ChunkStarted(jobID string, index int)
	ChunkFinished(jobID string, index int)
	Merged(jobID string, segments, words int)
	JobFailed(jobID, stage string, err error)
}

// NopObserver ignores every transition.
type NopObserver struct{}

func (NopObserver) JobStarted(string, string) {}

func (NopObserver) Preprocessed(string, time.Duration) {}

func (NopObserver) Planned(string, []Window) {}

func (NopObserver) ChunkStarted(string, int) {}

func (NopObserver) ChunkFinished(string, int) {}

func (NopObserver) Merged(string, int, int) {}

func (NopObserver) JobFailed(string, string, error) {}

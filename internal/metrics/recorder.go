// Package metrics defines observability hooks for document builds. The
// builder and transformer report through the Recorder interface; wiring a
// Prometheus registry is optional (NoopRecorder is the default).
package metrics

import "time"

// ResultLabel enumerates per-document result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultSkipped ResultLabel = "skipped"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for build and transform metrics.
// All methods must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveTransformDuration(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncDocResult(result ResultLabel)
	IncDiagnostic(kind string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTransformDuration(time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)     {}
func (NoopRecorder) IncDocResult(ResultLabel)               {}
func (NoopRecorder) IncDiagnostic(string)                   {}

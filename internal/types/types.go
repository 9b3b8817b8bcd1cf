// Package types holds value types shared across the ingestion and
// forecasting pipeline.
package types

import (
	"fmt"
	"time"
)

// Window is a half-open time interval [Start, End) in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window ending at end and reaching back hours hours.
func NewWindow(end time.Time, hours int) Window {
	end = end.UTC()
	return Window{Start: end.Add(-time.Duration(hours) * time.Hour), End: end}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Bounds is a geographic bounding box in decimal degrees.
type Bounds struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// NorthAmerica is the continental bounding box used by the PBLH subset and
// the gridded-weather fetch grid.
var NorthAmerica = Bounds{LatMin: 15, LatMax: 73, LonMin: -170, LonMax: -49}

// UpsertCounts is the exact outcome triple of one persistence batch.
type UpsertCounts struct {
	Inserted         int `json:"inserted"`
	DuplicateSkipped int `json:"duplicate_skipped"`
	InvalidSkipped   int `json:"invalid_skipped"`
}

// Add accumulates another count triple.
func (c *UpsertCounts) Add(o UpsertCounts) {
	c.Inserted += o.Inserted
	c.DuplicateSkipped += o.DuplicateSkipped
	c.InvalidSkipped += o.InvalidSkipped
}

// Total returns the number of candidate records the triple accounts for.
func (c UpsertCounts) Total() int {
	return c.Inserted + c.DuplicateSkipped + c.InvalidSkipped
}

// FailureKind classifies user-visible pipeline failures.
type FailureKind string

const (
	KindSourceUnavailable FailureKind = "SourceUnavailable"
	KindInvalidRecord     FailureKind = "InvalidRecord"
	KindDuplicateRecord   FailureKind = "DuplicateRecord"
	KindPersistenceError  FailureKind = "PersistenceError"
	KindInsufficientData  FailureKind = "InsufficientData"
	KindModelMissing      FailureKind = "ModelMissing"
	KindFeatureMismatch   FailureKind = "FeatureMismatch"
	KindAQIOutOfRange     FailureKind = "AQIOutOfRange"

	// KindTrainingInProgress rejects a training request while another run
	// holds the single admission slot.
	KindTrainingInProgress FailureKind = "TrainingInProgress"
)

// Failure is a structured, user-visible failure object.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// NewFailure builds a Failure with a formatted detail message.
func NewFailure(kind FailureKind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Package result defines the record produced for every executed item. The
// ordered tree of these records is the engine's sole externally observable
// artifact.
package result

import "time"

// Status is the lifecycle state of one executed item.
type Status string

const (
	NotRun Status = "NOT_RUN"
	Pass   Status = "PASS"
	Fail   Status = "FAIL"
)

// Result is the record for one executed keyword, loop header or loop
// iteration. It is created in NotRun state immediately before execution,
// moved exactly once to a terminal status, and always finalized (end time
// set, end hook notified) regardless of how execution left the item.
type Result struct {
	Name        string
	LibraryName string
	Doc         string
	Args        []string
	Assign      []string
	Timeout     string
	Type        string
	Status      Status
	Message     string
	StartTime   time.Time
	EndTime     time.Time

	// Children mirror the executed structure beneath this item; the
	// session's start/end hooks maintain them.
	Children []*Result
}

// New creates a Result in NotRun state with the given start time.
func New(name string, itemType string, start time.Time) *Result {
	return &Result{
		Name:      name,
		Type:      itemType,
		Status:    NotRun,
		StartTime: start,
	}
}

// Finalized reports whether the record reached a terminal status and has
// its end time set.
func (r *Result) Finalized() bool {
	return (r.Status == Pass || r.Status == Fail) && !r.EndTime.IsZero()
}

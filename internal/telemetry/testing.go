package telemetry

import (
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelBroken
	LevelCount
)

// Report is a single call recorded by TestAPI.
type Report struct {
	Level  Level
	ID     string
	Params []any
	Count  int64
}

// TestAPI records every report so tests can assert on what a component logged.
type TestAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func (t *TestAPI) record(r Report) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.reports = append(t.reports, r)
}

func (t *TestAPI) ReportBroken(id string, params ...any) {
	t.record(Report{Level: LevelBroken, ID: id, Params: params})
}

func (t *TestAPI) ReportWarning(id string, params ...any) {
	t.record(Report{Level: LevelWarning, ID: id, Params: params})
}

func (t *TestAPI) ReportInfo(msg string, params ...any) {
	t.record(Report{Level: LevelInfo, ID: msg, Params: params})
}

func (t *TestAPI) ReportDebug(msg string, params ...any) {
	t.record(Report{Level: LevelDebug, ID: msg, Params: params})
}

func (t *TestAPI) ReportCount(id string, count int64) {
	t.record(Report{Level: LevelCount, ID: id, Count: count})
}

// Reports returns a copy of everything recorded so far.
func (t *TestAPI) Reports() []Report {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	out := make([]Report, len(t.reports))
	copy(out, t.reports)
	return out
}

// Find returns the reports of the given level whose id contains substr.
func (t *TestAPI) Find(level Level, substr string) []Report {
	var out []Report
	for _, r := range t.Reports() {
		if r.Level == level && strings.Contains(r.ID, substr) {
			out = append(out, r)
		}
	}
	return out
}

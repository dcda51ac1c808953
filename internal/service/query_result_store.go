package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	defaultMaxCumulativeRows = 50000
	defaultMaxResults        = 1000
	defaultMinResultAge      = 10 * time.Minute
)

// ResultStore keeps finished job results until the cumulative row count or
// the number of results exceeds its budget, then evicts the oldest results
// that are past minAge.
type ResultStore struct {
	mu                sync.RWMutex
	results           map[string]*JobResult
	maxCumulativeRows int
	maxResults        int
	minAge            time.Duration
	now               func() time.Time
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results:           make(map[string]*JobResult),
		maxCumulativeRows: defaultMaxCumulativeRows,
		maxResults:        defaultMaxResults,
		minAge:            defaultMinResultAge,
		now:               time.Now,
	}
}

// Add stores result and returns the ids of any results evicted to make room.
func (s *ResultStore) Add(result *JobResult) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[result.JobID] = result
	slog.Debug("query result stored",
		slog.String("jobId", result.JobID),
		slog.String("connectionId", result.ConnectionID),
		slog.Int("rowCount", result.rowCount()),
		slog.Bool("truncated", result.Truncated),
	)
	return s.cleanup()
}

func (s *ResultStore) Get(jobID string) (*JobResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[jobID]
	return result, ok
}

func (s *ResultStore) cleanup() []string {
	total := 0
	for _, r := range s.results {
		total += r.rowCount()
	}
	over := func() bool {
		return total > s.maxCumulativeRows || len(s.results) > s.maxResults
	}
	if !over() {
		return nil
	}

	sorted := make([]*JobResult, 0, len(s.results))
	for _, r := range s.results {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FinishedAt.Before(sorted[j].FinishedAt) })

	now := s.now()
	var evicted []string
	for _, r := range sorted {
		if !over() {
			break
		}
		if now.Sub(r.FinishedAt) < s.minAge {
			continue
		}
		delete(s.results, r.JobID)
		total -= r.rowCount()
		evicted = append(evicted, r.JobID)
		slog.Debug("query result evicted",
			slog.String("jobId", r.JobID),
			slog.Int("rowCount", r.rowCount()),
			slog.Duration("age", now.Sub(r.FinishedAt)),
		)
	}
	return evicted
}

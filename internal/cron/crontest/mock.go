// Package crontest provides test doubles for the cron package.
package crontest

import (
	"sync/atomic"
	"time"
)

// MockPruner is a test double for cron.SessionPruner.
type MockPruner struct {
	PruneFunc  func(maxIdle time.Duration) int
	PruneCalls atomic.Int32
}

// Prune implements cron.SessionPruner.
func (m *MockPruner) Prune(maxIdle time.Duration) int {
	m.PruneCalls.Add(1)
	if m.PruneFunc != nil {
		return m.PruneFunc(maxIdle)
	}
	return 0
}

// MockSweeper is a test double for cron.CacheSweeper.
type MockSweeper struct {
	Removed    int
	SweepCalls atomic.Int32
}

// Sweep implements cron.CacheSweeper.
func (m *MockSweeper) Sweep() int {
	m.SweepCalls.Add(1)
	return m.Removed
}

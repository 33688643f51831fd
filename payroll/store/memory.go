// Package store provides RecordSetProvider implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory record-sets (for testing/dev)
// =============================================================================

// Memory keeps record-sets keyed by employee and exact period. Putting a set
// for a key that already exists replaces it, the same way a resubmitted
// timesheet replaces the earlier one.
type Memory struct {
	mu   sync.RWMutex
	sets map[key]payroll.RecordSet
}

type key struct {
	EmployeeID string
	Start      string
	End        string
}

func NewMemory() *Memory {
	return &Memory{sets: make(map[key]payroll.RecordSet)}
}

func keyOf(rs payroll.RecordSet) key {
	return key{EmployeeID: rs.EmployeeID, Start: rs.Period.Start.String(), End: rs.Period.End.String()}
}

// Put stores a record-set, replacing any set for the same employee and period.
func (m *Memory) Put(rs payroll.RecordSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]payroll.AttendanceRecord, len(rs.Records))
	copy(records, rs.Records)
	rs.Records = records
	m.sets[keyOf(rs)] = rs
}

// PutAll stores several record-sets.
func (m *Memory) PutAll(sets ...payroll.RecordSet) {
	for _, rs := range sets {
		m.Put(rs)
	}
}

// Len returns the number of stored record-sets.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sets)
}

// RecordSetsOverlapping implements payroll.RecordSetProvider. Results are
// ordered by period start, then period end, then employee and set ID.
func (m *Memory) RecordSetsOverlapping(_ context.Context, period payroll.Period) ([]payroll.RecordSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.RecordSet
	for _, rs := range m.sets {
		if rs.Period.Overlaps(period) {
			result = append(result, rs)
		}
	}
	sort.Slice(result, func(i, j int) bool { return periodLess(result[i], result[j]) })
	return result, nil
}

// periodLess orders record-sets by period start, period end, employee, ID.
// No two stored sets compare equal, so callers never see map order.
func periodLess(a, b payroll.RecordSet) bool {
	switch {
	case !a.Period.Start.Equal(b.Period.Start):
		return a.Period.Start.Before(b.Period.Start)
	case !a.Period.End.Equal(b.Period.End):
		return a.Period.End.Before(b.Period.End)
	case a.EmployeeID != b.EmployeeID:
		return a.EmployeeID < b.EmployeeID
	default:
		return a.ID < b.ID
	}
}

// ByEmployee returns all of one employee's record-sets, newest period first.
func (m *Memory) ByEmployee(employeeID string) []payroll.RecordSet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.RecordSet
	for k, rs := range m.sets {
		if k.EmployeeID == employeeID {
			result = append(result, rs)
		}
	}
	sort.Slice(result, func(i, j int) bool { return periodLess(result[j], result[i]) })
	return result
}

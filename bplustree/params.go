package bplus

import (
	"fmt"
	"sync"
)

// Runtime knobs for the leaf-scan fast paths. Both features default to off so
// an unconfigured tree behaves exactly like the plain binary-search engine.
const (
	DefaultLinearScanThreshold = 4
	MinLinearScanThreshold     = 1
	MaxLinearScanThreshold     = 32
)

// ErrThresholdOutOfRange is returned when a linear scan threshold outside
// [MinLinearScanThreshold, MaxLinearScanThreshold] is submitted. The stored
// value is left unchanged.
var ErrThresholdOutOfRange = fmt.Errorf(
	"linear scan threshold out of range [%d,%d]", MinLinearScanThreshold, MaxLinearScanThreshold)

// ScanParams is an immutable-per-call snapshot of the scan knobs. The scan
// driver takes one snapshot at the top of each page visit; concurrent setting
// changes become visible on the next visit, never mid-page.
type ScanParams struct {
	PrefetchEnabled     bool
	LinearScanEnabled   bool
	LinearScanThreshold int
}

// ParamStore holds scan parameters behind a read-mostly lock. One store acts
// as the process-wide defaults; each ScanSession carries its own copy.
type ParamStore struct {
	mu     sync.RWMutex
	params ScanParams
}

// NewParamStore returns a store with the default parameters: prefetch off,
// linear scan off, threshold 4.
func NewParamStore() *ParamStore {
	return &ParamStore{
		params: ScanParams{
			PrefetchEnabled:     false,
			LinearScanEnabled:   false,
			LinearScanThreshold: DefaultLinearScanThreshold,
		},
	}
}

// Snapshot returns a copy of the current parameters.
func (s *ParamStore) Snapshot() ScanParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// SetPrefetchEnabled toggles sibling prefetching.
func (s *ParamStore) SetPrefetchEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.PrefetchEnabled = enabled
}

// SetLinearScanEnabled toggles the linear intra-page search path.
func (s *ParamStore) SetLinearScanEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.LinearScanEnabled = enabled
}

// SetLinearScanThreshold sets the max item count for which the linear path is
// taken. Values outside [1,32] are rejected with ErrThresholdOutOfRange and
// the prior value is kept.
func (s *ParamStore) SetLinearScanThreshold(threshold int) error {
	if threshold < MinLinearScanThreshold || threshold > MaxLinearScanThreshold {
		return fmt.Errorf("set threshold %d: %w", threshold, ErrThresholdOutOfRange)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.LinearScanThreshold = threshold
	return nil
}

// defaultParams is the process-wide store consulted when a session is opened.
var defaultParams = NewParamStore()

// DefaultParams returns the process-wide parameter store.
func DefaultParams() *ParamStore {
	return defaultParams
}

// ScanSession is the per-session view of the scan parameters. It starts from
// a snapshot of the given defaults and is mutable independently afterwards.
// A nil *ScanSession is usable and always reads the built-in defaults.
type ScanSession struct {
	store ParamStore
}

// NewScanSession opens a session seeded from defaults. Passing nil seeds from
// the process-wide store.
func NewScanSession(defaults *ParamStore) *ScanSession {
	if defaults == nil {
		defaults = defaultParams
	}
	return &ScanSession{store: ParamStore{params: defaults.Snapshot()}}
}

// Snapshot returns the session's current parameters.
func (s *ScanSession) Snapshot() ScanParams {
	if s == nil {
		return ScanParams{LinearScanThreshold: DefaultLinearScanThreshold}
	}
	return s.store.Snapshot()
}

// SetPrefetchEnabled toggles sibling prefetching for this session.
func (s *ScanSession) SetPrefetchEnabled(enabled bool) {
	s.store.SetPrefetchEnabled(enabled)
}

// SetLinearScanEnabled toggles the linear search path for this session.
func (s *ScanSession) SetLinearScanEnabled(enabled bool) {
	s.store.SetLinearScanEnabled(enabled)
}

// SetLinearScanThreshold sets this session's threshold, with the same
// validation as ParamStore.SetLinearScanThreshold.
func (s *ScanSession) SetLinearScanThreshold(threshold int) error {
	return s.store.SetLinearScanThreshold(threshold)
}

package testutil

import (
	"context"
	"fmt"
	"sync"

	"backhaul/internal/backup"
)

// SyncCall records one invocation of FakeTransferer.Sync.
type SyncCall struct {
	Source      string
	Destination string
}

// FakeTransferer returns scripted results keyed by destination. Safe for
// concurrent use.
type FakeTransferer struct {
	mu      sync.Mutex
	results map[string]*backup.TransferResult
	errs    map[string]error
	calls   []SyncCall

	// Default is returned for destinations with no scripted result.
	Default *backup.TransferResult
}

func NewFakeTransferer() *FakeTransferer {
	return &FakeTransferer{
		results: make(map[string]*backup.TransferResult),
		errs:    make(map[string]error),
		Default: &backup.TransferResult{},
	}
}

// SetResult scripts the result returned for a destination.
func (f *FakeTransferer) SetResult(destination string, result *backup.TransferResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[destination] = result
}

// SetError scripts a spawn failure for a destination.
func (f *FakeTransferer) SetError(destination string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[destination] = err
}

func (f *FakeTransferer) Sync(_ context.Context, source, destination string) (*backup.TransferResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, SyncCall{Source: source, Destination: destination})

	if err, ok := f.errs[destination]; ok {
		return nil, err
	}
	if result, ok := f.results[destination]; ok {
		return result, nil
	}
	return f.Default, nil
}

// Calls returns a copy of the recorded invocations in order.
func (f *FakeTransferer) Calls() []SyncCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SyncCall{}, f.calls...)
}

var _ backup.Transferer = (*FakeTransferer)(nil)

// FakePreScanner records pre-backup scan requests and optionally fails them.
type FakePreScanner struct {
	mu    sync.Mutex
	roots []string
	Err   error
}

func NewFakePreScanner() *FakePreScanner {
	return &FakePreScanner{}
}

func (f *FakePreScanner) PreScan(root, backupJobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots = append(f.roots, root)
	if f.Err != nil {
		return fmt.Errorf("scanning %s: %w", root, f.Err)
	}
	return nil
}

// Roots returns the scanned roots in order.
func (f *FakePreScanner) Roots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.roots...)
}

var _ backup.PreScanner = (*FakePreScanner)(nil)

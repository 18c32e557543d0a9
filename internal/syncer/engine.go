// Package syncer keeps the local store converged with a WebDAV
// snapshot shared by every device.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/remindd/internal/merge"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
)

const (
	StatusSyncing   = "syncing"
	StatusSuccess   = "success"
	StatusFirstSync = "first-sync"
	StatusLockHeld  = "lock-held"
	StatusError     = "error"

	// A local change waits out the debounce window before syncing, and
	// automatic cycles never run closer together than the throttle.
	changeDebounce  = 5 * time.Minute
	autoSyncMinGap  = 15 * time.Minute
	startupDelay    = 15 * time.Second
	settingsRecheck = time.Minute
)

var ErrSyncDisabled = errors.New("syncer: sync is not configured")

type Engine struct {
	store     storage.Store
	log       *slog.Logger
	now       func() time.Time
	newRemote func(model.SyncSettings) Remote

	// gate is shared with the dispatcher so its ticks never interleave
	// with the export-merge-apply window of a cycle. Nil when no
	// dispatcher runs in the process.
	gate sync.Locker

	inFlight atomic.Bool
	dirty    atomic.Bool
	seq      atomic.Uint64

	mu         sync.Mutex
	pending    *time.Timer
	pendingDue time.Time
}

func New(store storage.Store, log *slog.Logger, gate sync.Locker) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:     store,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newRemote: NewWebDAVRemote,
		gate:      gate,
	}
}

// Run drives periodic sync until the context is cancelled. Settings are
// re-read every interval so a changed endpoint or interval takes effect
// without a restart.
func (e *Engine) Run(ctx context.Context) error {
	defer e.cancelPending()

	if err := e.restoreDirty(ctx); err != nil {
		e.log.Error("restore sync state", "error", err)
	}
	if e.dirty.Load() {
		e.scheduleAfter(startupDelay)
	}

	for {
		wait := settingsRecheck
		settings, err := e.store.LoadSettings(ctx)
		if err != nil {
			e.log.Error("load sync settings", "error", err)
		} else if settings.Sync.Configured() {
			wait = time.Duration(settings.Sync.IntervalMinutes) * time.Minute
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := e.syncIfDue(ctx, "interval"); err != nil {
			e.log.Error("interval sync failed", "error", err)
		}
	}
}

// NotifyLocalChange records that local data diverged and plans a
// debounced sync. Repeated calls collapse into one cycle.
func (e *Engine) NotifyLocalChange(ctx context.Context) {
	if err := e.store.MarkLocalChange(ctx); err != nil {
		e.log.Error("mark local change", "error", err)
	}
	e.seq.Add(1)
	e.dirty.Store(true)
	e.scheduleAfter(changeDebounce)
}

// SyncNow runs one full cycle immediately, ignoring debounce and
// throttle. A cycle already in flight absorbs the request.
func (e *Engine) SyncNow(ctx context.Context, reason string) error {
	settings, err := e.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.Sync.Configured() {
		return ErrSyncDisabled
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer e.inFlight.Store(false)

	seq := e.seq.Load()
	err = e.runCycle(ctx, settings, reason)
	if err == nil && e.seq.Load() == seq {
		e.dirty.Store(false)
	}
	return err
}

// Status reports the outcome of the most recent cycle.
func (e *Engine) Status(ctx context.Context) (model.SyncStatus, error) {
	settings, err := e.store.LoadSettings(ctx)
	if err != nil {
		return model.SyncStatus{}, err
	}
	status := model.SyncStatus{
		Status: settings.Sync.LastSyncStatus,
		Error:  settings.Sync.LastSyncError,
		Time:   settings.Sync.LastSyncTime,
	}
	if status.Status == "" {
		status.Status = "idle"
	}
	return status, nil
}

func (e *Engine) runCycle(ctx context.Context, settings model.Settings, reason string) error {
	now := e.now()
	deviceID := e.store.DeviceID()
	remote := e.newRemote(settings.Sync)
	e.log.Info("sync cycle starting", "reason", reason, "device", deviceID)
	e.setStatus(ctx, StatusSyncing, "", nil)

	held, err := remote.ReadLock()
	if err != nil {
		return e.fail(ctx, err)
	}
	if held != nil && held.DeviceID != deviceID && !held.Expired(now) {
		e.log.Info("remote lock held, skipping cycle", "holder", held.DeviceID)
		e.setStatus(ctx, StatusLockHeld, "", nil)
		return nil
	}
	if err := remote.WriteLock(LockInfo{DeviceID: deviceID, ExpiresAt: now.Add(lockTTL).UnixMilli()}); err != nil {
		return e.fail(ctx, err)
	}
	defer func() {
		if err := remote.RemoveLock(); err != nil {
			e.log.Error("release remote lock", "error", err)
		}
	}()

	data, found, err := remote.ReadSnapshot()
	if err != nil {
		return e.fail(ctx, err)
	}
	if !found {
		local, err := e.store.ExportSnapshot(ctx)
		if err != nil {
			return e.fail(ctx, err)
		}
		if err := e.push(remote, local, deviceID, now); err != nil {
			return e.fail(ctx, err)
		}
		finished := e.now()
		e.setStatus(ctx, StatusFirstSync, "", &finished)
		e.log.Info("first sync pushed local snapshot", "tasks", len(local.Tasks))
		return nil
	}

	var theirs model.Snapshot
	if err := json.Unmarshal(data, &theirs); err != nil {
		return e.fail(ctx, fmt.Errorf("decode remote snapshot: %w", err))
	}

	// Export and write-back must not interleave with a dispatcher tick:
	// a record created in between would be wiped by ApplySnapshot and
	// its firing instant delivered again. The remote reads above stay
	// outside the gate so network latency never stalls ticks.
	var merged model.Snapshot
	err = e.withGate(func() error {
		local, err := e.store.ExportSnapshot(ctx)
		if err != nil {
			return err
		}
		merged = merge.Snapshots(local, theirs)
		return e.store.ApplySnapshot(ctx, merged)
	})
	if err != nil {
		return e.fail(ctx, err)
	}
	if err := e.push(remote, merged, deviceID, now); err != nil {
		return e.fail(ctx, err)
	}

	finished := e.now()
	e.setStatus(ctx, StatusSuccess, "", &finished)
	e.log.Info("sync cycle finished",
		"tasks", len(merged.Tasks),
		"recurring", len(merged.RecurringTasks),
		"records", len(merged.ReminderRecords))
	return nil
}

func (e *Engine) push(remote Remote, snap model.Snapshot, deviceID string, now time.Time) error {
	snap.Version = model.SnapshotVersion
	snap.DeviceID = deviceID
	snap.ExportedAt = &now
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return remote.WriteSnapshot(data)
}

func (e *Engine) withGate(fn func() error) error {
	if e.gate != nil {
		e.gate.Lock()
		defer e.gate.Unlock()
	}
	return fn()
}

func (e *Engine) fail(ctx context.Context, err error) error {
	e.setStatus(ctx, StatusError, err.Error(), nil)
	return fmt.Errorf("syncer: %w", err)
}

func (e *Engine) setStatus(ctx context.Context, status, message string, syncedAt *time.Time) {
	if err := e.store.UpdateSyncStatus(ctx, status, message, syncedAt); err != nil {
		e.log.Error("record sync status", "error", err)
	}
}

// syncIfDue runs a cycle when there is something to sync and the
// throttle allows it; otherwise it reschedules for when it will.
func (e *Engine) syncIfDue(ctx context.Context, reason string) error {
	if !e.dirty.Load() && reason != "interval" {
		return nil
	}
	settings, err := e.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.Sync.Configured() {
		return nil
	}
	if last := settings.Sync.LastSyncTime; last != nil {
		if next := last.Add(autoSyncMinGap); next.After(e.now()) {
			e.scheduleAfter(next.Sub(e.now()))
			return nil
		}
	}
	err = e.SyncNow(ctx, reason)
	if errors.Is(err, ErrSyncDisabled) {
		return nil
	}
	return err
}

// scheduleAfter plans a background cycle. An existing later plan wins,
// so a burst of changes settles into a single fire.
func (e *Engine) scheduleAfter(delay time.Duration) {
	due := e.now().Add(delay)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil && !e.pendingDue.Before(due) {
		return
	}
	if e.pending != nil {
		e.pending.Stop()
	}
	e.pendingDue = due
	e.pending = time.AfterFunc(delay, func() {
		e.mu.Lock()
		e.pending = nil
		e.pendingDue = time.Time{}
		e.mu.Unlock()
		if err := e.syncIfDue(context.Background(), "change"); err != nil {
			e.log.Error("deferred sync failed", "error", err)
		}
	})
}

func (e *Engine) cancelPending() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
		e.pendingDue = time.Time{}
	}
}

// restoreDirty reconstructs the dirty flag after a restart from the
// persisted change and sync timestamps.
func (e *Engine) restoreDirty(ctx context.Context) error {
	settings, err := e.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	change := settings.Sync.LastLocalChange
	if change == nil {
		return nil
	}
	last := settings.Sync.LastSyncTime
	if last == nil || change.After(*last) {
		e.dirty.Store(true)
	}
	return nil
}

// Package merge implements the deterministic conflict policy used by
// sync: last write wins per whole record, ties broken by device id.
// The result is independent of merge direction and stable under
// repeated merges, which is what makes multi-device state converge.
package merge

import (
	"sort"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

// Record is one mergeable row. ModifiedAt is the comparison timestamp
// (updated_at, falling back to deleted_at and then a creation-ish
// time); ModifiedBy is the writing device's id, used only to break
// exact-timestamp ties.
type Record interface {
	SyncID() string
	ModifiedAt() time.Time
	ModifiedBy() string
}

// Resolve merges two versions of the same logical record set. Records
// present on only one side are unioned in; for conflicts the whole
// record from the later writer is taken, never a field-by-field blend.
// Tombstones carry their deletion timestamp, so a later delete beats an
// earlier edit and vice versa. The output is sorted by id so equal
// inputs produce byte-equal outputs.
func Resolve[T Record](local, remote []T) []T {
	byID := make(map[string]T, len(local)+len(remote))
	for _, r := range local {
		byID[r.SyncID()] = r
	}
	for _, r := range remote {
		existing, ok := byID[r.SyncID()]
		if !ok || wins(r, existing) {
			byID[r.SyncID()] = r
		}
	}

	out := make([]T, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SyncID() < out[j].SyncID() })
	return out
}

// wins reports whether a beats b. On equal timestamps the
// lexicographically smaller device id wins, giving a total order.
func wins(a, b Record) bool {
	at, bt := a.ModifiedAt(), b.ModifiedAt()
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.ModifiedBy() < b.ModifiedBy()
}

// Snapshots merges two full device snapshots collection by collection.
func Snapshots(local, remote model.Snapshot) model.Snapshot {
	return model.Snapshot{
		Version:         model.SnapshotVersion,
		Tasks:           Resolve(local.Tasks, remote.Tasks),
		RecurringTasks:  Resolve(local.RecurringTasks, remote.RecurringTasks),
		ReminderRecords: Resolve(local.ReminderRecords, remote.ReminderRecords),
	}
}

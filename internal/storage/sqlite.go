package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/remindd/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

const taskColumns = "id, description, status, created_at, completed_at, reminder_time, updated_at, updated_by, deleted_at"

const recurringColumns = "id, description, status, created_at, completed_at, interval_minutes, last_triggered, next_trigger, is_paused, " +
	"start_time, end_time, repeat_mode, schedule_time, schedule_weekday, schedule_day, cron_expression, updated_at, updated_by, deleted_at"

const recordColumns = "id, reminder_id, kind, description, trigger_time, close_time, action, updated_at, updated_by, deleted_at"

// SQLiteStore persists all records in a single SQLite file. A mutex
// serializes mutations so the dispatcher tick and the sync write-back
// never interleave; reads see committed state only.
type SQLiteStore struct {
	db       *sql.DB
	mu       sync.Mutex
	deviceID string
	now      func() time.Time
}

func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	store, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func New(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("storage: enable wal: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	store := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.ensureSettings(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) DeviceID() string {
	return s.deviceID
}

// ensureSettings creates the singleton settings row on first open and
// assigns the installation its stable device id.
func (s *SQLiteStore) ensureSettings() error {
	defaults := model.DefaultSettings()
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO settings (id, snooze_minutes, webdav_sync_interval_minutes, webdav_device_id)
		VALUES (1, ?, ?, ?)`,
		defaults.SnoozeMinutes, defaults.Sync.IntervalMinutes, uuid.NewString(),
	)
	if err != nil {
		return fmt.Errorf("storage: seed settings: %w", err)
	}
	row := s.db.QueryRow(`SELECT webdav_device_id FROM settings WHERE id = 1`)
	if err := row.Scan(&s.deviceID); err != nil {
		return fmt.Errorf("storage: read device id: %w", err)
	}
	if s.deviceID == "" {
		s.deviceID = uuid.NewString()
		if _, err := s.db.Exec(`UPDATE settings SET webdav_device_id = ? WHERE id = 1`, s.deviceID); err != nil {
			return fmt.Errorf("storage: assign device id: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateTask(ctx context.Context, in model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.UpdatedAt = s.now()
	in.UpdatedBy = s.deviceID
	return insertTask(ctx, s.db, in)
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, in model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.UpdatedAt = s.now()
	in.UpdatedBy = s.deviceID
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET description = ?, status = ?, completed_at = ?, reminder_time = ?, updated_at = ?, updated_by = ?, deleted_at = ?
		WHERE id = ?`,
		in.Description, in.Status, nullTime(in.CompletedAt), nullTime(in.ReminderTime),
		mustTime(in.UpdatedAt), in.UpdatedBy, nullTime(in.DeletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) SoftDeleteTask(ctx context.Context, id string) error {
	return s.softDelete(ctx, "tasks", id)
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 1)
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateRecurringTask(ctx context.Context, in model.RecurringTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.UpdatedAt = s.now()
	in.UpdatedBy = s.deviceID
	return insertRecurring(ctx, s.db, in)
}

func (s *SQLiteStore) GetRecurringTask(ctx context.Context, id string) (model.RecurringTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_tasks WHERE id = ?`, id)
	task, err := scanRecurring(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RecurringTask{}, ErrNotFound
		}
		return model.RecurringTask{}, err
	}
	return task, nil
}

func (s *SQLiteStore) UpdateRecurringTask(ctx context.Context, in model.RecurringTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.UpdatedAt = s.now()
	in.UpdatedBy = s.deviceID
	res, err := s.db.ExecContext(ctx, `
		UPDATE recurring_tasks
		SET description = ?, status = ?, completed_at = ?, interval_minutes = ?, last_triggered = ?, next_trigger = ?, is_paused = ?,
		    start_time = ?, end_time = ?, repeat_mode = ?, schedule_time = ?, schedule_weekday = ?, schedule_day = ?, cron_expression = ?,
		    updated_at = ?, updated_by = ?, deleted_at = ?
		WHERE id = ?`,
		in.Description, in.Status, nullTime(in.CompletedAt), in.IntervalMinutes,
		nullTime(in.LastTriggered), nullTime(in.NextTrigger), boolInt(in.Paused),
		nullTime(in.StartTime), nullTime(in.EndTime), in.Mode, in.ScheduleTime,
		in.ScheduleWeekday, in.ScheduleDay, in.CronExpression,
		mustTime(in.UpdatedAt), in.UpdatedBy, nullTime(in.DeletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) SoftDeleteRecurringTask(ctx context.Context, id string) error {
	return s.softDelete(ctx, "recurring_tasks", id)
}

func (s *SQLiteStore) ListRecurringTasks(ctx context.Context, filter RecurringFilter) ([]model.RecurringTask, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_tasks`
	if !filter.IncludeDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RecurringTask, 0)
	for rows.Next() {
		task, scanErr := scanRecurring(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateReminderRecord(ctx context.Context, in model.ReminderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.UpdatedAt = s.now()
	in.UpdatedBy = s.deviceID
	return insertRecord(ctx, s.db, in)
}

func (s *SQLiteStore) GetReminderRecord(ctx context.Context, id string) (model.ReminderRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM reminder_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ReminderRecord{}, ErrNotFound
		}
		return model.ReminderRecord{}, err
	}
	return record, nil
}

func (s *SQLiteStore) UpdateReminderRecord(ctx context.Context, in model.ReminderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.UpdatedAt = s.now()
	in.UpdatedBy = s.deviceID
	res, err := s.db.ExecContext(ctx, `
		UPDATE reminder_records
		SET reminder_id = ?, kind = ?, description = ?, trigger_time = ?, close_time = ?, action = ?, updated_at = ?, updated_by = ?, deleted_at = ?
		WHERE id = ?`,
		in.ReminderID, in.Kind, in.Description, mustTime(in.TriggerTime), nullTime(in.CloseTime),
		in.Action, mustTime(in.UpdatedAt), in.UpdatedBy, nullTime(in.DeletedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) SoftDeleteReminderRecord(ctx context.Context, id string) error {
	return s.softDelete(ctx, "reminder_records", id)
}

func (s *SQLiteStore) ListReminderRecords(ctx context.Context, filter RecordFilter) ([]model.ReminderRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM reminder_records`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 1)
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if filter.ReminderID != "" {
		clauses = append(clauses, "reminder_id = ?")
		args = append(args, filter.ReminderID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY trigger_time DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ReminderRecord, 0)
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) HasReminderRecord(ctx context.Context, reminderID string, trigger *time.Time) (bool, error) {
	query := `SELECT 1 FROM reminder_records WHERE reminder_id = ? AND deleted_at IS NULL`
	args := []any{reminderID}
	if trigger != nil {
		query += ` AND trigger_time = ?`
		args = append(args, mustTime(*trigger))
	}
	query += ` LIMIT 1`
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// softDelete writes a tombstone. Deleting an already-deleted or unknown
// record is a no-op only in the former case; unknown ids are NotFound.
func (s *SQLiteStore) softDelete(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := mustTime(s.now())
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET deleted_at = ?, updated_at = ?, updated_by = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, s.deviceID, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (model.Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snooze_minutes, webdav_enabled, webdav_url, webdav_username, webdav_password, webdav_root_path,
		       webdav_sync_interval_minutes, webdav_device_id, webdav_last_sync_time, webdav_last_local_change_time,
		       webdav_last_sync_status, webdav_last_sync_error
		FROM settings WHERE id = 1`)

	var out model.Settings
	var enabled int
	var lastSync, lastChange sql.NullString
	if err := row.Scan(
		&out.SnoozeMinutes, &enabled, &out.Sync.URL, &out.Sync.Username, &out.Sync.Password, &out.Sync.RootPath,
		&out.Sync.IntervalMinutes, &out.Sync.DeviceID, &lastSync, &lastChange,
		&out.Sync.LastSyncStatus, &out.Sync.LastSyncError,
	); err != nil {
		return model.Settings{}, err
	}
	out.Sync.Enabled = enabled == 1
	var err error
	if out.Sync.LastSyncTime, err = parseNullableTime(lastSync); err != nil {
		return model.Settings{}, err
	}
	if out.Sync.LastLocalChange, err = parseNullableTime(lastChange); err != nil {
		return model.Settings{}, err
	}
	return out, nil
}

// SaveSettings persists the user-editable fields. Sync bookkeeping
// (device id, last sync/change times, status) is owned by the engine
// and never clobbered here.
func (s *SQLiteStore) SaveSettings(ctx context.Context, in model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE settings
		SET snooze_minutes = ?, webdav_enabled = ?, webdav_url = ?, webdav_username = ?, webdav_password = ?,
		    webdav_root_path = ?, webdav_sync_interval_minutes = ?
		WHERE id = 1`,
		in.SnoozeMinutes, boolInt(in.Sync.Enabled), in.Sync.URL, in.Sync.Username, in.Sync.Password,
		in.Sync.RootPath, in.Sync.IntervalMinutes,
	)
	return err
}

func (s *SQLiteStore) UpdateSyncStatus(ctx context.Context, status, syncErr string, syncedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if syncedAt != nil {
		_, err := s.db.ExecContext(ctx, `
			UPDATE settings SET webdav_last_sync_status = ?, webdav_last_sync_error = ?, webdav_last_sync_time = ? WHERE id = 1`,
			status, syncErr, mustTime(*syncedAt),
		)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE settings SET webdav_last_sync_status = ?, webdav_last_sync_error = ? WHERE id = 1`,
		status, syncErr,
	)
	return err
}

func (s *SQLiteStore) MarkLocalChange(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `UPDATE settings SET webdav_last_local_change_time = ? WHERE id = 1`, mustTime(s.now()))
	return err
}

func (s *SQLiteStore) ExportSnapshot(ctx context.Context) (model.Snapshot, error) {
	tasks, err := s.ListTasks(ctx, TaskFilter{IncludeDeleted: true})
	if err != nil {
		return model.Snapshot{}, err
	}
	recurring, err := s.ListRecurringTasks(ctx, RecurringFilter{IncludeDeleted: true})
	if err != nil {
		return model.Snapshot{}, err
	}
	records, err := s.ListReminderRecords(ctx, RecordFilter{IncludeDeleted: true})
	if err != nil {
		return model.Snapshot{}, err
	}
	now := s.now()
	return model.Snapshot{
		Version:         model.SnapshotVersion,
		DeviceID:        s.deviceID,
		ExportedAt:      &now,
		Tasks:           tasks,
		RecurringTasks:  recurring,
		ReminderRecords: records,
	}, nil
}

// ApplySnapshot replaces the record state with a merged snapshot in one
// transaction. Rows keep their own updated_at/updated_by: the merge
// already decided whose write wins, restamping would corrupt it.
func (s *SQLiteStore) ApplySnapshot(ctx context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"tasks", "recurring_tasks", "reminder_records"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	for _, task := range snap.Tasks {
		if err := insertTask(ctx, tx, task); err != nil {
			return err
		}
	}
	for _, task := range snap.RecurringTasks {
		if err := insertRecurring(ctx, tx, task); err != nil {
			return err
		}
	}
	for _, record := range snap.ReminderRecords {
		if err := insertRecord(ctx, tx, record); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Cleanup(ctx context.Context, opts CleanupOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.TombstoneRetention > 0 {
		cutoff := mustTime(opts.Now.Add(-opts.TombstoneRetention))
		for _, table := range []string{"tasks", "recurring_tasks", "reminder_records"} {
			if _, err := s.db.ExecContext(ctx,
				`DELETE FROM `+table+` WHERE deleted_at IS NOT NULL AND deleted_at < ?`, cutoff); err != nil {
				return err
			}
		}
	}
	if opts.CompletedRetention > 0 {
		cutoff := mustTime(opts.Now.Add(-opts.CompletedRetention))
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM tasks
			WHERE status = 'COMPLETED' AND deleted_at IS NULL AND completed_at IS NOT NULL AND completed_at < ?`, cutoff); err != nil {
			return err
		}
	}
	if opts.KeepCompleted > 0 {
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM tasks WHERE id IN (
				SELECT id FROM tasks
				WHERE status = 'COMPLETED' AND deleted_at IS NULL
				ORDER BY completed_at DESC
				LIMIT -1 OFFSET ?
			)`, opts.KeepCompleted); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Optimize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE); ANALYZE; PRAGMA optimize;`)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, db execer, in model.Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Description, in.Status, mustTime(in.CreatedAt), nullTime(in.CompletedAt),
		nullTime(in.ReminderTime), mustTime(in.UpdatedAt), in.UpdatedBy, nullTime(in.DeletedAt),
	)
	return err
}

func insertRecurring(ctx context.Context, db execer, in model.RecurringTask) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO recurring_tasks (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Description, in.Status, mustTime(in.CreatedAt), nullTime(in.CompletedAt),
		in.IntervalMinutes, nullTime(in.LastTriggered), nullTime(in.NextTrigger), boolInt(in.Paused),
		nullTime(in.StartTime), nullTime(in.EndTime), in.Mode, in.ScheduleTime,
		in.ScheduleWeekday, in.ScheduleDay, in.CronExpression,
		mustTime(in.UpdatedAt), in.UpdatedBy, nullTime(in.DeletedAt),
	)
	return err
}

func insertRecord(ctx context.Context, db execer, in model.ReminderRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO reminder_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ReminderID, in.Kind, in.Description, mustTime(in.TriggerTime),
		nullTime(in.CloseTime), in.Action, mustTime(in.UpdatedAt), in.UpdatedBy, nullTime(in.DeletedAt),
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var created, updated string
	var completed, reminder, deleted sql.NullString
	if err := s.Scan(&out.ID, &out.Description, &out.Status, &created, &completed, &reminder, &updated, &out.UpdatedBy, &deleted); err != nil {
		return model.Task{}, err
	}
	var err error
	if out.CreatedAt, err = parseRequiredTime(created); err != nil {
		return model.Task{}, err
	}
	if out.UpdatedAt, err = parseRequiredTime(updated); err != nil {
		return model.Task{}, err
	}
	if out.CompletedAt, err = parseNullableTime(completed); err != nil {
		return model.Task{}, err
	}
	if out.ReminderTime, err = parseNullableTime(reminder); err != nil {
		return model.Task{}, err
	}
	if out.DeletedAt, err = parseNullableTime(deleted); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func scanRecurring(s scanner) (model.RecurringTask, error) {
	var out model.RecurringTask
	var created, updated string
	var completed, lastTriggered, nextTrigger, start, end, deleted sql.NullString
	var paused int
	if err := s.Scan(
		&out.ID, &out.Description, &out.Status, &created, &completed,
		&out.IntervalMinutes, &lastTriggered, &nextTrigger, &paused,
		&start, &end, &out.Mode, &out.ScheduleTime, &out.ScheduleWeekday, &out.ScheduleDay, &out.CronExpression,
		&updated, &out.UpdatedBy, &deleted,
	); err != nil {
		return model.RecurringTask{}, err
	}
	out.Paused = paused == 1
	var err error
	if out.CreatedAt, err = parseRequiredTime(created); err != nil {
		return model.RecurringTask{}, err
	}
	if out.UpdatedAt, err = parseRequiredTime(updated); err != nil {
		return model.RecurringTask{}, err
	}
	if out.CompletedAt, err = parseNullableTime(completed); err != nil {
		return model.RecurringTask{}, err
	}
	if out.LastTriggered, err = parseNullableTime(lastTriggered); err != nil {
		return model.RecurringTask{}, err
	}
	if out.NextTrigger, err = parseNullableTime(nextTrigger); err != nil {
		return model.RecurringTask{}, err
	}
	if out.StartTime, err = parseNullableTime(start); err != nil {
		return model.RecurringTask{}, err
	}
	if out.EndTime, err = parseNullableTime(end); err != nil {
		return model.RecurringTask{}, err
	}
	if out.DeletedAt, err = parseNullableTime(deleted); err != nil {
		return model.RecurringTask{}, err
	}
	return out, nil
}

func scanRecord(s scanner) (model.ReminderRecord, error) {
	var out model.ReminderRecord
	var trigger, updated string
	var closeTime, deleted sql.NullString
	if err := s.Scan(&out.ID, &out.ReminderID, &out.Kind, &out.Description, &trigger, &closeTime, &out.Action, &updated, &out.UpdatedBy, &deleted); err != nil {
		return model.ReminderRecord{}, err
	}
	var err error
	if out.TriggerTime, err = parseRequiredTime(trigger); err != nil {
		return model.ReminderRecord{}, err
	}
	if out.UpdatedAt, err = parseRequiredTime(updated); err != nil {
		return model.ReminderRecord{}, err
	}
	if out.CloseTime, err = parseNullableTime(closeTime); err != nil {
		return model.ReminderRecord{}, err
	}
	if out.DeletedAt, err = parseNullableTime(deleted); err != nil {
		return model.ReminderRecord{}, err
	}
	return out, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

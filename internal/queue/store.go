package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
)

// ErrNotFound is returned when no queue item matches the lookup.
var ErrNotFound = errors.New("queue item not found")

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "queue.db"))
}

// OpenPath opens a queue database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.path
}

// Add inserts a new pending item for a canonical recording. Adding a UUID
// that already exists returns the existing item untouched, so re-running a
// batch over the same matched catalog is safe.
func (s *Store) Add(ctx context.Context, recordingUUID, videoName, recordedDate, teacher, shareURL string) (*Item, error) {
	recordingUUID = strings.TrimSpace(recordingUUID)
	if recordingUUID == "" {
		return nil, errors.New("recording uuid required")
	}

	if existing, err := s.GetByUUID(ctx, recordingUUID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (
            recording_uuid, video_name, recorded_date, teacher, share_url, status,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recordingUUID, videoName, recordedDate, teacher, shareURL, StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches one item by primary key.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	return scanItem(row)
}

// GetByUUID fetches one item by canonical recording identifier.
func (s *Store) GetByUUID(ctx context.Context, recordingUUID string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE recording_uuid = ?", recordingUUID)
	return scanItem(row)
}

// List returns all items ordered by insertion.
func (s *Store) List(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListByStatus returns all items currently in one of the provided statuses.
func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = status
	}
	query := selectColumns + " WHERE status IN (" + strings.Join(placeholders, ",") + ") ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items by status: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Update persists all mutable fields of the item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil || item.ID == 0 {
		return errors.New("queue item missing id")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET
            video_name = ?, recorded_date = ?, teacher = ?, share_url = ?, status = ?,
            media_path = ?, transcript_path = ?, labels_path = ?, export_path = ?,
            duration_seconds = ?, error_message = ?, needs_review = ?, review_reason = ?,
            progress_stage = ?, progress_message = ?, updated_at = ?
        WHERE id = ?`,
		item.VideoName, item.RecordedDate, item.Teacher, item.ShareURL, item.Status,
		item.MediaPath, item.TranscriptPath, item.LabelsPath, item.ExportPath,
		item.DurationSeconds, item.ErrorMessage, boolToInt(item.NeedsReview), item.ReviewReason,
		item.ProgressStage, item.ProgressMessage, item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update queue item %d: %w", item.ID, err)
	}
	return nil
}

// ResetStuck rolls mid-stage items back to pending. Called at batch startup
// so an interrupted run does not strand items in a processing status.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET status = ?, progress_stage = '', progress_message = '', updated_at = ?
         WHERE status IN (?, ?, ?, ?)`,
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano),
		StatusDownloading, StatusTranscribing, StatusClassifying, StatusExporting,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM queue_items"); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// Health aggregates item counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	var summary HealthSummary
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM queue_items GROUP BY status")
	if err != nil {
		return summary, fmt.Errorf("queue health: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return summary, fmt.Errorf("queue health scan: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		case StatusReview:
			summary.Review += count
		default:
			if _, ok := processingStatuses[status]; ok {
				summary.Processing += count
			}
		}
	}
	return summary, rows.Err()
}

const selectColumns = `SELECT
    id, recording_uuid, video_name, recorded_date, teacher, share_url, status,
    media_path, transcript_path, labels_path, export_path,
    duration_seconds, error_message, needs_review, review_reason,
    progress_stage, progress_message, created_at, updated_at
FROM queue_items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var status string
	var needsReview int
	var createdAt, updatedAt string
	err := row.Scan(
		&item.ID, &item.RecordingUUID, &item.VideoName, &item.RecordedDate, &item.Teacher, &item.ShareURL, &status,
		&item.MediaPath, &item.TranscriptPath, &item.LabelsPath, &item.ExportPath,
		&item.DurationSeconds, &item.ErrorMessage, &needsReview, &item.ReviewReason,
		&item.ProgressStage, &item.ProgressMessage, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan queue item: %w", err)
	}
	item.Status = Status(status)
	item.NeedsReview = needsReview != 0
	item.CreatedAt = parseStoredTime(createdAt)
	item.UpdatedAt = parseStoredTime(updatedAt)
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func parseStoredTime(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	return time.Time{}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

package capture

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"eisview/models"
)

// SessionInfo describes one recorded capture session.
type SessionInfo struct {
	ID        string
	Device    string
	StartedAt time.Time
	Samples   int
}

// SqliteStore persists captured samples so they can be replayed later.
type SqliteStore struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error
}

func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		if dir := filepath.Dir(s.dbPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				s.dbErr = fmt.Errorf("creating capture dir: %w", err)
				return
			}
		}

		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.dbErr = fmt.Errorf("opening capture db: %w", err)
			return
		}
		// one writer, matching the single ingest goroutine
		db.SetMaxOpenConns(1)

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}
		s.db = db
	})

	return s.db, s.dbErr
}

// CreateSession starts a new capture and returns its id.
func (s *SqliteStore) CreateSession(ctx context.Context, device string) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if _, err = db.ExecContext(ctx, insertSessionSQL, id, device, time.Now().UnixMilli()); err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return id, nil
}

func (s *SqliteStore) Append(ctx context.Context, sessionID string, sample models.RawSample) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var humidity sql.NullFloat64
	if sample.HumidityPct != nil {
		humidity = sql.NullFloat64{Float64: *sample.HumidityPct, Valid: true}
	}

	_, err = db.ExecContext(ctx, insertSampleSQL,
		sessionID, sessionID, sample.TimestampMs, sample.FrequencyHz, sample.Real, sample.Imag, humidity)
	if err != nil {
		return fmt.Errorf("inserting sample: %w", err)
	}
	return nil
}

func (s *SqliteStore) Sessions(ctx context.Context) ([]SessionInfo, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []SessionInfo
	for rows.Next() {
		var (
			info      SessionInfo
			startedAt int64
		)
		if err := rows.Scan(&info.ID, &info.Device, &startedAt, &info.Samples); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		info.StartedAt = time.UnixMilli(startedAt)
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// LoadRecord turns a capture session into a replay record. An unknown or empty session is a
// *models.DataAvailabilityError.
func (s *SqliteStore) LoadRecord(ctx context.Context, sessionID string) (*models.ReplayRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectSamplesSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	record := &models.ReplayRecord{
		Real:        []float64{},
		Imag:        []float64{},
		Frequencies: []*float64{},
		Time:        []*float64{},
	}
	for rows.Next() {
		var timestamp, frequency, re, im float64
		if err := rows.Scan(&timestamp, &frequency, &re, &im); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		record.Real = append(record.Real, re)
		record.Imag = append(record.Imag, im)
		record.Frequencies = append(record.Frequencies, &frequency)
		record.Time = append(record.Time, &timestamp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if record.Len() == 0 {
		return nil, &models.DataAvailabilityError{Reason: fmt.Sprintf("capture %s has no samples", sessionID)}
	}
	return record, nil
}

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

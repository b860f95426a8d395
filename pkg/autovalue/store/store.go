// Package store persists assessments and valuations in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

// MemoryPath keeps the database inside the process.
const MemoryPath = ":memory:"

var ErrNotFound = errors.New("store: record not found")

// Store is the record repository used by the HTTP layer.
type Store interface {
	CreateAssessment(ctx context.Context, imageCount int) (dal.Assessment, error)
	CompleteAssessment(ctx context.Context, id int64, result dal.AssessmentResult) (dal.Assessment, error)
	FailAssessment(ctx context.Context, id int64) error
	OverrideAssessment(ctx context.Context, id int64, decision dal.Decision, reason string) (dal.Assessment, error)
	GetAssessment(ctx context.Context, id int64) (dal.Assessment, error)
	ListAssessments(ctx context.Context) ([]dal.Assessment, error)

	CreateValuation(ctx context.Context, details dal.VehicleAttributes, contact *dal.ContactInfo, valuation dal.VehicleValuation) (dal.Valuation, error)
	GetValuation(ctx context.Context, id int64) (dal.Valuation, error)
	ListValuations(ctx context.Context) ([]dal.Valuation, error)

	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	image_count           INTEGER NOT NULL DEFAULT 0,
	status                TEXT NOT NULL DEFAULT 'pending',
	result                TEXT,
	human_override        TEXT,
	human_override_reason TEXT,
	created_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS valuations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	vehicle_details TEXT NOT NULL,
	contact_info    TEXT,
	valuation       TEXT,
	created_at      TEXT NOT NULL
);
`

// SQLite implements Store on a single connection.
type SQLite struct {
	db  *sqlx.DB
	now func() time.Time
}

type Option func(*SQLite)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *SQLite) { s.now = now }
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*SQLite, error) {
	dsn := path
	if path != MemoryPath {
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives as long as its only connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type assessmentRow struct {
	ID                  int64          `db:"id"`
	ImageCount          int            `db:"image_count"`
	Status              string         `db:"status"`
	Result              sql.NullString `db:"result"`
	HumanOverride       sql.NullString `db:"human_override"`
	HumanOverrideReason sql.NullString `db:"human_override_reason"`
	CreatedAt           string         `db:"created_at"`
}

func (r assessmentRow) toAssessment() (dal.Assessment, error) {
	a := dal.Assessment{
		ID:         r.ID,
		ImageCount: r.ImageCount,
		Status:     dal.AssessmentStatus(r.Status),
	}
	if r.Result.Valid {
		var res dal.AssessmentResult
		if err := json.Unmarshal([]byte(r.Result.String), &res); err != nil {
			return dal.Assessment{}, fmt.Errorf("decode assessment %d result: %w", r.ID, err)
		}
		a.Result = &res
	}
	if r.HumanOverride.Valid {
		d := dal.Decision(r.HumanOverride.String)
		a.HumanOverride = &d
	}
	if r.HumanOverrideReason.Valid {
		reason := r.HumanOverrideReason.String
		a.HumanOverrideReason = &reason
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	return a, nil
}

const selectAssessment = `SELECT id, image_count, status, result, human_override, human_override_reason, created_at FROM assessments`

func (s *SQLite) CreateAssessment(ctx context.Context, imageCount int) (dal.Assessment, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (image_count, status, created_at) VALUES (?, ?, ?)`,
		imageCount, string(dal.StatusPending), s.timestamp())
	if err != nil {
		return dal.Assessment{}, fmt.Errorf("insert assessment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dal.Assessment{}, fmt.Errorf("insert assessment: %w", err)
	}
	return s.GetAssessment(ctx, id)
}

func (s *SQLite) CompleteAssessment(ctx context.Context, id int64, result dal.AssessmentResult) (dal.Assessment, error) {
	blob, err := json.Marshal(result)
	if err != nil {
		return dal.Assessment{}, fmt.Errorf("encode assessment result: %w", err)
	}
	if err := s.update(ctx, `UPDATE assessments SET status = ?, result = ? WHERE id = ?`,
		string(dal.StatusCompleted), string(blob), id); err != nil {
		return dal.Assessment{}, err
	}
	return s.GetAssessment(ctx, id)
}

func (s *SQLite) FailAssessment(ctx context.Context, id int64) error {
	return s.update(ctx, `UPDATE assessments SET status = ? WHERE id = ?`, string(dal.StatusError), id)
}

func (s *SQLite) OverrideAssessment(ctx context.Context, id int64, decision dal.Decision, reason string) (dal.Assessment, error) {
	if err := s.update(ctx, `UPDATE assessments SET human_override = ?, human_override_reason = ? WHERE id = ?`,
		string(decision), reason, id); err != nil {
		return dal.Assessment{}, err
	}
	return s.GetAssessment(ctx, id)
}

func (s *SQLite) GetAssessment(ctx context.Context, id int64) (dal.Assessment, error) {
	var row assessmentRow
	if err := s.db.GetContext(ctx, &row, selectAssessment+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dal.Assessment{}, fmt.Errorf("assessment %d: %w", id, ErrNotFound)
		}
		return dal.Assessment{}, fmt.Errorf("get assessment %d: %w", id, err)
	}
	return row.toAssessment()
}

// ListAssessments returns every assessment, newest first.
func (s *SQLite) ListAssessments(ctx context.Context) ([]dal.Assessment, error) {
	var rows []assessmentRow
	if err := s.db.SelectContext(ctx, &rows, selectAssessment+` ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	out := make([]dal.Assessment, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAssessment()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

type valuationRow struct {
	ID             int64          `db:"id"`
	VehicleDetails string         `db:"vehicle_details"`
	ContactInfo    sql.NullString `db:"contact_info"`
	Valuation      sql.NullString `db:"valuation"`
	CreatedAt      string         `db:"created_at"`
}

func (r valuationRow) toValuation() (dal.Valuation, error) {
	v := dal.Valuation{ID: r.ID}
	if err := json.Unmarshal([]byte(r.VehicleDetails), &v.VehicleDetails); err != nil {
		return dal.Valuation{}, fmt.Errorf("decode valuation %d details: %w", r.ID, err)
	}
	if r.ContactInfo.Valid {
		var c dal.ContactInfo
		if err := json.Unmarshal([]byte(r.ContactInfo.String), &c); err != nil {
			return dal.Valuation{}, fmt.Errorf("decode valuation %d contact: %w", r.ID, err)
		}
		v.ContactInfo = &c
	}
	if r.Valuation.Valid {
		var vv dal.VehicleValuation
		if err := json.Unmarshal([]byte(r.Valuation.String), &vv); err != nil {
			return dal.Valuation{}, fmt.Errorf("decode valuation %d result: %w", r.ID, err)
		}
		v.Valuation = &vv
	}
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	return v, nil
}

const selectValuation = `SELECT id, vehicle_details, contact_info, valuation, created_at FROM valuations`

func (s *SQLite) CreateValuation(ctx context.Context, details dal.VehicleAttributes, contact *dal.ContactInfo, valuation dal.VehicleValuation) (dal.Valuation, error) {
	detailsBlob, err := json.Marshal(details)
	if err != nil {
		return dal.Valuation{}, fmt.Errorf("encode vehicle details: %w", err)
	}
	var contactBlob sql.NullString
	if contact != nil {
		b, err := json.Marshal(contact)
		if err != nil {
			return dal.Valuation{}, fmt.Errorf("encode contact info: %w", err)
		}
		contactBlob = sql.NullString{String: string(b), Valid: true}
	}
	valuationBlob, err := json.Marshal(valuation)
	if err != nil {
		return dal.Valuation{}, fmt.Errorf("encode valuation: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO valuations (vehicle_details, contact_info, valuation, created_at) VALUES (?, ?, ?, ?)`,
		string(detailsBlob), contactBlob, string(valuationBlob), s.timestamp())
	if err != nil {
		return dal.Valuation{}, fmt.Errorf("insert valuation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dal.Valuation{}, fmt.Errorf("insert valuation: %w", err)
	}
	return s.GetValuation(ctx, id)
}

func (s *SQLite) GetValuation(ctx context.Context, id int64) (dal.Valuation, error) {
	var row valuationRow
	if err := s.db.GetContext(ctx, &row, selectValuation+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dal.Valuation{}, fmt.Errorf("valuation %d: %w", id, ErrNotFound)
		}
		return dal.Valuation{}, fmt.Errorf("get valuation %d: %w", id, err)
	}
	return row.toValuation()
}

// ListValuations returns every valuation, newest first.
func (s *SQLite) ListValuations(ctx context.Context) ([]dal.Valuation, error) {
	var rows []valuationRow
	if err := s.db.SelectContext(ctx, &rows, selectValuation+` ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("list valuations: %w", err)
	}
	out := make([]dal.Valuation, 0, len(rows))
	for _, r := range rows {
		v, err := r.toValuation()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *SQLite) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Package store persists scored practice sessions behind a small
// append/query/delete port. The newest Capacity records are kept; older
// ones are evicted on append.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ai-interview-eval-service/internal/scoring"
)

const (
	// DefaultCapacity is the number of records kept before eviction.
	DefaultCapacity = 100
	// DefaultLimit is the query page size when none is given.
	DefaultLimit = 50
	// RecordSchema names the validation schema for records.
	RecordSchema = "session_record"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// ErrNotFound is returned when deleting an id that is not stored.
var ErrNotFound = errors.New("session record not found")

// Record is the flattened, durable form of an evaluation.
type Record struct {
	ID               string                `json:"id"`
	CreatedAt        string                `json:"created_at" jsonschema:"format=date-time"`
	SessionType      string                `json:"session_type" jsonschema:"enum=behavioral,enum=voice"`
	QuestionText     string                `json:"question_text"`
	QuestionType     string                `json:"question_type"`
	OverallScore     float64               `json:"overall_score" jsonschema:"minimum=0,maximum=100"`
	Grade            string                `json:"grade" jsonschema:"minLength=1"`
	DurationSecs     int                   `json:"duration_secs" jsonschema:"minimum=0"`
	WordCount        int                   `json:"word_count" jsonschema:"minimum=0"`
	FillerCount      int                   `json:"filler_count" jsonschema:"minimum=0"`
	VocalFillerCount int                   `json:"vocal_filler_count" jsonschema:"minimum=0"`
	STARFulfilled    int                   `json:"star_fulfilled" jsonschema:"minimum=0,maximum=4"`
	DimScores        map[string]float64    `json:"dim_scores"`
	MinuteLogs       []scoring.MinuteScore `json:"minute_logs"`
}

// Time parses CreatedAt. The zero time is returned for malformed values.
func (r Record) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Filter selects records for Query.
type Filter struct {
	SessionType string // empty matches all
	Limit       int    // <= 0 means DefaultLimit
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Store is the persistence port used by the practice service.
type Store interface {
	// Append assigns an id and timestamp, stores the record and returns it.
	Append(ctx context.Context, rec Record) (Record, error)
	// Query returns matching records, newest first.
	Query(ctx context.Context, f Filter) ([]Record, error)
	// DeleteByID removes one record.
	DeleteByID(ctx context.Context, id string) error
	Close() error
}

// Validator checks a payload against a named schema.
type Validator interface {
	Validate(schema string, v any) error
}

// Option configures a store.
type Option func(*options)

type options struct {
	validator Validator
	now       func() time.Time
}

// WithValidator validates every record before it is written.
func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepare stamps and validates a record about to be appended.
func (o options) prepare(rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = o.now().UTC().Format(time.RFC3339Nano)
	if rec.DimScores == nil {
		rec.DimScores = map[string]float64{}
	}
	if rec.MinuteLogs == nil {
		rec.MinuteLogs = []scoring.MinuteScore{}
	}
	for i := range rec.MinuteLogs {
		if rec.MinuteLogs[i].Issues == nil {
			rec.MinuteLogs[i].Issues = []string{}
		}
	}
	if o.validator != nil {
		if err := o.validator.Validate(RecordSchema, rec); err != nil {
			return Record{}, fmt.Errorf("invalid session record: %w", err)
		}
	}
	return rec, nil
}

// Open returns the store for the named backend.
func Open(ctx context.Context, backend, dsn string, capacity int, opts ...Option) (Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	switch backend {
	case "", BackendMemory:
		return NewMemory(capacity, opts...), nil
	case BackendSQLite, BackendPostgres, BackendMySQL:
		return NewSQL(ctx, backend, dsn, capacity, opts...)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be memory, sqlite, postgres, or mysql", backend)
	}
}

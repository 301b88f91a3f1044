package evaluation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/evorag/internal/model"
	"github.com/kart-io/evorag/pkg/utils/json"
)

// Sink appends evaluation records. Append sets the record timestamp.
type Sink interface {
	Append(ctx context.Context, record *model.EvaluationRecord) error
	Close() error
}

var nowUTC = func() time.Time { return time.Now().UTC() }

// stamp sets the write time unless an outer sink already did.
func stamp(record *model.EvaluationRecord) {
	if record.Timestamp.IsZero() {
		record.Timestamp = nowUTC()
	}
}

var (
	_ Sink = (*JSONLSink)(nil)
	_ Sink = (*MongoSink)(nil)
	_ Sink = (MultiSink)(nil)
)

// JSONLSink appends one JSON object per line to a file opened with O_APPEND.
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewJSONLSink opens (creating if needed) the log file at path.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open evaluation log %s: %w", path, err)
	}
	return &JSONLSink{file: f, path: path}, nil
}

// Path returns the log file path.
func (s *JSONLSink) Path() string { return s.path }

// Append writes record as a single line.
func (s *JSONLSink) Append(_ context.Context, record *model.EvaluationRecord) error {
	stamp(record)

	line, err := json.MarshalLine(record)
	if err != nil {
		return fmt.Errorf("encode evaluation record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("append evaluation record: %w", err)
	}
	return nil
}

// Close closes the file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// MongoSink inserts records into a MongoDB collection.
type MongoSink struct {
	coll *mongo.Collection
}

// NewMongoSink creates a sink on coll.
func NewMongoSink(coll *mongo.Collection) *MongoSink {
	return &MongoSink{coll: coll}
}

// Append inserts record.
func (s *MongoSink) Append(ctx context.Context, record *model.EvaluationRecord) error {
	stamp(record)
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert evaluation record: %w", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (s *MongoSink) Close() error { return nil }

// MultiSink fans a record out to every sink. All sinks are attempted.
type MultiSink []Sink

// Append writes to every sink and joins their errors. Every sink sees the
// same timestamp.
func (m MultiSink) Append(ctx context.Context, record *model.EvaluationRecord) error {
	stamp(record)
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

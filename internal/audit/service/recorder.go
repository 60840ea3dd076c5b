package service

import (
	"context"
	"fmt"
	"shelfkeeper/internal/audit/repository"
	"shelfkeeper/pkg/identity"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const sinkTimeout = 5 * time.Second

// Sink is one append-only destination for audit entries.
type Sink interface {
	Name() string
	Write(ctx context.Context, entry *model.AuditEntry) error
}

// Recorder logs committed mutations. Record never reports failure to the
// caller: the mutation it describes has already been committed.
type Recorder interface {
	Record(ctx context.Context, table, action string, recordID int64, payload any)
	// Failures is the number of sink writes that failed since start.
	Failures() int64
}

// AlertFunc is notified of every failed sink write.
type AlertFunc func(sink string, entry *model.AuditEntry, err error)

type Option func(*recorder)

func WithAlert(fn AlertFunc) Option {
	return func(r *recorder) { r.alert = fn }
}

func WithClock(now func() time.Time) Option {
	return func(r *recorder) { r.now = now }
}

type recorder struct {
	sinks    []Sink
	log      *logger.Logger
	alert    AlertFunc
	now      func() time.Time
	failures atomic.Int64
}

func NewRecorder(log *logger.Logger, sinks []Sink, opts ...Option) Recorder {
	r := &recorder{
		sinks: sinks,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *recorder) Record(ctx context.Context, table, action string, recordID int64, payload any) {
	entry := &model.AuditEntry{
		ID:        uuid.New().String(),
		Table:     table,
		Action:    action,
		RecordID:  recordID,
		Actor:     identity.ActorFromContext(ctx),
		Timestamp: r.now().UTC(),
		Payload:   payload,
	}

	// the request may already be cancelled; the entry still has to land
	base := context.WithoutCancel(ctx)
	for _, sink := range r.sinks {
		sinkCtx, cancel := context.WithTimeout(base, sinkTimeout)
		err := r.write(sinkCtx, sink, entry)
		cancel()
		if err == nil {
			continue
		}

		r.failures.Add(1)
		r.log.Error("Failed to record audit entry",
			"alert", true,
			"sink", sink.Name(),
			"audit_id", entry.ID,
			"table", table,
			"action", action,
			"record_id", recordID,
			"actor", entry.Actor,
			"error", err,
		)
		if r.alert != nil {
			r.alert(sink.Name(), entry, err)
		}
	}
}

func (r *recorder) write(ctx context.Context, sink Sink, entry *model.AuditEntry) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &sinkPanic{value: p}
		}
	}()
	return sink.Write(ctx, entry)
}

func (r *recorder) Failures() int64 {
	return r.failures.Load()
}

type sinkPanic struct {
	value any
}

func (p *sinkPanic) Error() string {
	return fmt.Sprintf("audit sink panicked: %v", p.value)
}

type repositorySink struct {
	repo repository.AuditRepository
}

// NewRepositorySink writes entries to the audit log store.
func NewRepositorySink(repo repository.AuditRepository) Sink {
	return &repositorySink{repo: repo}
}

func (s *repositorySink) Name() string {
	return "store"
}

func (s *repositorySink) Write(ctx context.Context, entry *model.AuditEntry) error {
	return s.repo.Append(ctx, entry)
}

package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alrater/internal/apperr"
	"alrater/internal/model"
	"alrater/internal/rating"
	"alrater/internal/ratingtest"

	"github.com/google/uuid"
)

type fakeCalcRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]model.CalculationRecord
	createErr error
}

func newFakeCalcRepo() *fakeCalcRepo {
	return &fakeCalcRepo{records: make(map[uuid.UUID]model.CalculationRecord)}
}

func (r *fakeCalcRepo) Create(_ context.Context, rec *model.CalculationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	r.records[rec.ID] = *rec
	return nil
}

func (r *fakeCalcRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CalculationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeCalcRepo) List(_ context.Context, page, limit int) ([]model.CalculationRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]model.CalculationRecord, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *fakeCalcRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

func (r *fakeCalcRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
	logErr  error
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logErr != nil {
		return r.logErr
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries, int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeTx restores the calculation repo when fn fails.
type fakeTx struct {
	repo  *fakeCalcRepo
	calls int
}

func (t *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.calls++
	t.repo.mu.Lock()
	snapshot := make(map[uuid.UUID]model.CalculationRecord, len(t.repo.records))
	for k, v := range t.repo.records {
		snapshot[k] = v
	}
	t.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.repo.mu.Lock()
		t.repo.records = snapshot
		t.repo.mu.Unlock()
		return err
	}
	return nil
}

type publishedEvent struct {
	Type string
	Data any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
}

type fakeRecorder struct {
	mu       sync.Mutex
	statuses []string
	failures []string
	saved    int
}

func (r *fakeRecorder) ObserveQuote(status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *fakeRecorder) ObserveFailure(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, kind)
}

func (r *fakeRecorder) ObserveSaved() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved++
}

type quoteFixture struct {
	svc       QuoteService
	calcs     *fakeCalcRepo
	audits    *fakeAuditRepo
	publisher *fakePublisher
	recorder  *fakeRecorder
}

func newQuoteFixture() *quoteFixture {
	f := &quoteFixture{
		calcs:     newFakeCalcRepo(),
		audits:    &fakeAuditRepo{},
		publisher: &fakePublisher{},
		recorder:  &fakeRecorder{},
	}
	f.svc = NewQuoteService(
		ratingtest.Engine(),
		rating.NewFeeCalculator(rating.DefaultFeeSchedule()),
		ratingtest.TaxConfigs(),
		QuoteSettings{Tolerance: model.DefaultTolerance},
		f.calcs, f.audits, f.publisher, f.recorder,
	)
	return f
}

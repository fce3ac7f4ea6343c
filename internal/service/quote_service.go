package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"alrater/internal/apperr"
	"alrater/internal/metrics"
	"alrater/internal/model"
	"alrater/internal/rating"
	"alrater/internal/repository"
	ws "alrater/internal/websocket"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Publisher pushes live events to the local UI.
type Publisher interface {
	Publish(eventType string, data any)
}

// --- DTOs ---

type QuoteRequest struct {
	Policy         model.Policy
	PrintedTotal   *decimal.Decimal
	SourceDocument string
	// IncludeBroker overrides the configured broker fee switch when set.
	IncludeBroker *bool
}

// Quote is one rating run with its component breakdowns.
type Quote struct {
	Result         *model.CalculationResult `json:"result"`
	Fees           rating.FeeBreakdown      `json:"fees"`
	Taxes          rating.TaxBreakdown      `json:"taxes"`
	MinimumApplied string                   `json:"minimum_applied,omitempty"`
	Saved          bool                     `json:"saved"`
}

type QuoteSettings struct {
	IncludeBroker bool
	Tolerance     decimal.Decimal
}

// CalculationEvent is the websocket payload for saved and deleted results.
type CalculationEvent struct {
	ID                   string                     `json:"id"`
	InsuredName          string                     `json:"insured_name,omitempty"`
	State                string                     `json:"state,omitempty"`
	ALTotal              string                     `json:"al_total,omitempty"`
	ReconciliationStatus model.ReconciliationStatus `json:"reconciliation_status,omitempty"`
}

// --- Interface ---

type QuoteService interface {
	Rate(ctx context.Context, req QuoteRequest) (*Quote, error)
	// RateAndSave persists a successful run. On a storage failure the still
	// valid quote is returned together with the error.
	RateAndSave(ctx context.Context, req QuoteRequest) (*Quote, error)
}

type quoteService struct {
	engine    *rating.Engine
	fees      *rating.FeeCalculator
	taxes     model.TaxConfigStore
	settings  QuoteSettings
	calcRepo  repository.CalculationRepository
	auditRepo repository.AuditRepository
	publisher Publisher
	metrics   metrics.Recorder
}

func NewQuoteService(
	engine *rating.Engine,
	fees *rating.FeeCalculator,
	taxes model.TaxConfigStore,
	settings QuoteSettings,
	calcRepo repository.CalculationRepository,
	auditRepo repository.AuditRepository,
	publisher Publisher,
	recorder metrics.Recorder,
) QuoteService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &quoteService{
		engine:    engine,
		fees:      fees,
		taxes:     taxes,
		settings:  settings,
		calcRepo:  calcRepo,
		auditRepo: auditRepo,
		publisher: publisher,
		metrics:   recorder,
	}
}

// --- Implementation ---

func (s *quoteService) Rate(ctx context.Context, req QuoteRequest) (*Quote, error) {
	start := time.Now()
	q, err := s.rate(ctx, req)
	if err != nil {
		s.metrics.ObserveFailure(apperr.Kind(err))
		slog.Warn("rating failed", "insured", req.Policy.InsuredName, "state", req.Policy.State(),
			"kind", apperr.Kind(err), "error", err)
		return nil, err
	}
	s.metrics.ObserveQuote(string(q.Result.ReconciliationStatus), time.Since(start))
	slog.Info("policy rated",
		"state", q.Result.Policy.State,
		"program", q.Result.Metadata[model.MetaProgram],
		"subtotal", q.Result.PremiumSubtotal.StringFixed(2),
		"al_total", q.Result.ALTotal.StringFixed(2),
		"reconciliation", q.Result.ReconciliationStatus,
	)
	return q, nil
}

func (s *quoteService) rate(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := req.Policy
	if err := s.engine.ValidatePolicyForRating(p); err != nil {
		return nil, err
	}

	premium, err := s.engine.CalculatePremium(p)
	if err != nil {
		return nil, err
	}

	includeBroker := s.settings.IncludeBroker
	if req.IncludeBroker != nil {
		includeBroker = *req.IncludeBroker
	}
	fees := s.fees.Calculate(includeBroker)

	taxCfg, err := s.taxes.Get(p.State())
	if err != nil {
		return nil, err
	}
	taxes := rating.CalculateTaxes(taxCfg, premium.Subtotal, fees)

	total := rating.ALTotal(premium.Subtotal, fees.Total, taxes.Total)
	recon := rating.Reconcile(total, req.PrintedTotal, s.settings.Tolerance)

	metadata := map[string]string{
		model.MetaEditionCode: s.engine.Lookup().Tables().Edition.Code,
		model.MetaProgram:     premium.Program().String(),
	}
	if req.SourceDocument != "" {
		metadata[model.MetaSourceDocument] = req.SourceDocument
	}

	ps, vs, ds, ss := model.SummarizePolicy(p)
	result, err := model.NewCalculationResult(model.CalculationInput{
		Timestamp:           time.Now(),
		Policy:              ps,
		Vehicles:            vs,
		Drivers:             ds,
		Selection:           ss,
		Factors:             premium.Factors,
		PremiumSubtotal:     premium.Subtotal,
		FeesTotal:           fees.Total,
		TaxesTotal:          taxes.Total,
		ALTotal:             recon.ALTotal,
		ReconciliationDelta: recon.Delta,
		Tolerance:           s.settings.Tolerance,
		Metadata:            metadata,
	})
	if err != nil {
		return nil, err
	}
	return &Quote{Result: result, Fees: fees, Taxes: taxes, MinimumApplied: premium.MinimumApplied}, nil
}

func (s *quoteService) RateAndSave(ctx context.Context, req QuoteRequest) (*Quote, error) {
	q, err := s.Rate(ctx, req)
	if err != nil {
		return nil, err
	}

	rec, err := model.NewCalculationRecord(q.Result)
	if err == nil {
		err = s.calcRepo.Create(ctx, rec)
	}
	if err != nil {
		s.metrics.ObserveFailure(apperr.Kind(err))
		slog.Error("failed to save calculation", "insured", q.Result.Policy.InsuredName, "error", err)
		return q, fmt.Errorf("calculation computed but not saved: %w", err)
	}
	if err := q.Result.AttachID(rec.ID.String()); err != nil {
		return q, err
	}
	q.Saved = true
	s.metrics.ObserveSaved()

	s.audit(ctx, model.ActionRateQuote, q.Result, map[string]any{
		"state":                 q.Result.Policy.State,
		"program":               q.Result.Metadata[model.MetaProgram],
		"al_total":              q.Result.ALTotal.StringFixed(2),
		"reconciliation_status": q.Result.ReconciliationStatus,
		"source_document":       req.SourceDocument,
	})
	if s.publisher != nil {
		s.publisher.Publish(ws.EventCalculationSaved, eventFor(q.Result))
	}
	slog.Info("calculation saved", "id", q.Result.ID)
	return q, nil
}

func (s *quoteService) audit(ctx context.Context, action string, res *model.CalculationResult, details map[string]any) {
	writeAudit(ctx, s.auditRepo, action, res.ID, res.Policy.InsuredName, details)
}

// writeAudit records an audit entry. Failures are logged and never returned.
func writeAudit(ctx context.Context, repo repository.AuditRepository, action, entityID, entityName string, details map[string]any) {
	if repo == nil {
		return
	}
	b, err := json.Marshal(details)
	if err != nil {
		slog.Warn("failed to encode audit details", "action", action, "error", err)
		b = []byte("{}")
	}
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(b),
	}
	if err := repo.Log(ctx, entry); err != nil {
		slog.Warn("failed to write audit log", "action", action, "entity_id", entityID, "error", err)
	}
}

func eventFor(res *model.CalculationResult) CalculationEvent {
	return CalculationEvent{
		ID:                   res.ID,
		InsuredName:          res.Policy.InsuredName,
		State:                res.Policy.State,
		ALTotal:              res.ALTotal.StringFixed(2),
		ReconciliationStatus: res.ReconciliationStatus,
	}
}

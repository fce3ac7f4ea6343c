package service

import (
	"context"
	"fmt"
	"log/slog"

	"alrater/internal/apperr"
	"alrater/internal/export"
	"alrater/internal/model"
	"alrater/internal/repository"
	ws "alrater/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CalculationSummaryResponse struct {
	ID                   string `json:"id"`
	Timestamp            string `json:"timestamp"`
	InsuredName          string `json:"insured_name"`
	State                string `json:"state"`
	PremiumSubtotal      string `json:"premium_subtotal"`
	ALTotal              string `json:"al_total"`
	ReconciliationStatus string `json:"reconciliation_status"`
}

// ExportFile is a rendered export ready to be written or served.
type ExportFile struct {
	Name    string
	Content []byte
}

// --- Interface ---

type CalculationService interface {
	List(ctx context.Context, page, limit int) ([]CalculationSummaryResponse, int64, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id string) (*model.CalculationResult, error)
	Recent(ctx context.Context, limit int) ([]*model.CalculationResult, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id string, summary bool) (*ExportFile, error)
	// Import stores previously exported results in one transaction. Results
	// keep their original identifiers.
	Import(ctx context.Context, results []*model.CalculationResult) ([]string, error)
}

type calculationService struct {
	calcRepo  repository.CalculationRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	publisher Publisher
	tolerance decimal.Decimal
}

func NewCalculationService(
	calcRepo repository.CalculationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher Publisher,
	tolerance decimal.Decimal,
) CalculationService {
	return &calculationService{
		calcRepo:  calcRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		publisher: publisher,
		tolerance: tolerance,
	}
}

// --- Implementation ---

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.NewValidation([]string{fmt.Sprintf("invalid calculation id %q", id)})
	}
	return parsed, nil
}

func (s *calculationService) List(ctx context.Context, page, limit int) ([]CalculationSummaryResponse, int64, error) {
	records, total, err := s.calcRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]CalculationSummaryResponse, 0, len(records))
	for _, r := range records {
		res = append(res, CalculationSummaryResponse{
			ID:                   r.ID.String(),
			Timestamp:            r.Timestamp.Format("2006-01-02 15:04:05"),
			InsuredName:          r.InsuredName,
			State:                r.State,
			PremiumSubtotal:      r.PremiumSubtotal.StringFixed(2),
			ALTotal:              r.ALTotal.StringFixed(2),
			ReconciliationStatus: r.ReconciliationStatus,
		})
	}
	return res, total, nil
}

func (s *calculationService) Count(ctx context.Context) (int64, error) {
	return s.calcRepo.Count(ctx)
}

func (s *calculationService) Get(ctx context.Context, id string) (*model.CalculationResult, error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}
	rec, err := s.calcRepo.FindByID(ctx, parsed)
	if err != nil {
		return nil, err
	}
	res, err := rec.ToResult(s.tolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: stored calculation %s is unreadable: %w", apperr.ErrStorage, id, err)
	}
	return res, nil
}

// Recent loads up to limit full results, newest first.
func (s *calculationService) Recent(ctx context.Context, limit int) ([]*model.CalculationResult, error) {
	records, _, err := s.calcRepo.List(ctx, 1, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*model.CalculationResult, 0, len(records))
	for i := range records {
		res, err := records[i].ToResult(s.tolerance)
		if err != nil {
			return nil, fmt.Errorf("%w: stored calculation %s is unreadable: %w", apperr.ErrStorage, records[i].ID, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *calculationService) Delete(ctx context.Context, id string) error {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	rec, err := s.calcRepo.FindByID(ctx, parsed)
	if err != nil {
		return err
	}
	if err := s.calcRepo.Delete(ctx, parsed); err != nil {
		return err
	}
	writeAudit(ctx, s.auditRepo, model.ActionDeleteCalculation, id, rec.InsuredName, map[string]any{
		"al_total": rec.ALTotal.StringFixed(2),
		"state":    rec.State,
	})
	if s.publisher != nil {
		s.publisher.Publish(ws.EventCalculationDeleted, CalculationEvent{ID: id})
	}
	slog.Info("calculation deleted", "id", id)
	return nil
}

func (s *calculationService) Export(ctx context.Context, id string, summary bool) (*ExportFile, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var content []byte
	if summary {
		content, err = export.EncodeSummary(res)
	} else {
		content, err = export.Encode(res, true)
	}
	if err != nil {
		return nil, err
	}
	writeAudit(ctx, s.auditRepo, model.ActionExportCalculation, id, res.Policy.InsuredName, map[string]any{
		"summary": summary,
		"bytes":   len(content),
	})
	return &ExportFile{Name: export.FileName(res.Timestamp), Content: content}, nil
}

func (s *calculationService) Import(ctx context.Context, results []*model.CalculationResult) ([]string, error) {
	ids := make([]string, 0, len(results))
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, res := range results {
			rec, err := model.NewCalculationRecord(res)
			if err != nil {
				return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
			}
			if err := s.calcRepo.Create(txCtx, rec); err != nil {
				return err
			}
			ids = append(ids, rec.ID.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		if err := res.AttachID(ids[i]); err != nil {
			return ids, err
		}
	}
	slog.Info("calculations imported", "count", len(ids))
	return ids, nil
}

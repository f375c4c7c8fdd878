package estimate

import (
	"context"

	"billing/internal/core/apperror"
	"billing/internal/core/numerator"
	"billing/internal/core/tx"
	"billing/internal/domain"
)

// Repository persists estimates.
type Repository = domain.DocumentRepository[*Estimate]

// Service provides business operations for estimates.
type Service = domain.DocumentService[*Estimate]

// NewService creates the estimate service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	svc := domain.NewDocumentService(domain.DocumentServiceConfig[*Estimate]{
		Repo:         repo,
		TxManager:    txManager,
		Numerator:    gen,
		DocumentType: DocumentType,
		EntityName:   EntityName,
	})
	svc.Hooks().OnBeforeSave(func(ctx context.Context, e *Estimate) error {
		if e.Status == "" {
			e.Status = StatusDraft
		}
		e.Recalculate()
		return nil
	})
	svc.Hooks().OnBeforeUpdate(func(ctx context.Context, e *Estimate) error {
		stored, err := repo.GetByID(ctx, e.ID)
		if err != nil {
			return err
		}
		if !stored.CanTransition(e.Status) {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "estimate status cannot change").
				WithDetail("from", string(stored.Status)).
				WithDetail("to", string(e.Status))
		}
		return nil
	})
	return svc
}

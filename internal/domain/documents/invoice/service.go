package invoice

import (
	"context"

	"billing/internal/core/numerator"
	"billing/internal/core/tx"
	"billing/internal/domain"
)

// Repository persists invoices.
type Repository = domain.DocumentRepository[*Invoice]

// Service provides business operations for invoices.
type Service = domain.DocumentService[*Invoice]

// NewService creates the invoice service. Totals are recomputed on every save.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	svc := domain.NewDocumentService(domain.DocumentServiceConfig[*Invoice]{
		Repo:         repo,
		TxManager:    txManager,
		Numerator:    gen,
		DocumentType: DocumentType,
		EntityName:   EntityName,
	})
	svc.Hooks().OnBeforeSave(func(ctx context.Context, inv *Invoice) error {
		if inv.Status == "" {
			inv.Status = StatusDraft
		}
		inv.Recalculate()
		return nil
	})
	return svc
}

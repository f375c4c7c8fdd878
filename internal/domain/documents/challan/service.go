package challan

import (
	"context"
	"strings"

	"billing/internal/core/numerator"
	"billing/internal/core/tx"
	"billing/internal/domain"
)

// Repository persists challans.
type Repository = domain.DocumentRepository[*Challan]

// Service provides business operations for challans.
type Service = domain.DocumentService[*Challan]

// NewService creates the challan service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	svc := domain.NewDocumentService(domain.DocumentServiceConfig[*Challan]{
		Repo:         repo,
		TxManager:    txManager,
		Numerator:    gen,
		DocumentType: DocumentType,
		EntityName:   EntityName,
	})
	svc.Hooks().OnBeforeSave(func(ctx context.Context, c *Challan) error {
		// GSTIN starts with the two-digit state code
		c.ClientGST = strings.ToUpper(strings.TrimSpace(c.ClientGST))
		if c.ClientStateCode == "" && len(c.ClientGST) >= 2 {
			c.ClientStateCode = c.ClientGST[:2]
		}
		return nil
	})
	return svc
}

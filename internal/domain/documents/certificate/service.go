package certificate

import (
	"context"
	"strings"

	"billing/internal/core/numerator"
	"billing/internal/core/tx"
	"billing/internal/domain"
)

// Repository persists certificates.
type Repository = domain.DocumentRepository[*Certificate]

// Service provides business operations for certificates.
type Service = domain.DocumentService[*Certificate]

// NewService creates the certificate service. companyName is used when a
// certificate does not name the issuing company.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager, companyName string) *Service {
	svc := domain.NewDocumentService(domain.DocumentServiceConfig[*Certificate]{
		Repo:         repo,
		TxManager:    txManager,
		Numerator:    gen,
		DocumentType: DocumentType,
		EntityName:   EntityName,
	})
	svc.Hooks().OnBeforeSave(func(ctx context.Context, c *Certificate) error {
		if strings.TrimSpace(c.CompanyName) == "" {
			c.CompanyName = companyName
		}
		c.Renumber()
		return nil
	})
	return svc
}

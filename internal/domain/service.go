// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/entity"
	"billing/internal/core/id"
	"billing/internal/core/numerator"
	"billing/internal/core/tx"
	"billing/pkg/logger"
)

// NumberedDocument is a document that receives a number from the numerator.
type NumberedDocument interface {
	entity.Validatable
	GetID() id.ID
	GetNumber() string
	SetNumber(number string)
	GetDate() time.Time
	CanModify() error
}

// DocumentService provides business logic shared by all numbered documents.
type DocumentService[T NumberedDocument] struct {
	repo      DocumentRepository[T]
	txManager tx.Manager
	numerator numerator.Generator
	hooks     *HookRegistry[T]

	docType numerator.DocumentType
	// entityName for error messages
	entityName string
}

// DocumentServiceConfig configures the document service.
type DocumentServiceConfig[T NumberedDocument] struct {
	Repo         DocumentRepository[T]
	TxManager    tx.Manager
	Numerator    numerator.Generator
	DocumentType numerator.DocumentType
	EntityName   string
}

// NewDocumentService creates a new document service.
func NewDocumentService[T NumberedDocument](cfg DocumentServiceConfig[T]) *DocumentService[T] {
	return &DocumentService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		numerator:  cfg.Numerator,
		hooks:      NewHookRegistry[T](),
		docType:    cfg.DocumentType,
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *DocumentService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// DocumentType returns the numbering scope of this service.
func (s *DocumentService[T]) DocumentType() numerator.DocumentType {
	return s.docType
}

func (s *DocumentService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	// If entity already returns structured AppError, keep it.
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *DocumentService[T]) normalizeGetErr(err error, idOrNumber any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrNumber)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrNumber)
}

// Create validates doc, assigns its number and stores it.
//
// A blank number is generated. A supplied number is kept when free; when it
// is already taken a generated number is used instead. Each candidate is
// written in its own transaction so a unique violation only costs that attempt.
func (s *DocumentService[T]) Create(ctx context.Context, doc T) error {
	// 1. Run before-create hooks (defaults, totals)
	if err := s.hooks.Run(ctx, BeforeCreate, doc); err != nil {
		return err
	}

	// 2. Validate entity invariants
	if err := doc.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	// 3. Allocate number and insert
	requested := strings.TrimSpace(doc.GetNumber())
	doc.SetNumber(requested)
	req := numerator.Request{
		DocumentType: s.docType,
		AsOf:         doc.GetDate(),
		Explicit:     requested,
	}
	number, err := s.numerator.AllocateAndStore(ctx, req, func(ctx context.Context, number string) error {
		doc.SetNumber(number)
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.repo.Create(ctx, doc)
		})
	})
	if err != nil {
		doc.SetNumber(requested)
		return fmt.Errorf("create %s: %w", s.entityName, err)
	}
	doc.SetNumber(number)

	// 4. Run after-create hooks (outside transaction)
	if err := s.hooks.Run(ctx, AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}

	logger.Info(ctx, s.entityName+" created",
		"id", doc.GetID(),
		"number", number,
		"requested_number", requested)

	return nil
}

// GetByID retrieves document by ID.
func (s *DocumentService[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return doc, s.normalizeGetErr(err, docID.String())
	}
	return doc, nil
}

// GetByNumber retrieves document by number.
func (s *DocumentService[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return doc, s.normalizeGetErr(err, number)
	}
	return doc, nil
}

// Update stores changes to an existing document.
//
// A blank number keeps the stored one. A different number is accepted only
// when no other document of this type uses it; otherwise DUPLICATE_ENTRY.
func (s *DocumentService[T]) Update(ctx context.Context, doc T) error {
	existing, err := s.repo.GetByID(ctx, doc.GetID())
	if err != nil {
		return s.normalizeGetErr(err, doc.GetID().String())
	}
	if err := existing.CanModify(); err != nil {
		return err
	}

	current := existing.GetNumber()
	doc.SetNumber(strings.TrimSpace(doc.GetNumber()))
	if doc.GetNumber() == "" {
		doc.SetNumber(current)
	}

	if err := s.hooks.Run(ctx, BeforeUpdate, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
	if errors.Is(err, numerator.ErrDuplicateNumber) {
		return apperror.NewDuplicate(s.entityName, "number", doc.GetNumber()).WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", s.entityName, err)
	}

	if err := s.hooks.Run(ctx, AfterUpdate, doc); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "error", err)
	}

	if doc.GetNumber() != current {
		logger.Info(ctx, s.entityName+" renumbered",
			"id", doc.GetID(), "from", current, "to", doc.GetNumber())
	}
	return nil
}

// Delete performs soft delete. The number is not released.
func (s *DocumentService[T]) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return s.normalizeGetErr(err, docID.String())
	}

	if err := s.hooks.Run(ctx, BeforeDelete, doc); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterDelete, doc); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// List retrieves documents with filtering.
func (s *DocumentService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

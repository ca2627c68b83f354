package supplier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/numerator"
	"medstore/internal/core/tx"
	"medstore/internal/domain"
	"medstore/internal/domain/audit"
	"medstore/pkg/logger"
)

const entityName = "supplier"

// DeleteResult tells the caller which kind of removal happened.
type DeleteResult struct {
	Deactivated bool `json:"deactivated"`
	Deleted     bool `json:"deleted"`
}

// Service provides business logic for the supplier directory.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a new supplier service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		numerator: gen,
		txManager: txManager,
		audit:     recorder,
	}
}

// Create validates, assigns a code when none is given and stores the supplier.
func (s *Service) Create(ctx context.Context, actorID string, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	sup.Code = strings.TrimSpace(sup.Code)
	if sup.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, sup.OrganizationID, numerator.PlainConfig("SUP"), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("generate supplier code: %w", err)
		}
		sup.Code = code
	} else {
		exists, err := s.repo.ExistsByCode(ctx, sup.OrganizationID, sup.Code)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewDuplicate(entityName, "code", sup.Code)
		}
	}

	if err := s.repo.Create(ctx, sup); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		OrganizationID: sup.OrganizationID,
		EntityType:     entityName,
		EntityID:       sup.ID,
		Action:         audit.ActionCreate,
		ActorID:        actorID,
		Changes:        sup.snapshot(),
	})
	logger.Info(ctx, "supplier created", "id", sup.ID, "code", sup.Code)
	return nil
}

// Get returns a supplier of the organization.
func (s *Service) Get(ctx context.Context, orgID, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, orgID, supplierID)
}

// List returns suppliers matching filter.
func (s *Service) List(ctx context.Context, orgID id.ID, filter Filter) (domain.ListResult[Supplier], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, orgID, filter)
}

// Update replaces the editable fields of a supplier. Code is immutable.
func (s *Service) Update(ctx context.Context, actorID string, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	var changes map[string]any
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, sup.OrganizationID, sup.ID)
		if err != nil {
			return err
		}
		sup.Code = current.Code
		sup.CreatedAt = current.CreatedAt
		sup.Touch()
		changes = audit.Diff(current.snapshot(), sup.snapshot())
		return s.repo.Update(ctx, sup)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		OrganizationID: sup.OrganizationID,
		EntityType:     entityName,
		EntityID:       sup.ID,
		Action:         audit.ActionUpdate,
		ActorID:        actorID,
		Changes:        changes,
	})
	return nil
}

// Delete deactivates a supplier that purchase orders reference and hard-deletes any other.
func (s *Service) Delete(ctx context.Context, orgID, supplierID id.ID, actorID string) (DeleteResult, error) {
	var result DeleteResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, orgID, supplierID); err != nil {
			return err
		}

		referenced, err := s.repo.IsReferenced(ctx, orgID, supplierID)
		if err != nil {
			return err
		}
		if referenced {
			result.Deactivated = true
			return s.repo.SetActive(ctx, orgID, supplierID, false)
		}

		result.Deleted = true
		return s.repo.Delete(ctx, orgID, supplierID)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	action := audit.ActionDelete
	if result.Deactivated {
		action = audit.ActionDeactivate
	}
	s.audit.Record(ctx, audit.Entry{
		OrganizationID: orgID,
		EntityType:     entityName,
		EntityID:       supplierID,
		Action:         action,
		ActorID:        actorID,
	})
	logger.Info(ctx, "supplier removed", "id", supplierID, "deactivated", result.Deactivated)
	return result, nil
}

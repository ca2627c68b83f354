package inventory

import (
	"context"
	"strings"
	"time"

	"medstore/internal/core/apperror"
	"medstore/internal/core/id"
	"medstore/internal/core/tx"
	"medstore/internal/domain"
	"medstore/internal/domain/audit"
	"medstore/pkg/logger"
)

const entityName = "medicine"

// SupplierChecker confirms a supplier reference before it is stored on a medicine.
type SupplierChecker interface {
	Exists(ctx context.Context, orgID, supplierID id.ID) (bool, error)
}

// AdjustInput describes one signed stock mutation.
type AdjustInput struct {
	OrganizationID id.ID
	MedicineID     id.ID
	Delta          int
	Reason         string
	ReferenceType  ReferenceType
	ReferenceID    *id.ID
	ActorID        string
}

func (in AdjustInput) validate() error {
	if id.IsNil(in.OrganizationID) {
		return apperror.NewValidation("organization is required")
	}
	if id.IsNil(in.MedicineID) {
		return apperror.NewValidation("medicine is required").WithDetail("field", "medicineId")
	}
	if in.Delta == 0 {
		return apperror.NewValidation("delta must not be zero").WithDetail("field", "delta")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return apperror.NewValidation("reason is required").WithDetail("field", "reason")
	}
	return nil
}

// Service owns the stock ledger. All quantity changes go through AdjustQuantity.
type Service struct {
	repo      Repository
	suppliers SupplierChecker
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a new inventory service.
func NewService(repo Repository, suppliers SupplierChecker, txManager tx.Manager, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		suppliers: suppliers,
		txManager: txManager,
		audit:     recorder,
	}
}

// Create registers a medicine at intake with its opening stock.
func (s *Service) Create(ctx context.Context, actorID string, m *Medicine) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if m.SupplierID != nil {
		ok, err := s.suppliers.Exists(ctx, m.OrganizationID, *m.SupplierID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewNotFound("supplier", m.SupplierID.String())
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return err
		}
		if m.Quantity == 0 {
			return nil
		}
		return s.repo.AppendTransaction(ctx, &Transaction{
			ID:             id.New(),
			OrganizationID: m.OrganizationID,
			MedicineID:     m.ID,
			Type:           TransactionIncrement,
			Quantity:       m.Quantity,
			QuantityAfter:  m.Quantity,
			Reason:         "opening stock",
			ReferenceType:  ReferenceAdjustment,
			CreatedBy:      actorID,
			CreatedAt:      m.CreatedAt,
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		OrganizationID: m.OrganizationID,
		EntityType:     entityName,
		EntityID:       m.ID,
		Action:         audit.ActionCreate,
		ActorID:        actorID,
		Changes:        map[string]any{"name": m.Name, "quantity": m.Quantity},
	})
	logger.Info(ctx, "medicine created", "id", m.ID, "name", m.Name, "quantity", m.Quantity)
	return nil
}

// Get returns a medicine of the organization.
func (s *Service) Get(ctx context.Context, orgID, medicineID id.ID) (*Medicine, error) {
	return s.repo.GetByID(ctx, orgID, medicineID)
}

// List returns medicines matching filter.
func (s *Service) List(ctx context.Context, orgID id.ID, filter MedicineFilter) (domain.ListResult[Medicine], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, orgID, filter)
}

// Deactivate soft-deletes a medicine. Rows referenced by historical orders are never removed.
func (s *Service) Deactivate(ctx context.Context, orgID, medicineID id.ID, actorID string) error {
	changed := false
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetForUpdate(ctx, orgID, medicineID)
		if err != nil {
			return err
		}
		if !m.IsActive {
			return nil
		}
		if err := s.repo.SetActive(ctx, orgID, medicineID, false); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil || !changed {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		OrganizationID: orgID,
		EntityType:     entityName,
		EntityID:       medicineID,
		Action:         audit.ActionDeactivate,
		ActorID:        actorID,
	})
	return nil
}

// AdjustQuantity is the ledger mutation primitive.
// It joins the caller's transaction when there is one, locks the medicine row,
// rejects any result below zero and appends a ledger entry.
func (s *Service) AdjustQuantity(ctx context.Context, in AdjustInput) (*Medicine, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result *Medicine
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetForUpdate(ctx, in.OrganizationID, in.MedicineID)
		if err != nil {
			return err
		}

		before := m.Quantity
		after := before + in.Delta
		if after < 0 {
			return apperror.NewValidation("insufficient stock for adjustment").
				WithDetail("medicine_id", in.MedicineID.String()).
				WithDetail("current", before).
				WithDetail("delta", in.Delta)
		}

		now := time.Now().UTC()
		if err := s.repo.UpdateQuantity(ctx, in.OrganizationID, in.MedicineID, after, now); err != nil {
			return err
		}

		entry := &Transaction{
			ID:             id.New(),
			OrganizationID: in.OrganizationID,
			MedicineID:     in.MedicineID,
			Type:           TransactionIncrement,
			Quantity:       in.Delta,
			QuantityBefore: before,
			QuantityAfter:  after,
			Reason:         strings.TrimSpace(in.Reason),
			ReferenceType:  in.ReferenceType,
			ReferenceID:    in.ReferenceID,
			CreatedBy:      in.ActorID,
			CreatedAt:      now,
		}
		if in.Delta < 0 {
			entry.Type = TransactionDecrement
			entry.Quantity = -in.Delta
		}
		if entry.ReferenceType == "" {
			entry.ReferenceType = ReferenceAdjustment
		}
		if err := s.repo.AppendTransaction(ctx, entry); err != nil {
			return err
		}

		m.Quantity = after
		m.UpdatedAt = now
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AdjustStock is the manual adjustment operation: a ledger mutation followed by an audit entry.
func (s *Service) AdjustStock(ctx context.Context, in AdjustInput) (*Medicine, error) {
	in.ReferenceType = ReferenceAdjustment
	m, err := s.AdjustQuantity(ctx, in)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		OrganizationID: in.OrganizationID,
		EntityType:     entityName,
		EntityID:       in.MedicineID,
		Action:         audit.ActionAdjust,
		ActorID:        in.ActorID,
		Changes:        map[string]any{"delta": in.Delta, "reason": in.Reason, "quantity": m.Quantity},
	})
	logger.Info(ctx, "stock adjusted",
		"medicine_id", in.MedicineID,
		"delta", in.Delta,
		"quantity", m.Quantity,
	)
	return m, nil
}

// ListTransactions returns ledger entries of a medicine, newest first.
func (s *Service) ListTransactions(ctx context.Context, orgID, medicineID id.ID, filter domain.ListFilter) (domain.ListResult[Transaction], error) {
	if _, err := s.repo.GetByID(ctx, orgID, medicineID); err != nil {
		return domain.ListResult[Transaction]{}, err
	}
	return s.repo.ListTransactions(ctx, orgID, medicineID, filter.Normalize())
}

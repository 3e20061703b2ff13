package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

type CustomerService interface {
	Create(ctx context.Context, actor models.Actor, req *CustomerRequest) (*models.Customer, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, actor models.Actor, search string, limit, offset int) (models.Page[*models.Customer], error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *CustomerRequest) (*models.Customer, error)
}

type CustomerRequest struct {
	Name          string  `json:"name" validate:"required"`
	GSTNumber     string  `json:"gst_number" validate:"required"`
	Address       string  `json:"address" validate:"required"`
	ContactNumber *string `json:"contact_number"`
	Email         *string `json:"email"`
}

type customerService struct {
	customers repositories.CustomerRepository
	audit     AuditLogsService
	now       func() time.Time
}

func NewCustomerService(customers repositories.CustomerRepository, audit AuditLogsService) CustomerService {
	return &customerService{customers: customers, audit: audit, now: time.Now}
}

func (s *customerService) validate(req *CustomerRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.GSTNumber = strings.ToUpper(strings.TrimSpace(req.GSTNumber))
	req.Address = strings.TrimSpace(req.Address)

	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return err
	}
	if err := common.ValidateGSTIN(req.GSTNumber, "gst_number"); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(req.Address, "address"); err != nil {
		return err
	}
	if err := common.ValidateOptionalString(req.ContactNumber, "contact_number", 10); err != nil {
		return err
	}
	if req.ContactNumber != nil && *req.ContactNumber != "" {
		if err := common.ValidatePhone(*req.ContactNumber, "contact_number"); err != nil {
			return err
		}
	}
	if err := common.ValidateOptionalString(req.Email, "email", 255); err != nil {
		return err
	}
	if req.Email != nil && *req.Email != "" {
		if err := common.ValidateEmail(*req.Email, "email"); err != nil {
			return err
		}
	}
	return nil
}

func (s *customerService) Create(ctx context.Context, actor models.Actor, req *CustomerRequest) (*models.Customer, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	customer := &models.Customer{
		ID:            uuid.New(),
		IssuerID:      actor.IssuerID,
		Name:          req.Name,
		GSTNumber:     req.GSTNumber,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.audit.LogEntityCreate(ctx, actor, "customers", customer.ID, customer)
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Customer, error) {
	return s.customers.GetByID(ctx, actor.IssuerID, id)
}

func (s *customerService) List(ctx context.Context, actor models.Actor, search string, limit, offset int) (models.Page[*models.Customer], error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return models.Page[*models.Customer]{}, err
	}
	customers, total, err := s.customers.List(ctx, actor.IssuerID, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return models.Page[*models.Customer]{}, err
	}
	return models.NewPage(customers, total, limit, offset), nil
}

// Update is open to the creator of the customer record, managers and admins.
func (s *customerService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *CustomerRequest) (*models.Customer, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	existing, err := s.customers.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanRead(existing.CreatedBy) {
		return nil, &common.AuthorizationError{Action: "update this customer"}
	}

	updated := *existing
	updated.Name = req.Name
	updated.GSTNumber = req.GSTNumber
	updated.Address = req.Address
	updated.ContactNumber = req.ContactNumber
	updated.Email = req.Email
	updated.UpdatedAt = s.now()

	if err := s.customers.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.audit.LogEntityUpdate(ctx, actor, "customers", id, existing, &updated)
	return &updated, nil
}

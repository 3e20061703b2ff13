package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gstbill/internal/billing"
	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

// ChallanService manages delivery challans. Challans carry no tax.
type ChallanService interface {
	Create(ctx context.Context, actor models.Actor, req *ChallanRequest) (*models.Challan, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Challan, error)
	List(ctx context.Context, actor models.Actor, filters *models.DocumentFilters) (models.Page[*models.Challan], error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *ChallanRequest) (*models.Challan, error)
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error
	UpdateDelivery(ctx context.Context, actor models.Actor, id uuid.UUID, req *DeliveryUpdateRequest) (*models.Challan, error)
	Stats(ctx context.Context, actor models.Actor, start, end *time.Time) (*models.DeliveryStats, error)
}

type ChallanRequest struct {
	CustomerID      uuid.UUID            `json:"customer_id" validate:"required"`
	Items           []models.ChallanItem `json:"items" validate:"required,min=1,dive"`
	DeliveryDate    time.Time            `json:"delivery_date" validate:"required"`
	DeliveryAddress string               `json:"delivery_address" validate:"required"`
	ContactPerson   models.ContactPerson `json:"contact_person"`
	Department      *string              `json:"department"`
	VehicleNumber   *string              `json:"vehicle_number"`
	TransporterName *string              `json:"transporter_name"`
	TransportMode   *string              `json:"transport_mode"`
	Notes           *string              `json:"notes"`
}

type DeliveryUpdateRequest struct {
	Status        models.DocumentStatus `json:"status" validate:"required"`
	DeliveryNotes *string               `json:"delivery_notes"`
}

type challanService struct {
	documentBase
	challans repositories.ChallanRepository
}

func NewChallanService(challans repositories.ChallanRepository, deps DocumentDeps) ChallanService {
	return &challanService{
		documentBase: newDocumentBase(deps),
		challans:     challans,
	}
}

func validateChallanRequest(req *ChallanRequest) error {
	if len(req.Items) == 0 {
		return common.NewValidationError("items", "at least one item is required")
	}
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if err := common.ValidateRequiredString(item.Description, field+".description"); err != nil {
			return err
		}
		if !item.Quantity.IsPositive() {
			return common.NewValidationError(field+".quantity", "must be greater than zero")
		}
		if err := common.ValidateRequiredString(item.Unit, field+".unit"); err != nil {
			return err
		}
	}
	if req.DeliveryDate.IsZero() {
		return common.NewValidationError("delivery_date", "is required")
	}
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	if err := common.ValidateRequiredString(req.DeliveryAddress, "delivery_address"); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(req.ContactPerson.Name, "contact_person.name"); err != nil {
		return err
	}
	if err := common.ValidatePhone(req.ContactPerson.Phone, "contact_person.phone"); err != nil {
		return err
	}
	for _, f := range []struct {
		value *string
		name  string
		max   int
	}{
		{req.Department, "department", 100},
		{req.VehicleNumber, "vehicle_number", 20},
		{req.TransporterName, "transporter_name", 255},
		{req.TransportMode, "transport_mode", 50},
		{req.Notes, "notes", 1000},
	} {
		if err := common.ValidateOptionalString(f.value, f.name, f.max); err != nil {
			return err
		}
	}
	return common.SanitizeHTMLField(req.Notes, "notes")
}

func (s *challanService) Create(ctx context.Context, actor models.Actor, req *ChallanRequest) (*models.Challan, error) {
	if err := validateChallanRequest(req); err != nil {
		return nil, err
	}
	customer, err := s.customerFor(ctx, actor, req.CustomerID)
	if err != nil {
		return nil, err
	}
	issuer, err := s.Issuers.GetByID(ctx, actor.IssuerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	challan := &models.Challan{
		ID:              uuid.New(),
		IssuerID:        actor.IssuerID,
		CreatedBy:       actor.UserID,
		CustomerID:      customer.ID,
		Department:      req.Department,
		Items:           req.Items,
		Status:          models.ChallanStatusPending,
		DeliveryDate:    req.DeliveryDate,
		VehicleNumber:   req.VehicleNumber,
		TransporterName: req.TransporterName,
		TransportMode:   req.TransportMode,
		DeliveryAddress: req.DeliveryAddress,
		ContactPerson:   req.ContactPerson,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err = s.createWithNumber(ctx, issuer, models.DocumentTypeChallan, now, func(number string) error {
		challan.Number = number
		return s.challans.Create(ctx, challan)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.LogEntityCreate(ctx, actor, "challans", challan.ID, challan)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return challan, nil
}

func (s *challanService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Challan, error) {
	challan, err := s.challans.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, "challan", challan.CreatedBy); err != nil {
		return nil, err
	}
	return challan, nil
}

func (s *challanService) List(ctx context.Context, actor models.Actor, filters *models.DocumentFilters) (models.Page[*models.Challan], error) {
	filters, err := scopeFilters(actor, filters)
	if err != nil {
		return models.Page[*models.Challan]{}, err
	}
	if filters.Status != nil && !billing.ChallanMachine.Known(models.DocumentStatus(*filters.Status)) {
		return models.Page[*models.Challan]{}, common.NewValidationError("status", "is not a valid challan status")
	}
	challans, total, err := s.challans.List(ctx, actor.IssuerID, filters)
	if err != nil {
		return models.Page[*models.Challan]{}, err
	}
	return models.NewPage(challans, total, filters.Limit, filters.Offset), nil
}

func (s *challanService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *ChallanRequest) (*models.Challan, error) {
	existing, err := s.challans.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "update", "challan", existing.CreatedBy); err != nil {
		return nil, err
	}
	if err := billing.ChallanMachine.CheckMutable(existing.Status); err != nil {
		return nil, err
	}
	if err := validateChallanRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.customerFor(ctx, actor, req.CustomerID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.CustomerID = req.CustomerID
	updated.Items = req.Items
	updated.DeliveryDate = req.DeliveryDate
	updated.DeliveryAddress = req.DeliveryAddress
	updated.ContactPerson = req.ContactPerson
	updated.Department = req.Department
	updated.VehicleNumber = req.VehicleNumber
	updated.TransporterName = req.TransporterName
	updated.TransportMode = req.TransportMode
	updated.Notes = req.Notes
	updated.UpdatedAt = s.now()

	if err := s.challans.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.Audit.LogEntityUpdate(ctx, actor, "challans", id, existing, &updated)
	return &updated, nil
}

func (s *challanService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	existing, err := s.challans.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return err
	}
	if err := authorizeModify(actor, "delete", "challan", existing.CreatedBy); err != nil {
		return err
	}
	if err := billing.ChallanMachine.CheckDeletable(existing.Status); err != nil {
		return err
	}
	if err := s.challans.Delete(ctx, actor.IssuerID, id); err != nil {
		return err
	}

	s.Audit.LogEntityDelete(ctx, actor, "challans", id, existing)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return nil
}

// UpdateDelivery moves a challan through its delivery states. Entering delivered
// stamps the delivery time.
func (s *challanService) UpdateDelivery(ctx context.Context, actor models.Actor, id uuid.UUID, req *DeliveryUpdateRequest) (*models.Challan, error) {
	if !billing.ChallanMachine.Known(req.Status) {
		return nil, common.NewValidationError("status", "is not a valid challan status")
	}
	if err := common.ValidateOptionalString(req.DeliveryNotes, "delivery_notes", 1000); err != nil {
		return nil, err
	}
	challan, err := s.challans.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "update delivery of", "challan", challan.CreatedBy); err != nil {
		return nil, err
	}

	from := challan.Status
	if err := billing.ChallanMachine.Transition(from, req.Status); err != nil {
		return nil, err
	}

	now := s.now()
	challan.Status = req.Status
	if req.Status == models.ChallanStatusDelivered {
		challan.DeliveredAt = &now
	}
	if req.DeliveryNotes != nil {
		challan.DeliveryNotes = req.DeliveryNotes
	}
	challan.UpdatedAt = now

	if err := s.challans.UpdateDelivery(ctx, challan); err != nil {
		return nil, err
	}

	s.Audit.LogStatusChange(ctx, actor, "challans", id, from, req.Status)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return challan, nil
}

func (s *challanService) Stats(ctx context.Context, actor models.Actor, start, end *time.Time) (*models.DeliveryStats, error) {
	from, to, err := statsRange(start, end, s.now())
	if err != nil {
		return nil, err
	}
	return s.challans.GetStats(ctx, actor.IssuerID, statsOwner(actor), from, to)
}

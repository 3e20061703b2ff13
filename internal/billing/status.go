package billing

import (
	"slices"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

// Machine describes the allowed lifecycle of one document kind.
type Machine struct {
	Resource    string
	Initial     models.DocumentStatus
	transitions map[models.DocumentStatus][]models.DocumentStatus
	frozen      map[models.DocumentStatus]bool
	undeletable map[models.DocumentStatus]bool
}

var InvoiceMachine = &Machine{
	Resource: "invoice",
	Initial:  models.InvoiceStatusDraft,
	transitions: map[models.DocumentStatus][]models.DocumentStatus{
		models.InvoiceStatusDraft:   {models.InvoiceStatusSent, models.InvoiceStatusCancelled},
		models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
		models.InvoiceStatusOverdue: {models.InvoiceStatusPaid, models.InvoiceStatusCancelled},
	},
	frozen:      map[models.DocumentStatus]bool{models.InvoiceStatusPaid: true},
	undeletable: map[models.DocumentStatus]bool{models.InvoiceStatusPaid: true},
}

var QuotationMachine = &Machine{
	Resource: "quotation",
	Initial:  models.QuotationStatusDraft,
	transitions: map[models.DocumentStatus][]models.DocumentStatus{
		models.QuotationStatusDraft: {models.QuotationStatusSent, models.QuotationStatusAccepted, models.QuotationStatusRejected, models.QuotationStatusExpired},
		models.QuotationStatusSent:  {models.QuotationStatusAccepted, models.QuotationStatusRejected, models.QuotationStatusExpired},
	},
	frozen:      map[models.DocumentStatus]bool{models.QuotationStatusAccepted: true, models.QuotationStatusExpired: true},
	undeletable: map[models.DocumentStatus]bool{models.QuotationStatusAccepted: true},
}

var ChallanMachine = &Machine{
	Resource: "challan",
	Initial:  models.ChallanStatusPending,
	transitions: map[models.DocumentStatus][]models.DocumentStatus{
		models.ChallanStatusPending: {models.ChallanStatusDelivered, models.ChallanStatusCancelled},
	},
	frozen:      map[models.DocumentStatus]bool{models.ChallanStatusDelivered: true},
	undeletable: map[models.DocumentStatus]bool{models.ChallanStatusDelivered: true},
}

// Known reports whether s is a status of this machine.
func (m *Machine) Known(s models.DocumentStatus) bool {
	if s == m.Initial {
		return true
	}
	for from, tos := range m.transitions {
		if from == s {
			return true
		}
		for _, to := range tos {
			if to == s {
				return true
			}
		}
	}
	return false
}

// CanTransition reports whether from -> to is an edge of the machine.
func (m *Machine) CanTransition(from, to models.DocumentStatus) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FrozenStatuses lists the statuses in which the document can no longer be edited.
func (m *Machine) FrozenStatuses() []string {
	return statusList(m.frozen)
}

// UndeletableStatuses lists the statuses in which the document can no longer be deleted.
func (m *Machine) UndeletableStatuses() []string {
	return statusList(m.undeletable)
}

func statusList(set map[models.DocumentStatus]bool) []string {
	out := make([]string, 0, len(set))
	for s, ok := range set {
		if ok {
			out = append(out, string(s))
		}
	}
	slices.Sort(out)
	return out
}

func (m *Machine) Transition(from, to models.DocumentStatus) error {
	if !m.CanTransition(from, to) {
		return &common.StateConflictError{Resource: m.Resource, Status: string(from), Action: "change status to " + string(to)}
	}
	return nil
}

func (m *Machine) CheckMutable(s models.DocumentStatus) error {
	if m.frozen[s] {
		return &common.StateConflictError{Resource: m.Resource, Status: string(s), Action: "update"}
	}
	return nil
}

func (m *Machine) CheckDeletable(s models.DocumentStatus) error {
	if m.undeletable[s] {
		return &common.StateConflictError{Resource: m.Resource, Status: string(s), Action: "delete"}
	}
	return nil
}

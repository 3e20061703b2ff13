package billing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

func TestInvoiceMachine(t *testing.T) {
	m := InvoiceMachine

	assert.NoError(t, m.Transition(models.InvoiceStatusDraft, models.InvoiceStatusSent))
	assert.NoError(t, m.Transition(models.InvoiceStatusSent, models.InvoiceStatusOverdue))
	assert.NoError(t, m.Transition(models.InvoiceStatusOverdue, models.InvoiceStatusPaid))
	assert.NoError(t, m.Transition(models.InvoiceStatusSent, models.InvoiceStatusCancelled))

	assert.Error(t, m.Transition(models.InvoiceStatusDraft, models.InvoiceStatusPaid))
	assert.Error(t, m.Transition(models.InvoiceStatusPaid, models.InvoiceStatusSent))
	assert.Error(t, m.Transition(models.InvoiceStatusCancelled, models.InvoiceStatusDraft))

	assert.Equal(t, []string{"paid"}, m.FrozenStatuses())
	assert.Equal(t, []string{"paid"}, m.UndeletableStatuses())

	assert.NoError(t, m.CheckMutable(models.InvoiceStatusSent))
	assert.NoError(t, m.CheckDeletable(models.InvoiceStatusDraft))

	err := m.CheckMutable(models.InvoiceStatusPaid)
	var conflict *common.StateConflictError
	if assert.True(t, errors.As(err, &conflict)) {
		assert.Equal(t, "invoice", conflict.Resource)
		assert.Equal(t, "paid", conflict.Status)
		assert.Equal(t, "update", conflict.Action)
	}
	assert.Error(t, m.CheckDeletable(models.InvoiceStatusPaid))
}

func TestQuotationMachine(t *testing.T) {
	m := QuotationMachine

	assert.NoError(t, m.Transition(models.QuotationStatusDraft, models.QuotationStatusAccepted))
	assert.NoError(t, m.Transition(models.QuotationStatusSent, models.QuotationStatusExpired))
	assert.Error(t, m.Transition(models.QuotationStatusAccepted, models.QuotationStatusSent))
	assert.Error(t, m.Transition(models.QuotationStatusRejected, models.QuotationStatusAccepted))

	assert.Error(t, m.CheckMutable(models.QuotationStatusAccepted))
	assert.Error(t, m.CheckMutable(models.QuotationStatusExpired))
	assert.NoError(t, m.CheckMutable(models.QuotationStatusRejected))

	assert.Error(t, m.CheckDeletable(models.QuotationStatusAccepted))
	assert.NoError(t, m.CheckDeletable(models.QuotationStatusExpired))

	assert.Equal(t, []string{"accepted", "expired"}, m.FrozenStatuses())
	assert.Equal(t, []string{"accepted"}, m.UndeletableStatuses())
}

func TestChallanMachine(t *testing.T) {
	m := ChallanMachine

	assert.NoError(t, m.Transition(models.ChallanStatusPending, models.ChallanStatusDelivered))
	assert.NoError(t, m.Transition(models.ChallanStatusPending, models.ChallanStatusCancelled))
	assert.Error(t, m.Transition(models.ChallanStatusDelivered, models.ChallanStatusPending))

	assert.Error(t, m.CheckMutable(models.ChallanStatusDelivered))
	assert.Error(t, m.CheckDeletable(models.ChallanStatusDelivered))
	assert.NoError(t, m.CheckMutable(models.ChallanStatusCancelled))
}

func TestMachineKnown(t *testing.T) {
	assert.True(t, InvoiceMachine.Known(models.InvoiceStatusPaid))
	assert.True(t, InvoiceMachine.Known(models.InvoiceStatusDraft))
	assert.False(t, InvoiceMachine.Known(models.QuotationStatusAccepted))
	assert.False(t, ChallanMachine.Known("shipped"))
}

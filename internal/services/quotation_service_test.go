package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

type QuotationServiceTestSuite struct {
	suite.Suite
	f          *documentFixture
	quotations *MockQuotationRepository
	service    *quotationService
	ctx        context.Context
}

func (suite *QuotationServiceTestSuite) SetupTest() {
	suite.f = newDocumentFixture()
	suite.quotations = &MockQuotationRepository{}
	suite.service = NewQuotationService(suite.quotations, suite.f.deps()).(*quotationService)
	suite.service.now = func() time.Time { return fixedNow }
	suite.ctx = context.Background()
}

func (suite *QuotationServiceTestSuite) TearDownTest() {
	suite.quotations.AssertExpectations(suite.T())
}

func TestQuotationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(QuotationServiceTestSuite))
}

func (suite *QuotationServiceTestSuite) openQuotation(status models.DocumentStatus) *models.Quotation {
	items := []models.LineItem{taxedItem("2", "100", "9", "9", "0")}
	return &models.Quotation{
		Document: models.Document{
			ID:            uuid.New(),
			IssuerID:      suite.f.issuer.ID,
			CreatedBy:     suite.f.user.UserID,
			CustomerID:    suite.f.customer.ID,
			Number:        "QTN/" + testTaxID + "/2024/0001",
			Items:         items,
			PlaceOfSupply: "Maharashtra",
			Totals: models.Totals{
				Subtotal:   dec("200"),
				TotalCGST:  dec("18"),
				TotalSGST:  dec("18"),
				GrandTotal: dec("236"),
			},
		},
		Status:     status,
		ValidUntil: fixedNow.AddDate(0, 0, 10),
	}
}

func (suite *QuotationServiceTestSuite) TestCreate_Success() {
	suite.f.expectParties()
	suite.f.sequences.On("Next", mock.Anything, suite.f.issuer.ID, models.DocumentTypeQuotation, 2024).Return(1, nil)
	suite.quotations.On("Create", mock.Anything, mock.AnythingOfType("*models.Quotation")).Return(nil)
	validUntil := fixedNow.AddDate(0, 0, 21)

	quotation, err := suite.service.Create(suite.ctx, suite.f.user, &CreateQuotationRequest{
		CustomerID:    suite.f.customer.ID,
		Items:         []models.LineItem{taxedItem("2", "100", "9", "9", "0")},
		PlaceOfSupply: "Maharashtra",
		ValidUntil:    &validUntil,
	})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "QTN/27AAPFU0939F1ZV/2024/0001", quotation.Number)
	assert.Equal(suite.T(), models.QuotationStatusDraft, quotation.Status)
	assert.Equal(suite.T(), validUntil, quotation.ValidUntil)
	assert.True(suite.T(), dec("236").Equal(quotation.GrandTotal))
}

func (suite *QuotationServiceTestSuite) TestCreate_MissingValidUntil() {
	_, err := suite.service.Create(suite.ctx, suite.f.user, &CreateQuotationRequest{
		CustomerID:    suite.f.customer.ID,
		Items:         []models.LineItem{taxedItem("2", "100", "9", "9", "0")},
		PlaceOfSupply: "Maharashtra",
	})

	var validationErr *common.ValidationError
	require.ErrorAs(suite.T(), err, &validationErr)
	assert.Equal(suite.T(), "valid_until", validationErr.Field)
	suite.quotations.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	suite.f.sequences.AssertNotCalled(suite.T(), "Next", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *QuotationServiceTestSuite) TestCreate_ValidUntilInPast() {
	past := fixedNow.AddDate(0, 0, -1)

	_, err := suite.service.Create(suite.ctx, suite.f.user, &CreateQuotationRequest{
		CustomerID:    suite.f.customer.ID,
		Items:         []models.LineItem{taxedItem("1", "10", "0", "0", "0")},
		PlaceOfSupply: "Maharashtra",
		ValidUntil:    &past,
	})

	var validationErr *common.ValidationError
	require.ErrorAs(suite.T(), err, &validationErr)
	assert.Equal(suite.T(), "valid_until", validationErr.Field)
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_Success() {
	quotation := suite.openQuotation(models.QuotationStatusSent)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	suite.f.issuers.On("GetByID", mock.Anything, suite.f.issuer.ID).Return(suite.f.issuer, nil)
	suite.f.sequences.On("Next", mock.Anything, suite.f.issuer.ID, models.DocumentTypeInvoice, 2024).Return(12, nil).Once()
	suite.quotations.On("ConvertToInvoice", mock.Anything, suite.f.issuer.ID, quotation.ID, mock.AnythingOfType("*models.Invoice")).
		Return(nil).Once()

	invoice, err := suite.service.ConvertToInvoice(suite.ctx, suite.f.user, quotation.ID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "INV/27AAPFU0939F1ZV/2024/0012", invoice.Number)
	assert.Equal(suite.T(), models.InvoiceStatusDraft, invoice.Status)
	require.NotNil(suite.T(), invoice.SourceQuotationID)
	assert.Equal(suite.T(), quotation.ID, *invoice.SourceQuotationID)
	assert.Equal(suite.T(), quotation.Items, invoice.Items)
	assert.True(suite.T(), quotation.GrandTotal.Equal(invoice.GrandTotal))
	assert.Equal(suite.T(), fixedNow.AddDate(0, 0, 30), invoice.DueDate)
	assert.Equal(suite.T(), suite.f.user.UserID, invoice.CreatedBy)
	suite.f.sequences.AssertExpectations(suite.T())
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_SecondConversionFails() {
	quotation := suite.openQuotation(models.QuotationStatusAccepted)
	invoiceID := uuid.New()
	quotation.ConvertedToInvoice = true
	quotation.ConvertedInvoiceID = &invoiceID
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)

	_, err := suite.service.ConvertToInvoice(suite.ctx, suite.f.user, quotation.ID)

	assert.True(suite.T(), errors.Is(err, common.ErrAlreadyConverted))
	var conflict *common.StateConflictError
	assert.ErrorAs(suite.T(), err, &conflict)
	suite.quotations.AssertNotCalled(suite.T(), "ConvertToInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_LosesRace() {
	quotation := suite.openQuotation(models.QuotationStatusDraft)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	suite.f.issuers.On("GetByID", mock.Anything, suite.f.issuer.ID).Return(suite.f.issuer, nil)
	suite.f.sequences.On("Next", mock.Anything, suite.f.issuer.ID, models.DocumentTypeInvoice, 2024).Return(4, nil).Once()
	suite.quotations.On("ConvertToInvoice", mock.Anything, suite.f.issuer.ID, quotation.ID, mock.AnythingOfType("*models.Invoice")).
		Return(&common.ConversionConflictError{QuotationID: quotation.ID.String()}).Once()

	_, err := suite.service.ConvertToInvoice(suite.ctx, suite.f.user, quotation.ID)

	assert.True(suite.T(), errors.Is(err, common.ErrAlreadyConverted))
	suite.f.sequences.AssertNumberOfCalls(suite.T(), "Next", 1)
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_RetriesWithFreshNumber() {
	quotation := suite.openQuotation(models.QuotationStatusDraft)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	suite.f.issuers.On("GetByID", mock.Anything, suite.f.issuer.ID).Return(suite.f.issuer, nil)
	suite.f.sequences.On("Next", mock.Anything, suite.f.issuer.ID, models.DocumentTypeInvoice, 2024).Return(5, nil).Once()
	suite.f.sequences.On("Next", mock.Anything, suite.f.issuer.ID, models.DocumentTypeInvoice, 2024).Return(6, nil).Once()

	var attempted []string
	record := func(args mock.Arguments) {
		attempted = append(attempted, args.Get(3).(*models.Invoice).Number)
	}
	suite.quotations.On("ConvertToInvoice", mock.Anything, suite.f.issuer.ID, quotation.ID, mock.AnythingOfType("*models.Invoice")).
		Run(record).Return(&common.NumberingConflictError{Number: "INV/27AAPFU0939F1ZV/2024/0005"}).Once()
	suite.quotations.On("ConvertToInvoice", mock.Anything, suite.f.issuer.ID, quotation.ID, mock.AnythingOfType("*models.Invoice")).
		Run(record).Return(nil).Once()

	invoice, err := suite.service.ConvertToInvoice(suite.ctx, suite.f.user, quotation.ID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"INV/27AAPFU0939F1ZV/2024/0005", "INV/27AAPFU0939F1ZV/2024/0006"}, attempted)
	assert.Equal(suite.T(), "INV/27AAPFU0939F1ZV/2024/0006", invoice.Number)
	suite.f.sequences.AssertExpectations(suite.T())
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_GivesUpAfterRetryLimit() {
	quotation := suite.openQuotation(models.QuotationStatusDraft)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	suite.f.issuers.On("GetByID", mock.Anything, suite.f.issuer.ID).Return(suite.f.issuer, nil)
	suite.f.sequences.On("Next", mock.Anything, suite.f.issuer.ID, models.DocumentTypeInvoice, 2024).Return(9, nil)
	suite.quotations.On("ConvertToInvoice", mock.Anything, suite.f.issuer.ID, quotation.ID, mock.AnythingOfType("*models.Invoice")).
		Return(&common.NumberingConflictError{Number: "taken"})

	_, err := suite.service.ConvertToInvoice(suite.ctx, suite.f.user, quotation.ID)

	assert.True(suite.T(), errors.Is(err, common.ErrNumberingConflict))
	suite.quotations.AssertNumberOfCalls(suite.T(), "ConvertToInvoice", 3)
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_RejectedQuotation() {
	quotation := suite.openQuotation(models.QuotationStatusRejected)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)

	_, err := suite.service.ConvertToInvoice(suite.ctx, suite.f.user, quotation.ID)

	var conflict *common.StateConflictError
	assert.ErrorAs(suite.T(), err, &conflict)
	assert.False(suite.T(), errors.Is(err, common.ErrAlreadyConverted))
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_OtherUserForbidden() {
	quotation := suite.openQuotation(models.QuotationStatusDraft)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	stranger := models.Actor{UserID: uuid.New(), IssuerID: suite.f.issuer.ID, Role: models.RoleUser}

	_, err := suite.service.ConvertToInvoice(suite.ctx, stranger, quotation.ID)

	var authErr *common.AuthorizationError
	assert.ErrorAs(suite.T(), err, &authErr)
}

func (suite *QuotationServiceTestSuite) TestUpdate_ExpiredQuotationIsFrozen() {
	quotation := suite.openQuotation(models.QuotationStatusExpired)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)

	notes := "extend"
	_, err := suite.service.Update(suite.ctx, suite.f.user, quotation.ID, &UpdateQuotationRequest{Notes: &notes})

	var conflict *common.StateConflictError
	assert.ErrorAs(suite.T(), err, &conflict)
}

func (suite *QuotationServiceTestSuite) TestUpdate_ValidUntilInPast() {
	quotation := suite.openQuotation(models.QuotationStatusDraft)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	past := fixedNow.AddDate(0, 0, -2)

	_, err := suite.service.Update(suite.ctx, suite.f.user, quotation.ID, &UpdateQuotationRequest{ValidUntil: &past})

	var validationErr *common.ValidationError
	require.ErrorAs(suite.T(), err, &validationErr)
	assert.Equal(suite.T(), "valid_until", validationErr.Field)
	suite.quotations.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *QuotationServiceTestSuite) TestUpdate_RefreshesDashboard() {
	quotation := suite.openQuotation(models.QuotationStatusSent)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	suite.f.customers.On("GetByID", mock.Anything, suite.f.issuer.ID, suite.f.customer.ID).Return(suite.f.customer, nil)
	suite.quotations.On("Update", mock.Anything, mock.AnythingOfType("*models.Quotation")).Return(nil)
	later := fixedNow.AddDate(0, 1, 0)

	updated, err := suite.service.Update(suite.ctx, suite.f.user, quotation.ID, &UpdateQuotationRequest{ValidUntil: &later})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), later, updated.ValidUntil)
	suite.f.cache.AssertCalled(suite.T(), "InvalidateDashboard", mock.Anything, suite.f.issuer.ID)
}

func (suite *QuotationServiceTestSuite) TestUpdateStatus_DraftToSent() {
	quotation := suite.openQuotation(models.QuotationStatusDraft)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)
	suite.quotations.On("UpdateStatus", mock.Anything, suite.f.issuer.ID, quotation.ID, models.QuotationStatusSent).Return(nil)

	result, err := suite.service.UpdateStatus(suite.ctx, suite.f.admin, quotation.ID, models.QuotationStatusSent)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.QuotationStatusSent, result.Status)
}

func (suite *QuotationServiceTestSuite) TestDelete_AcceptedQuotationKept() {
	quotation := suite.openQuotation(models.QuotationStatusAccepted)
	suite.quotations.On("GetByID", mock.Anything, suite.f.issuer.ID, quotation.ID).Return(quotation, nil)

	err := suite.service.Delete(suite.ctx, suite.f.admin, quotation.ID)

	var conflict *common.StateConflictError
	assert.ErrorAs(suite.T(), err, &conflict)
}

func (suite *QuotationServiceTestSuite) TestExpireStale_UsesClock() {
	suite.quotations.On("ExpireStale", mock.Anything, fixedNow).Return(int64(2), nil)

	count, err := suite.service.ExpireStale(suite.ctx)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), count)
}

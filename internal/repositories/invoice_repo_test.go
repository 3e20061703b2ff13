package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

var invoiceColumnNames = []string{
	"id", "issuer_id", "number", "customer_id", "created_by", "department", "items",
	"subtotal", "total_cgst", "total_sgst", "total_igst", "round_off", "total", "status", "due_date", "notes",
	"payment_terms", "transport_mode", "vehicle_number", "place_of_supply", "is_reverse_charge",
	"eway_bill_number", "source_quotation_id", "created_at", "updated_at",
}

type InvoiceRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     InvoiceRepository
	issuerID uuid.UUID
	context  context.Context
}

func (suite *InvoiceRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInvoiceRepo(mock)
	suite.issuerID = uuid.New()
	suite.context = context.Background()
}

func (suite *InvoiceRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestInvoiceRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceRepoTestSuite))
}

func (suite *InvoiceRepoTestSuite) newInvoice() *models.Invoice {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	return &models.Invoice{
		Document: models.Document{
			ID:         uuid.New(),
			IssuerID:   suite.issuerID,
			CreatedBy:  uuid.New(),
			CustomerID: uuid.New(),
			Number:     "INV/27ABCDE1234F1Z5/2024/0001",
			Items: []models.LineItem{{
				Description: "Steel rod",
				HSNCode:     "7214",
				Quantity:    decimal.NewFromInt(2),
				Price:       decimal.NewFromInt(100),
				Amount:      decimal.NewFromInt(200),
				CGST:        models.TaxComponent{Rate: decimal.NewFromInt(9), Amount: decimal.NewFromInt(18)},
				SGST:        models.TaxComponent{Rate: decimal.NewFromInt(9), Amount: decimal.NewFromInt(18)},
			}},
			Totals: models.Totals{
				Subtotal:   decimal.NewFromInt(200),
				TotalCGST:  decimal.NewFromInt(18),
				TotalSGST:  decimal.NewFromInt(18),
				TotalIGST:  decimal.Zero,
				RoundOff:   decimal.Zero,
				GrandTotal: decimal.NewFromInt(236),
			},
			PlaceOfSupply: "Gujarat",
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Status:  models.InvoiceStatusDraft,
		DueDate: now.AddDate(0, 0, 30),
	}
}

func (suite *InvoiceRepoTestSuite) TestCreate_Success() {
	inv := suite.newInvoice()

	suite.mock.ExpectExec(`INSERT INTO invoices \(id, issuer_id, number`).
		WithArgs(inv.ID, inv.IssuerID, inv.Number, inv.CustomerID, inv.CreatedBy, inv.Department, pgxmock.AnyArg(),
			inv.Subtotal, inv.TotalCGST, inv.TotalSGST, inv.TotalIGST, inv.RoundOff, inv.GrandTotal,
			inv.Status, inv.DueDate, inv.Notes, inv.PaymentTerms, inv.TransportMode, inv.VehicleNumber,
			inv.PlaceOfSupply, inv.IsReverseCharge, inv.EWayBillNumber, inv.SourceQuotationID, inv.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, inv)
	assert.NoError(suite.T(), err)
}

func (suite *InvoiceRepoTestSuite) TestCreate_DuplicateNumberIsNumberingConflict() {
	inv := suite.newInvoice()

	suite.mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs(invoiceInsertArgs()...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "invoices_issuer_id_number_key"})

	err := suite.repo.Create(suite.context, inv)
	assert.True(suite.T(), errors.Is(err, common.ErrNumberingConflict))
}

func (suite *InvoiceRepoTestSuite) TestGetByID_Success() {
	inv := suite.newInvoice()
	items := []byte(`[{"description":"Steel rod","hsn_code":"7214","quantity":"2","price":"100","amount":"200",` +
		`"cgst":{"rate":"9","amount":"18"},"sgst":{"rate":"9","amount":"18"},"igst":{"rate":"0","amount":"0"}}]`)

	rows := pgxmock.NewRows(invoiceColumnNames).AddRow(
		inv.ID, inv.IssuerID, inv.Number, inv.CustomerID, inv.CreatedBy, nil, items,
		inv.Subtotal, inv.TotalCGST, inv.TotalSGST, inv.TotalIGST, inv.RoundOff, inv.GrandTotal,
		inv.Status, inv.DueDate, nil, nil, nil, nil, inv.PlaceOfSupply, false, nil, nil, inv.CreatedAt, inv.UpdatedAt,
	)
	suite.mock.ExpectQuery(`SELECT .+ FROM invoices WHERE issuer_id = \$1 AND id = \$2`).
		WithArgs(suite.issuerID, inv.ID).
		WillReturnRows(rows)

	got, err := suite.repo.GetByID(suite.context, suite.issuerID, inv.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), inv.Number, got.Number)
	assert.Equal(suite.T(), models.InvoiceStatusDraft, got.Status)
	require.Len(suite.T(), got.Items, 1)
	assert.Equal(suite.T(), "7214", got.Items[0].HSNCode)
	assert.True(suite.T(), got.Items[0].CGST.Amount.Equal(decimal.NewFromInt(18)))
	assert.True(suite.T(), got.GrandTotal.Equal(decimal.NewFromInt(236)))
}

func (suite *InvoiceRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(`SELECT .+ FROM invoices`).
		WithArgs(suite.issuerID, id).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, suite.issuerID, id)
	var notFound *common.NotFoundError
	assert.True(suite.T(), errors.As(err, &notFound))
}

func (suite *InvoiceRepoTestSuite) TestUpdateStatus_MissingInvoice() {
	id := uuid.New()
	suite.mock.ExpectExec(`UPDATE invoices\s+SET status = \$1`).
		WithArgs(models.InvoiceStatusSent, suite.issuerID, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.UpdateStatus(suite.context, suite.issuerID, id, models.InvoiceStatusSent)
	var notFound *common.NotFoundError
	assert.True(suite.T(), errors.As(err, &notFound))
}

func (suite *InvoiceRepoTestSuite) TestList_AppliesFiltersAndPagination() {
	status := "sent"
	filters := &models.DocumentFilters{Status: &status, Limit: 10, Offset: 20}

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices WHERE issuer_id = \$1 AND status = \$2`).
		WithArgs(suite.issuerID, status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(21))
	suite.mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(suite.issuerID, status, 10, 20).
		WillReturnRows(pgxmock.NewRows(invoiceColumnNames))

	invoices, total, err := suite.repo.List(suite.context, suite.issuerID, filters)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 21, total)
	assert.Empty(suite.T(), invoices)
}

func (suite *InvoiceRepoTestSuite) TestMarkOverdue() {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	suite.mock.ExpectExec(`SET status = 'overdue'.+WHERE status = 'sent' AND due_date < \$1`).
		WithArgs(asOf).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := suite.repo.MarkOverdue(suite.context, asOf)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), n)
}

func (suite *InvoiceRepoTestSuite) updateArgs() []any {
	args := make([]any, 0, 20)
	for i := 0; i < 19; i++ {
		args = append(args, pgxmock.AnyArg())
	}
	return append(args, []string{"paid"})
}

func (suite *InvoiceRepoTestSuite) TestUpdate_Success() {
	inv := suite.newInvoice()
	suite.mock.ExpectExec(`UPDATE invoices\s+SET customer_id = \$1.+AND NOT \(status = ANY\(\$20\)\)`).
		WithArgs(suite.updateArgs()...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.Update(suite.context, inv))
}

func (suite *InvoiceRepoTestSuite) TestUpdate_PaidInvoiceIsStateConflict() {
	inv := suite.newInvoice()
	suite.mock.ExpectExec(`UPDATE invoices\s+SET customer_id`).
		WithArgs(suite.updateArgs()...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	suite.mock.ExpectQuery(`SELECT status FROM invoices WHERE issuer_id = \$1 AND id = \$2`).
		WithArgs(inv.IssuerID, inv.ID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("paid"))

	err := suite.repo.Update(suite.context, inv)
	var conflict *common.StateConflictError
	require.True(suite.T(), errors.As(err, &conflict))
	assert.Equal(suite.T(), "invoice", conflict.Resource)
	assert.Equal(suite.T(), "paid", conflict.Status)
	assert.Equal(suite.T(), "update", conflict.Action)
}

func (suite *InvoiceRepoTestSuite) TestUpdate_MissingInvoiceIsNotFound() {
	inv := suite.newInvoice()
	suite.mock.ExpectExec(`UPDATE invoices\s+SET customer_id`).
		WithArgs(suite.updateArgs()...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	suite.mock.ExpectQuery(`SELECT status FROM invoices`).
		WithArgs(inv.IssuerID, inv.ID).
		WillReturnError(pgx.ErrNoRows)

	err := suite.repo.Update(suite.context, inv)
	var notFound *common.NotFoundError
	assert.True(suite.T(), errors.As(err, &notFound))
}

func (suite *InvoiceRepoTestSuite) TestDelete_PaidInvoiceIsStateConflict() {
	id := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM invoices WHERE issuer_id = \$1 AND id = \$2 AND NOT \(status = ANY\(\$3\)\)`).
		WithArgs(suite.issuerID, id, []string{"paid"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectQuery(`SELECT status FROM invoices`).
		WithArgs(suite.issuerID, id).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("paid"))

	err := suite.repo.Delete(suite.context, suite.issuerID, id)
	var conflict *common.StateConflictError
	require.True(suite.T(), errors.As(err, &conflict))
	assert.Equal(suite.T(), "delete", conflict.Action)
}

func (suite *InvoiceRepoTestSuite) TestDelete_Success() {
	id := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM invoices`).
		WithArgs(suite.issuerID, id, []string{"paid"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(suite.T(), suite.repo.Delete(suite.context, suite.issuerID, id))
}

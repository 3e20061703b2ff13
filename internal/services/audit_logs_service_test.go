package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

type AuditLogsServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAuditLogsRepository
	service  AuditLogsService
	issuerID uuid.UUID
	admin    models.Actor
	ctx      context.Context
}

func (suite *AuditLogsServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockAuditLogsRepository{}
	suite.service = NewAuditLogsService(suite.mockRepo)
	suite.issuerID = uuid.New()
	suite.admin = models.Actor{UserID: uuid.New(), IssuerID: suite.issuerID, Role: models.RoleAdmin}
	suite.ctx = context.Background()
}

func TestAuditLogsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuditLogsServiceTestSuite))
}

func (suite *AuditLogsServiceTestSuite) TestLogActivity_Success() {
	userID := suite.admin.UserID
	suite.mockRepo.On("Create", suite.ctx, mock.MatchedBy(func(l *models.AuditLog) bool {
		return l.IssuerID == suite.issuerID && l.TableName == "customers" &&
			l.Action == models.ActionUpdate && l.NewValues["name"] == "Globex" && *l.ChangedBy == userID
	})).Return(nil)

	err := suite.service.LogActivity(suite.ctx, suite.issuerID, "customers", uuid.NewString(),
		models.ActionUpdate, &userID, nil, models.JSONB{"name": "Globex"})

	assert.NoError(suite.T(), err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditLogsServiceTestSuite) TestLogActivity_RequiresTable() {
	err := suite.service.LogActivity(suite.ctx, suite.issuerID, "", "id", models.ActionInsert, nil, nil, nil)

	assert.Error(suite.T(), err)
	suite.mockRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *AuditLogsServiceTestSuite) TestLogEntityCreate_OmitsHiddenFields() {
	user := &models.User{ID: uuid.New(), Name: "Asha", Email: "asha@acme.test", PasswordHash: "secret-hash"}
	suite.mockRepo.On("Create", suite.ctx, mock.MatchedBy(func(l *models.AuditLog) bool {
		_, leaked := l.NewValues["password_hash"]
		return l.Action == models.ActionInsert && l.NewValues["email"] == "asha@acme.test" && !leaked
	})).Return(nil)

	suite.service.LogEntityCreate(suite.ctx, suite.admin, "users", user.ID, user)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditLogsServiceTestSuite) TestLogStatusChange_RepositoryFailureIsSwallowed() {
	suite.mockRepo.On("Create", suite.ctx, mock.MatchedBy(func(l *models.AuditLog) bool {
		return l.Action == models.ActionStatus && l.OldValues["status"] == "draft" && l.NewValues["status"] == "sent"
	})).Return(errors.New("db down"))

	assert.NotPanics(suite.T(), func() {
		suite.service.LogStatusChange(suite.ctx, suite.admin, "invoices", uuid.New(), models.InvoiceStatusDraft, models.InvoiceStatusSent)
	})
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditLogsServiceTestSuite) TestLogConversion_RecordsInvoiceLink() {
	quotationID, invoiceID := uuid.New(), uuid.New()
	suite.mockRepo.On("Create", suite.ctx, mock.MatchedBy(func(l *models.AuditLog) bool {
		return l.TableName == "quotations" && l.RecordID == quotationID.String() &&
			l.Action == models.ActionConvert && l.NewValues["converted_invoice_id"] == invoiceID.String()
	})).Return(nil)

	suite.service.LogConversion(suite.ctx, suite.admin, quotationID, invoiceID, "INV/27AAPFU0939F1ZV/2024/0001")

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditLogsServiceTestSuite) TestListAuditLogs_AdminOnly() {
	manager := models.Actor{UserID: uuid.New(), IssuerID: suite.issuerID, Role: models.RoleManager}

	_, err := suite.service.ListAuditLogs(suite.ctx, manager, nil)

	var authErr *common.AuthorizationError
	assert.ErrorAs(suite.T(), err, &authErr)
}

func (suite *AuditLogsServiceTestSuite) TestListAuditLogs_DefaultLimit() {
	logs := []*models.AuditLog{{ID: uuid.New(), IssuerID: suite.issuerID, TableName: "invoices"}}
	suite.mockRepo.On("List", suite.ctx, suite.issuerID, mock.MatchedBy(func(f *models.AuditLogFilters) bool {
		return f.Limit == 50
	})).Return(logs, nil)

	result, err := suite.service.ListAuditLogs(suite.ctx, suite.admin, &models.AuditLogFilters{})

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 1)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditLogsServiceTestSuite) TestGetEntityHistory_Success() {
	recordID := uuid.NewString()
	suite.mockRepo.On("GetByTableAndRecord", suite.ctx, suite.issuerID, "invoices", recordID, 20, 0).
		Return([]*models.AuditLog{}, nil)

	result, err := suite.service.GetEntityHistory(suite.ctx, suite.admin, "invoices", recordID, 20, 0)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), result)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditLogsServiceTestSuite) TestValidateAuditFilters() {
	start := time.Now()
	before := start.Add(-time.Hour)
	tooLate := start.Add(400 * 24 * time.Hour)

	assert.NoError(suite.T(), suite.service.ValidateAuditFilters(nil))
	assert.Error(suite.T(), suite.service.ValidateAuditFilters(&models.AuditLogFilters{StartDate: &start, EndDate: &before}))
	assert.Error(suite.T(), suite.service.ValidateAuditFilters(&models.AuditLogFilters{StartDate: &start, EndDate: &tooLate}))
	assert.Error(suite.T(), suite.service.ValidateAuditFilters(&models.AuditLogFilters{Limit: 5000}))
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"gstbill/internal/models"
)

// Mock repositories

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, issuerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) List(ctx context.Context, issuerID uuid.UUID, search string, limit, offset int) ([]*models.Customer, int, error) {
	args := m.Called(ctx, issuerID, search, limit, offset)
	return args.Get(0).([]*models.Customer), args.Int(1), args.Error(2)
}

type MockIssuerRepository struct {
	mock.Mock
}

func (m *MockIssuerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Issuer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Issuer), args.Error(1)
}

func (m *MockIssuerRepository) Update(ctx context.Context, issuer *models.Issuer) error {
	args := m.Called(ctx, issuer)
	return args.Error(0)
}

func (m *MockIssuerRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockIssuerRepository) CreateWithAdmin(ctx context.Context, issuer *models.Issuer, admin *models.User) error {
	args := m.Called(ctx, issuer, admin)
	return args.Error(0)
}

type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) Next(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year int) (int, error) {
	args := m.Called(ctx, issuerID, docType, year)
	return args.Int(0), args.Error(1)
}

func (m *MockSequenceRepository) Seed(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year, last int) error {
	args := m.Called(ctx, issuerID, docType, year, last)
	return args.Error(0)
}

func (m *MockSequenceRepository) FindLatestByIssuerAndType(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year int) (string, error) {
	args := m.Called(ctx, issuerID, docType, year)
	return args.String(0), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, issuerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, issuerID, id uuid.UUID, status models.DocumentStatus) error {
	args := m.Called(ctx, issuerID, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	args := m.Called(ctx, issuerID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Invoice, int, error) {
	args := m.Called(ctx, issuerID, filters)
	return args.Get(0).([]*models.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepository) GetStats(ctx context.Context, issuerID uuid.UUID, createdBy *uuid.UUID, startDate, endDate time.Time) (*models.InvoiceStats, error) {
	args := m.Called(ctx, issuerID, createdBy, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceStats), args.Error(1)
}

func (m *MockInvoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockQuotationRepository struct {
	mock.Mock
}

func (m *MockQuotationRepository) Create(ctx context.Context, quotation *models.Quotation) error {
	args := m.Called(ctx, quotation)
	return args.Error(0)
}

func (m *MockQuotationRepository) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Quotation, error) {
	args := m.Called(ctx, issuerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) Update(ctx context.Context, quotation *models.Quotation) error {
	args := m.Called(ctx, quotation)
	return args.Error(0)
}

func (m *MockQuotationRepository) UpdateStatus(ctx context.Context, issuerID, id uuid.UUID, status models.DocumentStatus) error {
	args := m.Called(ctx, issuerID, id, status)
	return args.Error(0)
}

func (m *MockQuotationRepository) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	args := m.Called(ctx, issuerID, id)
	return args.Error(0)
}

func (m *MockQuotationRepository) List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Quotation, int, error) {
	args := m.Called(ctx, issuerID, filters)
	return args.Get(0).([]*models.Quotation), args.Int(1), args.Error(2)
}

func (m *MockQuotationRepository) ExpireStale(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuotationRepository) ConvertToInvoice(ctx context.Context, issuerID, quotationID uuid.UUID, invoice *models.Invoice) error {
	args := m.Called(ctx, issuerID, quotationID, invoice)
	return args.Error(0)
}

type MockChallanRepository struct {
	mock.Mock
}

func (m *MockChallanRepository) Create(ctx context.Context, challan *models.Challan) error {
	args := m.Called(ctx, challan)
	return args.Error(0)
}

func (m *MockChallanRepository) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Challan, error) {
	args := m.Called(ctx, issuerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challan), args.Error(1)
}

func (m *MockChallanRepository) Update(ctx context.Context, challan *models.Challan) error {
	args := m.Called(ctx, challan)
	return args.Error(0)
}

func (m *MockChallanRepository) UpdateDelivery(ctx context.Context, challan *models.Challan) error {
	args := m.Called(ctx, challan)
	return args.Error(0)
}

func (m *MockChallanRepository) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	args := m.Called(ctx, issuerID, id)
	return args.Error(0)
}

func (m *MockChallanRepository) List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Challan, int, error) {
	args := m.Called(ctx, issuerID, filters)
	return args.Get(0).([]*models.Challan), args.Int(1), args.Error(2)
}

func (m *MockChallanRepository) GetStats(ctx context.Context, issuerID uuid.UUID, createdBy *uuid.UUID, startDate, endDate time.Time) (*models.DeliveryStats, error) {
	args := m.Called(ctx, issuerID, createdBy, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeliveryStats), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreateAndSettle(ctx context.Context, payment *models.Payment, grandTotal decimal.Decimal) (bool, error) {
	args := m.Called(ctx, payment, grandTotal)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, issuerID uuid.UUID, customerID *uuid.UUID, limit, offset int) ([]*models.Payment, int, error) {
	args := m.Called(ctx, issuerID, customerID, limit, offset)
	return args.Get(0).([]*models.Payment), args.Int(1), args.Error(2)
}

func (m *MockPaymentRepository) TotalPaid(ctx context.Context, issuerID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, issuerID, invoiceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, issuerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, issuerID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, issuerID, limit, offset)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, issuerID, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, issuerID, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, issuerID, id uuid.UUID, role models.Role) error {
	args := m.Called(ctx, issuerID, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	args := m.Called(ctx, issuerID, id)
	return args.Error(0)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, issuerID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, issuerID, filters)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) GetByTableAndRecord(ctx context.Context, issuerID uuid.UUID, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, issuerID, tableName, recordID, limit, offset)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) RevenueSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) (*models.RevenueSummary, error) {
	args := m.Called(ctx, issuerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RevenueSummary), args.Error(1)
}

func (m *MockReportRepository) DailyRevenue(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.DailyRevenue, error) {
	args := m.Called(ctx, issuerID, start, end)
	return args.Get(0).([]models.DailyRevenue), args.Error(1)
}

func (m *MockReportRepository) PaymentModes(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.PaymentModeStat, error) {
	args := m.Called(ctx, issuerID, start, end)
	return args.Get(0).([]models.PaymentModeStat), args.Error(1)
}

func (m *MockReportRepository) TopCustomers(ctx context.Context, issuerID uuid.UUID, start, end time.Time, limit int) ([]models.TopCustomer, error) {
	args := m.Called(ctx, issuerID, start, end, limit)
	return args.Get(0).([]models.TopCustomer), args.Error(1)
}

func (m *MockReportRepository) CustomerSummaries(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.CustomerSummary, error) {
	args := m.Called(ctx, issuerID, start, end)
	return args.Get(0).([]models.CustomerSummary), args.Error(1)
}

func (m *MockReportRepository) GSTSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.GSTReportRow, error) {
	args := m.Called(ctx, issuerID, start, end)
	return args.Get(0).([]models.GSTReportRow), args.Error(1)
}

func (m *MockReportRepository) InvoiceExportRows(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.InvoiceExportRow, error) {
	args := m.Called(ctx, issuerID, start, end)
	return args.Get(0).([]models.InvoiceExportRow), args.Error(1)
}

func (m *MockReportRepository) DashboardTotals(ctx context.Context, issuerID uuid.UUID, since time.Time) (*models.DashboardStats, error) {
	args := m.Called(ctx, issuerID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockReportRepository) RecentDocuments(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, since time.Time, limit int) ([]models.RecentDocument, error) {
	args := m.Called(ctx, issuerID, docType, since, limit)
	return args.Get(0).([]models.RecentDocument), args.Error(1)
}

// Mock services

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetDashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error) {
	args := m.Called(ctx, issuerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockCacheService) SetDashboard(ctx context.Context, issuerID uuid.UUID, stats *models.DashboardStats, ttl time.Duration) error {
	args := m.Called(ctx, issuerID, stats, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateDashboard(ctx context.Context, issuerID uuid.UUID) error {
	args := m.Called(ctx, issuerID)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateIssuerCache(ctx context.Context, issuerID uuid.UUID) error {
	args := m.Called(ctx, issuerID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) RenderInvoice(invoice *models.Invoice, customer *models.Customer, issuer *models.Issuer) ([]byte, error) {
	args := m.Called(invoice, customer, issuer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockDocumentStorage struct {
	mock.Mock
}

func (m *MockDocumentStorage) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	args := m.Called(ctx, objectName, data, contentType)
	return args.Error(0)
}

func (m *MockDocumentStorage) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStorage) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockDocumentStorage) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDocumentStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg *MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

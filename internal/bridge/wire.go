package bridge

import (
	"time"

	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	OpAuthLogin         = "auth.login"
	OpUsersCreate       = "users.create"
	OpClientsCreate     = "clients.create"
	OpClientsList       = "clients.list"
	OpClientsDelete     = "clients.delete"
	OpClientsAddFile    = "clients.addFile"
	OpClientsFiles      = "clients.files"
	OpProjectsCreate    = "projects.create"
	OpProjectsList      = "projects.list"
	OpProjectsAddItem   = "projects.addItem"
	OpProjectsAssign    = "projects.assign"
	OpInvoicesCreate    = "invoices.create"
	OpInvoicesSetStatus = "invoices.setStatus"
	OpExpensesCreate    = "expenses.create"
	OpAnalyticsSummary  = "analytics.summary"
	OpBackupNow         = "backup.now"
	OpBackupsList       = "backups.list"
	OpCatalogScan       = "catalog.scan"
	OpServicesImport    = "services.import"
	OpServicesList      = "services.list"
	OpSettingsGet       = "settings.get"
	OpSettingsSet       = "settings.set"
)

type Empty struct{}

// LoginRequest carries no validation tags: missing credentials are a failed
// login, not a bad request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserView struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	OK   bool      `json:"ok"`
	User *UserView `json:"user,omitempty"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,localemail"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff"`
}

type CreateClientRequest struct {
	Name          string  `json:"name" validate:"required"`
	ContactEmail  *string `json:"contact_email" validate:"omitempty,localemail"`
	Phone         *string `json:"phone"`
	Notes         *string `json:"notes"`
	PaymentStatus string  `json:"payment_status" validate:"omitempty,oneof=paid unpaid"`
}

type IDResponse struct {
	ID uint `json:"id"`
}

type ClientRef struct {
	ClientID uint `json:"clientId" validate:"required"`
}

type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

// AddFileRequest lists files already chosen by the caller. An empty list is
// a cancelled selection.
type AddFileRequest struct {
	ClientID uint     `json:"clientId" validate:"required"`
	Paths    []string `json:"paths" validate:"dive,required"`
}

type AddedResponse struct {
	Added int `json:"added"`
}

type CreateProjectRequest struct {
	ClientID  uint             `json:"clientId" validate:"required"`
	Name      string           `json:"name" validate:"required"`
	Status    string           `json:"status" validate:"omitempty,oneof=active in_progress completed"`
	Budget    *decimal.Decimal `json:"budget"`
	StartDate *time.Time       `json:"start_date"`
	EndDate   *time.Time       `json:"end_date"`
}

type ListProjectsRequest struct {
	ClientID *uint `json:"clientId"`
}

type AddProjectItemRequest struct {
	ProjectID   uint             `json:"projectId" validate:"required"`
	ServiceID   *uint            `json:"serviceId"`
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
}

type AssignRequest struct {
	ProjectID uint    `json:"projectId" validate:"required"`
	UserID    uint    `json:"userId" validate:"required"`
	Role      *string `json:"role"`
}

type CreateInvoiceRequest struct {
	ProjectID uint            `json:"projectId" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status" validate:"omitempty,oneof=draft sent paid void"`
}

type SetInvoiceStatusRequest struct {
	InvoiceID uint   `json:"invoiceId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=draft sent paid void"`
}

type CreateExpenseRequest struct {
	ProjectID   *uint           `json:"projectId"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *time.Time      `json:"date"`
}

// SummaryResponse reports money as plain JSON numbers.
type SummaryResponse struct {
	Revenue  float64              `json:"revenue"`
	Expenses float64              `json:"expenses"`
	Projects domain.ProjectCounts `json:"projects"`
}

type BackupResponse struct {
	Path string `json:"path"`
}

type BackupsResponse struct {
	Backups []string `json:"backups"`
}

type CatalogScanResponse struct {
	Drafts  []domain.ServiceDraft `json:"drafts"`
	Skips   []domain.CatalogSkip  `json:"skips"`
	Skipped int                   `json:"skipped"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type ListServicesRequest struct {
	ActiveOnly bool `json:"activeOnly"`
}

type SettingKey struct {
	Key string `json:"key" validate:"required"`
}

type SetSettingRequest struct {
	Key   string  `json:"key" validate:"required"`
	Value *string `json:"value"`
}

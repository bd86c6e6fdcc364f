package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"

	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"

	ProjectActive     = "active"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"

	InvoiceDraft = "draft"
	InvoiceSent  = "sent"
	InvoicePaid  = "paid"
	InvoiceVoid  = "void"
)

type User struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Client struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	ContactEmail  *string   `json:"contact_email"`
	Phone         *string   `json:"phone"`
	Notes         *string   `json:"notes"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

type ClientFile struct {
	ID         uint      `json:"id"`
	ClientID   uint      `json:"client_id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// StoredFile is a file already copied into the attachments tree.
type StoredFile struct {
	Filename string
	Path     string
}

type Service struct {
	ID           uint             `json:"id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Description  *string          `json:"description"`
	PriceDefault *decimal.Decimal `json:"price_default"`
	Active       bool             `json:"active"`
}

// ServiceDraft is a catalog entry read from disk and not yet persisted.
type ServiceDraft struct {
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	PriceDefault *decimal.Decimal `json:"price_default,omitempty"`
}

type CatalogSkip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type Project struct {
	ID        uint             `json:"id"`
	ClientID  uint             `json:"client_id"`
	Name      string           `json:"name"`
	Status    string           `json:"status"`
	Budget    *decimal.Decimal `json:"budget"`
	StartDate *time.Time       `json:"start_date"`
	EndDate   *time.Time       `json:"end_date"`
}

type ProjectItem struct {
	ID          uint            `json:"id"`
	ProjectID   uint            `json:"project_id"`
	ServiceID   *uint           `json:"service_id"`
	Description *string         `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type ProjectAssignment struct {
	ID         uint      `json:"id"`
	ProjectID  uint      `json:"project_id"`
	UserID     uint      `json:"user_id"`
	Role       *string   `json:"role"`
	AssignedAt time.Time `json:"assigned_at"`
}

type Invoice struct {
	ID        uint            `json:"id"`
	ProjectID uint            `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	IssuedAt  time.Time       `json:"issued_at"`
	PaidAt    *time.Time      `json:"paid_at"`
}

type Expense struct {
	ID          uint            `json:"id"`
	ProjectID   *uint           `json:"project_id"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

type Setting struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

type ProjectCounts struct {
	Active     int64 `json:"active"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
}

type AnalyticsSummary struct {
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	Projects ProjectCounts
}

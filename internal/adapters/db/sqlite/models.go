package sqlite

import (
	"time"

	"github.com/shopspring/decimal"
)

type MetaModel struct {
	Key   string `gorm:"primaryKey"`
	Value *string
}

func (MetaModel) TableName() string { return "meta" }

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	Name         string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type ClientModel struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	ContactEmail  *string
	Phone         *string
	Notes         *string
	PaymentStatus string `gorm:"not null"`
	CreatedAt     time.Time
}

func (ClientModel) TableName() string { return "clients" }

type ClientFileModel struct {
	ID         uint   `gorm:"primaryKey"`
	ClientID   uint   `gorm:"not null;index"`
	Filename   string `gorm:"not null"`
	Path       string `gorm:"not null"`
	UploadedAt time.Time
}

func (ClientFileModel) TableName() string { return "client_files" }

type ServiceModel struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"uniqueIndex"`
	Name         string `gorm:"not null"`
	Description  *string
	PriceDefault decimal.NullDecimal
	Active       bool `gorm:"not null"`
}

func (ServiceModel) TableName() string { return "services" }

type ProjectModel struct {
	ID        uint   `gorm:"primaryKey"`
	ClientID  uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	Status    string `gorm:"not null"`
	Budget    decimal.NullDecimal
	StartDate *time.Time
	EndDate   *time.Time
}

func (ProjectModel) TableName() string { return "projects" }

type ProjectItemModel struct {
	ID          uint `gorm:"primaryKey"`
	ProjectID   uint `gorm:"not null"`
	ServiceID   *uint
	Description *string
	Quantity    decimal.Decimal `gorm:"not null"`
	Price       decimal.Decimal `gorm:"not null"`
}

func (ProjectItemModel) TableName() string { return "project_items" }

type ProjectAssignmentModel struct {
	ID         uint `gorm:"primaryKey"`
	ProjectID  uint `gorm:"not null"`
	UserID     uint `gorm:"not null"`
	Role       *string
	AssignedAt time.Time
}

func (ProjectAssignmentModel) TableName() string { return "project_assignments" }

type InvoiceModel struct {
	ID        uint            `gorm:"primaryKey"`
	ProjectID uint            `gorm:"not null;index"`
	Amount    decimal.Decimal `gorm:"not null"`
	Status    string          `gorm:"not null"`
	IssuedAt  time.Time
	PaidAt    *time.Time
}

func (InvoiceModel) TableName() string { return "invoices" }

type ExpenseModel struct {
	ID          uint `gorm:"primaryKey"`
	ProjectID   *uint
	Description *string
	Amount      decimal.Decimal `gorm:"not null"`
	Date        time.Time
}

func (ExpenseModel) TableName() string { return "expenses" }

type SettingModel struct {
	Key   string `gorm:"primaryKey"`
	Value *string
}

func (SettingModel) TableName() string { return "settings" }

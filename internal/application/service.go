package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"github.com/atvirokodosprendimai/studio/internal/platform/logger"
	"github.com/atvirokodosprendimai/studio/internal/security"
	"github.com/shopspring/decimal"
)

type StudioService struct {
	repo        domain.StudioRepository
	snapshots   domain.Snapshotter
	attachments domain.AttachmentStore
	catalog     domain.CatalogSource
	log         *logger.Logger
}

type Dependencies struct {
	Repo        domain.StudioRepository
	Snapshots   domain.Snapshotter
	Attachments domain.AttachmentStore
	Catalog     domain.CatalogSource
	Logger      *logger.Logger
}

type CreateClientInput struct {
	Name          string
	ContactEmail  *string
	Phone         *string
	Notes         *string
	PaymentStatus string
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

type CreateProjectInput struct {
	ClientID  uint
	Name      string
	Status    string
	Budget    *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
}

type AddProjectItemInput struct {
	ProjectID   uint
	ServiceID   *uint
	Description *string
	Quantity    *decimal.Decimal
	Price       *decimal.Decimal
}

type AssignUserInput struct {
	ProjectID uint
	UserID    uint
	Role      *string
}

type CreateInvoiceInput struct {
	ProjectID uint
	Amount    decimal.Decimal
	Status    string
}

type CreateExpenseInput struct {
	ProjectID   *uint
	Description *string
	Amount      decimal.Decimal
	Date        *time.Time
}

type CatalogReport struct {
	Drafts []domain.ServiceDraft
	Skips  []domain.CatalogSkip
}

type ImportResult struct {
	Imported int
	Skipped  int
}

func NewStudioService(deps Dependencies) *StudioService {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &StudioService{
		repo:        deps.Repo,
		snapshots:   deps.Snapshots,
		attachments: deps.Attachments,
		catalog:     deps.Catalog,
		log:         log,
	}
}

// Login reports ok=false for an unknown email and for a wrong password alike.
// The unknown-email path still pays for one bcrypt comparison.
func (s *StudioService) Login(ctx context.Context, email, password string) (domain.User, bool, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if apperr.IsCode(err, apperr.CodeNotFound) {
		security.BurnCompare(password)
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	ok, err := security.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return domain.User{}, false, err
	}
	if !ok {
		return domain.User{}, false, nil
	}
	return u, true, nil
}

func (s *StudioService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return domain.User{}, apperr.New(apperr.CodeValidation, "email and password are required")
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.repo.CreateUser(ctx, domain.User{
		Email:        email,
		Name:         defaultString(in.Name, email),
		PasswordHash: hash,
		Role:         defaultString(in.Role, domain.RoleStaff),
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, s.commit(ctx)
}

func (s *StudioService) CreateClient(ctx context.Context, in CreateClientInput) (domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Client{}, apperr.New(apperr.CodeValidation, "client name is required")
	}
	c, err := s.repo.CreateClient(ctx, domain.Client{
		Name:          name,
		ContactEmail:  in.ContactEmail,
		Phone:         in.Phone,
		Notes:         in.Notes,
		PaymentStatus: defaultString(in.PaymentStatus, domain.PaymentUnpaid),
	})
	if err != nil {
		return domain.Client{}, err
	}
	return c, s.commit(ctx)
}

func (s *StudioService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.repo.ListClients(ctx)
}

func (s *StudioService) DeleteClient(ctx context.Context, id uint) error {
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	return s.commit(ctx)
}

func (s *StudioService) ListClientFiles(ctx context.Context, clientID uint) ([]domain.ClientFile, error) {
	if _, err := s.repo.GetClientByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListClientFiles(ctx, clientID)
}

// AttachFiles copies each selected path into the attachments tree and records
// one row per file. An empty selection is a cancelled dialog: nothing happens.
func (s *StudioService) AttachFiles(ctx context.Context, clientID uint, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	if _, err := s.repo.GetClientByID(ctx, clientID); err != nil {
		return 0, err
	}

	for _, p := range paths {
		if err := s.attachments.Check(p); err != nil {
			return 0, err
		}
	}

	stored := make([]domain.StoredFile, 0, len(paths))
	for _, p := range paths {
		f, err := s.attachments.Put(ctx, clientID, p)
		if err != nil {
			s.discard(ctx, stored)
			return 0, err
		}
		stored = append(stored, f)
	}
	rows, err := s.repo.AddClientFiles(ctx, clientID, stored)
	if err != nil {
		s.discard(ctx, stored)
		return 0, err
	}
	return len(rows), s.commit(ctx)
}

// discard removes copies made by a failed attach so no file is left without a row.
func (s *StudioService) discard(ctx context.Context, stored []domain.StoredFile) {
	for _, f := range stored {
		if err := s.attachments.Remove(f); err != nil {
			s.log.Error(s.log.WithField(ctx, "path", f.Path), "discard attachment", err)
		}
	}
}

func (s *StudioService) AnalyticsSummary(ctx context.Context) (domain.AnalyticsSummary, error) {
	return s.repo.AnalyticsSummary(ctx)
}

func (s *StudioService) Backup(ctx context.Context) (string, error) {
	if err := s.snapshots.Save(ctx); err != nil {
		return "", err
	}
	path, err := s.snapshots.Backup(ctx)
	if err != nil {
		return "", err
	}
	s.log.Info(s.log.WithField(ctx, "path", path), "backup written")
	return path, nil
}

// ListBackups returns the snapshot files written so far, newest first.
func (s *StudioService) ListBackups(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.snapshots.ListBackups()
}

func (s *StudioService) CreateProject(ctx context.Context, in CreateProjectInput) (domain.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.ClientID == 0 {
		return domain.Project{}, apperr.New(apperr.CodeValidation, "client id and project name are required")
	}
	if _, err := s.repo.GetClientByID(ctx, in.ClientID); err != nil {
		return domain.Project{}, err
	}
	start := in.StartDate
	if start == nil {
		now := time.Now().UTC()
		start = &now
	}
	p, err := s.repo.CreateProject(ctx, domain.Project{
		ClientID:  in.ClientID,
		Name:      name,
		Status:    defaultString(in.Status, domain.ProjectInProgress),
		Budget:    in.Budget,
		StartDate: start,
		EndDate:   in.EndDate,
	})
	if err != nil {
		return domain.Project{}, err
	}
	return p, s.commit(ctx)
}

func (s *StudioService) ListProjects(ctx context.Context, clientID *uint) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx, clientID)
}

func (s *StudioService) AddProjectItem(ctx context.Context, in AddProjectItemInput) (domain.ProjectItem, error) {
	if in.ServiceID == nil && (in.Description == nil || strings.TrimSpace(*in.Description) == "") {
		return domain.ProjectItem{}, apperr.New(apperr.CodeValidation, "a service or a description is required")
	}
	quantity := decimal.NewFromInt(1)
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	price := decimal.Zero
	if in.Price != nil {
		price = *in.Price
	}
	if quantity.IsNegative() || price.IsNegative() {
		return domain.ProjectItem{}, apperr.New(apperr.CodeValidation, "quantity and price must not be negative")
	}
	item, err := s.repo.CreateProjectItem(ctx, domain.ProjectItem{
		ProjectID:   in.ProjectID,
		ServiceID:   in.ServiceID,
		Description: in.Description,
		Quantity:    quantity,
		Price:       price,
	})
	if err != nil {
		return domain.ProjectItem{}, err
	}
	return item, s.commit(ctx)
}

func (s *StudioService) AssignUser(ctx context.Context, in AssignUserInput) (domain.ProjectAssignment, error) {
	a, err := s.repo.CreateAssignment(ctx, domain.ProjectAssignment{ProjectID: in.ProjectID, UserID: in.UserID, Role: in.Role})
	if err != nil {
		return domain.ProjectAssignment{}, err
	}
	return a, s.commit(ctx)
}

func (s *StudioService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (domain.Invoice, error) {
	if !in.Amount.IsPositive() {
		return domain.Invoice{}, apperr.New(apperr.CodeValidation, "invoice amount must be positive")
	}
	inv := domain.Invoice{
		ProjectID: in.ProjectID,
		Amount:    in.Amount,
		Status:    defaultString(in.Status, domain.InvoiceDraft),
		IssuedAt:  time.Now().UTC(),
	}
	if inv.Status == domain.InvoicePaid {
		paidAt := inv.IssuedAt
		inv.PaidAt = &paidAt
	}
	created, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return domain.Invoice{}, err
	}
	return created, s.commit(ctx)
}

func (s *StudioService) SetInvoiceStatus(ctx context.Context, id uint, status string) (domain.Invoice, error) {
	inv, err := s.repo.UpdateInvoiceStatus(ctx, id, status)
	if err != nil {
		return domain.Invoice{}, err
	}
	return inv, s.commit(ctx)
}

func (s *StudioService) CreateExpense(ctx context.Context, in CreateExpenseInput) (domain.Expense, error) {
	if !in.Amount.IsPositive() {
		return domain.Expense{}, apperr.New(apperr.CodeValidation, "expense amount must be positive")
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if in.Date != nil {
		date = *in.Date
	}
	e, err := s.repo.CreateExpense(ctx, domain.Expense{
		ProjectID:   in.ProjectID,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        date,
	})
	if err != nil {
		return domain.Expense{}, err
	}
	return e, s.commit(ctx)
}

// ScanCatalog reads the catalog folder without touching the store.
func (s *StudioService) ScanCatalog(ctx context.Context) (CatalogReport, error) {
	drafts, skips, err := s.catalog.Drafts(ctx)
	if err != nil {
		return CatalogReport{}, err
	}
	return CatalogReport{Drafts: drafts, Skips: skips}, nil
}

func (s *StudioService) ImportCatalog(ctx context.Context) (ImportResult, error) {
	report, err := s.ScanCatalog(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	for _, skip := range report.Skips {
		entryCtx := s.log.WithField(ctx, "path", skip.Path)
		s.log.Warn(s.log.WithField(entryCtx, "reason", skip.Reason), "catalog entry skipped")
	}
	if len(report.Drafts) == 0 {
		return ImportResult{Skipped: len(report.Skips)}, nil
	}
	n, err := s.repo.UpsertServices(ctx, report.Drafts)
	if err != nil {
		return ImportResult{}, err
	}
	if err := s.commit(ctx); err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Imported: n, Skipped: len(report.Skips)}, nil
}

func (s *StudioService) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	return s.repo.ListServices(ctx, activeOnly)
}

func (s *StudioService) GetSetting(ctx context.Context, key string) (domain.Setting, error) {
	return s.repo.GetSetting(ctx, key)
}

func (s *StudioService) SetSetting(ctx context.Context, key string, value *string) (domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Setting{}, apperr.New(apperr.CodeValidation, "setting key is required")
	}
	setting := domain.Setting{Key: key, Value: value}
	if err := s.repo.PutSetting(ctx, setting); err != nil {
		return domain.Setting{}, err
	}
	return setting, s.commit(ctx)
}

// commit makes the last write durable before the caller sees success.
func (s *StudioService) commit(ctx context.Context) error {
	if err := s.snapshots.Save(ctx); err != nil {
		s.log.Error(ctx, "save failed", err)
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return strings.TrimSpace(input)
}

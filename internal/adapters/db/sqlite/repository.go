package sqlite

import (
	"context"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudioRepository struct {
	db *gorm.DB
}

func NewStudioRepository(db *gorm.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

func (r *StudioRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *StudioRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{Email: value.Email, Name: value.Name, PasswordHash: value.PasswordHash, Role: value.Role}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, translate(err, "user")
	}
	return toUser(m), nil
}

func (r *StudioRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return domain.User{}, translate(err, "user")
	}
	return toUser(m), nil
}

func (r *StudioRepository) CreateClient(ctx context.Context, value domain.Client) (domain.Client, error) {
	m := ClientModel{
		Name:          value.Name,
		ContactEmail:  value.ContactEmail,
		Phone:         value.Phone,
		Notes:         value.Notes,
		PaymentStatus: value.PaymentStatus,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Client{}, translate(err, "client")
	}
	return toClient(m), nil
}

func (r *StudioRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows := make([]ClientModel, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Client, 0, len(rows))
	for _, m := range rows {
		result = append(result, toClient(m))
	}
	return result, nil
}

func (r *StudioRepository) GetClientByID(ctx context.Context, id uint) (domain.Client, error) {
	var m ClientModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Client{}, translate(err, "client")
	}
	return toClient(m), nil
}

func (r *StudioRepository) DeleteClient(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ClientModel{}, id)
	if res.Error != nil {
		return translate(res.Error, "client")
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "client %d not found", id)
	}
	return nil
}

func (r *StudioRepository) AddClientFiles(ctx context.Context, clientID uint, files []domain.StoredFile) ([]domain.ClientFile, error) {
	result := make([]domain.ClientFile, 0, len(files))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner ClientModel
		if err := tx.Select("id").First(&owner, clientID).Error; err != nil {
			return translate(err, "client")
		}
		for _, f := range files {
			m := ClientFileModel{ClientID: clientID, Filename: f.Filename, Path: f.Path, UploadedAt: time.Now().UTC()}
			if err := tx.Create(&m).Error; err != nil {
				return translate(err, "client file")
			}
			result = append(result, toClientFile(m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *StudioRepository) ListClientFiles(ctx context.Context, clientID uint) ([]domain.ClientFile, error) {
	rows := make([]ClientFileModel, 0)
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("uploaded_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ClientFile, 0, len(rows))
	for _, m := range rows {
		result = append(result, toClientFile(m))
	}
	return result, nil
}

func (r *StudioRepository) CreateProject(ctx context.Context, value domain.Project) (domain.Project, error) {
	m := ProjectModel{
		ClientID:  value.ClientID,
		Name:      value.Name,
		Status:    value.Status,
		Budget:    nullDecimal(value.Budget),
		StartDate: value.StartDate,
		EndDate:   value.EndDate,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Project{}, translate(err, "project")
	}
	return toProject(m), nil
}

func (r *StudioRepository) ListProjects(ctx context.Context, clientID *uint) ([]domain.Project, error) {
	q := r.db.WithContext(ctx).Model(&ProjectModel{})
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}
	rows := make([]ProjectModel, 0)
	if err := q.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Project, 0, len(rows))
	for _, m := range rows {
		result = append(result, toProject(m))
	}
	return result, nil
}

func (r *StudioRepository) CreateProjectItem(ctx context.Context, value domain.ProjectItem) (domain.ProjectItem, error) {
	m := ProjectItemModel{
		ProjectID:   value.ProjectID,
		ServiceID:   value.ServiceID,
		Description: value.Description,
		Quantity:    value.Quantity,
		Price:       value.Price,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.ProjectItem{}, translate(err, "project item")
	}
	return domain.ProjectItem{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		ServiceID:   m.ServiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		Price:       m.Price,
	}, nil
}

func (r *StudioRepository) CreateAssignment(ctx context.Context, value domain.ProjectAssignment) (domain.ProjectAssignment, error) {
	m := ProjectAssignmentModel{ProjectID: value.ProjectID, UserID: value.UserID, Role: value.Role, AssignedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.ProjectAssignment{}, translate(err, "project assignment")
	}
	return domain.ProjectAssignment{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		UserID:     m.UserID,
		Role:       m.Role,
		AssignedAt: m.AssignedAt,
	}, nil
}

func (r *StudioRepository) CreateInvoice(ctx context.Context, value domain.Invoice) (domain.Invoice, error) {
	m := InvoiceModel{
		ProjectID: value.ProjectID,
		Amount:    value.Amount,
		Status:    value.Status,
		IssuedAt:  value.IssuedAt,
		PaidAt:    value.PaidAt,
	}
	if m.IssuedAt.IsZero() {
		m.IssuedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Invoice{}, translate(err, "invoice")
	}
	return toInvoice(m), nil
}

// UpdateInvoiceStatus stamps paid_at on the transition to paid and clears it
// for every other status.
func (r *StudioRepository) UpdateInvoiceStatus(ctx context.Context, id uint, status string) (domain.Invoice, error) {
	var m InvoiceModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return translate(err, "invoice")
		}
		var paidAt *time.Time
		if status == domain.InvoicePaid {
			paidAt = m.PaidAt
			if paidAt == nil {
				now := time.Now().UTC()
				paidAt = &now
			}
		}
		if err := tx.Model(&m).Updates(map[string]any{"status": status, "paid_at": paidAt}).Error; err != nil {
			return translate(err, "invoice")
		}
		m.Status = status
		m.PaidAt = paidAt
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return toInvoice(m), nil
}

func (r *StudioRepository) CreateExpense(ctx context.Context, value domain.Expense) (domain.Expense, error) {
	m := ExpenseModel{ProjectID: value.ProjectID, Description: value.Description, Amount: value.Amount, Date: value.Date}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Expense{}, translate(err, "expense")
	}
	return domain.Expense{ID: m.ID, ProjectID: m.ProjectID, Description: m.Description, Amount: m.Amount, Date: m.Date}, nil
}

// UpsertServices writes drafts keyed by code; existing rows keep their id and
// active flag.
func (r *StudioRepository) UpsertServices(ctx context.Context, drafts []domain.ServiceDraft) (int, error) {
	written := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range drafts {
			m := ServiceModel{
				Code:         d.Code,
				Name:         d.Name,
				Description:  d.Description,
				PriceDefault: nullDecimal(d.PriceDefault),
				Active:       true,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price_default"}),
			}).Create(&m).Error
			if err != nil {
				return translate(err, "service")
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *StudioRepository) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	q := r.db.WithContext(ctx).Model(&ServiceModel{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	rows := make([]ServiceModel, 0)
	if err := q.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Service, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.Service{
			ID:           m.ID,
			Code:         m.Code,
			Name:         m.Name,
			Description:  m.Description,
			PriceDefault: decimalPtr(m.PriceDefault),
			Active:       m.Active,
		})
	}
	return result, nil
}

func (r *StudioRepository) GetSetting(ctx context.Context, key string) (domain.Setting, error) {
	var m SettingModel
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		return domain.Setting{}, translate(err, "setting")
	}
	return domain.Setting{Key: m.Key, Value: m.Value}, nil
}

func (r *StudioRepository) PutSetting(ctx context.Context, value domain.Setting) error {
	m := SettingModel{Key: value.Key, Value: value.Value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&m).Error
	return translate(err, "setting")
}

func (r *StudioRepository) AnalyticsSummary(ctx context.Context) (domain.AnalyticsSummary, error) {
	var row struct {
		Revenue    decimal.Decimal
		Expenses   decimal.Decimal
		Active     int64
		InProgress int64
		Completed  int64
	}
	if err := r.db.WithContext(ctx).Raw(`
SELECT (SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE status = 'paid') AS revenue,
       (SELECT COALESCE(SUM(amount), 0) FROM expenses) AS expenses,
       COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active,
       COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress,
       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed
FROM projects
`).Scan(&row).Error; err != nil {
		return domain.AnalyticsSummary{}, err
	}
	return domain.AnalyticsSummary{
		Revenue:  row.Revenue.Round(2),
		Expenses: row.Expenses.Round(2),
		Projects: domain.ProjectCounts{
			Active:     row.Active,
			InProgress: row.InProgress,
			Completed:  row.Completed,
		},
	}, nil
}

func toUser(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
	}
}

func toClient(m ClientModel) domain.Client {
	return domain.Client{
		ID:            m.ID,
		Name:          m.Name,
		ContactEmail:  m.ContactEmail,
		Phone:         m.Phone,
		Notes:         m.Notes,
		PaymentStatus: m.PaymentStatus,
		CreatedAt:     m.CreatedAt,
	}
}

func toClientFile(m ClientFileModel) domain.ClientFile {
	return domain.ClientFile{ID: m.ID, ClientID: m.ClientID, Filename: m.Filename, Path: m.Path, UploadedAt: m.UploadedAt}
}

func toProject(m ProjectModel) domain.Project {
	return domain.Project{
		ID:        m.ID,
		ClientID:  m.ClientID,
		Name:      m.Name,
		Status:    m.Status,
		Budget:    decimalPtr(m.Budget),
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
	}
}

func toInvoice(m InvoiceModel) domain.Invoice {
	return domain.Invoice{ID: m.ID, ProjectID: m.ProjectID, Amount: m.Amount, Status: m.Status, IssuedAt: m.IssuedAt, PaidAt: m.PaidAt}
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func decimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

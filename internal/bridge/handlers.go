package bridge

import (
	"context"
	"reflect"
	"strings"

	"github.com/atvirokodosprendimai/studio/internal/application"
	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/go-playground/validator/v10"
)

// NewTable builds the dispatch table over svc. The set of operations is fixed
// at construction.
func NewTable(svc *application.StudioService, opts ...Option) *Table {
	v := newValidator()

	return newTable(map[string]Handler{
		OpAuthLogin: handle(v, func(ctx context.Context, req LoginRequest) (LoginResponse, error) {
			u, ok, err := svc.Login(ctx, req.Email, req.Password)
			if err != nil || !ok {
				return LoginResponse{OK: false}, err
			}
			return LoginResponse{OK: true, User: &UserView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}}, nil
		}),
		OpUsersCreate: handle(v, func(ctx context.Context, req CreateUserRequest) (UserView, error) {
			u, err := svc.CreateUser(ctx, application.CreateUserInput{Email: req.Email, Name: req.Name, Password: req.Password, Role: req.Role})
			if err != nil {
				return UserView{}, err
			}
			return UserView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, nil
		}),

		OpClientsCreate: handle(v, func(ctx context.Context, req CreateClientRequest) (IDResponse, error) {
			c, err := svc.CreateClient(ctx, application.CreateClientInput{
				Name:          req.Name,
				ContactEmail:  req.ContactEmail,
				Phone:         req.Phone,
				Notes:         req.Notes,
				PaymentStatus: req.PaymentStatus,
			})
			return IDResponse{ID: c.ID}, err
		}),
		OpClientsList: handle(v, func(ctx context.Context, _ Empty) ([]domain.Client, error) {
			return svc.ListClients(ctx)
		}),
		OpClientsDelete: handle(v, func(ctx context.Context, req ClientRef) (DeletedResponse, error) {
			if err := svc.DeleteClient(ctx, req.ClientID); err != nil {
				return DeletedResponse{}, err
			}
			return DeletedResponse{Deleted: true}, nil
		}),
		OpClientsAddFile: handle(v, func(ctx context.Context, req AddFileRequest) (AddedResponse, error) {
			n, err := svc.AttachFiles(ctx, req.ClientID, req.Paths)
			return AddedResponse{Added: n}, err
		}),
		OpClientsFiles: handle(v, func(ctx context.Context, req ClientRef) ([]domain.ClientFile, error) {
			return svc.ListClientFiles(ctx, req.ClientID)
		}),

		OpProjectsCreate: handle(v, func(ctx context.Context, req CreateProjectRequest) (domain.Project, error) {
			return svc.CreateProject(ctx, application.CreateProjectInput{
				ClientID:  req.ClientID,
				Name:      req.Name,
				Status:    req.Status,
				Budget:    req.Budget,
				StartDate: req.StartDate,
				EndDate:   req.EndDate,
			})
		}),
		OpProjectsList: handle(v, func(ctx context.Context, req ListProjectsRequest) ([]domain.Project, error) {
			return svc.ListProjects(ctx, req.ClientID)
		}),
		OpProjectsAddItem: handle(v, func(ctx context.Context, req AddProjectItemRequest) (domain.ProjectItem, error) {
			return svc.AddProjectItem(ctx, application.AddProjectItemInput{
				ProjectID:   req.ProjectID,
				ServiceID:   req.ServiceID,
				Description: req.Description,
				Quantity:    req.Quantity,
				Price:       req.Price,
			})
		}),
		OpProjectsAssign: handle(v, func(ctx context.Context, req AssignRequest) (domain.ProjectAssignment, error) {
			return svc.AssignUser(ctx, application.AssignUserInput{ProjectID: req.ProjectID, UserID: req.UserID, Role: req.Role})
		}),

		OpInvoicesCreate: handle(v, func(ctx context.Context, req CreateInvoiceRequest) (domain.Invoice, error) {
			return svc.CreateInvoice(ctx, application.CreateInvoiceInput{ProjectID: req.ProjectID, Amount: req.Amount, Status: req.Status})
		}),
		OpInvoicesSetStatus: handle(v, func(ctx context.Context, req SetInvoiceStatusRequest) (domain.Invoice, error) {
			return svc.SetInvoiceStatus(ctx, req.InvoiceID, req.Status)
		}),
		OpExpensesCreate: handle(v, func(ctx context.Context, req CreateExpenseRequest) (domain.Expense, error) {
			return svc.CreateExpense(ctx, application.CreateExpenseInput{
				ProjectID:   req.ProjectID,
				Description: req.Description,
				Amount:      req.Amount,
				Date:        req.Date,
			})
		}),

		OpAnalyticsSummary: handle(v, func(ctx context.Context, _ Empty) (SummaryResponse, error) {
			s, err := svc.AnalyticsSummary(ctx)
			if err != nil {
				return SummaryResponse{}, err
			}
			return SummaryResponse{
				Revenue:  s.Revenue.InexactFloat64(),
				Expenses: s.Expenses.InexactFloat64(),
				Projects: s.Projects,
			}, nil
		}),
		OpBackupNow: handle(v, func(ctx context.Context, _ Empty) (BackupResponse, error) {
			path, err := svc.Backup(ctx)
			return BackupResponse{Path: path}, err
		}),
		OpBackupsList: handle(v, func(ctx context.Context, _ Empty) (BackupsResponse, error) {
			paths, err := svc.ListBackups(ctx)
			return BackupsResponse{Backups: paths}, err
		}),

		OpCatalogScan: handle(v, func(ctx context.Context, _ Empty) (CatalogScanResponse, error) {
			report, err := svc.ScanCatalog(ctx)
			if err != nil {
				return CatalogScanResponse{}, err
			}
			return CatalogScanResponse{Drafts: report.Drafts, Skips: report.Skips, Skipped: len(report.Skips)}, nil
		}),
		OpServicesImport: handle(v, func(ctx context.Context, _ Empty) (ImportResponse, error) {
			res, err := svc.ImportCatalog(ctx)
			return ImportResponse{Imported: res.Imported, Skipped: res.Skipped}, err
		}),
		OpServicesList: handle(v, func(ctx context.Context, req ListServicesRequest) ([]domain.Service, error) {
			return svc.ListServices(ctx, req.ActiveOnly)
		}),

		OpSettingsGet: handle(v, func(ctx context.Context, req SettingKey) (domain.Setting, error) {
			return svc.GetSetting(ctx, req.Key)
		}),
		OpSettingsSet: handle(v, func(ctx context.Context, req SetSettingRequest) (domain.Setting, error) {
			return svc.SetSetting(ctx, req.Key, req.Value)
		}),
	}, opts...)
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("localemail", localEmail)
	return v
}

// localEmail accepts addresses without a TLD such as admin@local: one @ with
// something on either side and no whitespace.
func localEmail(fl validator.FieldLevel) bool {
	local, host, ok := strings.Cut(strings.TrimSpace(fl.Field().String()), "@")
	if !ok || local == "" || host == "" || strings.Contains(host, "@") {
		return false
	}
	return !strings.ContainsAny(local+host, " \t\r\n")
}

package domain

import "context"

type StudioRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, value User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	CreateClient(ctx context.Context, value Client) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	GetClientByID(ctx context.Context, id uint) (Client, error)
	DeleteClient(ctx context.Context, id uint) error
	AddClientFiles(ctx context.Context, clientID uint, files []StoredFile) ([]ClientFile, error)
	ListClientFiles(ctx context.Context, clientID uint) ([]ClientFile, error)

	CreateProject(ctx context.Context, value Project) (Project, error)
	ListProjects(ctx context.Context, clientID *uint) ([]Project, error)
	CreateProjectItem(ctx context.Context, value ProjectItem) (ProjectItem, error)
	CreateAssignment(ctx context.Context, value ProjectAssignment) (ProjectAssignment, error)
	CreateInvoice(ctx context.Context, value Invoice) (Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id uint, status string) (Invoice, error)
	CreateExpense(ctx context.Context, value Expense) (Expense, error)

	UpsertServices(ctx context.Context, drafts []ServiceDraft) (int, error)
	ListServices(ctx context.Context, activeOnly bool) ([]Service, error)

	GetSetting(ctx context.Context, key string) (Setting, error)
	PutSetting(ctx context.Context, value Setting) error

	AnalyticsSummary(ctx context.Context) (AnalyticsSummary, error)
}

// Snapshotter flushes the live store to its primary file and writes
// point-in-time copies.
type Snapshotter interface {
	Save(ctx context.Context) error
	Backup(ctx context.Context) (string, error)
	ListBackups() ([]string, error)
}

// AttachmentStore copies client files out of their source location. Check
// reports whether a source could be stored without touching the tree.
type AttachmentStore interface {
	Check(srcPath string) error
	Put(ctx context.Context, clientID uint, srcPath string) (StoredFile, error)
	Remove(f StoredFile) error
}

type CatalogSource interface {
	Drafts(ctx context.Context) ([]ServiceDraft, []CatalogSkip, error)
}

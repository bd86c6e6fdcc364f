package application_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/atvirokodosprendimai/studio/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/studio/internal/adapters/files"
	"github.com/atvirokodosprendimai/studio/internal/application"
	"github.com/atvirokodosprendimai/studio/internal/catalog"
	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSnapshots struct {
	*sqlite.Store
	saves int
}

func (c *countingSnapshots) Save(ctx context.Context) error {
	c.saves++
	return c.Store.Save(ctx)
}

type fixture struct {
	svc       *application.StudioService
	store     *sqlite.Store
	snapshots *countingSnapshots
	dataDir   string
	catalog   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	dataDir := t.TempDir()

	store, err := sqlite.OpenStore(ctx, dataDir, sqlite.StoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	attachments, err := files.NewAttachments(dataDir)
	require.NoError(t, err)

	catalogDir := filepath.Join(dataDir, "services")
	require.NoError(t, os.MkdirAll(catalogDir, 0o755))

	snapshots := &countingSnapshots{Store: store}
	svc := application.NewStudioService(application.Dependencies{
		Repo:        sqlite.NewStudioRepository(store.DB()),
		Snapshots:   snapshots,
		Attachments: attachments,
		Catalog:     catalog.NewFolder(catalogDir),
	})
	return fixture{svc: svc, store: store, snapshots: snapshots, dataDir: dataDir, catalog: catalogDir}
}

func TestEndToEndClientAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	clients, err := f.svc.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)
	assert.Equal(t, domain.PaymentUnpaid, clients[0].PaymentStatus)
	assert.False(t, clients[0].CreatedAt.IsZero())

	user, ok, err := f.svc.Login(ctx, "admin@local", "admin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "admin@local", user.Email)

	_, ok, err = f.svc.Login(ctx, "admin@local", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = f.svc.Login(ctx, "nobody@local", "admin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginNormalizesEmail(t *testing.T) {
	f := newFixture(t)

	_, ok, err := f.svc.Login(context.Background(), "  Admin@Local ", "admin")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutationsSaveBeforeReturning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.snapshots.saves)

	_, err = f.svc.ListClients(ctx)
	require.NoError(t, err)
	_, err = f.svc.AnalyticsSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.snapshots.saves)
}

func TestCreateClientRequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateClient(context.Background(), application.CreateClientInput{Name: "   "})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	assert.Zero(t, f.snapshots.saves)
}

func TestAttachFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client, err := f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)
	saves := f.snapshots.saves

	added, err := f.svc.AttachFiles(ctx, client.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, saves, f.snapshots.saves)

	src := filepath.Join(t.TempDir(), "contract.pdf")
	require.NoError(t, os.WriteFile(src, []byte("signed"), 0o644))
	added, err = f.svc.AttachFiles(ctx, client.ID, []string{src})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	listed, err := f.svc.ListClientFiles(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "contract.pdf", listed[0].Filename)
	assert.Equal(t, filepath.Join(f.dataDir, "attachments", "1", "contract.pdf"), listed[0].Path)

	_, err = f.svc.AttachFiles(ctx, client.ID, []string{filepath.Join(t.TempDir(), "missing.pdf")})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	_, err = f.svc.AttachFiles(ctx, 999, []string{src})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestAttachFilesLeavesNothingBehindOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client, err := f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)
	saves := f.snapshots.saves

	good := filepath.Join(t.TempDir(), "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("ok"), 0o644))

	_, err = f.svc.AttachFiles(ctx, client.ID, []string{good, filepath.Join(t.TempDir(), "missing.txt")})
	require.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Equal(t, saves, f.snapshots.saves)

	listed, err := f.svc.ListClientFiles(ctx, client.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
	_, err = os.Stat(filepath.Join(f.dataDir, "attachments", "1", "good.txt"))
	assert.True(t, os.IsNotExist(err), "copy of good.txt left on disk")
}

type failingSecondPut struct {
	*files.Attachments
	puts int
}

func (a *failingSecondPut) Put(ctx context.Context, clientID uint, srcPath string) (domain.StoredFile, error) {
	a.puts++
	if a.puts == 2 {
		return domain.StoredFile{}, errors.New("disk full")
	}
	return a.Attachments.Put(ctx, clientID, srcPath)
}

func TestAttachFilesRemovesCopiesWhenCopyFails(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	store, err := sqlite.OpenStore(ctx, dataDir, sqlite.StoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	attachments, err := files.NewAttachments(dataDir)
	require.NoError(t, err)

	svc := application.NewStudioService(application.Dependencies{
		Repo:        sqlite.NewStudioRepository(store.DB()),
		Snapshots:   store,
		Attachments: &failingSecondPut{Attachments: attachments},
		Catalog:     catalog.NewFolder(filepath.Join(dataDir, "services")),
	})
	client, err := svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)

	srcDir := t.TempDir()
	first := filepath.Join(srcDir, "a.txt")
	second := filepath.Join(srcDir, "b.txt")
	require.NoError(t, os.WriteFile(first, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("b"), 0o644))

	_, err = svc.AttachFiles(ctx, client.ID, []string{first, second})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(attachments.Root(), "1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
	listed, err := svc.ListClientFiles(ctx, client.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestDeleteClient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client, err := f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteClient(ctx, client.ID))
	clients, err := f.svc.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	assert.True(t, apperr.IsCode(f.svc.DeleteClient(ctx, client.ID), apperr.CodeNotFound))
}

func TestProjectsInvoicesExpensesFeedAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	empty, err := f.svc.AnalyticsSummary(ctx)
	require.NoError(t, err)
	assert.True(t, empty.Revenue.IsZero())
	assert.True(t, empty.Expenses.IsZero())

	client, err := f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)
	project, err := f.svc.CreateProject(ctx, application.CreateProjectInput{ClientID: client.ID, Name: "Rebrand"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectInProgress, project.Status)
	require.NotNil(t, project.StartDate)

	item, err := f.svc.AddProjectItem(ctx, application.AddProjectItemInput{ProjectID: project.ID, Description: strPtr("Discovery")})
	require.NoError(t, err)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, item.Price.IsZero())

	assignment, err := f.svc.AssignUser(ctx, application.AssignUserInput{ProjectID: project.ID, UserID: 1, Role: strPtr("lead")})
	require.NoError(t, err)
	assert.NotZero(t, assignment.ID)

	draft, err := f.svc.CreateInvoice(ctx, application.CreateInvoiceInput{ProjectID: project.ID, Amount: decimal.RequireFromString("800")})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceDraft, draft.Status)
	assert.Nil(t, draft.PaidAt)

	paid, err := f.svc.CreateInvoice(ctx, application.CreateInvoiceInput{ProjectID: project.ID, Amount: decimal.RequireFromString("200.25"), Status: domain.InvoicePaid})
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.SetInvoiceStatus(ctx, draft.ID, domain.InvoicePaid)
	require.NoError(t, err)

	expense, err := f.svc.CreateExpense(ctx, application.CreateExpenseInput{ProjectID: &project.ID, Amount: decimal.RequireFromString("75")})
	require.NoError(t, err)
	assert.False(t, expense.Date.IsZero())

	summary, err := f.svc.AnalyticsSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000.25", summary.Revenue.String())
	assert.Equal(t, "75", summary.Expenses.String())
	assert.Equal(t, domain.ProjectCounts{InProgress: 1}, summary.Projects)

	_, err = f.svc.CreateProject(ctx, application.CreateProjectInput{ClientID: 404, Name: "Ghost"})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	_, err = f.svc.CreateInvoice(ctx, application.CreateInvoiceInput{ProjectID: project.ID, Amount: decimal.Zero})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestCatalogScanAndImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.catalog, "logo.json"), []byte(`{"name":"Logo","price_default":150}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.catalog, "bad.json"), []byte(`{`), 0o644))

	report, err := f.svc.ScanCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Drafts, 1)
	assert.Len(t, report.Skips, 1)

	services, err := f.svc.ListServices(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, services)

	result, err := f.svc.ImportCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.ImportResult{Imported: 1, Skipped: 1}, result)

	result, err = f.svc.ImportCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	services, err = f.svc.ListServices(ctx, true)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "logo", services[0].Code)
	require.NotNil(t, services[0].PriceDefault)
	assert.Equal(t, "150", services[0].PriceDefault.String())
}

func TestBackupLeavesStoreUsable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Acme"})
	require.NoError(t, err)

	path, err := f.svc.Backup(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, f.store.BackupsDir(), filepath.Dir(path))

	listed, err := f.svc.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, listed)

	_, err = f.svc.CreateClient(ctx, application.CreateClientInput{Name: "Globex"})
	require.NoError(t, err)
	clients, err := f.svc.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2)
}

func TestSettingsAndUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.GetSetting(ctx, "currency")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	_, err = f.svc.SetSetting(ctx, "currency", strPtr("EUR"))
	require.NoError(t, err)
	got, err := f.svc.GetSetting(ctx, "currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR", *got.Value)

	staff, err := f.svc.CreateUser(ctx, application.CreateUserInput{Email: "Jane@Studio.test", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "jane@studio.test", staff.Email)
	assert.Equal(t, domain.RoleStaff, staff.Role)

	_, ok, err := f.svc.Login(ctx, "jane@studio.test", "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.CreateUser(ctx, application.CreateUserInput{Email: "jane@studio.test", Password: "x"})
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func strPtr(v string) *string { return &v }

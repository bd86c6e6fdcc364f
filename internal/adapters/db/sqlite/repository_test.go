package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), t.TempDir(), StoreOptions{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func strPtr(v string) *string { return &v }

func TestClientsListNewestFirstWithDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewStudioRepository(openTestStore(t).DB())

	first, err := repo.CreateClient(ctx, domain.Client{Name: "Acme", PaymentStatus: domain.PaymentUnpaid})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	second, err := repo.CreateClient(ctx, domain.Client{Name: "Globex", ContactEmail: strPtr("ops@globex.test"), PaymentStatus: domain.PaymentPaid})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	clients, err := repo.ListClients(ctx)
	if err != nil {
		t.Fatalf("list clients: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients))
	}
	if clients[0].ID != second.ID || clients[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", clients)
	}
	if clients[1].ContactEmail != nil || clients[1].CreatedAt.IsZero() {
		t.Fatalf("unexpected optional fields on first client: %+v", clients[1])
	}
	if clients[0].ContactEmail == nil || *clients[0].ContactEmail != "ops@globex.test" {
		t.Fatalf("contact email not persisted: %+v", clients[0])
	}
}

func TestCheckConstraintRejectsUnknownPaymentStatus(t *testing.T) {
	repo := NewStudioRepository(openTestStore(t).DB())

	_, err := repo.CreateClient(context.Background(), domain.Client{Name: "Initech", PaymentStatus: "overdue"})
	if err == nil {
		t.Fatal("expected CHECK constraint failure")
	}
	if !apperr.IsCode(err, apperr.CodeValidation) {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestDuplicateEmailIsConflict(t *testing.T) {
	repo := NewStudioRepository(openTestStore(t).DB())

	_, err := repo.CreateUser(context.Background(), domain.User{Email: "admin@local", Name: "Twin", PasswordHash: "x", Role: domain.RoleStaff})
	if !apperr.IsCode(err, apperr.CodeConflict) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}

func TestDeleteClientCascadesFiles(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := NewStudioRepository(store.DB())

	client, err := repo.CreateClient(ctx, domain.Client{Name: "Acme", PaymentStatus: domain.PaymentUnpaid})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	files, err := repo.AddClientFiles(ctx, client.ID, []domain.StoredFile{
		{Filename: "brief.pdf", Path: "/data/attachments/1/brief.pdf"},
		{Filename: "logo.png", Path: "/data/attachments/1/logo.png"},
	})
	if err != nil {
		t.Fatalf("add files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	if err := repo.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	var remaining int64
	if err := store.DB().Model(&ClientFileModel{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count files: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected files to cascade, %d left", remaining)
	}

	if err := repo.DeleteClient(ctx, client.ID); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestAddFilesToMissingClientFails(t *testing.T) {
	repo := NewStudioRepository(openTestStore(t).DB())

	_, err := repo.AddClientFiles(context.Background(), 404, []domain.StoredFile{{Filename: "a.txt", Path: "/tmp/a.txt"}})
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAnalyticsSummaryEmptyStoreIsZero(t *testing.T) {
	repo := NewStudioRepository(openTestStore(t).DB())

	summary, err := repo.AnalyticsSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.Revenue.IsZero() || !summary.Expenses.IsZero() {
		t.Fatalf("expected zero money, got %+v", summary)
	}
	if summary.Projects != (domain.ProjectCounts{}) {
		t.Fatalf("expected zero project counts, got %+v", summary.Projects)
	}
}

func TestAnalyticsSummaryCountsPaidRevenueOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewStudioRepository(openTestStore(t).DB())

	client, _ := repo.CreateClient(ctx, domain.Client{Name: "Acme", PaymentStatus: domain.PaymentUnpaid})
	now := time.Now().UTC()
	active, _ := repo.CreateProject(ctx, domain.Project{ClientID: client.ID, Name: "Site", Status: domain.ProjectActive, StartDate: &now})
	_, _ = repo.CreateProject(ctx, domain.Project{ClientID: client.ID, Name: "App", Status: domain.ProjectInProgress, StartDate: &now})
	_, _ = repo.CreateProject(ctx, domain.Project{ClientID: client.ID, Name: "Logo", Status: domain.ProjectCompleted, StartDate: &now})
	_, _ = repo.CreateProject(ctx, domain.Project{ClientID: client.ID, Name: "Print", Status: domain.ProjectCompleted, StartDate: &now})

	paid, err := repo.CreateInvoice(ctx, domain.Invoice{ProjectID: active.ID, Amount: decimal.RequireFromString("1500"), Status: domain.InvoiceSent})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if _, err := repo.UpdateInvoiceStatus(ctx, paid.ID, domain.InvoicePaid); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	_, _ = repo.CreateInvoice(ctx, domain.Invoice{ProjectID: active.ID, Amount: decimal.RequireFromString("999"), Status: domain.InvoiceDraft})
	_, _ = repo.CreateExpense(ctx, domain.Expense{ProjectID: &active.ID, Amount: decimal.RequireFromString("250.5"), Date: now})
	_, _ = repo.CreateExpense(ctx, domain.Expense{Amount: decimal.RequireFromString("49.5"), Date: now})

	summary, err := repo.AnalyticsSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.Revenue.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("expected revenue 1500, got %s", summary.Revenue)
	}
	if !summary.Expenses.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("expected expenses 300, got %s", summary.Expenses)
	}
	want := domain.ProjectCounts{Active: 1, InProgress: 1, Completed: 2}
	if summary.Projects != want {
		t.Fatalf("expected %+v, got %+v", want, summary.Projects)
	}
}

func TestUpdateInvoiceStatusStampsAndClearsPaidAt(t *testing.T) {
	ctx := context.Background()
	repo := NewStudioRepository(openTestStore(t).DB())

	client, _ := repo.CreateClient(ctx, domain.Client{Name: "Acme", PaymentStatus: domain.PaymentUnpaid})
	project, _ := repo.CreateProject(ctx, domain.Project{ClientID: client.ID, Name: "Site", Status: domain.ProjectActive})
	inv, err := repo.CreateInvoice(ctx, domain.Invoice{ProjectID: project.ID, Amount: decimal.NewFromInt(10), Status: domain.InvoiceDraft})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	paid, err := repo.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoicePaid)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}
	voided, err := repo.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoiceVoid)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if voided.PaidAt != nil {
		t.Fatal("expected paid_at to be cleared")
	}
	if _, err := repo.UpdateInvoiceStatus(ctx, inv.ID, "lost"); !apperr.IsCode(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestUpsertServicesByCode(t *testing.T) {
	ctx := context.Background()
	repo := NewStudioRepository(openTestStore(t).DB())

	price := decimal.RequireFromString("120")
	n, err := repo.UpsertServices(ctx, []domain.ServiceDraft{
		{Code: "logo", Name: "Logo design", PriceDefault: &price},
		{Code: "site", Name: "Website"},
	})
	if err != nil || n != 2 {
		t.Fatalf("upsert: n=%d err=%v", n, err)
	}
	if _, err := repo.UpsertServices(ctx, []domain.ServiceDraft{{Code: "logo", Name: "Logo refresh", Description: strPtr("v2")}}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	services, err := repo.ListServices(ctx, true)
	if err != nil {
		t.Fatalf("list services: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}
	if services[0].Code != "logo" || services[0].Name != "Logo refresh" || services[0].PriceDefault != nil {
		t.Fatalf("unexpected upserted service %+v", services[0])
	}
	if !services[1].Active || services[1].PriceDefault != nil {
		t.Fatalf("unexpected service %+v", services[1])
	}
}

func TestSettingsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewStudioRepository(openTestStore(t).DB())

	if _, err := repo.GetSetting(ctx, "currency"); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.PutSetting(ctx, domain.Setting{Key: "currency", Value: strPtr("EUR")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutSetting(ctx, domain.Setting{Key: "currency", Value: strPtr("USD")}); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err := repo.GetSetting(ctx, "currency")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value == nil || *got.Value != "USD" {
		t.Fatalf("expected USD, got %+v", got)
	}
}

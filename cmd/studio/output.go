package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/bridge"
	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatID(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func formatMaybeUint(v *uint) string {
	if v == nil {
		return "-"
	}
	return formatID(*v)
}

func formatMaybeString(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func formatMaybeDecimal(v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	return v.StringFixed(2)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatMaybeDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func printLogin(out bridge.LoginResponse) error {
	if !out.OK || out.User == nil {
		return cli.Exit("invalid credentials", 1)
	}
	fmt.Printf("logged in as %s (%s)\n", out.User.Email, out.User.Role)
	return nil
}

func printUser(u bridge.UserView) error {
	printKV([][2]string{
		{"id", formatID(u.ID)},
		{"email", u.Email},
		{"name", u.Name},
		{"role", u.Role},
	})
	return nil
}

func printID(out bridge.IDResponse) error {
	fmt.Printf("id: %d\n", out.ID)
	return nil
}

func printClients(items []domain.Client) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(item.ID),
			item.Name,
			formatMaybeString(item.ContactEmail),
			formatMaybeString(item.Phone),
			item.PaymentStatus,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "NAME", "EMAIL", "PHONE", "PAYMENT", "CREATED_AT"}, rows)
	return nil
}

func printClientFiles(items []domain.ClientFile) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{formatID(item.ID), item.Filename, item.Path, formatTime(item.UploadedAt)})
	}
	printTable([]string{"ID", "FILENAME", "PATH", "UPLOADED_AT"}, rows)
	return nil
}

func printProjects(items []domain.Project) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(item.ID),
			formatID(item.ClientID),
			item.Name,
			item.Status,
			formatMaybeDecimal(item.Budget),
			formatMaybeDate(item.StartDate),
			formatMaybeDate(item.EndDate),
		})
	}
	printTable([]string{"ID", "CLIENT_ID", "NAME", "STATUS", "BUDGET", "START", "END"}, rows)
}

func printProjectItem(item domain.ProjectItem) error {
	printKV([][2]string{
		{"id", formatID(item.ID)},
		{"project_id", formatID(item.ProjectID)},
		{"service_id", formatMaybeUint(item.ServiceID)},
		{"description", formatMaybeString(item.Description)},
		{"quantity", item.Quantity.String()},
		{"price", item.Price.StringFixed(2)},
	})
	return nil
}

func printAssignment(a domain.ProjectAssignment) error {
	printKV([][2]string{
		{"id", formatID(a.ID)},
		{"project_id", formatID(a.ProjectID)},
		{"user_id", formatID(a.UserID)},
		{"role", formatMaybeString(a.Role)},
		{"assigned_at", formatTime(a.AssignedAt)},
	})
	return nil
}

func printInvoice(inv domain.Invoice) error {
	paid := "-"
	if inv.PaidAt != nil {
		paid = formatTime(*inv.PaidAt)
	}
	printKV([][2]string{
		{"id", formatID(inv.ID)},
		{"project_id", formatID(inv.ProjectID)},
		{"amount", inv.Amount.StringFixed(2)},
		{"status", inv.Status},
		{"issued_at", formatTime(inv.IssuedAt)},
		{"paid_at", paid},
	})
	return nil
}

func printExpense(e domain.Expense) error {
	printKV([][2]string{
		{"id", formatID(e.ID)},
		{"project_id", formatMaybeUint(e.ProjectID)},
		{"description", formatMaybeString(e.Description)},
		{"amount", e.Amount.StringFixed(2)},
		{"date", e.Date.Format(time.DateOnly)},
	})
	return nil
}

func printSummary(s bridge.SummaryResponse) error {
	printKV([][2]string{
		{"revenue", strconv.FormatFloat(s.Revenue, 'f', 2, 64)},
		{"expenses", strconv.FormatFloat(s.Expenses, 'f', 2, 64)},
		{"projects.active", strconv.FormatInt(s.Projects.Active, 10)},
		{"projects.in_progress", strconv.FormatInt(s.Projects.InProgress, 10)},
		{"projects.completed", strconv.FormatInt(s.Projects.Completed, 10)},
	})
	return nil
}

func printCatalogScan(out bridge.CatalogScanResponse) error {
	rows := make([][]string, 0, len(out.Drafts))
	for _, d := range out.Drafts {
		rows = append(rows, []string{d.Code, d.Name, formatMaybeDecimal(d.PriceDefault)})
	}
	printTable([]string{"CODE", "NAME", "PRICE_DEFAULT"}, rows)
	for _, skip := range out.Skips {
		fmt.Printf("skipped %s: %s\n", skip.Path, skip.Reason)
	}
	return nil
}

func printServices(items []domain.Service) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(item.ID),
			item.Code,
			item.Name,
			formatMaybeDecimal(item.PriceDefault),
			strconv.FormatBool(item.Active),
		})
	}
	printTable([]string{"ID", "CODE", "NAME", "PRICE_DEFAULT", "ACTIVE"}, rows)
	return nil
}

func printSetting(s domain.Setting) error {
	printKV([][2]string{{s.Key, formatMaybeString(s.Value)}})
	return nil
}

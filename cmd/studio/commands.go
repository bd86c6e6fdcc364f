package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/bridge"
	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
)

// action runs op with the params built from flags and prints the result as a
// table, or as JSON with --json.
func action[T any](op string, params func(c *cli.Command) (any, error), print func(T) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		var in any
		if params != nil {
			var err error
			if in, err = params(c); err != nil {
				return err
			}
		}
		var out T
		if err := invoke(ctx, c, op, in, &out); err != nil {
			return err
		}
		if c.Bool("json") {
			return printJSON(out)
		}
		return print(out)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Check a user's credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: action(bridge.OpAuthLogin, func(c *cli.Command) (any, error) {
					return bridge.LoginRequest{Email: c.String("email"), Password: c.String("password")}, nil
				}, printLogin),
			},
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "User commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "role", Value: domain.RoleStaff, Usage: "admin or staff"},
				},
				Action: action(bridge.OpUsersCreate, func(c *cli.Command) (any, error) {
					return bridge.CreateUserRequest{
						Email:    c.String("email"),
						Name:     c.String("name"),
						Password: c.String("password"),
						Role:     c.String("role"),
					}, nil
				}, printUser),
			},
		},
	}
}

func clientsCommand() *cli.Command {
	return &cli.Command{
		Name:  "clients",
		Usage: "Client commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a client",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "notes"},
					&cli.StringFlag{Name: "payment-status", Usage: "paid or unpaid (default unpaid)"},
				},
				Action: action(bridge.OpClientsCreate, func(c *cli.Command) (any, error) {
					return bridge.CreateClientRequest{
						Name:          c.String("name"),
						ContactEmail:  optionalString(c, "email"),
						Phone:         optionalString(c, "phone"),
						Notes:         optionalString(c, "notes"),
						PaymentStatus: c.String("payment-status"),
					}, nil
				}, printID),
			},
			{
				Name:   "list",
				Usage:  "List clients, newest first",
				Action: action(bridge.OpClientsList, nil, printClients),
			},
			{
				Name:  "delete",
				Usage: "Delete a client and its file records",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}},
				Action: action(bridge.OpClientsDelete, func(c *cli.Command) (any, error) {
					return bridge.ClientRef{ClientID: c.Uint("id")}, nil
				}, func(out bridge.DeletedResponse) error {
					fmt.Printf("deleted: %t\n", out.Deleted)
					return nil
				}),
			},
			{
				Name:  "files",
				Usage: "List a client's attached files",
				Flags: []cli.Flag{&cli.UintFlag{Name: "id", Required: true}},
				Action: action(bridge.OpClientsFiles, func(c *cli.Command) (any, error) {
					return bridge.ClientRef{ClientID: c.Uint("id")}, nil
				}, printClientFiles),
			},
			{
				Name:  "add-file",
				Usage: "Attach files to a client (copied into the data directory)",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.StringSliceFlag{Name: "path", Usage: "file to attach, repeatable"},
				},
				Action: action(bridge.OpClientsAddFile, func(c *cli.Command) (any, error) {
					return bridge.AddFileRequest{ClientID: c.Uint("id"), Paths: absPaths(c.StringSlice("path"))}, nil
				}, func(out bridge.AddedResponse) error {
					fmt.Printf("added: %d\n", out.Added)
					return nil
				}),
			},
		},
	}
}

func projectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "Project commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a project for a client",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "client-id", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "status", Usage: "active, in_progress or completed (default in_progress)"},
					&cli.StringFlag{Name: "budget"},
					&cli.StringFlag{Name: "start", Usage: "YYYY-MM-DD (default today)"},
					&cli.StringFlag{Name: "end", Usage: "YYYY-MM-DD"},
				},
				Action: action(bridge.OpProjectsCreate, func(c *cli.Command) (any, error) {
					budget, err := optionalDecimal(c, "budget")
					if err != nil {
						return nil, err
					}
					start, err := optionalDate(c, "start")
					if err != nil {
						return nil, err
					}
					end, err := optionalDate(c, "end")
					if err != nil {
						return nil, err
					}
					return bridge.CreateProjectRequest{
						ClientID:  c.Uint("client-id"),
						Name:      c.String("name"),
						Status:    c.String("status"),
						Budget:    budget,
						StartDate: start,
						EndDate:   end,
					}, nil
				}, func(p domain.Project) error {
					printProjects([]domain.Project{p})
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "List projects",
				Flags: []cli.Flag{&cli.UintFlag{Name: "client-id"}},
				Action: action(bridge.OpProjectsList, func(c *cli.Command) (any, error) {
					return bridge.ListProjectsRequest{ClientID: optionalUint(c, "client-id")}, nil
				}, func(items []domain.Project) error {
					printProjects(items)
					return nil
				}),
			},
			{
				Name:  "add-item",
				Usage: "Add a line item to a project",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "project-id", Required: true},
					&cli.UintFlag{Name: "service-id"},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "quantity", Usage: "default 1"},
					&cli.StringFlag{Name: "price", Usage: "default 0"},
				},
				Action: action(bridge.OpProjectsAddItem, func(c *cli.Command) (any, error) {
					quantity, err := optionalDecimal(c, "quantity")
					if err != nil {
						return nil, err
					}
					price, err := optionalDecimal(c, "price")
					if err != nil {
						return nil, err
					}
					return bridge.AddProjectItemRequest{
						ProjectID:   c.Uint("project-id"),
						ServiceID:   optionalUint(c, "service-id"),
						Description: optionalString(c, "description"),
						Quantity:    quantity,
						Price:       price,
					}, nil
				}, printProjectItem),
			},
			{
				Name:  "assign",
				Usage: "Assign a user to a project",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "project-id", Required: true},
					&cli.UintFlag{Name: "user-id", Required: true},
					&cli.StringFlag{Name: "role"},
				},
				Action: action(bridge.OpProjectsAssign, func(c *cli.Command) (any, error) {
					return bridge.AssignRequest{
						ProjectID: c.Uint("project-id"),
						UserID:    c.Uint("user-id"),
						Role:      optionalString(c, "role"),
					}, nil
				}, printAssignment),
			},
		},
	}
}

func invoicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "invoices",
		Usage: "Invoice commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Issue an invoice for a project",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "project-id", Required: true},
					&cli.StringFlag{Name: "amount", Required: true},
					&cli.StringFlag{Name: "status", Usage: "draft, sent, paid or void (default draft)"},
				},
				Action: action(bridge.OpInvoicesCreate, func(c *cli.Command) (any, error) {
					amount, err := decimal.NewFromString(c.String("amount"))
					if err != nil {
						return nil, fmt.Errorf("amount: %w", err)
					}
					return bridge.CreateInvoiceRequest{ProjectID: c.Uint("project-id"), Amount: amount, Status: c.String("status")}, nil
				}, printInvoice),
			},
			{
				Name:  "set-status",
				Usage: "Change an invoice's status",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "status", Required: true},
				},
				Action: action(bridge.OpInvoicesSetStatus, func(c *cli.Command) (any, error) {
					return bridge.SetInvoiceStatusRequest{InvoiceID: c.Uint("id"), Status: c.String("status")}, nil
				}, printInvoice),
			},
		},
	}
}

func expensesCommand() *cli.Command {
	return &cli.Command{
		Name:  "expenses",
		Usage: "Expense commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Record an expense",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "amount", Required: true},
					&cli.UintFlag{Name: "project-id"},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD (default today)"},
				},
				Action: action(bridge.OpExpensesCreate, func(c *cli.Command) (any, error) {
					amount, err := decimal.NewFromString(c.String("amount"))
					if err != nil {
						return nil, fmt.Errorf("amount: %w", err)
					}
					date, err := optionalDate(c, "date")
					if err != nil {
						return nil, err
					}
					return bridge.CreateExpenseRequest{
						ProjectID:   optionalUint(c, "project-id"),
						Description: optionalString(c, "description"),
						Amount:      amount,
						Date:        date,
					}, nil
				}, printExpense),
			},
		},
	}
}

func analyticsCommand() *cli.Command {
	return &cli.Command{
		Name:   "analytics",
		Usage:  "Show revenue, expenses and project counts",
		Action: action(bridge.OpAnalyticsSummary, nil, printSummary),
	}
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Write a timestamped copy of the store",
		Action: action(bridge.OpBackupNow, nil, func(out bridge.BackupResponse) error {
			fmt.Println(out.Path)
			return nil
		}),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List backups, newest first",
				Action: action(bridge.OpBackupsList, nil, func(out bridge.BackupsResponse) error {
					for _, p := range out.Backups {
						fmt.Println(p)
					}
					return nil
				}),
			},
		},
	}
}

func servicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "services",
		Usage: "Service catalog commands",
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Read the catalog folder without importing",
				Action: action(bridge.OpCatalogScan, nil, printCatalogScan),
			},
			{
				Name:  "import",
				Usage: "Import the catalog folder into the store",
				Action: action(bridge.OpServicesImport, nil, func(out bridge.ImportResponse) error {
					printKV([][2]string{{"imported", fmt.Sprint(out.Imported)}, {"skipped", fmt.Sprint(out.Skipped)}})
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "List services",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "active", Usage: "only active services"}},
				Action: action(bridge.OpServicesList, func(c *cli.Command) (any, error) {
					return bridge.ListServicesRequest{ActiveOnly: c.Bool("active")}, nil
				}, printServices),
			},
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Key-value settings",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Read a setting",
				Flags: []cli.Flag{&cli.StringFlag{Name: "key", Required: true}},
				Action: action(bridge.OpSettingsGet, func(c *cli.Command) (any, error) {
					return bridge.SettingKey{Key: c.String("key")}, nil
				}, printSetting),
			},
			{
				Name:  "set",
				Usage: "Write a setting; omit --value to store null",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Required: true},
					&cli.StringFlag{Name: "value"},
				},
				Action: action(bridge.OpSettingsSet, func(c *cli.Command) (any, error) {
					return bridge.SetSettingRequest{Key: c.String("key"), Value: optionalString(c, "value")}, nil
				}, printSetting),
			},
		},
	}
}

func opsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ops",
		Usage: "List operations exposed by a running server (HTTP)",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := configFrom(c)
			if err != nil {
				return err
			}
			names, err := listOps(ctx, cfg)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(names)
			}
			fmt.Println(strings.Join(names, "\n"))
			return nil
		},
	}
}

func optionalString(c *cli.Command, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func optionalUint(c *cli.Command, name string) *uint {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Uint(name)
	return &v
}

func optionalDecimal(c *cli.Command, name string) (*decimal.Decimal, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	d, err := decimal.NewFromString(c.String(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}

func optionalDate(c *cli.Command, name string) (*time.Time, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, c.String(name))
	if err != nil {
		return nil, fmt.Errorf("%s: want YYYY-MM-DD: %w", name, err)
	}
	return &t, nil
}

// absPaths resolves paths against the client's working directory; the server
// may run elsewhere.
func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "studio",
		Usage: "Local business-management store: server and CLI client",
		Flags: clientFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			authCommand(),
			usersCommand(),
			clientsCommand(),
			projectsCommand(),
			invoicesCommand(),
			expensesCommand(),
			analyticsCommand(),
			backupCommand(),
			servicesCommand(),
			settingsCommand(),
			opsCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

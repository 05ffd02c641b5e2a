package main

import (
	"fmt"
	"os"

	"quotes/internal/app"
	"quotes/internal/config"
	"quotes/internal/repository"

	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:   "quotes",
		Usage:  "Part quote bidding service",
		Action: serve,
		Commands: []*cli.Command{
			serveCmd,
			workerCmd,
			migrateCmd,
			sweepCmd,
			recalcCmd,
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

var serveCmd = &cli.Command{
	Name:   "serve",
	Usage:  "Serve the HTTP API and run periodic maintenance",
	Action: serve,
}

func serve(ctx *cli.Context) error {
	a, err := app.NewApp()
	if err != nil {
		return err
	}

	a.Run()
	return nil
}

var workerCmd = &cli.Command{
	Name:  "worker",
	Usage: "Consume notification distribution tasks",
	Action: func(ctx *cli.Context) error {
		a, err := app.NewApp()
		if err != nil {
			return err
		}
		return a.RunWorker()
	},
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Apply or roll back database migrations",
	Subcommands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply all migrations",
			Action: func(ctx *cli.Context) error {
				return migrate(true)
			},
		},
		{
			Name:  "down",
			Usage: "Roll back all migrations",
			Action: func(ctx *cli.Context) error {
				return migrate(false)
			},
		},
	},
}

func migrate(up bool) error {
	cfg, err := config.NewPostgresConfig()
	if err != nil {
		return err
	}
	cfg.AutoMigrateUp = "false"
	cfg.AutoMigrateDown = "false"

	repo, err := repository.NewRepository(nil, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if up {
		return repo.MigrateUp()
	}
	return repo.MigrateDown()
}

var sweepCmd = &cli.Command{
	Name:  "sweep",
	Usage: "Expire overdue requests, offers and notifications once",
	Action: func(ctx *cli.Context) error {
		a, err := app.NewApp()
		if err != nil {
			return err
		}
		return a.RunJobs(ctx.Context, app.JobSweep)
	},
}

var recalcCmd = &cli.Command{
	Name:  "recalc",
	Usage: "Recalculate supplier badges and promotions once",
	Action: func(ctx *cli.Context) error {
		a, err := app.NewApp()
		if err != nil {
			return err
		}
		return a.RunJobs(ctx.Context, app.JobBadges, app.JobPromotions)
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/arbor/internal/cli"
	"github.com/alexanderramin/arbor/internal/config"
	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/preset"
	"github.com/alexanderramin/arbor/internal/repository"
	"github.com/alexanderramin/arbor/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := service.NewLogger(os.Stderr, cfg.LogLevel, string(cfg.LogFormat))

	presets, err := loadPresets(cfg)
	if err != nil {
		return err
	}
	if _, err := presets.Get(cfg.DefaultPreset); err != nil {
		return fmt.Errorf("ARBOR_DEFAULT_PRESET: %w", err)
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	itemRepo := repository.NewSQLiteWorkItemRepo(database)
	configRepo := repository.NewSQLiteHierarchyConfigRepo(database)
	frameworkRepo := repository.NewSQLiteFrameworkRepo(database)
	jobRepo := repository.NewSQLiteMigrationJobRepo(database)
	moveLogRepo := repository.NewSQLiteMoveLogRepo(database)
	reportRepo := repository.NewSQLiteMigrationReportRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewLogUseCaseObserver(logger))
	}

	// Wire services
	frameworks := service.NewFrameworkService(presets, frameworkRepo, cfg.DefaultPreset)
	hierarchies := service.NewHierarchyService(configRepo, frameworks, logger, observers...)

	app := &cli.App{
		WorkItems:   service.NewWorkItemService(itemRepo, hierarchies, uow, observers...),
		Hierarchies: hierarchies,
		Frameworks:  frameworks,
		Migrations:  service.NewMigrationService(itemRepo, jobRepo, moveLogRepo, reportRepo, frameworks, uow, logger, observers...),
		Actor:       cfg.Actor,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

func loadPresets(cfg config.Config) (*preset.Registry, error) {
	if cfg.PresetsFile != "" {
		return preset.LoadFile(cfg.PresetsFile)
	}
	return preset.Default()
}

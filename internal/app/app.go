// Package app wires configuration, storage and services into a single
// application core shared by cmd/fitrack-server and the test harness.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fitrackhq/fitrack/internal/common"
	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/services/investment"
	"github.com/fitrackhq/fitrack/internal/services/metrics"
	"github.com/fitrackhq/fitrack/internal/services/portfolio"
	"github.com/fitrackhq/fitrack/internal/storage/surrealdb"
)

// App holds all initialized services and the shared storage handle.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Storage           interfaces.StorageManager
	MetricsService    interfaces.MetricsService
	PortfolioService  interfaces.PortfolioService
	InvestmentService interfaces.InvestmentService
	StartupTime       time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage and services.
// configPath may be empty, in which case FITRACK_CONFIG and the binary
// directory are checked before falling back to config/fitrack.toml.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("FITRACK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fitrack.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fitrack.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	metricsService := metrics.NewService(storageManager, logger)
	portfolioService := portfolio.NewService(storageManager, logger)
	investmentService := investment.NewService(storageManager, logger)

	a := &App{
		Config:            config,
		Logger:            logger,
		Storage:           storageManager,
		MetricsService:    metricsService,
		PortfolioService:  portfolioService,
		InvestmentService: investmentService,
		StartupTime:       startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

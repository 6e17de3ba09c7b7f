package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/coldroute-go/internal/adapters/metrics"
	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/adapters/queue"
	"github.com/andrescamacho/coldroute-go/internal/adapters/solving"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/commands"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/services"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/config"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/database"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/pidfile"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coldroute-worker",
	Short: "Cold-chain optimization worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: search ., ./configs, /etc/coldroute)")
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate() error {
	cfg := config.MustLoadConfig(configPath)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println("Migrations applied")
	return nil
}

func runWorker() error {
	cfg := config.MustLoadConfig(configPath)

	fmt.Println("ColdRoute Worker")
	fmt.Println("================")

	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Worker.PIDFile)
	pf := pidfile.New(cfg.Worker.PIDFile)
	if err := pf.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire PID file lock: %w", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	fmt.Println("Database connected")

	redisOpt, redisOpts, err := queue.ParseRedisURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	resultCache := queue.NewResultCache(queue.NewRedisClient(redisOpts))

	metrics.InitRegistry()
	jobMetrics := metrics.NewJobMetricsCollector()
	if err := jobMetrics.Register(); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	metrics.SetJobCollector(jobMetrics)
	fmt.Println("Metrics collectors registered")

	// Repositories
	vehicleRepo := persistence.NewVehicleRepository(db)
	shipmentRepo := persistence.NewShipmentRepository(db)
	depotRepo := persistence.NewDepotRepository(db)
	jobRepo := persistence.NewJobRepository(db)
	routeRepo := persistence.NewRouteRepository(db)

	settings := settingsFromConfig(cfg)

	materializer := services.NewMaterializer(cfg.Solver.DistanceCostPerKm, nil)
	reporter := services.NewProgressReporter(jobRepo, progressIntervalOrDefault(cfg), nil)

	runner := commands.NewRunOptimizationHandler(
		jobRepo,
		vehicleRepo,
		shipmentRepo,
		depotRepo,
		routeRepo,
		solving.NewClient(),
		materializer,
		reporter,
		resultCache,
		settings,
		nil,
	)

	concurrency := cfg.Redis.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	worker := queue.NewWorker(redisOpt, concurrency, runner)

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Worker consuming queue with concurrency %d\n", concurrency)
		errCh <- worker.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("worker error: %w", err)
	case sig := <-quit:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
	}

	worker.Shutdown()
	fmt.Println("Worker stopped")
	return nil
}

func settingsFromConfig(cfg *config.Config) types.Settings {
	return types.Settings{
		Defaults: planning.ParameterDefaults{
			TimeLimitSeconds:   cfg.Solver.DefaultTimeLimitSeconds,
			AmbientTemperature: cfg.Solver.DefaultAmbientTemperature,
			InitialVehicleTemp: cfg.Solver.DefaultInitialVehicleTemp,
		},
		AverageSpeedKmh:      cfg.Solver.AverageSpeedKmh,
		DistanceCostPerKm:    cfg.Solver.DistanceCostPerKm,
		VehicleFixedCost:     cfg.Solver.VehicleFixedCost,
		InfeasibleCost:       cfg.Solver.InfeasibleCost,
		TempViolationPenalty: cfg.Solver.TempViolationPenalty,
		LateDeliveryPenalty:  cfg.Solver.LateDeliveryPenalty,
		ProgressInterval:     progressIntervalOrDefault(cfg),
	}
}

func progressIntervalOrDefault(cfg *config.Config) time.Duration {
	if cfg.Worker.ProgressInterval > 0 {
		return cfg.Worker.ProgressInterval
	}
	return services.DefaultProgressInterval
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/coldroute-go/internal/adapters/api"
	"github.com/andrescamacho/coldroute-go/internal/adapters/metrics"
	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/adapters/queue"
	"github.com/andrescamacho/coldroute-go/internal/application/auth"
	"github.com/andrescamacho/coldroute-go/internal/application/common"
	optimizationCmd "github.com/andrescamacho/coldroute-go/internal/application/optimization/commands"
	optimizationQuery "github.com/andrescamacho/coldroute-go/internal/application/optimization/queries"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/config"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/database"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coldroute-api",
	Short: "Cold-chain route planning HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

var (
	createUserName     string
	createUserEmail    string
	createUserPassword string
	createUserFullName string
	createUserSuper    bool
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an API user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateUser()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: search ., ./configs, /etc/coldroute)")

	createUserCmd.Flags().StringVar(&createUserName, "username", "", "Username (required)")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "Email address")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "Password (required)")
	createUserCmd.Flags().StringVar(&createUserFullName, "full-name", "", "Display name")
	createUserCmd.Flags().BoolVar(&createUserSuper, "superuser", false, "Grant superuser privileges")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createUserCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate() error {
	cfg := config.MustLoadConfig(configPath)

	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	fmt.Println("Applying migrations...")
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println("Migrations applied")
	return nil
}

func runCreateUser() error {
	cfg := config.MustLoadConfig(configPath)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	hashed, err := auth.HashPassword(createUserPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &auth.User{
		ID:             uuid.New(),
		Username:       createUserName,
		Email:          createUserEmail,
		HashedPassword: hashed,
		FullName:       createUserFullName,
		IsSuperuser:    createUserSuper,
		CreatedAt:      time.Now().UTC(),
	}
	if err := persistence.NewUserRepository(db).Save(context.Background(), user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
	return nil
}

func runServe() error {
	cfg := config.MustLoadConfig(configPath)

	fmt.Println("ColdRoute API")
	fmt.Println("=============")

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
	taskQueue := queue.NewAsynqQueue(redisOpt)
	defer taskQueue.Close()
	resultCache := queue.NewResultCache(queue.NewRedisClient(redisOpts))
	fmt.Println("Broker connection initialized")

	if cfg.Server.MetricsEnabled {
		metrics.InitRegistry()
		fmt.Println("Metrics registry initialized")
	}

	// Repositories
	vehicleRepo := persistence.NewVehicleRepository(db)
	shipmentRepo := persistence.NewShipmentRepository(db)
	depotRepo := persistence.NewDepotRepository(db)
	jobRepo := persistence.NewJobRepository(db)
	routeRepo := persistence.NewRouteRepository(db)
	userRepo := persistence.NewUserRepository(db)

	authService := auth.NewService(userRepo, cfg.Auth.SecretKey, cfg.Auth.TokenExpiryMinutes)

	settings := settingsFromConfig(cfg)

	// Mediator and use-case handlers
	med := common.NewMediator()

	submitHandler := optimizationCmd.NewSubmitOptimizationHandler(jobRepo, vehicleRepo, shipmentRepo, taskQueue, settings, nil)
	if err := common.RegisterHandler[*types.SubmitOptimizationCommand](med, submitHandler); err != nil {
		return fmt.Errorf("failed to register SubmitOptimization handler: %w", err)
	}

	cancelHandler := optimizationCmd.NewCancelOptimizationHandler(jobRepo, taskQueue, nil)
	if err := common.RegisterHandler[*types.CancelOptimizationCommand](med, cancelHandler); err != nil {
		return fmt.Errorf("failed to register CancelOptimization handler: %w", err)
	}

	resetHandler := optimizationCmd.NewResetShipmentsHandler(shipmentRepo)
	if err := common.RegisterHandler[*types.ResetShipmentsCommand](med, resetHandler); err != nil {
		return fmt.Errorf("failed to register ResetShipments handler: %w", err)
	}

	statusHandler := optimizationQuery.NewGetJobStatusHandler(jobRepo, resultCache)
	if err := common.RegisterHandler[*types.GetJobStatusQuery](med, statusHandler); err != nil {
		return fmt.Errorf("failed to register GetJobStatus handler: %w", err)
	}

	listHandler := optimizationQuery.NewListJobsHandler(jobRepo)
	if err := common.RegisterHandler[*types.ListJobsQuery](med, listHandler); err != nil {
		return fmt.Errorf("failed to register ListJobs handler: %w", err)
	}

	violationsHandler := optimizationQuery.NewGetViolationsHandler(jobRepo, routeRepo, shipmentRepo)
	if err := common.RegisterHandler[*types.GetViolationsQuery](med, violationsHandler); err != nil {
		return fmt.Errorf("failed to register GetViolations handler: %w", err)
	}

	server := api.NewServer(&cfg.Server, api.Dependencies{
		Auth:      authService,
		Mediator:  med,
		Vehicles:  vehicleRepo,
		Shipments: shipmentRepo,
		Depots:    depotRepo,
		Routes:    routeRepo,
		DB:        db,
		Broker:    resultCache,
	})

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Listening on %s\n", cfg.Server.Address)
		errCh <- server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown did not complete cleanly: %v", err)
	}
	fmt.Println("Server stopped")
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
		ProgressInterval:     cfg.Worker.ProgressInterval,
	}
}

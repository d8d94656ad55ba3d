package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/careportal/careportal/internal/config"
	"github.com/careportal/careportal/internal/domain/billing"
	"github.com/careportal/careportal/internal/domain/catalog"
	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/domain/identity"
	"github.com/careportal/careportal/internal/domain/payment"
	"github.com/careportal/careportal/internal/domain/pharmacy"
	"github.com/careportal/careportal/internal/domain/scheduling"
	"github.com/careportal/careportal/internal/platform/auth"
	"github.com/careportal/careportal/internal/platform/db"
	"github.com/careportal/careportal/internal/platform/gateway"
	"github.com/careportal/careportal/internal/platform/middleware"
	"github.com/careportal/careportal/internal/platform/seed"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "Care Portal API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load development fixtures (hospitals, doctors, medicines, accounts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			catalogSvc := catalog.NewService(
				catalog.NewHospitalRepoPG(pool),
				catalog.NewDoctorRepoPG(pool),
				catalog.NewMedicineRepoPG(pool),
			)
			identitySvc := identity.NewService(
				identity.NewUserRepoPG(pool),
				[]byte(cfg.SessionSecret),
				time.Duration(cfg.SessionTTLMinutes)*time.Minute,
			)

			return seed.Run(ctx, catalogSvc, identitySvc, logger)
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	txRunner := db.NewPoolRunner(pool)

	// Repositories
	hospitalRepo := catalog.NewHospitalRepoPG(pool)
	doctorRepo := catalog.NewDoctorRepoPG(pool)
	medicineRepo := catalog.NewMedicineRepoPG(pool)
	userRepo := identity.NewUserRepoPG(pool)
	apptRepo := scheduling.NewAppointmentRepoPG(pool)
	orderRepo := pharmacy.NewOrderRepoPG(pool)
	billRepo := billing.NewBillRepoPG(pool)
	paymentRepo := payment.NewPaymentRepoPG(pool)

	// Services. The payment service and the gateway simulator reference
	// each other (charges go out, outcomes come back), so the simulator's
	// callback closes over a variable assigned right after.
	catalogSvc := catalog.NewService(hospitalRepo, doctorRepo, medicineRepo)
	identitySvc := identity.NewService(userRepo, []byte(cfg.SessionSecret), time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	billingSvc := billing.NewService(billRepo)
	schedulingSvc := scheduling.NewService(apptRepo, catalogSvc, billingSvc, txRunner, cfg.AppointmentFee)
	pharmacySvc := pharmacy.NewService(orderRepo, catalogSvc, billingSvc, txRunner)

	var paymentSvc *payment.Service
	sim := gateway.NewSimulator(
		time.Duration(cfg.GatewayDelayMs)*time.Millisecond,
		cfg.GatewaySuccessPct,
		func(ctx context.Context, transactionID, status string, gatewayResponse *string) {
			_, err := paymentSvc.ReportOutcome(ctx, transactionID, status, gatewayResponse)
			switch {
			case errors.Is(err, errs.ErrAlreadyFinalized):
				logger.Info().Str("transaction_id", transactionID).Msg("callback for finalized payment ignored")
			case err != nil:
				logger.Error().Err(err).Str("transaction_id", transactionID).Msg("gateway callback rejected")
			}
		},
		logger,
	)
	defer sim.Close()
	paymentSvc = payment.NewService(paymentRepo, billingSvc, schedulingSvc, sim, txRunner)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeoutSec) * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	e.GET("/health", db.HealthHandler(pool))

	// Public endpoints: registration, login, and the gateway webhook. The
	// webhook authenticates by transaction id, not by session.
	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(rateLimitCfg))

	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterPublicRoutes(public)

	paymentHandler := payment.NewHandler(paymentSvc, logger)
	paymentHandler.RegisterCallbackRoutes(public)

	// Session-scoped API
	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(rateLimitCfg))
	if cfg.IsDev() && cfg.SessionSecret == "" {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.SessionMiddleware([]byte(cfg.SessionSecret)))
	}

	identityHandler.RegisterRoutes(api)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(api)
	billing.NewHandler(billingSvc).RegisterRoutes(api)
	paymentHandler.RegisterRoutes(api)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}

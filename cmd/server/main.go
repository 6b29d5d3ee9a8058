package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"health-records-api/internal/config"
	"health-records-api/internal/grpcweb"
	"health-records-api/internal/handler"
	"health-records-api/internal/httpapi"
	"health-records-api/internal/middleware"
	"health-records-api/internal/model"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
	"health-records-api/internal/suggest"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "health-records",
		Short:         "Health records API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, func(), error) {
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, err
	}
	return store.New(db), db.Close, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server and the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)
	ctx := context.Background()

	// database
	st, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	logger.Info().Str("driver", cfg.DBDriver).Msg("database connected")

	n, err := st.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Int("applied", n).Msg("migrations up to date")

	if cfg.SeedOnStart {
		if err := seed(ctx, st, logger); err != nil {
			return err
		}
	}

	// suggestions
	gen, closeGen := newGenerator(ctx, cfg, logger)
	defer closeGen()
	sg := suggest.NewService(st, gen)

	h := handler.New(st, sg, cfg.JWTSecret, logger)
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rl.Close()

	// grpc
	srv := handler.NewServer(h, cfg.JWTSecret, rl, logger)
	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("grpc server listening")
		if err := srv.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	// grpc-web bridge and http routes
	bridge, err := grpcweb.New("localhost:"+cfg.Port, logger)
	if err != nil {
		return err
	}
	defer bridge.Close()

	e := httpapi.New(h, st, bridge.Handler(), rl, httpapi.Options{
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: cfg.IsProduction(),
	}, logger)
	go func() {
		addr := ":" + cfg.WebPort
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	srv.GracefulStop()
	logger.Info().Msg("server stopped")
	return nil
}

// newGenerator picks the remote inference endpoint when configured and
// caches its answers in redis when a REDIS_URL is set.
func newGenerator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (suggest.Generator, func()) {
	if cfg.SuggestURL == "" {
		logger.Warn().Msg("SUGGEST_URL not set, using canned suggestions")
		return suggest.CannedGenerator{}, func() {}
	}
	var gen suggest.Generator = suggest.NewHTTPGenerator(cfg.SuggestURL, cfg.SuggestToken)
	if cfg.RedisURL == "" {
		return gen, func() {}
	}
	cache, err := suggest.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, suggestions are not cached")
		return gen, func() {}
	}
	logger.Info().Dur("ttl", cfg.SuggestCacheTTL).Msg("suggestion cache enabled")
	return &suggest.CachedGenerator{Next: gen, Cache: cache, TTL: cfg.SuggestCacheTTL}, func() { cache.Close() }
}

func seed(ctx context.Context, st *store.Store, logger zerolog.Logger) error {
	f, err := store.DemoFixture()
	if err != nil {
		return err
	}
	res, err := st.Seed(ctx, f)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.Info().Bool("admin_created", res.AdminCreated).Int("patients", res.Patients).Msg("demo data seeded")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, closeDB, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			count, err := st.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, closeDB, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			statuses, err := store.NewMigrator(st.DB()).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				state, appliedAt := "pending", ""
				if s.Applied {
					state = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, appliedAt)
			}
			return nil
		},
	})
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, closeDB, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			if _, err := st.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return seed(ctx, st, newLogger(cfg))
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			name, _ := cmd.Flags().GetString("name")
			role, _ := cmd.Flags().GetString("role")
			password, _ := cmd.Flags().GetString("password")
			email, _ := cmd.Flags().GetString("email")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, closeDB, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			// the CLI acts with admin rights so accounts pass the same checks as the API
			h := handler.New(st, nil, cfg.JWTSecret, newLogger(cfg))
			u, err := h.CreateUser(middleware.WithUser(ctx, "cli", model.RoleAdmin), &rpc.CreateUserRequest{
				Username: username,
				Name:     name,
				Role:     role,
				Password: password,
				Email:    email,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %s (%s)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login name")
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("role", model.RoleStaff, "admin, doctor, nurse or staff")
	createCmd.Flags().String("password", "", "Initial password (at least 8 characters)")
	createCmd.Flags().String("email", "", "Email address")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")

	cmd.AddCommand(createCmd)
	return cmd
}

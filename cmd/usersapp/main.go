package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coticdev/usersapp/internal/auth"
	"github.com/coticdev/usersapp/internal/bootstrap"
	"github.com/coticdev/usersapp/internal/config"
	httpserver "github.com/coticdev/usersapp/internal/http"
	userssvc "github.com/coticdev/usersapp/internal/http/services/users"
	"github.com/coticdev/usersapp/internal/infra/cachefactory"
	jwtx "github.com/coticdev/usersapp/internal/jwt"
	"github.com/coticdev/usersapp/internal/observability/logger"
	"github.com/coticdev/usersapp/internal/policy"
	"github.com/coticdev/usersapp/internal/store"
	storefactory "github.com/coticdev/usersapp/internal/store/factory"
	"github.com/coticdev/usersapp/internal/store/pg"
	pgmigrations "github.com/coticdev/usersapp/migrations/postgres"
)

func main() {
	// .env es opcional: facilita el arranque local sin exportar variables.
	_ = godotenv.Load()

	var cfgPath string
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "usersapp",
		Short:         "Servicio de gestión de usuarios con autenticación por token",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg = c
			logger.Init(logger.Config{
				Level:       cfg.Log.Level,
				Env:         cfg.App.Env,
				ServiceName: "usersapp",
			})
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", envOr("CONFIG_PATH", ""), "ruta al config.yaml (opcional)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Arranca el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes (solo driver postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cfg)
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea roles del sistema y la cuenta admin inicial si no hay usuarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cfg)
		},
	}

	root.AddCommand(serveCmd, migrateCmd, seedCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runServe(ctx context.Context, cfg *config.Config) error {
	defer func() { _ = logger.Sync() }()
	log := logger.Named("serve")

	repo, err := storefactory.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("abriendo store: %w", err)
	}
	defer repo.Close()
	log.Info("store abierto", logger.Driver(cfg.Storage.Driver))

	if cfg.Flags.Migrate && cfg.Storage.Driver == store.DriverPostgres {
		if err := migratePG(ctx, repo); err != nil {
			return err
		}
	}

	cacheImpl, err := cachefactory.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("abriendo caché: %w", err)
	}
	roles := store.NewCachedRoles(repo.Roles(), cacheImpl, 0)

	if err := bootstrap.EnsureRoles(ctx, roles); err != nil {
		return err
	}
	if cfg.Bootstrap.Seed {
		if err := bootstrap.SeedIfEmpty(ctx, repo, bootstrap.SeedOptions{
			AdminUsername: cfg.Bootstrap.AdminUsername,
			AdminPassword: cfg.Bootstrap.AdminPassword,
			AdminEmail:    cfg.Bootstrap.AdminEmail,
		}); err != nil {
			return err
		}
	}

	codec := jwtx.NewCodec([]byte(cfg.JWT.Secret), cfg.AccessTTL(), cfg.JWT.Issuer)
	authService := auth.NewService(auth.NewVerifier(repo.Users()), codec)
	usersService := userssvc.NewService(userssvc.Deps{
		Users: repo.Users(),
		Roles: roles,
	})

	metricsHandler, err := httpserver.RegisterMetrics(nil)
	if err != nil {
		return fmt.Errorf("registrando métricas: %w", err)
	}

	handler := httpserver.NewRouter(httpserver.RouterDeps{
		Codec:              codec,
		Policy:             policy.Default(store.RoleUser, store.RoleAdmin),
		AuthService:        authService,
		UsersService:       usersService,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MetricsHandler:     metricsHandler,
		Ready:              func() error { return repo.Ping(ctx) },
	})

	srv := httpserver.NewServer(cfg.Server.Addr, handler, httpserver.ServerOptions{
		ReadTimeout:     cfg.ReadTimeout(),
		WriteTimeout:    cfg.WriteTimeout(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.Driver != store.DriverPostgres {
		return fmt.Errorf("migrate requiere driver postgres (driver actual: %q)", cfg.Storage.Driver)
	}
	repo, err := storefactory.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("abriendo store: %w", err)
	}
	defer repo.Close()
	return migratePG(ctx, repo)
}

func migratePG(ctx context.Context, repo store.Repository) error {
	pgRepo, ok := repo.(pg.Pooler)
	if !ok {
		return fmt.Errorf("el store abierto no expone un pool de postgres")
	}
	return pgmigrations.Run(ctx, pgRepo.Pool())
}

func runSeed(ctx context.Context, cfg *config.Config) error {
	defer func() { _ = logger.Sync() }()

	repo, err := storefactory.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("abriendo store: %w", err)
	}
	defer repo.Close()

	if err := bootstrap.EnsureRoles(ctx, repo.Roles()); err != nil {
		return err
	}
	return bootstrap.SeedIfEmpty(ctx, repo, bootstrap.SeedOptions{
		AdminUsername: cfg.Bootstrap.AdminUsername,
		AdminPassword: cfg.Bootstrap.AdminPassword,
		AdminEmail:    cfg.Bootstrap.AdminEmail,
	})
}

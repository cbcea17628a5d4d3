package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"mspsf/fbsession/internal/config"
	"mspsf/fbsession/internal/facebook"
	"mspsf/fbsession/internal/handler"
	"mspsf/fbsession/internal/model"
	"mspsf/fbsession/internal/repository"
	jwtpkg "mspsf/fbsession/pkg/jwt"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "fbsession",
		Short:         "Facebook session persistence and Graph response caching",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	root.AddCommand(serveCmd(), migrateCmd(), extendTokenCmd(), issueTokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the host API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := cfg.JWT.Validate(); err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			client, err := newFacebookClient(cfg, store, logger)
			if err != nil {
				return err
			}

			jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
			router := handler.SetupRouter(cfg, logger, jwtManager,
				handler.NewSessionHandler(client),
				handler.NewGraphHandler(client),
			)

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      router,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			go func() {
				logger.Info("server starting", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("server failed", zap.Error(err))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			logger.Info("shutting down server...")

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.GracefulShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			logger.Info("server exited gracefully")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the options table",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := model.AutoMigrate(db); err != nil {
				return fmt.Errorf("auto-migrate: %w", err)
			}
			logger.Info("database migration completed", zap.String("backend", cfg.Store.Backend))
			return nil
		},
	}
}

func extendTokenCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "extend-token",
		Short: "Exchange the stored access token for a long-lived one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			client, err := newFacebookClient(cfg, store, logger)
			if err != nil {
				return err
			}
			if user != "" {
				userID, err := uuid.Parse(user)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				client = client.ForUser(userID.String())
			}
			token, ok := client.ExtendAccessToken(cmd.Context())
			if !ok {
				return errors.New("no token obtained")
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "host user UUID whose token is extended")
	return cmd
}

func issueTokenCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Mint a bearer token for the host API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.JWT.Validate(); err != nil {
				return err
			}
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			token, err := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL).
				GenerateAccessToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "host user UUID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func newFacebookClient(cfg *config.Config, store repository.KeyValueStore, logger *zap.Logger) (*facebook.Client, error) {
	fc := facebook.Config{
		AppID:             cfg.Facebook.AppID,
		AppSecret:         cfg.Facebook.AppSecret,
		GraphURL:          cfg.Facebook.GraphURL,
		FileUploadSupport: cfg.Facebook.FileUpload,
		CacheTTL:          cfg.Facebook.CacheTTL,
		Timeout:           cfg.Facebook.Timeout,
		UserAgent:         cfg.Facebook.UserAgent,
	}
	if cfg.Facebook.CABundlePath != "" {
		bundle, err := os.ReadFile(cfg.Facebook.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		fc.CABundle = bundle
	}
	return facebook.NewClient(fc, store, logger)
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Store.Backend {
	case "postgres":
		return config.NewPostgresDB(cfg.Database.Postgres)
	case "sqlite":
		return config.NewSQLiteDB(cfg.Database.SQLite)
	default:
		return nil, fmt.Errorf("store backend %q has no options table", cfg.Store.Backend)
	}
}

// openStore selects the key-value backend; the returned func releases it.
func openStore(cfg *config.Config, logger *zap.Logger) (repository.KeyValueStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case "memory":
		logger.Info("using in-memory key-value store")
		return repository.NewMemoryKeyValueStore(nil), noop, nil
	case "redis":
		client, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("using Redis key-value store")
		return repository.NewRedisKeyValueStore(client), func() { _ = client.Close() }, nil
	case "valkey":
		client, err := config.NewValkeyClient(cfg.Database.Valkey)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using Valkey key-value store")
		return repository.NewValkeyKeyValueStore(client), client.Close, nil
	case "postgres", "sqlite":
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", cfg.Store.Backend, err)
		}
		autoMigrate := cfg.Database.Postgres.AutoMigrate
		if cfg.Store.Backend == "sqlite" {
			autoMigrate = cfg.Database.SQLite.AutoMigrate
		}
		if autoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				return nil, nil, fmt.Errorf("auto-migrate: %w", err)
			}
			logger.Info("database migration completed")
		}
		logger.Info("using options-table key-value store", zap.String("backend", cfg.Store.Backend))
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewOptionKeyValueStore(db, nil), closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/St1cky1/service-tasks/internal/api"
	grpcapi "github.com/St1cky1/service-tasks/internal/api/grpc"
	"github.com/St1cky1/service-tasks/internal/config"
	"github.com/St1cky1/service-tasks/internal/database"
	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/infrastructure/auth"
	"github.com/St1cky1/service-tasks/internal/infrastructure/client"
	"github.com/St1cky1/service-tasks/internal/infrastructure/storage"
	"github.com/St1cky1/service-tasks/internal/notify"
	"github.com/St1cky1/service-tasks/internal/repository"
	"github.com/St1cky1/service-tasks/internal/usecase"
	"github.com/St1cky1/service-tasks/internal/worker"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout      = 10 * time.Second
	tokenCleanupInterval = time.Hour
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API, gRPC аналитика и фоновые воркеры",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "не применять миграции при старте")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrations {
		if err := database.MigrateUp(cfg.DatabaseURL(), cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Println("✅ Миграции выполнены успешно")
	}

	pg, err := client.NewPostgresClient(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pg.Close()
	log.Println("✅ Подключение к PostgreSQL установлено")

	rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQURL(), cfg.RabbitMQ.Queue)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer rabbitMQ.Close()
	log.Println("✅ Подключение к RabbitMQ установлено")

	files, err := storage.NewDiskStorage(cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	hub := notify.NewHub()

	// Репозитории
	taskRepo := repository.NewTaskRepository(pg.Pool)
	serviceRepo := repository.NewServiceRepository(pg.Pool)
	commentRepo := repository.NewCommentRepository(pg.Pool)
	attachmentRepo := repository.NewAttachmentRepository(pg.Pool)
	auditRepo := repository.NewTaskAuditRepository(pg.Pool)
	accountRepo := repository.NewAccountRepository(pg.Pool)
	refreshTokenRepo := repository.NewRefreshTokenRepository(pg.Pool)

	// Сервисы
	taskService := usecase.NewTaskService(usecase.TaskServiceDeps{
		Tasks:       taskRepo,
		Services:    serviceRepo,
		Comments:    commentRepo,
		Attachments: attachmentRepo,
		Audit:       auditRepo,
		Storage:     files,
		Events:      rabbitMQ,
		Notifier:    hub,
		Location:    loc,
	})
	registry := usecase.NewServiceRegistry(serviceRepo, hub)
	authService := usecase.NewAuthService(
		accountRepo,
		refreshTokenRepo,
		serviceRepo,
		auth.NewPasswordManager(bcrypt.DefaultCost),
		auth.NewJWTManager(cfg.JWTSecret),
	)
	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	analytics := usecase.NewAnalytics(time.Now, loc)
	refresher := usecase.NewRefresher(taskService, analytics, cfg.StoreTimeout)
	if cfg.Redis.Addr != "" {
		cache, err := attachDashboardCache(ctx, cfg, refresher)
		if err != nil {
			log.Printf("❌ Кэш панели недоступен: %v", err)
		} else {
			defer cache.Close()
		}
	}

	srv := grpcapi.NewServer(grpcapi.Deps{
		Tasks:     taskService,
		Services:  registry,
		Dashboard: refresher,
		Analytics: analytics,
		Auth:      authService,
	})
	grpcServer := grpcapi.NewGRPCServer(srv)
	gateway, err := grpcapi.NewGatewayHandler(srv)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: api.NewRouter(api.RouterDeps{
			Tasks:              taskService,
			Services:           registry,
			Auth:               authService,
			Gateway:            gateway,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			Health:             pg.HealthCheck,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Запуск HTTP сервера на %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("Запуск gRPC сервера на %s", cfg.GRPCAddr())
		return grpcServer.Serve(grpcListener)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Завершение работы...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return client.NewChangeListener(pg.Pool, hub).Run(gctx)
	})
	g.Go(func() error {
		refresher.Run(gctx, hub.Subscribe())
		return nil
	})
	g.Go(func() error {
		return worker.NewAuditWorker(cfg.RabbitMQURL(), cfg.RabbitMQ.Queue, auditRepo).Start(gctx)
	})
	g.Go(func() error {
		return worker.NewOverdueWorker(taskService, rabbitMQ, cfg.OverdueCheckInterval, cfg.StoreTimeout).Start(gctx)
	})
	g.Go(func() error {
		return worker.NewTokenCleaner(refreshTokenRepo, tokenCleanupInterval).Start(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("✅ Приложение завершено корректно")
	return nil
}

// attachDashboardCache - панель из Redis до первого пересчета и запись каждой свежей
func attachDashboardCache(ctx context.Context, cfg *config.Config, refresher *usecase.Refresher) (*client.DashboardCache, error) {
	rdb, err := client.NewRedisClient(cfg.Redis.Addr)
	if err != nil {
		return nil, err
	}
	cache := client.NewDashboardCache(rdb, cfg.Redis.Key, cfg.Redis.TTL)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if d, err := cache.Load(loadCtx); err != nil {
		log.Printf("❌ Не удалось прочитать панель из Redis: %v", err)
	} else if d != nil {
		refresher.Seed(d)
	}

	refresher.OnUpdate(func(d *entity.Dashboard) {
		if d.Error != "" {
			return
		}
		saveCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		if err := cache.Save(saveCtx, d); err != nil {
			log.Printf("❌ Не удалось сохранить панель в Redis: %v", err)
		}
	})
	return cache, nil
}

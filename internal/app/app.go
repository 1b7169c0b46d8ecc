package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/internal/auth"
	config "github.com/spams12/gege/internal/cfg"
	v1Grpc "github.com/spams12/gege/internal/delivery/v1/grpc"
	v1Http "github.com/spams12/gege/internal/delivery/v1/http"
	"github.com/spams12/gege/internal/infrastructure/idgen"
	"github.com/spams12/gege/internal/infrastructure/kafka"
	minioInfra "github.com/spams12/gege/internal/infrastructure/minio"
	s3Repo "github.com/spams12/gege/internal/repository/minio"
	"github.com/spams12/gege/internal/repository/pgdb"
	pgdbConv "github.com/spams12/gege/internal/repository/pgdb/converter"
	"github.com/spams12/gege/internal/repository/redis"
	redisConv "github.com/spams12/gege/internal/repository/redis/converter"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/clients"
	"github.com/spams12/gege/pkg/closer"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
	"github.com/spams12/gege/pkg/postgres"
	"github.com/spams12/gege/pkg/tr"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout     = 15 * time.Second
	forcedCloseTimeout  = 3 * time.Second
	dependencyTimeout   = 10 * time.Second
	kafkaTopicTimeout   = 10 * time.Second
	redisConnectTimeout = 5 * time.Second
)

// App держит собранные зависимости сервиса и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	outbox  *kafka.OutboxWorker

	// Контекст фоновых задач. Отменяется последним шагом остановки.
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// NewApp подключает хранилища и брокер и собирает usecase-слой. При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (_ *App, err error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	app := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(forcedCloseTimeout),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
	app.closer.Add("background context", func(context.Context) error {
		bgCancel()
		return nil
	})

	defer func() {
		if err == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := app.closer.Close(ctx); closeErr != nil {
			log.Warnf("Cleanup after failed start: %v", closeErr)
		}
	}()

	// === PostgreSQL ===
	db, err := initPGDB(log, cfg.Db)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverter())
	categoryRepo := pgdb.NewCategoryRepo(db.Pool, pgdbConv.NewCategoryConverter())
	brandRepo := pgdb.NewBrandRepo(db.Pool, pgdbConv.NewBrandConverter())
	customerRepo := pgdb.NewCustomerRepo(db.Pool, pgdbConv.NewCustomerConverter())
	bidRepo := pgdb.NewBidRepo(db.Pool, pgdbConv.NewBidConverter())
	orderRepo := pgdb.NewOrderRepo(db.Pool, pgdbConv.NewOrderConverter())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverter())
	txManager := tr.NewManager(db.Pool)

	// === Redis ===
	redisClient := clients.NewRedisClient(cfg.Redis)
	app.closer.Add("redis", redisClient.Close)

	redisCtx, redisCancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewProductConverter(), cfg.Redis, log)

	// === MinIO ===
	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		log.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), dependencyTimeout)
	defer minioCancel()
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio); err != nil {
		log.Errorf(err, "failed to initialize MinIO bucket")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	archive := minioInfra.NewOrderArchive(s3Repo.NewObjectRepo(minioClient, cfg.Minio), cfg.Minio.UploadRetries, log, bgCtx)
	app.closer.Add("order archive", archive.Wait)

	// === Kafka ===
	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		log.Errorf(err, "failed to initialize kafka producer")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.closer.Add("kafka producer", producer.Close)

	topicCtx, topicCancel := context.WithTimeout(context.Background(), kafkaTopicTimeout)
	defer topicCancel()
	if err := producer.EnsureTopic(topicCtx); err != nil {
		log.Errorf(err, "failed to ensure kafka topic")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	app.outbox = kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn, cfg.Kafka.OutboxBatchSize)
	app.closer.Add("outbox worker", app.outbox.Stop)

	// === Usecases ===
	orderIDs, err := idgen.NewOrderIDs(cfg.Checkout.SnowflakeNode)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	policy := usecase.CheckoutPolicy{
		Total:     usecase.TotalPolicy(cfg.Checkout.TotalPolicy),
		Tolerance: cfg.Checkout.TotalTolerance,
	}

	productUC := usecase.NewProductUC(productRepo, categoryRepo, brandRepo, cacheRepo, log)
	bidUC := usecase.NewBidUC(txManager, productRepo, bidRepo, outboxRepo, cacheRepo, log)
	orderUC := usecase.NewOrderUC(txManager, productRepo, orderRepo, outboxRepo, customerRepo, cacheRepo, cacheRepo,
		archive, orderIDs, policy, log)
	accountUC := usecase.NewAccountUC(txManager, customerRepo, log)

	// === Delivery ===
	app.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, log)
	app.grpcSrv.RegisterServices()
	app.closer.Add("grpc server", app.grpcSrv.Stop)

	r := chi.NewRouter()
	v1Http.NewRouter(r, log).Init(v1Http.Deps{
		Products:       productUC,
		Bids:           bidUC,
		Orders:         orderUC,
		Accounts:       accountUC,
		Verifier:       auth.NewJWTVerifier(cfg.Auth),
		RequestTimeout: cfg.Http.RequestTimeout,
	})

	app.httpSrv = v1Http.NewServer(r, cfg.Http)
	app.closer.Add("http server", func(ctx context.Context) error {
		app.grpcSrv.SetServing(false)
		return app.httpSrv.Stop(ctx)
	})

	return app, nil
}

// Run запускает серверы и воркер и блокируется до сигнала остановки или падения одного из серверов.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.outbox.Start(a.bgCtx)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			return e.Wrap("grpc server", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		a.grpcSrv.SetServing(true)
		if err := a.httpSrv.Run(); err != nil {
			return e.Wrap("http server", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Infof("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return a.closer.Close(shutdownCtx)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Errorf(err, "Application stopped with error")
		return err
	}

	a.logger.Infof("Application shutdown complete")
	return nil
}

func initPGDB(logger logger.Logger, cfg *config.PGDBCfg) (*postgres.PgDatabase, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dependencyTimeout)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg)
	if err != nil {
		logger.Errorf(err, "failed to connect to database %s:%s", cfg.Host, cfg.Port)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations from %s", cfg.MigrationsPath)
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

// caseflow serves the request workflow and SLA engine: the statutory state
// machine, the working-day clock, assessments, information requests and
// payment tracking behind one HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rhymond/go-money"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"caseflow/internal/assessment"
	assessmenthandler "caseflow/internal/assessment/handler"
	assessmentservice "caseflow/internal/assessment/service"
	assessmentstore "caseflow/internal/assessment/store"
	"caseflow/internal/audit"
	"caseflow/internal/calendar"
	calendarmetrics "caseflow/internal/calendar/metrics"
	"caseflow/internal/identity"
	paymenthandler "caseflow/internal/payment/handler"
	paymentservice "caseflow/internal/payment/service"
	paymentstore "caseflow/internal/payment/store"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/logger"
	"caseflow/internal/platform/metrics"
	platformredis "caseflow/internal/platform/redis"
	rfihandler "caseflow/internal/rfi/handler"
	rfiservice "caseflow/internal/rfi/service"
	rfistore "caseflow/internal/rfi/store"
	slastore "caseflow/internal/sla/store"
	transporthttp "caseflow/internal/transport/http"
	wfhandler "caseflow/internal/workflow/handler"
	wfmodels "caseflow/internal/workflow/models"
	wfservice "caseflow/internal/workflow/service"
	wfstore "caseflow/internal/workflow/store"
	"caseflow/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	runner := tx.NewPostgresRunner(db)

	// Council calendars: static holiday config behind the Redis cache when
	// one is configured.
	var calendarOpts []calendar.CachedProviderOption
	calendarOpts = append(calendarOpts,
		calendar.WithLogger(log),
		calendar.WithMetrics(calendarmetrics.New()),
	)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		calendarOpts = append(calendarOpts, calendar.WithCache(calendar.NewRedisCache(redisClient)))
	}
	calendars := calendar.NewService(calendar.NewCachedProvider(
		calendar.NewStaticProvider(cfg.Holidays), calendarOpts...))

	// Audit trail: channel worker into Postgres, plus Kafka for downstream
	// notification consumers when brokers are configured.
	auditSink, auditInbox := audit.NewChannelSink(256, log, m.IncAuditPublishFailures)
	auditWorker := audit.NewWorker(audit.NewPostgresStore(db), auditInbox, log)
	sinks := []audit.Sink{auditSink}
	var kafkaSink *audit.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log, m.IncAuditPublishFailures)
		if err != nil {
			return err
		}
		sinks = append(sinks, kafkaSink)
	}

	workflow := wfservice.New(
		wfstore.NewPostgresRequestStore(db),
		wfstore.NewPostgresHistoryStore(db),
		slastore.NewPostgres(db),
		calendars,
		runner,
		cfg.Workflow,
		wfservice.WithLogger(log),
		wfservice.WithMetrics(m),
		wfservice.WithAuditPublisher(audit.NewRecorder(sinks...)),
	)

	templates := assessment.NewMemoryTemplateStore()
	if cfg.TemplateFile != "" {
		if err := assessment.LoadTemplateFile(cfg.TemplateFile, templates); err != nil {
			return err
		}
	}
	assessments := assessmentservice.New(
		assessmentstore.NewPostgresProjectStore(db),
		assessmentstore.NewPostgresTaskStore(db),
		templates,
		assessment.NewRateCard(cfg.HourlyRates, cfg.Currency),
		runner,
		assessmentservice.WithLogger(log),
		assessmentservice.WithMetrics(m),
	)
	payments := paymentservice.New(
		paymentstore.NewPostgresRecordStore(db),
		runner,
		cfg.Workflow,
		paymentservice.WithLogger(log),
	)
	rfis := rfiservice.New(
		rfistore.NewPostgresRFIStore(db),
		workflow,
		calendars,
		cfg.Workflow,
		rfiservice.WithLogger(log),
	)

	workflow.RegisterHook(wfmodels.StateAcknowledged, wfservice.HookFunc(
		func(ctx context.Context, req *wfmodels.Request, _ wfmodels.State) error {
			return assessments.CreateForRequest(ctx, req.ID, req.Type, req.Council)
		}))
	workflow.RegisterGuard(wfmodels.StatePendingDecision, wfservice.GuardFunc(
		func(ctx context.Context, req *wfmodels.Request) error {
			return assessments.CheckDecisionReady(ctx, req.ID)
		}))
	// The payment record opens at the assessment's rolled-up cost.
	initPayment := wfservice.HookFunc(func(ctx context.Context, req *wfmodels.Request, _ wfmodels.State) error {
		var amount *money.Money
		if project, _, err := assessments.GetByRequest(ctx, req.ID); err == nil {
			amount = project.ActualCost
		}
		return payments.InitializeForRequest(ctx, req.ID, amount)
	})
	workflow.RegisterHook(wfmodels.StateApproved, initPayment)
	workflow.RegisterHook(wfmodels.StateApprovedWithConditions, initPayment)
	workflow.RegisterGuard(wfmodels.StateCompleted, wfservice.GuardFunc(
		func(ctx context.Context, req *wfmodels.Request) error {
			return payments.CheckSettled(ctx, req.ID, req.Type)
		}))

	tokens := identity.NewTokenService(cfg.Server.JWTSigningKey, "caseflow")
	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		Logger:    log,
		Metrics:   m,
		Validator: tokens,
		Handlers: []transporthttp.Registrar{
			wfhandler.New(workflow, log),
			assessmenthandler.New(assessments, log),
			paymenthandler.New(payments, log),
			rfihandler.New(rfis, log),
		},
		Health: []func() error{
			func() error { return db.PingContext(context.Background()) },
			func() error {
				if redisClient == nil {
					return nil
				}
				return redisClient.Health(context.Background())
			},
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("caseflow listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := auditWorker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if kafkaSink != nil {
			_ = kafkaSink.Close(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

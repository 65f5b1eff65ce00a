package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/dto"
	"github.com/oakfield-hms/roster-api/internal/notify"
	"github.com/oakfield-hms/roster-api/internal/repository"
	"github.com/oakfield-hms/roster-api/internal/service"
	"github.com/oakfield-hms/roster-api/pkg/cache"
	"github.com/oakfield-hms/roster-api/pkg/config"
	"github.com/oakfield-hms/roster-api/pkg/database"
	"github.com/oakfield-hms/roster-api/pkg/export"
	"github.com/oakfield-hms/roster-api/pkg/jobs"
	"github.com/oakfield-hms/roster-api/pkg/logger"
	"github.com/oakfield-hms/roster-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("worker exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	departmentRepo := repository.NewDepartmentRepository(db)
	templateRepo := repository.NewShiftTemplateRepository(db)
	shiftRepo := repository.NewGeneratedShiftRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	rotationRepo := repository.NewRotationStateRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	policyRepo := repository.NewWeekendPolicyRepository(db)
	swapRepo := repository.NewSwapRequestRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	validate := validator.New()
	collectors := metrics.New()
	genLock := cache.NewGenerationLock(redisClient, cfg.Scheduler.LockTTL)
	notifier := notify.NewShortagePublisher(redisClient, log)

	loader := service.NewContextLoader(
		departmentRepo, templateRepo, assignmentRepo, availabilityRepo,
		rotationRepo, preferenceRepo, policyRepo, shiftRepo, log,
	)
	assignmentSvc := service.NewAssignmentService(shiftRepo, rotationRepo, notifier, log)
	rotationSvc := service.NewRotationService(loader, assignmentSvc, rotationRepo, validate, log)
	incrementalSvc := service.NewIncrementalService(assignmentRepo, templateRepo, departmentRepo, shiftRepo, cfg.Scheduler, log)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, shiftRepo, log)
	swapSvc := service.NewSwapService(db, swapRepo, shiftRepo, historyRepo, availabilitySvc, validate, log)
	exportSvc := service.NewExportService(shiftRepo, departmentRepo, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Export.StorageDir, log)

	handler := func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case jobs.TypeGenerateMonthly:
			req, ok := job.Payload.(dto.GenerateMonthlyRequest)
			if !ok {
				return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
			}
			return generateMonthly(ctx, req, rotationSvc, exportSvc, genLock, collectors, log)
		default:
			return fmt.Errorf("job %s: unknown type %s", job.ID, job.Type)
		}
	}
	queue := jobs.NewQueue("generation", handler, jobs.QueueConfig{
		Workers:    cfg.Scheduler.JobWorkers,
		MaxRetries: cfg.Scheduler.JobRetries,
		RetryDelay: cfg.Scheduler.JobRetryDelay,
		Logger:     log,
	})
	queue.Start(ctx)
	defer queue.Stop()

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: collectors.Handler(),
	}
	go func() {
		log.Info("metrics listener started", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listener failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	runIncremental := func(seedMode bool) {
		mode := "incremental"
		if seedMode {
			mode = "seed"
		}
		started := time.Now()
		created, err := incrementalSvc.GenerateIncrementalShifts(ctx, seedMode)
		collectors.GenerationDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
		if err != nil {
			log.Error("incremental generation failed", zap.String("mode", mode), zap.Error(err))
			return
		}
		collectors.ShiftsGenerated.WithLabelValues("all", mode).Add(float64(created))
	}

	enqueueMonthly := func() {
		departments, err := departmentRepo.ListActive(ctx)
		if err != nil {
			log.Error("failed to list departments for monthly generation", zap.Error(err))
			return
		}
		next := time.Now().UTC().AddDate(0, 1, 0)
		for _, dept := range departments {
			job := jobs.Job{
				ID:   fmt.Sprintf("monthly-%s-%04d-%02d", dept.ID, next.Year(), int(next.Month())),
				Type: jobs.TypeGenerateMonthly,
				Payload: dto.GenerateMonthlyRequest{
					DepartmentID: dept.ID,
					Year:         next.Year(),
					Month:        int(next.Month()),
				},
			}
			if err := queue.Enqueue(job); err != nil {
				log.Error("failed to enqueue monthly generation",
					zap.String("department_id", dept.ID), zap.Error(err))
			}
		}
	}

	// Initial horizon fill, then the periodic sweeps.
	runIncremental(false)
	enqueueMonthly()

	incrementalTicker := time.NewTicker(cfg.Scheduler.IncrementalEvery)
	defer incrementalTicker.Stop()
	seedTicker := time.NewTicker(cfg.Scheduler.SeedEvery)
	defer seedTicker.Stop()
	swapTicker := time.NewTicker(cfg.Scheduler.SwapSweepEvery)
	defer swapTicker.Stop()

	log.Info("roster worker started",
		zap.Duration("incremental_every", cfg.Scheduler.IncrementalEvery),
		zap.Duration("seed_every", cfg.Scheduler.SeedEvery),
		zap.Duration("swap_sweep_every", cfg.Scheduler.SwapSweepEvery))

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return nil
		case <-incrementalTicker.C:
			runIncremental(false)
		case <-seedTicker.C:
			runIncremental(true)
			enqueueMonthly()
		case <-swapTicker.C:
			expired, err := swapSvc.ExpireStaleSwaps(ctx)
			if err != nil {
				log.Error("stale swap sweep failed", zap.Error(err))
				continue
			}
			collectors.StaleSwapsRejected.Add(float64(expired))
			collectors.SwapsProcessed.WithLabelValues("EXPIRED").Add(float64(expired))
		}
	}
}

// generateMonthly runs one department-month generation under the Redis lease
// so concurrent workers never double-generate.
func generateMonthly(ctx context.Context, req dto.GenerateMonthlyRequest, svc *service.RotationService, exporter *service.ExportService, lock *cache.GenerationLock, collectors *metrics.Metrics, log *zap.Logger) error {
	month := time.Month(req.Month)
	token, ok, err := lock.Acquire(ctx, req.DepartmentID, req.Year, month)
	if err != nil {
		return err
	}
	if !ok {
		log.Info("department-month already being generated, skipping",
			zap.String("department_id", req.DepartmentID),
			zap.Int("year", req.Year), zap.Int("month", req.Month))
		return nil
	}
	defer func() {
		if err := lock.Release(ctx, req.DepartmentID, req.Year, month, token); err != nil {
			log.Warn("failed to release generation lock", zap.Error(err))
		}
	}()

	started := time.Now()
	report, err := svc.GenerateMonthlySchedule(ctx, req)
	collectors.GenerationDuration.WithLabelValues("monthly").Observe(time.Since(started).Seconds())
	if err != nil {
		return err
	}

	collectors.ShiftsGenerated.WithLabelValues(req.DepartmentID, "monthly").Add(float64(report.ShiftsCreated))
	collectors.ShortageEvents.WithLabelValues(req.DepartmentID).Add(float64(len(report.Shortages)))

	for _, format := range []string{"csv", "pdf"} {
		if _, err := exporter.ExportMonthlyRoster(ctx, req.DepartmentID, req.Year, month, format); err != nil {
			log.Warn("roster export failed",
				zap.String("department_id", req.DepartmentID),
				zap.String("format", format), zap.Error(err))
		}
	}

	log.Info("monthly generation job finished",
		zap.String("department_id", req.DepartmentID),
		zap.Int("shifts_created", report.ShiftsCreated),
		zap.Int("weeks_failed", report.WeeksFailed))
	return nil
}

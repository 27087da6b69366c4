package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/config"
	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/repository/sheets"
	"github.com/sambafall/comptoir/internal/service/orders"
	"github.com/sambafall/comptoir/internal/service/reporting"
	"github.com/sambafall/comptoir/internal/store"
	"github.com/sambafall/comptoir/pkg/clients/alerts"
)

// overdueSweepSpec runs hourly; due dates have day granularity so anything
// finer buys nothing.
const overdueSweepSpec = "0 * * * *"

// lowStockAlertSpec fires each morning before the business opens.
const lowStockAlertSpec = "0 8 * * *"

// Scheduler manages scheduled tasks: the hourly overdue sweep, the daily
// summary export and the morning low-stock alert. Exporter and alerter are
// optional; a nil collaborator disables its job.
type Scheduler struct {
	cron         *cron.Cron
	cache        *store.Store
	reportingSvc *reporting.Service
	coord        *orders.Coordinator
	exporter     sheets.Exporter
	alerter      alerts.Client
	cfg          config.ReportingConfig
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, cache *store.Store, reportingSvc *reporting.Service,
	coord *orders.Coordinator, exporter sheets.Exporter, alerter alerts.Client, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		cache:        cache,
		reportingSvc: reportingSvc,
		coord:        coord,
		exporter:     exporter,
		alerter:      alerter,
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(overdueSweepSpec, s.sweepOverdueOrders); err != nil {
		s.logger.Error("failed to schedule overdue sweep", zap.Error(err))
	}

	if s.exporter != nil {
		if _, err := s.cron.AddFunc(s.cfg.ExportCron, s.exportDailySummary); err != nil {
			s.logger.Error("failed to schedule daily export", zap.Error(err))
		}
	}

	if s.alerter != nil {
		if _, err := s.cron.AddFunc(lowStockAlertSpec, s.sendLowStockAlert); err != nil {
			s.logger.Error("failed to schedule low stock alert", zap.Error(err))
		}
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// sweepOverdueOrders flags cached orders that slipped past their due date.
// The status write flows through the coordinator like any other, so the
// cache only reflects it once the remote confirms.
func (s *Scheduler) sweepOverdueOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	var flagged int
	for _, o := range s.cache.Orders() {
		if o.Status == models.StatusOverdue || !o.IsOverdue(now) {
			continue
		}
		if err := s.coord.UpdateOrderStatus(ctx, o.ID, models.StatusOverdue); err != nil {
			s.logger.Warn("failed to flag overdue order",
				zap.String("order_id", o.ID), zap.Error(err))
			continue
		}
		flagged++
	}

	if flagged > 0 {
		s.logger.Info("overdue sweep completed", zap.Int("flagged", flagged))
	}
}

func (s *Scheduler) exportDailySummary() {
	s.logger.Info("exporting daily summary")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary := s.reportingSvc.DailySummary(time.Now())
	if err := s.exporter.AppendDailySummary(ctx, summary); err != nil {
		s.logger.Error("failed to export daily summary", zap.Error(err))
		return
	}
	s.logger.Info("daily summary exported",
		zap.Float64("sales_total", summary.SalesTotal), zap.Int("orders", summary.OrderCount))
}

func (s *Scheduler) sendLowStockAlert() {
	low := s.reportingSvc.LowStock()
	if len(low) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	message := fmt.Sprintf("%d product(s) below stock threshold:", len(low))
	for _, p := range low {
		message += fmt.Sprintf("\n- %s (%d left)", p.Name, p.StockQuantity)
	}

	if err := s.alerter.Send(ctx, "Low stock", message); err != nil {
		s.logger.Error("failed to send low stock alert", zap.Error(err))
		return
	}
	s.logger.Info("low stock alert sent", zap.Int("products", len(low)))
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/carenest-platform/ms-go-refunds/app/service"
	"github.com/carenest-platform/ms-go-refunds/config"
)

var (
	workerMode bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run sweep-related commands",
}

var sweepProcessingCmd = &cobra.Command{
	Use:   "processing",
	Short: "Fail refunds stuck in processing past the configured threshold",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"sweep_processing",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.SweepProcessingInterval },
			func(s *service.RefundService, ctx context.Context) error {
				return s.RunSweepProcessingBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.AddCommand(sweepProcessingCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.RefundService, ctx context.Context) error,
) {
	cfg, refundService, cleanup := mustCreateRefundService()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), refundService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(refundService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	refundService *service.RefundService,
	fn func(s *service.RefundService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(refundService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(refundService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}

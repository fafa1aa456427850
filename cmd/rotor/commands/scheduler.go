package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/junzhu/rotor/internal/scheduler"
	"github.com/junzhu/rotor/internal/scheduler/jobs"
	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/pkg/config"
	"github.com/junzhu/rotor/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled jobs",
	Long: `Starts the scheduler daemon or triggers jobs manually.

Registered jobs:
- weekly_backtest: Friday 18:00 (re-run the strategy and persist)

Example:
  go run ./cmd/rotor scheduler start
  go run ./cmd/rotor scheduler run weekly_backtest`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and registers all jobs.

The scheduler runs until interrupted with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	source, closeSource, err := newBarSource(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	results, err := store.NewSQLiteResults(cfg.ResultsPath)
	if err != nil {
		closeSource()
		return nil, nil, fmt.Errorf("open results store: %w", err)
	}

	cleanup := func() {
		results.Close()
		closeSource()
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewBacktestJob(strategyFile, source, results, log)); err != nil {
		cleanup()
		return nil, nil, err
	}

	return sched, cleanup, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Rotor Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return err
	}
	defer cleanup()

	sched.Start()
	defer sched.Stop()

	fmt.Println("\nScheduler running. Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return err
	}
	defer cleanup()

	jobName := args[0]
	if err := sched.RunJob(jobName); err != nil {
		return err
	}

	fmt.Printf("Job %s triggered\n", jobName)

	// RunJob is asynchronous; wait for it to record a result.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			return nil
		case <-time.After(200 * time.Millisecond):
		}
		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			return err
		}
		if results := history.GetLatestResults(1); len(results) > 0 {
			r := results[0]
			if r.Success {
				fmt.Printf("Job %s completed in %.2fs\n", jobName, r.Duration.Seconds())
				return nil
			}
			return fmt.Errorf("job %s failed: %s", jobName, r.Error)
		}
	}
}

// bidwatch — procurement-notice watcher.
//
// Periodically renders the dauthau.asia invitation-to-bid search page for a
// fixed keyword, extracts newly published announcements, dedups them against
// the notified-code set, archives them and pushes a Telegram digest.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Can0Ngu1/bot-web/internal/config"
	"github.com/Can0Ngu1/bot-web/internal/fetch"
	"github.com/Can0Ngu1/bot-web/internal/notify"
	"github.com/Can0Ngu1/bot-web/internal/scanner"
	"github.com/Can0Ngu1/bot-web/internal/scheduler"
	"github.com/Can0Ngu1/bot-web/internal/store"
)

const version = "1.0.0"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "bidwatch",
		Short:         "Watch a procurement portal for new bid announcements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "config file path")
	root.AddCommand(runCmd(), scanCmd(), initConfigCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		log.Printf("[bidwatch] Fatal: %v", err)
		os.Exit(1)
	}
}

// buildScanner wires stores, fetcher and notifier from the current config.
// The returned cleanup closes whatever backends were opened.
func buildScanner(ctx context.Context, mgr *config.Manager) (*scanner.Scanner, func(), error) {
	cfg := mgr.Snapshot()
	cleanup := func() {}

	var archive store.Archive
	if cfg.DatabaseURL != "" {
		pool, err := store.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		archive, err = store.NewPostgresArchive(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, cleanup, err
		}
		cleanup = pool.Close
		log.Printf("[bidwatch] Archive backend: postgres")
	} else {
		archive = store.NewFileArchive(cfg.ArchivePath())
		log.Printf("[bidwatch] Archive backend: %s", cfg.ArchivePath())
	}

	var notified store.Notified
	if cfg.RedisURL != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		notified = store.NewRedisNotified(rdb)
		prev := cleanup
		cleanup = func() { rdb.Close(); prev() }
		log.Printf("[bidwatch] Notified-set backend: redis")
	} else {
		notified = store.NewFileNotified(cfg.NotifiedPath())
		log.Printf("[bidwatch] Notified-set backend: %s", cfg.NotifiedPath())
	}

	notifier := notify.NewTelegram(func() (string, int64) {
		c := mgr.Snapshot()
		return c.TelegramToken, c.ChatID
	})

	return scanner.New(fetch.NewBrowser(), archive, notified, notifier, mgr.Snapshot), cleanup, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the watcher daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr, err := config.Load(configPath)
			if err != nil {
				return err
			}
			sc, cleanup, err := buildScanner(ctx, mgr)
			if err != nil {
				return err
			}
			defer cleanup()

			sched := scheduler.New(sc)
			cfg := mgr.Snapshot()

			healthSrv := startHealth(cfg.ListenAddr, sched, sc)

			if cfg.AutoStart {
				if err := sched.Start(ctx, cfg.IntervalMinutes); err != nil {
					return err
				}
			} else {
				log.Printf("[bidwatch] auto_start disabled — waiting for config change or signal")
			}

			// The settings collaborator rewrites the config file; pick up
			// interval and auto_start changes on the fly. Everything else is
			// read per cycle from the snapshot.
			mgr.Watch(func(next config.Config) {
				reschedule(ctx, sched, next)
			})

			<-ctx.Done()
			log.Printf("[bidwatch] Shutting down")
			sched.Stop()
			shutdownHealth(healthSrv)
			return nil
		},
	}
}

// reschedule applies a replaced config to the scheduler: toggles it per
// auto_start and restarts it when the interval changed. An in-flight cycle
// is never interrupted.
func reschedule(ctx context.Context, sched *scheduler.Scheduler, cfg config.Config) {
	switch {
	case !cfg.AutoStart && sched.IsRunning():
		sched.Stop()
	case cfg.AutoStart && !sched.IsRunning():
		if err := sched.Start(ctx, cfg.IntervalMinutes); err != nil {
			log.Printf("[bidwatch] Start after config change failed: %v", err)
		}
	case cfg.AutoStart && sched.Interval() != cfg.IntervalMinutes:
		sched.Stop()
		if err := sched.Start(ctx, cfg.IntervalMinutes); err != nil {
			log.Printf("[bidwatch] Reschedule failed: %v", err)
		}
	}
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := config.Load(configPath)
			if err != nil {
				return err
			}
			sc, cleanup, err := buildScanner(cmd.Context(), mgr)
			if err != nil {
				return err
			}
			defer cleanup()

			res, ran := sc.TryRun(cmd.Context())
			if !ran {
				return fmt.Errorf("a cycle is already in flight")
			}
			if !res.Success {
				return fmt.Errorf("cycle %s failed: %w", res.ID, res.Err)
			}
			fmt.Printf("cycle %s: %d new record(s), %d row(s) skipped, persist_ok=%v notify_ok=%v\n",
				res.ID, res.NewCount(), res.SkippedRows, res.PersistOK, res.NotifyOK)
			return nil
		},
	}
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initconfig",
		Short: "Write a default config file",
		RunE: func(*cobra.Command, []string) error {
			if err := config.WriteDefault(configPath); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", configPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(*cobra.Command, []string) {
			fmt.Println(version)
		},
	}
}

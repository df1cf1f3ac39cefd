package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Can0Ngu1/bot-web/internal/scanner"
	"github.com/Can0Ngu1/bot-web/internal/scheduler"
)

type healthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Version          string `json:"version"`
	SchedulerRunning bool   `json:"scheduler_running"`
	IntervalMinutes  int    `json:"interval_minutes,omitempty"`
	CycleInFlight    bool   `json:"cycle_in_flight"`
	LastCycleAt      string `json:"last_cycle_at,omitempty"`
	LastCycleOK      *bool  `json:"last_cycle_ok,omitempty"`
	LastNewRecords   int    `json:"last_new_records"`
}

// startHealth serves the liveness endpoint for operators and the external
// dashboard.
func startHealth(addr string, sched *scheduler.Scheduler, sc *scanner.Scanner) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{
			Status:           "ok",
			Service:          "bidwatch",
			Version:          version,
			SchedulerRunning: sched.IsRunning(),
			IntervalMinutes:  sched.Interval(),
			CycleInFlight:    sc.InFlight(),
		}
		if last, ok := sc.LastResult(); ok {
			resp.LastCycleAt = last.StartedAt.Format(time.RFC3339)
			resp.LastCycleOK = &last.Success
			resp.LastNewRecords = last.NewCount()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Printf("[bidwatch] Health endpoint on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[bidwatch] Health server: %v", err)
		}
	}()
	return srv
}

func shutdownHealth(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[bidwatch] Health shutdown: %v", err)
	}
}

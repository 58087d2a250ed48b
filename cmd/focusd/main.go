// focusd - gaze-driven reading focus daemon
// Serves reading pages over websockets: each page streams gaze samples in
// and receives paragraph dimming, spotlight opacity and paced-reading updates.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-gazereader/internal/config"
	glog "github.com/teslashibe/go-gazereader/internal/log"
	"github.com/teslashibe/go-gazereader/pkg/debug"
	"github.com/teslashibe/go-gazereader/pkg/journal"
	"github.com/teslashibe/go-gazereader/pkg/web"
)

// shutdownTimeout bounds how long in-flight sessions get to close
const shutdownTimeout = 5 * time.Second

type options struct {
	addr     string
	db       string
	profile  string
	logLevel string
	noDB     bool
}

func main() {
	opts := parseFlags()
	glog.Init(opts.logLevel)

	fmt.Println("👁️  focusd - gaze reading focus")
	fmt.Printf("   Profile: %s\n", opts.profile)

	var store *journal.Store
	if !opts.noDB {
		var err error
		store, err = journal.Open(opts.db)
		if err != nil {
			log.Fatalf("❌ Failed to open journal: %v", err)
		}
		defer store.Close()
		fmt.Printf("📒 Journal: %s\n", opts.db)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := web.NewServer(opts.addr, opts.profile, store)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("❌ Server error: %v", err)
		}
	case <-ctx.Done():
		fmt.Println("\n👋 Shutting down...")
		done := make(chan error, 1)
		go func() { done <- server.Shutdown() }()
		select {
		case err := <-done:
			if err != nil {
				glog.Warn("shutdown failed", "error", err)
			}
		case <-time.After(shutdownTimeout):
			glog.Warn("shutdown timed out", "after", shutdownTimeout)
		}
	}
}

// parseFlags parses command line flags, falling back to the environment.
func parseFlags() options {
	opts := options{}

	flag.StringVar(&opts.addr, "addr", config.Env("FOCUSD_ADDR", config.DefaultAddr), "Listen address")
	flag.StringVar(&opts.db, "db", config.Env("FOCUSD_DB", config.DefaultDB), "SQLite journal path")
	flag.StringVar(&opts.profile, "profile", config.Env("FOCUSD_PROFILE", config.DefaultProfile), "Smoothing profile: default, responsive, stable")
	flag.StringVar(&opts.logLevel, "log-level", config.Env("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.noDB, "no-db", config.EnvBool("FOCUSD_NO_DB", false), "Disable the reading journal")
	debugFlag := flag.Bool("debug", config.EnvBool("FOCUSD_DEBUG", false), "Enable verbose debug logging")
	debugGaze := flag.Bool("debug-gaze", false, "Trace every gaze sample (very verbose)")
	flag.Parse()

	debug.Enabled = *debugFlag || *debugGaze
	debug.Gaze = *debugGaze
	if debug.Enabled && opts.logLevel == "info" {
		opts.logLevel = "debug"
	}
	return opts
}

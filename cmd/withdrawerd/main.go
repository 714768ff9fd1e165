package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/lumenlabs-io/stake-withdrawer/cmd"
	"github.com/lumenlabs-io/stake-withdrawer/metrics"
	wdr "github.com/lumenlabs-io/stake-withdrawer/withdrawer"
	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
	service "github.com/lumenlabs-io/stake-withdrawer/withdrawerservice"
)

func main() {
	// Hook interceptor for os signals.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, cfgLogger, err := scfg.LoadConfig()

	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			err = fmt.Errorf("failed to load config: %w", err)
			_, _ = fmt.Fprintln(os.Stderr, err)
			//nolint:gocritic
			os.Exit(1)
		}

		// Help was requested, exit normally.
		os.Exit(0)
	}

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		go func() {
			profileRedirect := http.RedirectHandler("/debug/pprof",
				http.StatusSeeOther)
			http.Handle("/", profileRedirect)
			cfgLogger.Infof("Pprof listening on %v", cfg.Profile)
			//nolint:gosec
			fmt.Println(http.ListenAndServe(cfg.Profile, nil))
		}()
	}

	// Write cpu profile if requested.
	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		_ = pprof.StartCPUProfile(f)
		defer f.Close()
		defer pprof.StopCPUProfile()
	}

	expUser, expPwd, err := cmd.GetEnvBasicAuth()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	withdrawerMetrics := metrics.NewWithdrawerMetrics()

	withdrawer, err := wdr.NewWithdrawerAppFromConfig(
		cfg,
		cfgLogger,
		withdrawerMetrics,
	)

	if err != nil {
		cfgLogger.Errorf("failed to create withdrawer app: %v", err)
		os.Exit(1)
	}

	withdrawerService := service.NewWithdrawerService(
		cfg,
		withdrawer,
		cfgLogger,
	)

	if cfg.MetricsConfig.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.MetricsConfig.Host, cfg.MetricsConfig.ServerPort)
		metrics.Start(cfgLogger, addr, withdrawerMetrics.Registry)
	}

	if err = withdrawerService.RunUntilShutdown(ctx, expUser, expPwd); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

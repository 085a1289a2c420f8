package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/common/fsutil"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/config"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/generation"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/httpapi"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/keypool"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/store"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("PTMTD_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	configPath := flag.String("config", "", "Optional config file (.yaml|.json|.toml)")
	totalKeys := flag.Int("total-keys", 0, "Number of external API key slots (0=config/default)")
	workers := flag.Int("workers", 0, "Generation worker count (0=config/default)")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "ptmtd").Logger()

	var cfg config.Config
	if *configPath != "" {
		path, err := fsutil.ExpandHome(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("resolve config path")
		}
		if !fsutil.PathExists(path) {
			log.Fatal().Str("path", path).Msg("config file does not exist")
		}
		cfg, err = config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("load config")
		}
	}
	cfg = cfg.ApplyEnv()
	if *totalKeys > 0 {
		cfg.TotalKeys = *totalKeys
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if cfg.Addr == "" {
		cfg.Addr = *addr
	}

	pool := keypool.New(poolConfig(cfg))
	st := store.NewMemStore()
	client := generation.NewHTTPClient(cfg.GenerationAPIURL, cfg.GenerationAPIToken,
		time.Duration(cfg.GenerationTimeoutSeconds)*time.Second)
	orch := generation.New(pool, st, client, log, generation.Options{
		WaitTimeout: time.Duration(cfg.SlotWaitSeconds) * time.Second,
		Workers:     cfg.Workers,
	})

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(rootCtx)
	orch.Start(rootCtx)

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(rootCtx)
	if origins := cfg.CORSOriginsList(); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			[]string{"Accept", "Authorization", "Content-Type"})
	}

	mux := httpapi.NewMux(orch)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Int("total_keys", pool.TotalSlots()).Msg("ptmtd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}

func poolConfig(cfg config.Config) keypool.Config {
	pc := keypool.Config{
		TotalSlots:      cfg.TotalKeys,
		DefaultCooldown: time.Duration(cfg.CooldownSeconds) * time.Second,
		MaxBusy:         time.Duration(cfg.MaxBusySeconds) * time.Second,
		SweepInterval:   time.Duration(cfg.SweepIntervalSeconds) * time.Second,
	}
	if cfg.CurriculumCooldownSeconds > 0 {
		pc.CooldownOverrides = map[keypool.CallKind]time.Duration{
			keypool.CallCurriculumGeneration: time.Duration(cfg.CurriculumCooldownSeconds) * time.Second,
		}
	}
	return pc
}

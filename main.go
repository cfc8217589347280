package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/web-transcriber/backend/internal/api"
	"github.com/web-transcriber/backend/internal/asr"
	"github.com/web-transcriber/backend/internal/config"
	"github.com/web-transcriber/backend/internal/ffmpeg"
	"github.com/web-transcriber/backend/internal/gpu"
	"github.com/web-transcriber/backend/internal/job"
	"github.com/web-transcriber/backend/internal/model"
	"github.com/web-transcriber/backend/internal/retention"
)

func main() {
	cfg := config.Load()

	// Ensure data directories exist
	for _, dir := range []string{cfg.DataPath, cfg.UploadPath, cfg.OutputPath} {
		os.MkdirAll(dir, 0755)
	}

	// Persisted model selection
	selStore := config.NewJSONStore(cfg.ConfigPath, config.Selection{
		ModelID:     cfg.DefaultModel,
		ComputeType: cfg.DefaultCompute,
	})
	sel, err := selStore.Load()
	if err != nil {
		log.Fatalf("Failed to load model selection: %v", err)
	}
	if err := selStore.Save(sel); err != nil {
		log.Fatalf("Failed to persist model selection: %v", err)
	}

	// Pick the inference device
	device := cfg.WhisperDevice
	if device == "" {
		device = gpu.Detect().Device
	}

	loader := &asr.FasterWhisperLoader{Python: cfg.WhisperPython, Device: device}
	models := model.NewManager(loader, selStore, sel)

	// Durable job log
	repo, err := job.NewLogRepo(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open job log: %v", err)
	}
	defer repo.Close()

	store := job.NewStore(repo, cfg.OutputPath)
	engine := job.NewEngine(store, models, ffmpeg.Duration, cfg.DefaultLanguage, cfg.Workers)

	// Retention sweep of stale uploads and expired artifacts
	var sweeper *retention.Sweeper
	if cfg.RetentionHours > 0 {
		sweeper = retention.NewSweeper(time.Duration(cfg.RetentionHours)*time.Hour, cfg.UploadPath, cfg.OutputPath)
		sweeper.Start()
	}

	// Warm the initial model off the request path; failure is non-fatal
	go func() {
		if _, err := models.GetOrLoad(); err != nil {
			log.Printf("Failed to load initial model: %v", err)
		}
	}()

	router := api.NewRouter(cfg, store, engine, models)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Model: %s (%s), device: %s, workers: %d", sel.ModelID, sel.ComputeType, device, cfg.Workers)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		if sweeper != nil {
			sweeper.Stop()
		}
		engine.Stop()
		repo.Close()
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

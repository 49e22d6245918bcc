// ABOUTME: Entry point for the voicewire voice client
// ABOUTME: Parses CLI flags and wires the session together
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/voicewire/voicewire-go/internal/capture"
	"github.com/voicewire/voicewire-go/internal/client"
	"github.com/voicewire/voicewire-go/internal/config"
	"github.com/voicewire/voicewire-go/internal/history"
	"github.com/voicewire/voicewire-go/internal/metrics"
	"github.com/voicewire/voicewire-go/internal/protocol"
	"github.com/voicewire/voicewire-go/internal/session"
	"github.com/voicewire/voicewire-go/internal/ui"
	"github.com/voicewire/voicewire-go/internal/version"
	"github.com/voicewire/voicewire-go/pkg/audio/output"
	"github.com/voicewire/voicewire-go/pkg/playback"
)

var (
	configPath  = flag.String("config", "", "Config file path (YAML)")
	serverURL   = flag.String("server", "", "Override the voice API URL")
	model       = flag.String("model", "", "Override the voice model")
	inputFile   = flag.String("input", "", "WAV file to upload as microphone input")
	dbPath      = flag.String("db", "", "Override the transcript database path")
	metricsAddr = flag.String("metrics-addr", "", "Override the Prometheus listen address")
	logFile     = flag.String("log-file", "voicewire.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs  = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	cfg := loadConfig()
	log.Printf("Starting %s %s", version.Product, version.Version)

	apiKey := cfg.APIKey()
	if apiKey == "" {
		log.Fatalf("API key not set: export %s", cfg.Server.APIKeyEnv)
	}

	// Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics()
		metrics.Serve(cfg.Metrics.Addr)
	}

	// Transcript store
	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Fatalf("Failed to open transcript store: %v", err)
		}
		defer store.Close()
	}

	// Output device
	sink := output.NewOto()
	if err := sink.Open(cfg.Audio.OutputSampleRate, 1); err != nil {
		log.Fatalf("Failed to open audio output: %v", err)
	}
	defer sink.Close()

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Voice API client
	voice := client.NewClient(client.Config{
		URL:    cfg.Endpoint(),
		APIKey: apiKey,
		Session: protocol.Session{
			Instructions:      cfg.Server.Instructions,
			Voice:             cfg.Server.Voice,
			InputAudioFormat:  "pcm16",
			OutputAudioFormat: "pcm16",
			Temperature:       cfg.Server.Temperature,
			TurnDetection:     &protocol.TurnDetection{Type: "server_vad"},
		},
	})

	if err := voice.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer voice.Close()

	connected := true
	updateTUI(ui.StatusMsg{Connected: &connected, ServerURL: cfg.Server.URL, ModelName: cfg.Server.Model})
	log.Printf("Connected to %s", cfg.Server.URL)

	// Session controller
	sessionID := uuid.New().String()
	ctrl := session.New(session.Config{
		SessionID: sessionID,
		Model:     cfg.Server.Model,
		Playback: playback.Config{
			SampleRate:       cfg.Audio.OutputSampleRate,
			SegmentSamples:   cfg.Audio.SegmentSamples,
			InitialLookahead: time.Duration(cfg.Audio.InitialLookahead) * time.Millisecond,
			LookaheadWindow:  time.Duration(cfg.Audio.LookaheadWindow) * time.Millisecond,
			PollInterval:     time.Duration(cfg.Audio.PollInterval) * time.Millisecond,
			FadeDuration:     time.Duration(cfg.Audio.FadeDuration) * time.Millisecond,
		},
		OnStatus: func(s session.Status) { updateTUI(statusToMsg(s)) },
	}, sink, voice, store, m)

	// Volume meter feeding the TUI
	meter := playback.NewMeter(playback.DefaultMeterInterval, func(frame playback.VolumeFrame) {
		level := frame.Volume
		updateTUI(ui.StatusMsg{Level: &level})
	})
	ctrl.Scheduler().RegisterTap("meter", meter.Tap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Run(ctx, session.EventsFrom(voice))

	// Optional file-based microphone input
	if *inputFile != "" {
		source, err := capture.NewFileSource(*inputFile)
		if err != nil {
			log.Fatalf("Failed to open input file: %v", err)
		}
		defer source.Close()

		go func() {
			if err := ctrl.Upload(ctx, source); err != nil {
				log.Printf("Upload failed: %v", err)
			}
		}()
	}

	// Interrupt requests from the TUI
	if controls != nil {
		go func() {
			for range controls.Interrupts {
				ctrl.Interrupt()
			}
		}()
	}

	// Stats update loop for TUI
	if tuiProg != nil {
		go statsUpdateLoop(ctx, ctrl.Scheduler(), updateTUI)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if controls != nil {
		select {
		case <-controls.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	log.Printf("Client stopped")
}

// loadConfig loads the config file and applies flag overrides
func loadConfig() *config.Config {
	var cfg *config.Config
	var err error

	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	if *model != "" {
		cfg.Server.Model = *model
	}
	if *dbPath != "" {
		cfg.History.Path = *dbPath
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
		cfg.Metrics.Enabled = true
	}

	return cfg
}

// statusToMsg converts a controller status into a TUI update
func statusToMsg(s session.Status) ui.StatusMsg {
	msg := ui.StatusMsg{
		StreamState: s.StreamState.String(),
		Note:        s.Note,
	}
	if s.Err != nil {
		msg.Err = s.Err.Error()
	}
	if s.Transcript != nil {
		msg.TranscriptRole = s.Transcript.Role
		msg.TranscriptText = s.Transcript.Text
		msg.TranscriptFinal = s.Transcript.Final
	}
	return msg
}

// statsUpdateLoop periodically updates the TUI with scheduler statistics
func statsUpdateLoop(ctx context.Context, sched *playback.Scheduler, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sched.Stats()
			depth := sched.QueueDepth()
			updateTUI(ui.StatusMsg{
				Received:    stats.Received,
				Scheduled:   stats.Scheduled,
				Interrupted: stats.Interrupted,
				QueueDepth:  &depth,
			})
		}
	}
}

// Command phonond runs the synthesis engine: it loads configuration,
// opens the audio backend, starts the IPC server a pattern compiler talks
// to, and blocks until told to shut down.
//
// Grounded on doismellburning-samoyed's cmd/direwolf/main.go for the
// pflag-driven flag surface and its "parse flags, load config, wire
// subsystems, run" shape; logging follows charmbracelet/log's structured
// logger the way samoyed's own src files use it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	phonon "github.com/intuitionamiga/phonon-engine"
)

var version = "dev"

func main() {
	var (
		configPath  = pflag.String("config", "", "Path to a YAML config file")
		socketPath  = pflag.String("socket", "", "Unix socket path for the IPC server (default: $XDG_RUNTIME_DIR or /tmp)")
		recordPath  = pflag.String("record", "", "If set, capture output to this WAV file")
		backendName = pflag.String("backend", "", "Audio backend: oto or headless")
		showVersion = pflag.Bool("version", false, "Print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Println("phonond", version)
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "phonond",
	})

	cfg := phonon.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = phonon.LoadConfigFile(cfg, *configPath)
		if err != nil {
			logger.Fatal("failed to load config", "err", err)
		}
	}
	cfg = phonon.ApplyEnv(cfg)
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if *recordPath != "" {
		cfg.RecordPath = *recordPath
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	logger.Info("starting engine", "sample_rate", cfg.SampleRate, "buffer_size", cfg.BufferSize, "backend", cfg.Backend)

	engine := phonon.NewEngine(cfg.SampleRate, cfg.BufferSize, cfg.RingCapacity)
	engine.SetDebugTiming(cfg.DebugBufferTime)

	var recorder *phonon.Recorder
	if cfg.RecordPath != "" {
		var err error
		recorder, err = phonon.NewRecorder(cfg.RecordPath, cfg.SampleRate, 2)
		if err != nil {
			logger.Fatal("failed to open recorder", "err", err)
		}
		engine.AttachRecorder(recorder)
		logger.Info("recording to", "path", cfg.RecordPath)
	}

	backend, err := newBackend(cfg.Backend, cfg.SampleRate)
	if err != nil {
		logger.Fatal("failed to open audio backend", "err", err)
	}
	backend.Attach(engine)

	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)
	backend.Start()

	server, err := newIPCServer(cfg, engine, logger)
	if err != nil {
		logger.Fatal("failed to start ipc server", "err", err)
	}
	server.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	server.Stop()
	backend.Stop()
	backend.Close()
	cancel()
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			logger.Error("failed to finalise recording", "err", err)
		}
	}
}

// audioBackend is the common surface both backends (audio_backend_oto.go
// and audio_backend_headless.go in the phonon package) expose to main.
type audioBackend interface {
	Attach(e *phonon.Engine)
	Start()
	Stop()
	Close()
}

func newBackend(name string, sampleRate int) (audioBackend, error) {
	switch name {
	case "headless":
		return phonon.NewHeadlessBackend(sampleRate)
	case "oto", "":
		return phonon.NewOtoBackend(sampleRate)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func newIPCServer(cfg phonon.EngineConfig, engine *phonon.Engine, logger *log.Logger) (*phonon.IPCServer, error) {
	// No DSL compiler is wired in by default: that parser/compiler is an
	// external collaborator this module never implements. A real
	// deployment injects one here; absent that, UpdateGraph messages are
	// logged and otherwise ignored, exactly as a failed compile would be.
	var compiler phonon.GraphCompiler

	handlers := phonon.GraphHandlers{
		OnUpdateGraph: func(code string) {
			if compiler == nil {
				logger.Error("rejected graph update", "err", phonon.ErrNoCompiler)
				return
			}
			compiled, err := compiler(code, engine.SampleRate, engine.BlockSize)
			if err != nil {
				logger.Error("rejected graph update", "err", err)
				return
			}
			if err := compiled.Graph.Compile(); err != nil {
				logger.Error("rejected graph update", "err", err)
				return
			}
			engine.SwapGraph(compiled.Graph)
			engine.SetCPS(compiled.CPS)
		},
		OnSetTempo: func(cps float64) {
			engine.SetCPS(cps)
		},
		OnHush:  engine.Hush,
		OnPanic: engine.Panic,
		OnShutdown: func() {
			logger.Info("shutdown requested over ipc")
			syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		},
	}
	if cfg.SocketPath != "" {
		return phonon.NewIPCServerAt(cfg.SocketPath, handlers)
	}
	return phonon.NewIPCServer(handlers)
}

package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/trezcool/unichat/apps/api/echo"
	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/assistant"
	"github.com/trezcool/unichat/core/platform"
	"github.com/trezcool/unichat/core/student"
	"github.com/trezcool/unichat/services/llm"
	logsvc "github.com/trezcool/unichat/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	llmLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "LLM : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	llmLogger.Enable(!conf.Debug)

	// process lifetime; bounds the memory reclaimer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up the model slot
	profile := platform.Detect()
	engine := assistant.NewEngine(
		conf.Model,
		profile,
		llm.NewLlamaCpp(conf.Model, llmLogger),
		llm.NewGPT4All(conf.Model, llmLogger),
		llmLogger,
	)
	engine.Setup(ctx)
	defer func() {
		if err := engine.Close(); err != nil {
			llmLogger.Error(fmt.Sprintf("closing model backend: %v", err), err)
		}
	}()

	// set up services
	validate, translator := core.NewValidator()
	fetcher := student.NewFetcher(conf.Backend, logger)
	assistantSvc := assistant.NewService(fetcher, engine, validate, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("profile").Set(profile.Name)
	expvar.NewString("model").Set(engine.State())

	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			AssistantSvc: assistantSvc,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

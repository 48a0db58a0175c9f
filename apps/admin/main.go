package main

import (
	"log"
	"os"

	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/assistant"
	"github.com/trezcool/unichat/core/platform"
	"github.com/trezcool/unichat/core/student"
	"github.com/trezcool/unichat/services/llm"
	logsvc "github.com/trezcool/unichat/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	engine := assistant.NewEngine(
		conf.Model,
		platform.Detect(),
		llm.NewLlamaCpp(conf.Model, logger),
		llm.NewGPT4All(conf.Model, logger),
		logger,
	)
	validate, _ := core.NewValidator()

	// start CLI
	cli := commandLine{
		conf: conf,
		slot: engine,
		svc:  assistant.NewService(student.NewFetcher(conf.Backend, logger), engine, validate, logger),
		in:   os.Stdin,
		out:  os.Stdout,
	}
	err := cli.run(os.Args)
	if cerr := engine.Close(); cerr != nil {
		logger.Error("closing model backend", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("error: " + err.Error())
		}
		os.Exit(1)
	}
}

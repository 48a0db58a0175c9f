package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/assistant"
	"github.com/trezcool/unichat/core/platform"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	stdinFd        = int(os.Stdin.Fd())

	errHelp = errors.New("help provided")
)

// modelSlot is the part of assistant.Engine the CLI drives.
type modelSlot interface {
	assistant.Responder
	Setup(ctx context.Context) string
	Profile() platform.Profile
}

type commandLine struct {
	conf *core.Config
	slot modelSlot
	svc  assistant.Service
	in   io.Reader
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  platform [-os OS -arch ARCH] - print the resource profile of this (or the given) platform")
	_, _ = fmt.Fprintln(cli.out, "  checkmodel - load the configured model and print the resulting state")
	_, _ = fmt.Fprintln(cli.out, "  ask -student ID [-question QUESTION] - answer a question; the question is prompted if omitted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	platformCmd := cli.newFlagSet("platform")
	platformOS := platformCmd.String("os", "", "The OS to resolve the profile for (default: this host's).")
	platformArch := platformCmd.String("arch", "", "The architecture to resolve the profile for (default: this host's).")

	checkModelCmd := cli.newFlagSet("checkmodel")

	askCmd := cli.newFlagSet("ask")
	askStudent := askCmd.Int("student", 0, "The ID of the student asking.")
	askQuestion := askCmd.String("question", "", "The question. It will be prompted next if omitted.")

	switch args[1] {
	case "platform":
		if err := platformCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.printPlatform(*platformOS, *platformArch)
	case "checkmodel":
		if err := checkModelCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.checkModel()
	case "ask":
		if err := askCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *askStudent <= 0 {
			askCmd.Usage()
			return errHelp
		}
		question := *askQuestion
		if question == "" {
			var err error
			if question, err = cli.readQuestion(); err != nil {
				return err
			}
		}
		if question == "" {
			askCmd.Usage()
			return errHelp
		}
		return cli.ask(*askStudent, question)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/unichat/core/assistant"
)

func (cli *commandLine) checkModel() error {
	state := cli.slot.Setup(context.Background())
	profile := cli.slot.Profile()
	_, _ = fmt.Fprintf(cli.out, "model: %s\n", cli.conf.Model.Path)
	_, _ = fmt.Fprintf(cli.out, "profile: %s (%s/%s)\n", profile.Name, profile.OS, profile.Arch)
	_, _ = fmt.Fprintf(cli.out, "state: %s\n", state)
	if state == assistant.StateFailed {
		return errors.New("no model loaded")
	}
	return nil
}

// readQuestion prompts for a question on a terminal, or reads the first line of a piped stdin.
func (cli *commandLine) readQuestion() (string, error) {
	if isTerminalFunc(stdinFd) {
		_, _ = fmt.Fprint(cli.out, "Question: ")
	}
	line, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", errors.Wrap(err, "reading question")
	}
	return strings.TrimSpace(line), nil
}

func (cli *commandLine) ask(studentID int, question string) error {
	ctx := context.Background()
	cli.slot.Setup(ctx)

	ans, err := cli.svc.Answer(ctx, assistant.QueryRequest{Question: &question, StudentID: &studentID})
	if err != nil {
		return errors.Wrap(err, "answering question")
	}
	_, _ = fmt.Fprintf(cli.out, "%s\n(source: %s)\n", ans.Text, ans.Source)
	return nil
}

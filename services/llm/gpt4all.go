package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/assistant"
	"github.com/trezcool/unichat/core/platform"
)

// GPT4All runs legacy-format models through the OpenAI-compatible API of a GPT4All server.
type GPT4All struct {
	baseURL string
	model   string
	client  *openai.Client
	logger  core.Logger

	opts platform.Options
}

var _ assistant.Backend = (*GPT4All)(nil)

func NewGPT4All(conf core.ModelConfig, logger core.Logger) *GPT4All {
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = conf.GPT4AllURL
	cfg.HTTPClient = &http.Client{}
	return &GPT4All{
		baseURL: conf.GPT4AllURL,
		model:   conf.GPT4AllModel,
		client:  openai.NewClientWithConfig(cfg),
		logger:  logger,
	}
}

func (g *GPT4All) Available() bool { return g.baseURL != "" }

// Load checks that the server is reachable and serves the configured model.
// The model file itself is loaded by the GPT4All server.
func (g *GPT4All) Load(ctx context.Context, path string, opts platform.Options) error {
	models, err := g.client.ListModels(ctx)
	if err != nil {
		return errors.Wrap(err, "gpt4all: listing models")
	}

	ids := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		if strings.EqualFold(m.ID, g.model) {
			g.opts = opts
			g.logger.Info(fmt.Sprintf("gpt4all: serving %s (%s, %d threads)", m.ID, path, opts.Threads))
			return nil
		}
		ids = append(ids, m.ID)
	}
	return errors.Errorf("gpt4all: model %q not available on %s (available: %s)", g.model, g.baseURL, strings.Join(ids, ", "))
}

func (g *GPT4All) Generate(ctx context.Context, gen assistant.Generation) (string, error) {
	maxTokens := gen.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.opts.MaxTokens
	}
	if g.opts.Verbose {
		g.logger.Debug(fmt.Sprintf("gpt4all: prompt (%d chars)", len(gen.Prompt)), gen.Prompt)
	}

	res, err := g.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       g.model,
		Prompt:      gen.Prompt,
		MaxTokens:   maxTokens,
		Temperature: float32(gen.Temperature),
		Stop:        gen.Stop,
	})
	if err != nil {
		return "", errors.Wrap(err, "gpt4all: completion")
	}
	if len(res.Choices) == 0 {
		return "", errors.New("gpt4all: no choices returned")
	}
	return res.Choices[0].Text, nil
}

func (g *GPT4All) Close() error { return nil }

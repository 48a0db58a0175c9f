package assistant

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/platform"
	"github.com/trezcool/unichat/core/student"
)

// Engine states
const (
	StateUnloaded = "unloaded"
	StateGGUF     = "gguf"
	StateLegacy   = "legacy"
	StateFailed   = "failed"
)

const (
	ggufMagic    = 0x46554747 // "GGUF", little endian
	temperature  = 0.7
	chatStop     = "<|end|>"
	chatTemplate = "<|user|>\n%s\n%s" + chatStop + "\n<|assistant|>"
	plainPrompt  = "%s\n\nQuestion: %s\n\nAnswer:"
)

// Generation is a single completion request handed to a Backend.
type Generation struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// Backend loads a model file and generates completions from it.
type Backend interface {
	// Available reports whether the backend can be used on this host at all.
	Available() bool
	Load(ctx context.Context, path string, opts platform.Options) error
	Generate(ctx context.Context, gen Generation) (string, error)
	Close() error
}

// Engine owns the single model slot of the process.
// Setup decides once which backend (if any) serves it; Respond only reads it.
type Engine struct {
	conf      core.ModelConfig
	profile   platform.Profile
	gguf      Backend
	legacy    Backend
	reclaimer *Reclaimer
	logger    core.Logger

	setupOnce sync.Once
	state     string
	backend   Backend
	opts      platform.Options

	gc func() // overridden in tests
}

// NewEngine returns an unloaded engine. Either backend may be nil.
func NewEngine(conf core.ModelConfig, profile platform.Profile, gguf, legacy Backend, logger core.Logger) *Engine {
	return &Engine{
		conf:      conf,
		profile:   profile,
		gguf:      gguf,
		legacy:    legacy,
		reclaimer: NewReclaimer(profile.GCInterval, logger),
		logger:    logger,
		state:     StateUnloaded,
		gc:        runtime.GC,
	}
}

// State returns the state of the model slot.
func (e *Engine) State() string { return e.state }

// Profile returns the resource profile the engine was built with.
func (e *Engine) Profile() platform.Profile { return e.profile }

// Reclaimer returns the engine's memory reclaimer.
func (e *Engine) Reclaimer() *Reclaimer { return e.reclaimer }

// Setup resolves the model slot. Only the first call has any effect.
// ctx bounds the lifetime of the memory reclaimer, if the profile asks for one.
// Setup must not run concurrently with Respond.
func (e *Engine) Setup(ctx context.Context) string {
	e.setupOnce.Do(func() { e.setup(ctx) })
	return e.state
}

func (e *Engine) setup(ctx context.Context) {
	path := e.conf.Path
	e.logger.Info(fmt.Sprintf("platform: %s/%s (%s profile)", e.profile.OS, e.profile.Arch, e.profile.Name))

	if _, err := os.Stat(path); err != nil {
		e.state = StateFailed
		e.logger.Warn(missingModelInstructions(path, e.conf.DownloadURL), err)
		return
	}

	if isGGUF(path) {
		if e.gguf == nil || !e.gguf.Available() {
			e.logger.Warn("GGUF model found but no llama.cpp backend is available; trying the legacy backend")
		} else if err := e.load(ctx, e.gguf, platform.KindGGUF, path); err != nil {
			e.logger.Error(fmt.Sprintf("loading GGUF model %s: %v", path, err), err)
		} else {
			e.state = StateGGUF
		}
	}

	if e.state != StateGGUF {
		switch {
		case e.legacy == nil || !e.legacy.Available():
			e.logger.Warn("no legacy model backend available")
			e.state = StateFailed
		default:
			if err := e.load(ctx, e.legacy, platform.KindLegacy, path); err != nil {
				e.logger.Error(fmt.Sprintf("loading legacy model %s: %v", path, err), err)
				e.state = StateFailed
			} else {
				e.state = StateLegacy
			}
		}
	}

	if e.state == StateFailed {
		e.logger.Warn("no model loaded: answers will be rule-based")
		return
	}
	e.logger.Info(fmt.Sprintf("model loaded from %s (%s)", path, e.state))
	if e.profile.Reclaim {
		e.reclaimer.Start(ctx)
	}
}

func (e *Engine) load(ctx context.Context, b Backend, kind, path string) error {
	if kind == platform.KindGGUF {
		if err := checkGGUFHeader(path); err != nil {
			return err
		}
	}
	if e.conf.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.conf.LoadTimeout)
		defer cancel()
	}

	opts := e.profile.Options(kind)
	if err := b.Load(ctx, path, opts); err != nil {
		return err
	}
	e.backend = b
	e.opts = opts
	return nil
}

// Respond answers `question` with the loaded model, if any, and with Simulate otherwise.
// A failed or empty generation is logged and answered by Simulate as well.
func (e *Engine) Respond(ctx context.Context, prompt, question string, sc student.Context) Answer {
	var input string
	var stop []string
	switch e.state {
	case StateGGUF:
		input = fmt.Sprintf(chatTemplate, prompt, question)
		stop = []string{chatStop}
	case StateLegacy:
		input = fmt.Sprintf(plainPrompt, prompt, question)
	default:
		return Answer{Text: Simulate(question, sc), Source: SourceFallback}
	}

	text, err := e.generate(ctx, Generation{
		Prompt:      input,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: temperature,
		Stop:        stop,
	})
	if err != nil {
		e.logger.Error(fmt.Sprintf("generating answer (%s): %v", e.state, err), err, sc)
		return Answer{Text: Simulate(question, sc), Source: SourceFallback}
	}

	if e.profile.IsConstrained() {
		e.gc()
	}
	return Answer{Text: text, Source: SourceModel}
}

func (e *Engine) generate(ctx context.Context, gen Generation) (string, error) {
	if e.conf.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.conf.InferenceTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := e.backend.Generate(ctx, gen)
	inferenceDuration.WithLabelValues(e.state).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

// Close releases the loaded backend.
func (e *Engine) Close() error {
	if e.backend == nil {
		return nil
	}
	return e.backend.Close()
}

func isGGUF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gguf")
}

// checkGGUFHeader verifies that `path` starts with the GGUF magic number and a known version.
func checkGGUFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening model")
	}
	defer func() { _ = f.Close() }()

	var header struct {
		Magic   uint32
		Version uint32
	}
	if err = binary.Read(f, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.New("model file too short for a GGUF header")
		}
		return errors.Wrap(err, "reading GGUF header")
	}
	if header.Magic != ggufMagic {
		return errors.Errorf("not a GGUF file (magic %#08x)", header.Magic)
	}
	if header.Version == 0 || header.Version > 3 {
		return errors.Errorf("unsupported GGUF version %d", header.Version)
	}
	return nil
}

func missingModelInstructions(path, downloadURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "model file not found at %s: answers will be rule-based.\n", path)
	b.WriteString("To enable the model, place a model file at that path (or set LLM_MODEL_PATH) and restart the service.")
	if downloadURL != "" {
		fmt.Fprintf(&b, "\nThe model can be downloaded from %s", downloadURL)
	}
	return b.String()
}

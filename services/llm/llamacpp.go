// Package llm implements the model backends used by the assistant engine.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/assistant"
	"github.com/trezcool/unichat/core/platform"
)

const healthPollInterval = 100 * time.Millisecond

// LlamaCpp runs GGUF models through a llama.cpp server.
// With a server binary configured it launches its own server for the model;
// otherwise it talks to the server at LlamaServerURL, which has its own model loaded.
type LlamaCpp struct {
	serverURL string
	serverBin string
	http      *http.Client
	logger    core.Logger

	mu      sync.Mutex
	baseURL string
	proc    *process
}

// process is a llama.cpp server launched by Load.
type process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{} // closed once the process has exited
	err    error         // exit error, set before done is closed
}

var _ assistant.Backend = (*LlamaCpp)(nil)

func NewLlamaCpp(conf core.ModelConfig, logger core.Logger) *LlamaCpp {
	return &LlamaCpp{
		serverURL: conf.LlamaServerURL,
		serverBin: conf.LlamaServerBin,
		http:      &http.Client{},
		logger:    logger,
	}
}

// Available reports whether a server is configured or a server binary can be found.
func (l *LlamaCpp) Available() bool {
	if l.serverBin != "" {
		_, err := exec.LookPath(l.serverBin)
		return err == nil
	}
	return l.serverURL != ""
}

// Load starts (or connects to) the llama.cpp server and waits until it is ready to serve completions.
func (l *LlamaCpp) Load(ctx context.Context, path string, opts platform.Options) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.serverBin == "" {
		if l.serverURL == "" {
			return errors.New("llama.cpp: no server configured")
		}
		l.logger.Info(fmt.Sprintf("using llama.cpp server at %s (model loaded by the server)", l.serverURL))
		l.baseURL = l.serverURL
		return l.waitHealthy(ctx, nil)
	}

	port, err := freePort()
	if err != nil {
		return errors.Wrap(err, "llama.cpp: finding a free port")
	}

	pctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(pctx, l.serverBin, serverArgs(path, opts, port)...)
	if opts.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err = cmd.Start(); err != nil {
		cancel()
		return errors.Wrap(err, "llama.cpp: starting server")
	}
	l.logger.Info(fmt.Sprintf("starting llama.cpp server (pid %d) on port %d", cmd.Process.Pid, port))

	proc := &process{cmd: cmd, cancel: cancel, done: make(chan struct{})}
	go func() {
		proc.err = cmd.Wait()
		close(proc.done)
	}()

	l.proc = proc
	l.baseURL = "http://127.0.0.1:" + strconv.Itoa(port)

	start := time.Now()
	if err = l.waitHealthy(ctx, proc); err != nil {
		l.stop()
		return err
	}
	l.logger.Info(fmt.Sprintf("llama.cpp server started in %s", time.Since(start).Round(time.Millisecond)))
	return nil
}

// serverArgs maps the profile options to llama-server flags.
func serverArgs(path string, opts platform.Options, port int) []string {
	args := []string{
		"-m", path,
		"-c", strconv.Itoa(opts.ContextSize),
		"-b", strconv.Itoa(opts.BatchSize),
		"-t", strconv.Itoa(opts.Threads),
		"-ngl", strconv.Itoa(opts.GPULayers),
		"-s", strconv.Itoa(opts.Seed),
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(port),
	}
	if opts.MLock {
		args = append(args, "--mlock")
	}
	if !opts.OffloadKQV {
		args = append(args, "--no-kv-offload")
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

// waitHealthy polls the server until it reports ready. proc is nil for external servers.
func (l *LlamaCpp) waitHealthy(ctx context.Context, proc *process) error {
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	var exited <-chan struct{}
	if proc != nil {
		exited = proc.done
	}
	for {
		err := l.ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "llama.cpp: server not ready (%v)", err)
		case <-exited:
			return errors.Errorf("llama.cpp: server exited unexpectedly: %v", proc.err)
		case <-ticker.C:
		}
	}
}

func (l *LlamaCpp) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	res, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("health status: %s", res.Status)
	}
	return nil
}

type (
	completionRequest struct {
		Prompt      string   `json:"prompt"`
		NPredict    int      `json:"n_predict"`
		Temperature float64  `json:"temperature"`
		Stop        []string `json:"stop,omitempty"`
		Stream      bool     `json:"stream"`
	}

	completionResponse struct {
		Content string `json:"content"`
		Stop    bool   `json:"stop"`
	}
)

// Generate runs a single non-streamed completion.
func (l *LlamaCpp) Generate(ctx context.Context, gen assistant.Generation) (string, error) {
	l.mu.Lock()
	baseURL := l.baseURL
	l.mu.Unlock()
	if baseURL == "" {
		return "", errors.New("llama.cpp: model not loaded")
	}

	data, err := json.Marshal(completionRequest{
		Prompt:      gen.Prompt,
		NPredict:    gen.MaxTokens,
		Temperature: gen.Temperature,
		Stop:        gen.Stop,
	})
	if err != nil {
		return "", errors.Wrap(err, "llama.cpp: encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/completion", bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "llama.cpp: building request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := l.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "llama.cpp: completion")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return "", errors.Errorf("llama.cpp: completion status %d: %s", res.StatusCode, body)
	}

	var comp completionResponse
	if err = json.NewDecoder(res.Body).Decode(&comp); err != nil {
		return "", errors.Wrap(err, "llama.cpp: decoding completion")
	}
	return comp.Content, nil
}

// Close stops the server launched by Load, if any.
func (l *LlamaCpp) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stop()
	return nil
}

func (l *LlamaCpp) stop() {
	l.baseURL = ""
	if l.proc == nil {
		return
	}
	l.proc.cancel()
	<-l.proc.done
	l.logger.Info(fmt.Sprintf("llama.cpp server (pid %d) stopped", l.proc.cmd.Process.Pid))
	l.proc = nil
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

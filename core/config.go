package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	BackendConfig struct {
		BaseURL      string
		AlternateURL string
		Timeout      time.Duration
	}

	ModelConfig struct {
		Path             string
		DownloadURL      string // informational only: models are placed manually
		LlamaServerURL   string
		LlamaServerBin   string
		GPT4AllURL       string
		GPT4AllModel     string
		LoadTimeout      time.Duration
		InferenceTimeout time.Duration
	}

	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		RollbarToken string

		Server  ServerConfig
		Backend BackendConfig
		Model   ModelConfig
	}
)

// envKeys maps config keys to the environment variables they are read from.
var envKeys = map[string]string{
	"build":                  "BUILD",
	"debug":                  "DEBUG",
	"rollbarToken":           "ROLLBAR_TOKEN",
	"server.host":            "HOST",
	"server.addr":            "ADDR",
	"server.debugHost":       "DEBUG_HOST",
	"server.shutdownTimeout": "SHUTDOWN_TIMEOUT",
	"backend.baseURL":        "BACKEND_URL",
	"backend.alternateURL":   "BACKEND_ALTERNATE_URL",
	"backend.timeout":        "BACKEND_TIMEOUT",
	"model.path":             "LLM_MODEL_PATH",
	"model.downloadURL":      "LLM_MODEL_URL",
	"model.llamaServerURL":   "LLAMA_SERVER_URL",
	"model.llamaServerBin":   "LLAMA_SERVER_BIN",
	"model.gpt4allURL":       "GPT4ALL_API_URL",
	"model.gpt4allModel":     "GPT4ALL_MODEL",
	"model.loadTimeout":      "LLM_LOAD_TIMEOUT",
	"model.inferenceTimeout": "LLM_INFERENCE_TIMEOUT",
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("backend.baseURL", "http://backend:8000/api")
	v.SetDefault("backend.alternateURL", "http://backend/api")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("model.path", "/app/models/model.bin")
	v.SetDefault("model.downloadURL", "")
	v.SetDefault("model.llamaServerURL", "")
	v.SetDefault("model.llamaServerBin", "")
	v.SetDefault("model.gpt4allURL", "http://localhost:4891/v1")
	v.SetDefault("model.gpt4allModel", "")
	v.SetDefault("model.loadTimeout", 2*time.Minute)
	v.SetDefault("model.inferenceTimeout", 60*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	for key, envKey := range envKeys {
		_ = v.BindEnv(key, envKey)
	}

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      "UniChat",
		Debug:        v.GetBool("debug"),
		TestMode:     env == "TEST",
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Addr:            v.GetString("server.addr"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Backend: BackendConfig{
			BaseURL:      strings.TrimSuffix(v.GetString("backend.baseURL"), "/"),
			AlternateURL: strings.TrimSuffix(v.GetString("backend.alternateURL"), "/"),
			Timeout:      v.GetDuration("backend.timeout"),
		},
		Model: ModelConfig{
			Path:             v.GetString("model.path"),
			DownloadURL:      v.GetString("model.downloadURL"),
			LlamaServerURL:   strings.TrimSuffix(v.GetString("model.llamaServerURL"), "/"),
			LlamaServerBin:   v.GetString("model.llamaServerBin"),
			GPT4AllURL:       strings.TrimSuffix(v.GetString("model.gpt4allURL"), "/"),
			GPT4AllModel:     v.GetString("model.gpt4allModel"),
			LoadTimeout:      v.GetDuration("model.loadTimeout"),
			InferenceTimeout: v.GetDuration("model.inferenceTimeout"),
		},
	}
	if conf.Model.GPT4AllModel == "" {
		conf.Model.GPT4AllModel = filepath.Base(conf.Model.Path)
	}
	return conf
}

// configDir returns the directory holding the .env files; CONFIG_DIR overrides it.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	. "github.com/trezcool/unichat/apps/api/echo"
	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/assistant"
	"github.com/trezcool/unichat/core/platform"
	"github.com/trezcool/unichat/core/student"
	"github.com/trezcool/unichat/tests"
)

func testConfig() *core.Config {
	return &core.Config{
		Env:      "TEST",
		AppName:  "UniChat",
		TestMode: true,
		Server:   core.ServerConfig{Addr: ":0", ShutdownTimeout: time.Second},
	}
}

// setup returns a server answering with the rule-based responder from the details served by `backend`.
func setup(t *testing.T, backend *testutil.Backend) Server {
	conf := testConfig()
	conf.Backend = core.BackendConfig{BaseURL: backend.APIURL(), Timeout: time.Second}
	conf.Model = core.ModelConfig{Path: "/nope/model.gguf"}
	logger := testutil.NewLogger()

	validate, translator := core.NewValidator()
	engine := assistant.NewEngine(conf.Model, platform.Resolve("linux", "amd64"), nil, nil, logger)
	engine.Setup(context.Background())

	return NewServer(
		ServerDeps{
			Conf:         conf,
			Logger:       logger,
			AssistantSvc: assistant.NewService(student.NewFetcher(conf.Backend, logger), engine, validate, logger),
			Translator:   translator,
		},
	)
}

// setupWithService returns a server backed by `svc`.
func setupWithService(svc assistant.Service) (Server, *testutil.Logger) {
	logger := testutil.NewLogger()
	_, translator := core.NewValidator()
	return NewServer(
		ServerDeps{
			Conf:         testConfig(),
			Logger:       logger,
			AssistantSvc: svc,
			Translator:   translator,
		},
	), logger
}

func anaContext(t *testing.T) student.Context {
	var sc student.Context
	if err := json.Unmarshal([]byte(testutil.AnaDetails), &sc); err != nil {
		t.Fatalf("anaContext(): %v", err)
	}
	return sc
}

type httpErr struct {
	Detail interface{} `json:"detail"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
	extra    interface{}
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

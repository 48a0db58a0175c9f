package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/trezcool/unichat/core"
)

// AnaDetails is a `GET /alunos/{id}/detalhes/` payload as served by the data service.
const AnaDetails = `{
	"id": 1,
	"nome": "Ana",
	"email": "ana@test.br",
	"matricula": "2023001",
	"curso": "Engenharia",
	"semestre": 3,
	"notas": [
		{"id": 1, "disciplina": "Calculus", "nota_prova": "8.50", "nota_trabalho": "9.00", "nota_final": 8.7, "semestre": "2023.1"},
		{"id": 2, "disciplina": "Physics", "nota_final": "7.25"}
	],
	"horarios": [
		{"id": 1, "disciplina": "Calculus", "dia_semana": "SEG", "dia_semana_display": "Segunda-feira", "horario_inicio": "08:00:00", "horario_fim": "10:00:00", "sala": "B12", "professor": "Dr. Silva"}
	],
	"frequencias": [],
	"dados_financeiros": [
		{"id": 1, "mensalidade": "1200.00", "data_vencimento": "2023-05-10", "status_pagamento": "PENDENTE", "status_pagamento_display": "Pendente"}
	],
	"matriculas": [],
	"historico_chat": []
}`

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger recording every entry; Fatal does not exit.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return new(Logger) }

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

func (l *Logger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Contains reports whether an entry of `level` contains `substr`.
func (l *Logger) Contains(level, substr string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// Count returns the number of entries of `level`.
func (l *Logger) Count(level string) int {
	var n int
	for _, e := range l.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Backend is a fake academic data service answering every request with the same status & body.
type Backend struct {
	*httptest.Server
	hits  int32
	paths sync.Map
}

func NewBackend(t *testing.T, status int, body string) *Backend {
	b := new(Backend)
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.hits, 1)
		b.paths.Store(r.URL.Path, r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(b.Close)
	return b
}

// Hits returns the number of requests served so far.
func (b *Backend) Hits() int { return int(atomic.LoadInt32(&b.hits)) }

// Requested reports whether `path` was requested, and with which Accept header.
func (b *Backend) Requested(path string) (string, bool) {
	accept, ok := b.paths.Load(path)
	if !ok {
		return "", false
	}
	return accept.(string), true
}

// APIURL returns the backend base URL as configured in core.BackendConfig.
func (b *Backend) APIURL() string { return b.URL + "/api" }

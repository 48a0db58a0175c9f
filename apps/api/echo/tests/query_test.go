package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/unichat/core/assistant"
	"github.com/trezcool/unichat/core/student"
	"github.com/trezcool/unichat/tests"
)

func Test_assistantApi_query(t *testing.T) {
	backend := testutil.NewBackend(t, http.StatusOK, testutil.AnaDetails)
	app := setup(t, backend)
	path := "/api/query"

	tests := []httpTest{
		{
			name:     "grade from fetched details",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"question": "What is my grade in Calculus?", "student_id": 1}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"answer": "Hello Ana! Your grade in Calculus is 8.7."}`),
			extra:    "/api/alunos/1/detalhes/",
		},
		{
			name:     "supplied context",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"question": "payment?", "student_id": 2, "context_data": {"nome": "Bob", "dados_financeiros": [{"mensalidade": 900, "data_vencimento": "2023-06-10", "status_pagamento_display": "Pago"}]}}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"answer": "Hello Bob! Your next tuition payment of R$900 is due on 2023-06-10 and its status is Pago."}`),
		},
		{
			name:     "empty context is fetched",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"question": "hello", "student_id": 3, "context_data": {}}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"answer": assistant.Simulate("hello", anaContext(t))}),
			extra:    "/api/alunos/3/detalhes/",
		},
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Detail: map[string]string{
				"question":   "this field is required",
				"student_id": "this field is required",
			}}),
		},
		{
			name:     "non-positive student id",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"question": "hello", "student_id": 0}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"answer": assistant.Simulate("hello", anaContext(t))}),
			extra:    "/api/alunos/0/detalhes/",
		},
		{
			name:     "negative student id with supplied context",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"question": "hello", "student_id": -3, "context_data": {"nome": "Bob"}}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"answer": assistant.Simulate("hello", student.Context{Name: "Bob"})}),
		},
		{
			name:     "context with unknown keys only",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"question": "grade?", "student_id": 7, "context_data": {"foo": 1}}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"answer": assistant.Simulate("grade?", student.Context{})}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := backend.Hits()
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			if rec.Code == http.StatusOK {
				assert.Equal(t, assistant.SourceFallback, rec.Header().Get("X-Answer-Source"))
			}
			if p, ok := tt.extra.(string); ok {
				_, requested := backend.Requested(p)
				assert.True(t, requested, "%s not requested", p)
			} else {
				assert.Equal(t, hits, backend.Hits(), "backend requested")
			}
		})
	}
}

func Test_assistantApi_query_badBody(t *testing.T) {
	app := setup(t, testutil.NewBackend(t, http.StatusOK, testutil.AnaDetails))

	for _, body := range []string{`{"question": `, `{"question": "hi", "student_id": "one"}`, `[]`} {
		req, rec := newRequest(http.MethodPost, "/api/query", []byte(body))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"detail"`, body)
	}
}

func Test_assistantApi_query_noBackend(t *testing.T) {
	backend := testutil.NewBackend(t, http.StatusInternalServerError, `{"detail": "down"}`)
	app := setup(t, backend)

	req, rec := newRequest(http.MethodPost, "/api/query", []byte(`{"question": "hello", "student_id": 1}`))
	app.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, map[string]string{"answer": assistant.Simulate("hello", student.Context{})}),
	}, rec)
	assert.True(t, strings.Contains(rec.Body.String(), "Hello Student!"))
}

type fakeService struct {
	ans assistant.Answer
	err error
}

func (svc fakeService) Answer(context.Context, assistant.QueryRequest) (assistant.Answer, error) {
	return svc.ans, svc.err
}

func Test_assistantApi_query_service(t *testing.T) {
	body := []byte(`{"question": "hello", "student_id": 1}`)

	t.Run("model answer", func(t *testing.T) {
		app, _ := setupWithService(fakeService{ans: assistant.Answer{Text: "Hi!", Source: assistant.SourceModel}})
		req, rec := newRequest(http.MethodPost, "/api/query", body)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"answer": "Hi!"}`)}, rec)
		assert.Equal(t, assistant.SourceModel, rec.Header().Get("X-Answer-Source"))
	})

	t.Run("unexpected failure", func(t *testing.T) {
		app, logger := setupWithService(fakeService{err: errors.New("template exploded")})
		req, rec := newRequest(http.MethodPost, "/api/query", body)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{wantCode: http.StatusInternalServerError, wantData: []byte(`{"detail": "template exploded"}`)}, rec)
		assert.True(t, logger.Contains("error", "Internal Server Error"))
	})
}

package assistant

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/student"
	testutil "github.com/trezcool/unichat/tests"
)

type fakeFetcher struct {
	sc    student.Context
	found bool
	ids   []int
}

func (f *fakeFetcher) Fetch(_ context.Context, id int) (student.Context, bool) {
	f.ids = append(f.ids, id)
	return f.sc, f.found
}

type recordingResponder struct {
	prompt   string
	question string
	sc       student.Context
}

func (r *recordingResponder) Respond(_ context.Context, prompt, question string, sc student.Context) Answer {
	r.prompt, r.question, r.sc = prompt, question, sc
	return Answer{Text: Simulate(question, sc), Source: SourceFallback}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestService_Answer(t *testing.T) {
	validate, _ := core.NewValidator()
	ana := anaContext(t)
	bob := student.Context{Name: "Bob"}

	tests := []struct {
		name        string
		req         QueryRequest
		fetcher     *fakeFetcher
		wantFetched []int
		wantName    string
	}{
		{
			name:        "fetches context",
			req:         QueryRequest{Question: strPtr("hello"), StudentID: intPtr(1)},
			fetcher:     &fakeFetcher{sc: ana, found: true},
			wantFetched: []int{1},
			wantName:    "Ana",
		},
		{
			name:     "uses supplied context",
			req:      QueryRequest{Question: strPtr("hello"), StudentID: intPtr(1), ContextData: &bob},
			fetcher:  &fakeFetcher{sc: ana, found: true},
			wantName: "Bob",
		},
		{
			name:        "empty supplied context is fetched",
			req:         QueryRequest{Question: strPtr("hello"), StudentID: intPtr(4), ContextData: &student.Context{}},
			fetcher:     &fakeFetcher{sc: ana, found: true},
			wantFetched: []int{4},
			wantName:    "Ana",
		},
		{
			name:     "zero student id with supplied context",
			req:      QueryRequest{Question: strPtr("hello"), StudentID: intPtr(0), ContextData: &bob},
			fetcher:  &fakeFetcher{},
			wantName: "Bob",
		},
		{
			name:        "negative student id",
			req:         QueryRequest{Question: strPtr("hello"), StudentID: intPtr(-3)},
			fetcher:     &fakeFetcher{},
			wantFetched: []int{-3},
			wantName:    student.DefaultName,
		},
		{
			name:        "no data",
			req:         QueryRequest{Question: strPtr(""), StudentID: intPtr(9)},
			fetcher:     &fakeFetcher{},
			wantFetched: []int{9},
			wantName:    student.DefaultName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := new(recordingResponder)
			svc := NewService(tt.fetcher, responder, validate, testutil.NewLogger())

			ans, err := svc.Answer(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, ans.Source)
			assert.Contains(t, ans.Text, tt.wantName)
			assert.Equal(t, tt.wantFetched, tt.fetcher.ids)
			assert.Equal(t, *tt.req.Question, responder.question)
			assert.Equal(t, Compose(responder.sc), responder.prompt)
			assert.Equal(t, tt.wantName, responder.sc.DisplayName())
		})
	}
}

func TestService_Answer_invalid(t *testing.T) {
	validate, _ := core.NewValidator()

	tests := []struct {
		name       string
		req        QueryRequest
		wantFields []string
	}{
		{name: "empty", req: QueryRequest{}, wantFields: []string{"question", "student_id"}},
		{name: "no question", req: QueryRequest{StudentID: intPtr(1)}, wantFields: []string{"question"}},
		{name: "no student", req: QueryRequest{Question: strPtr("hi")}, wantFields: []string{"student_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(fakeFetcher)
			svc := NewService(fetcher, new(recordingResponder), validate, testutil.NewLogger())

			_, err := svc.Answer(context.Background(), tt.req)
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			var fields []string
			for _, fe := range vErrs {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
			assert.Empty(t, fetcher.ids)
		})
	}
}

func TestService_Answer_cancelled(t *testing.T) {
	validate, _ := core.NewValidator()
	svc := NewService(new(fakeFetcher), new(recordingResponder), validate, testutil.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Answer(ctx, QueryRequest{Question: strPtr("hi"), StudentID: intPtr(1)})
	assert.ErrorIs(t, err, context.Canceled)
}

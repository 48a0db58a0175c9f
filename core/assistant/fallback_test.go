package assistant

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/unichat/core/student"
	testutil "github.com/trezcool/unichat/tests"
)

func anaContext(t *testing.T) student.Context {
	var sc student.Context
	require.NoError(t, json.Unmarshal([]byte(testutil.AnaDetails), &sc))
	return sc
}

func TestSimulate(t *testing.T) {
	ana := anaContext(t)
	noName := ana
	noName.Name = ""

	tests := []struct {
		name     string
		question string
		sc       student.Context
		want     []string
		notWant  []string
	}{
		{
			name:     "grade for a subject",
			question: "What is my grade in Calculus?",
			sc:       student.Context{Name: "Ana", Grades: []student.Grade{{Subject: "Calculus", Final: "8.7"}}},
			want:     []string{"Ana", "8.7", "Calculus"},
		},
		{
			name:     "grade roll-up",
			question: "show me my grades",
			sc:       ana,
			want:     []string{"Ana", "Calculus: 8.7", "Physics: 7.25"},
		},
		{
			name:     "no grades",
			question: "Qual a minha nota?",
			sc:       student.Context{Name: "Ana"},
			want:     []string{"Ana", "registrar"},
		},
		{
			name:     "grade wins over schedule",
			question: "What is my grade for the class on Monday?",
			sc:       ana,
			want:     []string{"grades on record"},
			notWant:  []string{"room"},
		},
		{
			name:     "class for a subject",
			question: "When is my CALCULUS class?",
			sc:       ana,
			want:     []string{"Ana", "Segunda-feira", "08:00:00", "10:00:00", "B12"},
		},
		{
			name:     "schedule roll-up",
			question: "qual o horário das aulas?",
			sc:       ana,
			want:     []string{"Calculus: Segunda-feira 08:00:00-10:00:00"},
		},
		{
			name:     "no schedule",
			question: "what's my schedule?",
			sc:       student.Context{},
			want:     []string{"Student", "coordination"},
		},
		{
			name:     "billing",
			question: "When is my next tuition payment due?",
			sc:       ana,
			want:     []string{"Ana", "R$1200.00", "2023-05-10", "Pendente"},
		},
		{
			name:     "no billing",
			question: "mensalidade",
			sc:       student.Context{Name: "Ana"},
			want:     []string{"Ana", "financial office"},
		},
		{
			name:     "generic",
			question: "hello",
			sc:       student.Context{},
			want:     []string{"hello", "Student"},
		},
		{
			name:     "empty question",
			question: "",
			sc:       ana,
			want:     []string{"Ana"},
		},
		{
			name:     "unknown name",
			question: "my exam results",
			sc:       noName,
			want:     []string{"Hello Student!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simulate(tt.question, tt.sc)
			assert.NotEmpty(t, got)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, got, nw)
			}
		})
	}
}

func TestSimulate_rollupLimit(t *testing.T) {
	got := Simulate("my grades", contextWith(10, 10))
	assert.Equal(t, 3, strings.Count(got, "Subject "))

	got = Simulate("my schedule", contextWith(10, 10))
	assert.Equal(t, 3, strings.Count(got, "Class "))
}

func TestSimulate_emptySubjects(t *testing.T) {
	sc := student.Context{
		Name:   "Ana",
		Grades: []student.Grade{{Subject: "", Final: "1.0"}, {Subject: "Art", Final: "9.5"}},
	}
	assert.Equal(t, "Hello Ana! Your grade in Art is 9.5.", Simulate("grade in art", sc))
}

func TestSimulate_partialContext(t *testing.T) {
	var sc student.Context
	require.NoError(t, json.Unmarshal([]byte(`{"notas": [{"nota_final": 5}], "horarios": [{}], "dados_financeiros": [{}]}`), &sc))

	for _, q := range []string{"grade", "schedule", "payment", "anything", ""} {
		assert.NotEmpty(t, Simulate(q, sc), q)
	}
}

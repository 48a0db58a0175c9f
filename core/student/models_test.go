package student

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/trezcool/unichat/tests"
)

func TestContext_UnmarshalJSON(t *testing.T) {
	var sc Context
	require.NoError(t, json.Unmarshal([]byte(testutil.AnaDetails), &sc))

	assert.Equal(t, Text("1"), sc.ID)
	assert.Equal(t, "Ana", sc.DisplayName())
	assert.Equal(t, Text("Engenharia"), sc.Course)
	assert.Equal(t, Text("3"), sc.Term)
	require.Len(t, sc.Grades, 2)
	assert.Equal(t, Grade{Subject: "Calculus", Final: "8.7", Term: "2023.1"}, sc.Grades[0])
	assert.Equal(t, Text("7.25"), sc.Grades[1].Final)
	require.Len(t, sc.Schedule, 1)
	assert.Equal(t, Text("Segunda-feira"), sc.Schedule[0].Weekday)
	assert.Equal(t, Text("B12"), sc.Schedule[0].Room)
	require.Len(t, sc.Billing, 1)
	assert.Equal(t, Text("Pendente"), sc.Billing[0].Status)
	assert.False(t, sc.IsEmpty())
}

func TestContext_UnmarshalJSON_partial(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantEmpty    bool
		wantName     string
		wantGrades   int
		wantSchedule int
	}{
		{name: "empty object", data: `{}`, wantEmpty: true, wantName: DefaultName},
		{name: "null", data: `null`, wantEmpty: true, wantName: DefaultName},
		{name: "not an object", data: `[1, 2]`, wantEmpty: true, wantName: DefaultName},
		{name: "unknown keys only", data: `{"email": "x@test.br"}`, wantEmpty: true, wantName: DefaultName},
		{name: "name only", data: `{"nome": "Ana"}`, wantName: "Ana"},
		{name: "null name", data: `{"nome": null, "curso": "Direito"}`, wantName: DefaultName},
		{name: "notas is not a list", data: `{"nome": "Ana", "notas": "lol"}`, wantName: "Ana"},
		{name: "notas entries are not objects", data: `{"notas": [1, "a", {"disciplina": "Art"}]}`, wantName: DefaultName, wantGrades: 1},
		{name: "nested values", data: `{"horarios": [{"disciplina": {"nome": "Art"}, "sala": 12}]}`, wantName: DefaultName, wantSchedule: 1},
		{name: "name is an object", data: `{"nome": {"first": "Ana"}, "curso": "Direito"}`, wantName: `{"first": "Ana"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sc Context
			require.NoError(t, json.Unmarshal([]byte(tt.data), &sc))
			assert.Equal(t, tt.wantEmpty, sc.IsEmpty())
			assert.Equal(t, tt.wantName, sc.DisplayName())
			assert.Len(t, sc.Grades, tt.wantGrades)
			assert.Len(t, sc.Schedule, tt.wantSchedule)
		})
	}
}

func TestText_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		data string
		want Text
	}{
		{data: `"8.70"`, want: "8.70"},
		{data: `8.7`, want: "8.7"},
		{data: `10`, want: "10"},
		{data: `true`, want: "true"},
		{data: `null`, want: ""},
		{data: `"Segunda-feira"`, want: "Segunda-feira"},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tt.data), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

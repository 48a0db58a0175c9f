// Package assistant answers students' questions, with a local model when one could be loaded
// and with canned, keyword-matched answers otherwise.
package assistant

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/unichat/core/student"
)

// Answer sources
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Answer is a generated answer tagged with where it came from.
type Answer struct {
	Text   string `json:"answer"`
	Source string `json:"-"`
}

// FromModel reports whether the answer was generated by a model.
func (a Answer) FromModel() bool { return a.Source == SourceModel }

// QueryRequest is a question asked by a student.
// ContextData, when present and not empty, is used instead of fetching the student's details.
// A decoded `context_data` object with at least one key counts as present, whatever its keys.
type QueryRequest struct {
	Question    *string          `json:"question" validate:"required"`
	StudentID   *int             `json:"student_id" validate:"required"`
	ContextData *student.Context `json:"context_data,omitempty"`

	contextKeys int
}

func (qr *QueryRequest) UnmarshalJSON(b []byte) error {
	type request QueryRequest
	var aux struct {
		request
		ContextData json.RawMessage `json:"context_data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*qr = QueryRequest(aux.request)

	var keys map[string]json.RawMessage
	if json.Unmarshal(aux.ContextData, &keys) != nil || keys == nil {
		return nil // absent, null or not an object
	}
	sc := new(student.Context)
	_ = json.Unmarshal(aux.ContextData, sc)
	qr.ContextData = sc
	qr.contextKeys = len(keys)
	return nil
}

func (qr QueryRequest) Validate(validate *validator.Validate) error { return validate.Struct(qr) }

// Context returns the supplied student context, if any.
func (qr QueryRequest) Context() (student.Context, bool) {
	if qr.ContextData == nil || (qr.contextKeys == 0 && qr.ContextData.IsEmpty()) {
		return student.Context{}, false
	}
	return *qr.ContextData, true
}

// Package student holds the student context consumed by the assistant and the client that fetches it
// from the academic data service.
package student

import (
	"bytes"
	"encoding/json"
)

// DefaultName is used to address a student whose name is unknown.
const DefaultName = "Student"

// Text is a scalar field of the data service's payload.
// It accepts JSON strings, numbers and booleans alike; null decodes to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(b) // numbers & booleans verbatim, e.g. 8.7 -> "8.7"
	return nil
}

func (t Text) String() string { return string(t) }

type (
	// Grade is one entry of `notas`.
	Grade struct {
		Subject Text `json:"disciplina"`
		Final   Text `json:"nota_final"`
		Term    Text `json:"semestre,omitempty"`
	}

	// Class is one entry of `horarios`.
	Class struct {
		Subject   Text `json:"disciplina"`
		Weekday   Text `json:"dia_semana_display"`
		StartTime Text `json:"horario_inicio"`
		EndTime   Text `json:"horario_fim"`
		Room      Text `json:"sala"`
		Professor Text `json:"professor,omitempty"`
	}

	// Billing is one entry of `dados_financeiros`.
	Billing struct {
		Amount  Text `json:"mensalidade"`
		DueDate Text `json:"data_vencimento"`
		Status  Text `json:"status_pagamento_display"`
	}

	// Context describes a student as returned by `GET /alunos/{id}/detalhes/`.
	// It lives for one request and is never persisted here.
	Context struct {
		ID       Text      `json:"id,omitempty"`
		Name     Text      `json:"nome,omitempty"`
		Course   Text      `json:"curso,omitempty"`
		Term     Text      `json:"semestre,omitempty"`
		Grades   []Grade   `json:"notas,omitempty"`
		Schedule []Class   `json:"horarios,omitempty"`
		Billing  []Billing `json:"dados_financeiros,omitempty"`
	}
)

// UnmarshalJSON decodes whatever the data service returns without validating it:
// keys with an unexpected shape and list entries that are not objects are skipped.
func (sc *Context) UnmarshalJSON(b []byte) error {
	*sc = Context{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil // not an object: no data
	}

	decodeField(raw["id"], &sc.ID)
	decodeField(raw["nome"], &sc.Name)
	decodeField(raw["curso"], &sc.Course)
	decodeField(raw["semestre"], &sc.Term)

	for _, item := range decodeList(raw["notas"]) {
		var g Grade
		if json.Unmarshal(item, &g) == nil {
			sc.Grades = append(sc.Grades, g)
		}
	}
	for _, item := range decodeList(raw["horarios"]) {
		var c Class
		if json.Unmarshal(item, &c) == nil {
			sc.Schedule = append(sc.Schedule, c)
		}
	}
	for _, item := range decodeList(raw["dados_financeiros"]) {
		var bl Billing
		if json.Unmarshal(item, &bl) == nil {
			sc.Billing = append(sc.Billing, bl)
		}
	}
	return nil
}

func decodeField(data json.RawMessage, t *Text) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, t); err != nil {
		*t = ""
	}
}

func decodeList(data json.RawMessage) []json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

// IsEmpty reports whether sc carries no student data at all.
func (sc Context) IsEmpty() bool {
	return sc.ID == "" && sc.Name == "" && sc.Course == "" && sc.Term == "" &&
		len(sc.Grades) == 0 && len(sc.Schedule) == 0 && len(sc.Billing) == 0
}

// DisplayName returns the student's name, or DefaultName when unknown.
func (sc Context) DisplayName() string {
	if sc.Name == "" {
		return DefaultName
	}
	return string(sc.Name)
}

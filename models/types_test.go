// ABOUTME: Tests for CRM data models
// ABOUTME: Validates draft detection, filtering, report wire format and cloning
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactIsDraft(t *testing.T) {
	assert.True(t, Contact{}.IsDraft())
	assert.False(t, Contact{ID: "abc123"}.IsDraft())
}

func TestMatchesFiera(t *testing.T) {
	contacts := []Contact{
		{ID: "1", FieraID: "E1"},
		{ID: "2", FieraID: "E1"},
		{ID: "3", FieraID: "E2"},
		{ID: "4"},
	}

	count := func(filter string) int {
		n := 0
		for _, c := range contacts {
			if c.MatchesFiera(filter) {
				n++
			}
		}
		return n
	}

	assert.Equal(t, 2, count("E1"))
	assert.Equal(t, 4, count(AllFieras))
	assert.Equal(t, 1, count("E2"))
}

func TestMatchesSearch(t *testing.T) {
	c := Contact{FirstName: "Mario", LastName: "Rossi", Company: "Acme SpA"}

	assert.True(t, c.MatchesSearch(""))
	assert.True(t, c.MatchesSearch("mario"))
	assert.True(t, c.MatchesSearch("ROSSI"))
	assert.True(t, c.MatchesSearch("acme"))
	assert.False(t, c.MatchesSearch("bianchi"))

	// Email is not part of the search haystack
	c.Email = "info@bianchi.it"
	assert.False(t, c.MatchesSearch("bianchi"))
}

func TestInterestWireFormat(t *testing.T) {
	row := ProductRow{Name: "MRS", Interest: InterestYes, Competitor: "x"}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"MRS","clienteBS":"SI","competitor":"x"}`, string(data))

	row.Interest = InterestNo
	data, err = json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"MRS","clienteBS":"NO","competitor":"x"}`, string(data))

	// Unset serializes as explicit null, matching the legacy nullable enum
	row.Interest = InterestUnset
	data, err = json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"MRS","clienteBS":null,"competitor":"x"}`, string(data))
}

func TestInterestUnmarshal(t *testing.T) {
	cases := map[string]Interest{
		`{"clienteBS":"SI"}`:  InterestYes,
		`{"clienteBS":"NO"}`:  InterestNo,
		`{"clienteBS":null}`:  InterestUnset,
		`{"clienteBS":"si"}`:  InterestYes,
		`{"competitor":"ok"}`: InterestUnset,
	}
	for in, want := range cases {
		var row ProductRow
		require.NoError(t, json.Unmarshal([]byte(in), &row), in)
		assert.Equal(t, want, row.Interest, in)
	}

	var row ProductRow
	assert.Error(t, json.Unmarshal([]byte(`{"clienteBS":"FORSE"}`), &row))
}

func TestNewVisitReport(t *testing.T) {
	r := NewVisitReport()
	require.Len(t, r.Products, len(ProductCatalog))
	for i, row := range r.Products {
		assert.Equal(t, ProductCatalog[i], row.Name)
		assert.Equal(t, InterestUnset, row.Interest)
		assert.Empty(t, row.Competitor)
	}
	assert.NotNil(t, r.Sources)
	assert.Empty(t, r.Sources)
}

func TestToggleLabel(t *testing.T) {
	set := []string{}
	set = ToggleLabel(set, "SITO")
	set = ToggleLabel(set, "ALTRO")
	assert.Equal(t, []string{"SITO", "ALTRO"}, set)
	assert.True(t, HasLabel(set, "SITO"))

	set = ToggleLabel(set, "SITO")
	assert.Equal(t, []string{"ALTRO"}, set)
	assert.False(t, HasLabel(set, "SITO"))
}

func TestScannedCardContact(t *testing.T) {
	card := ScannedCard{FirstName: "Anna", Company: "Beta Srl"}

	draft := card.Contact("E9")
	assert.True(t, draft.IsDraft())
	assert.Equal(t, "E9", draft.FieraID)
	assert.Equal(t, "Anna", draft.FirstName)
	require.NotNil(t, draft.Report)
	assert.Len(t, draft.Report.Products, len(ProductCatalog))

	// The "all" filter must not leak into the record as a foreign key
	draft = card.Contact(AllFieras)
	assert.Empty(t, draft.FieraID)
}

func TestContactClone(t *testing.T) {
	orig := Contact{ID: "1", FirstName: "Mario", Report: NewVisitReport()}
	clone := orig.Clone()

	clone.FirstName = "Luigi"
	clone.Report.Products[0].Interest = InterestYes
	clone.Report.Sources = ToggleLabel(clone.Report.Sources, "SITO")

	assert.Equal(t, "Mario", orig.FirstName)
	assert.Equal(t, InterestUnset, orig.Report.Products[0].Interest)
	assert.Empty(t, orig.Report.Sources)
}

func TestContactJSONRoundTrip(t *testing.T) {
	c := Contact{
		ID:        "doc1",
		FirstName: "Mario",
		LastName:  "Rossi",
		Email:     "mario@acme.it",
		Timestamp: 1700000000000,
		FieraID:   "E1",
		Report:    NewVisitReport(),
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	// Wire names are the legacy Italian ones
	assert.Contains(t, string(data), `"nome":"Mario"`)
	assert.Contains(t, string(data), `"cognome":"Rossi"`)
	assert.Contains(t, string(data), `"fieraId":"E1"`)

	var back Contact
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.ID, back.ID)
	assert.Equal(t, c.Email, back.Email)
	require.NotNil(t, back.Report)
	assert.Len(t, back.Report.Products, len(ProductCatalog))
}

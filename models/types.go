// ABOUTME: Data models for lead-capture CRM entities
// ABOUTME: Defines Contact, Fiera, VisitReport and the fixed report catalogs
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AllFieras is the sentinel filter value meaning "no event filter".
const AllFieras = "all"

// Contact is a scanned business-card record. JSON tags match the wire
// format of the existing Firestore documents and JSON backups, so the
// field names are Italian even though the Go names are not.
//
// An empty ID marks a draft: not yet persisted, not addressable for
// update or delete.
type Contact struct {
	ID        string       `json:"id"`
	FirstName string       `json:"nome"`
	LastName  string       `json:"cognome"`
	Email     string       `json:"email"`
	Phone     string       `json:"telefono"`
	Role      string       `json:"ruolo"`
	Company   string       `json:"azienda"`
	Website   string       `json:"sito_web"`
	Address   string       `json:"indirizzo"`
	Note      string       `json:"note"`
	Timestamp int64        `json:"timestamp"`
	FieraID   string       `json:"fieraId,omitempty"`
	Report    *VisitReport `json:"report"`
}

// IsDraft reports whether the contact has never been persisted.
func (c Contact) IsDraft() bool {
	return c.ID == ""
}

// MatchesFiera reports whether the contact is visible under the given
// event filter. The AllFieras sentinel matches everything.
func (c Contact) MatchesFiera(fieraID string) bool {
	return fieraID == AllFieras || c.FieraID == fieraID
}

// MatchesSearch is a case-insensitive substring match over first name,
// last name and company.
func (c Contact) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	haystack := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Company)
	return strings.Contains(haystack, strings.ToLower(term))
}

// DisplayName returns a human-readable name for lists.
func (c Contact) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = c.Company
	}
	if name == "" {
		name = "(senza nome)"
	}
	return name
}

// Clone returns a deep copy of the contact, including the report, so
// edits never touch the cached snapshot.
func (c Contact) Clone() Contact {
	out := c
	if c.Report != nil {
		r := *c.Report
		r.Products = append([]ProductRow(nil), c.Report.Products...)
		r.Sources = append([]string{}, c.Report.Sources...)
		r.FairActions = append([]string{}, c.Report.FairActions...)
		r.FutureActions = append([]string{}, c.Report.FutureActions...)
		out.Report = &r
	}
	return out
}

// ScannedCard is the raw OCR extraction result: the nine textual card
// fields, always present, possibly empty.
type ScannedCard struct {
	FirstName string `json:"nome"`
	LastName  string `json:"cognome"`
	Email     string `json:"email"`
	Phone     string `json:"telefono"`
	Role      string `json:"ruolo"`
	Company   string `json:"azienda"`
	Website   string `json:"sito_web"`
	Address   string `json:"indirizzo"`
	Note      string `json:"note"`
}

// Contact builds a draft contact from the extraction, optionally
// pre-assigned to an event.
func (s ScannedCard) Contact(fieraID string) Contact {
	if fieraID == AllFieras {
		fieraID = ""
	}
	return Contact{
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Phone:     s.Phone,
		Role:      s.Role,
		Company:   s.Company,
		Website:   s.Website,
		Address:   s.Address,
		Note:      s.Note,
		FieraID:   fieraID,
		Report:    NewVisitReport(),
	}
}

// Fiera is a named event (trade fair) grouping contacts. Created on
// demand, never edited, deleted explicitly.
type Fiera struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
}

// Interest is the tri-state product interest flag. The zero value is
// InterestUnset so a fresh report row starts undecided.
type Interest int

const (
	InterestUnset Interest = iota
	InterestYes
	InterestNo
)

// Wire values kept from the original data ("SI"/"NO"/null).
var (
	interestYesJSON = []byte(`"SI"`)
	interestNoJSON  = []byte(`"NO"`)
	nullJSON        = []byte("null")
)

func (i Interest) String() string {
	switch i {
	case InterestYes:
		return "SI"
	case InterestNo:
		return "NO"
	default:
		return ""
	}
}

func (i Interest) MarshalJSON() ([]byte, error) {
	switch i {
	case InterestYes:
		return interestYesJSON, nil
	case InterestNo:
		return interestNoJSON, nil
	default:
		return nullJSON, nil
	}
}

func (i *Interest) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, nullJSON) {
		*i = InterestUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("interest flag: %w", err)
	}
	switch strings.ToUpper(s) {
	case "SI":
		*i = InterestYes
	case "NO":
		*i = InterestNo
	case "":
		*i = InterestUnset
	default:
		return fmt.Errorf("interest flag: unknown value %q", s)
	}
	return nil
}

// ProductRow is one line of the visit report. Row identity is the
// product name against the fixed catalog; rows are never added or
// removed, only the flag and competitor note change.
type ProductRow struct {
	Name       string   `json:"name"`
	Interest   Interest `json:"clienteBS"`
	Competitor string   `json:"competitor"`
}

// VisitReport is the embedded per-contact report: one row per catalog
// product plus three label sets drawn from fixed catalogs.
type VisitReport struct {
	Products      []ProductRow `json:"products"`
	Sources       []string     `json:"sources"`
	FairActions   []string     `json:"actionsFiera"`
	FutureActions []string     `json:"actionsFuture"`
}

// Fixed catalogs. Configuration constants, not data: loaded once,
// never stored per-record.
var (
	ProductCatalog = []string{
		"CATENE PORTACAVI NYLON",
		"CATENE PORTACAVI ACCIAIO",
		"CAVI / CAVI CABLATI",
		"GUAINE E RACCORDI",
		"TOTAL CHAIN",
		"MRS",
		"ALTRO...",
	}

	SourceCatalog = []string{"SITO", "SOCIAL", "PASSAPAROLA", "PUBBLICITÀ", "ALTRO"}

	FairActionCatalog = []string{
		"CONSEGNATO CATALOGO CATENE",
		"CONSEGNATO CATALOGO CAVI",
		"CONSEGNATO CATALOGO GUAINE",
		"CONSEGNATO CATALOGO MRS",
	}

	FutureActionCatalog = []string{"INVIARE CATALOGHI", "VISITA FUNZIONARIO DI ZONA", "ALTRO..."}
)

// NewVisitReport builds an empty report with one unset row per catalog
// product.
func NewVisitReport() *VisitReport {
	rows := make([]ProductRow, len(ProductCatalog))
	for i, name := range ProductCatalog {
		rows[i] = ProductRow{Name: name}
	}
	return &VisitReport{
		Products:      rows,
		Sources:       []string{},
		FairActions:   []string{},
		FutureActions: []string{},
	}
}

// ToggleLabel adds the label to the set if absent, removes it if
// present, returning the updated set.
func ToggleLabel(set []string, label string) []string {
	for i, l := range set {
		if l == label {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(set, label)
}

// HasLabel reports whether the label is selected.
func HasLabel(set []string, label string) bool {
	for _, l := range set {
		if l == label {
			return true
		}
	}
	return false
}

// ABOUTME: Review and edit view
// ABOUTME: Card fields plus the embedded visit report panes
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"fieracrm/app"
	"fieracrm/models"
)

var reviewFieldLabels = []string{
	"Nome", "Cognome", "Email", "Telefono", "Ruolo",
	"Azienda", "Sito web", "Indirizzo", "Note",
}

func reviewFieldValues(c *models.Contact) []string {
	return []string{
		c.FirstName, c.LastName, c.Email, c.Phone, c.Role,
		c.Company, c.Website, c.Address, c.Note,
	}
}

func applyReviewFields(c *models.Contact, values []string) {
	c.FirstName = values[0]
	c.LastName = values[1]
	c.Email = values[2]
	c.Phone = values[3]
	c.Role = values[4]
	c.Company = values[5]
	c.Website = values[6]
	c.Address = values[7]
	c.Note = values[8]
}

// enterReview builds the form from the in-flight record. Drafts are
// immediately editable; persisted records open read-only.
func (m *Model) enterReview() {
	record := m.ctrl.InFlight()
	if record == nil {
		m.viewMode = ViewList
		return
	}

	values := reviewFieldValues(record)
	m.fieldInputs = make([]textinput.Model, len(values))
	for i, v := range values {
		in := textinput.New()
		in.SetValue(v)
		in.CharLimit = 256
		m.fieldInputs[i] = in
	}

	m.focusIndex = 0
	m.reportPane = false
	m.reportRow = 0
	m.editingCompetitor = false
	m.competitorInput = textinput.New()

	if m.editable() {
		m.fieldInputs[0].Focus()
	}
	m.viewMode = ViewReview
}

// editable reports whether the form accepts input: drafts always,
// persisted records only after BeginEdit.
func (m *Model) editable() bool {
	if m.ctrl.State() == app.StateEditing {
		return true
	}
	return m.ctrl.State() == app.StateReviewing && !m.ctrl.ReviewingExisting()
}

func (m *Model) renderReviewView() string {
	record := m.ctrl.InFlight()
	if record == nil {
		return ""
	}

	var s strings.Builder
	title := "NUOVO CONTATTO"
	if !record.IsDraft() {
		title = record.DisplayName()
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	if m.reportPane {
		s.WriteString(m.renderReportPane(record))
	} else {
		s.WriteString(m.renderFieldsPane())
	}

	if msg := m.ctrl.LastError(); msg != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(msg))
		s.WriteString("\n")
	}

	s.WriteString(m.renderReviewHelp(record))
	return s.String()
}

func (m *Model) renderFieldsPane() string {
	var s strings.Builder
	for i, label := range reviewFieldLabels {
		s.WriteString(labelStyle.Render(label))
		if m.editable() {
			s.WriteString(m.fieldInputs[i].View())
		} else {
			s.WriteString(m.fieldInputs[i].Value())
		}
		s.WriteString("\n")
	}
	return s.String()
}

// reportItemCount is the cursor range of the report pane: one row per
// product, then one per catalog label.
func reportItemCount() int {
	return len(models.ProductCatalog) +
		len(models.SourceCatalog) +
		len(models.FairActionCatalog) +
		len(models.FutureActionCatalog)
}

func (m *Model) renderReportPane(record *models.Contact) string {
	report := record.Report
	if report == nil {
		return ""
	}

	var s strings.Builder
	cursor := 0
	line := func(idx int, text string) {
		if idx == m.reportRow {
			s.WriteString(selectedStyle.Render("> " + text))
		} else {
			s.WriteString("  " + text)
		}
		s.WriteString("\n")
	}

	s.WriteString("Prodotti\n")
	for _, row := range report.Products {
		flag := " "
		if row.Interest != models.InterestUnset {
			flag = row.Interest.String()
		}
		text := fmt.Sprintf("[%s] %-28s", flag, row.Name)
		if row.Competitor != "" {
			text += " conc: " + row.Competitor
		}
		if m.editingCompetitor && cursor == m.reportRow {
			text = fmt.Sprintf("[%s] %-28s conc: %s", flag, row.Name, m.competitorInput.View())
		}
		line(cursor, text)
		cursor++
	}

	renderLabels := func(header string, catalog []string, set []string) {
		s.WriteString("\n" + header + "\n")
		for _, label := range catalog {
			mark := "[ ]"
			if models.HasLabel(set, label) {
				mark = "[x]"
			}
			line(cursor, mark+" "+label)
			cursor++
		}
	}
	renderLabels("Come ci ha conosciuto", models.SourceCatalog, report.Sources)
	renderLabels("Azioni in fiera", models.FairActionCatalog, report.FairActions)
	renderLabels("Azioni future", models.FutureActionCatalog, report.FutureActions)

	return s.String()
}

func (m *Model) renderReviewHelp(record *models.Contact) string {
	var help []string
	switch {
	case m.editingCompetitor:
		help = []string{"Enter: Conferma", "Esc: Annulla"}
	case m.reportPane && m.editable():
		help = []string{"↑/↓: Naviga", "Spazio: Cambia", "c: Concorrente", "Ctrl+R: Campi", "Ctrl+S: Salva"}
	case m.reportPane:
		help = []string{"Ctrl+R: Campi", "Esc: Chiudi"}
	case m.editable():
		help = []string{"Tab/↑/↓: Campo", "Ctrl+R: Report", "Ctrl+S: Salva"}
		if record.IsDraft() {
			help = append(help, "Esc: Scarta")
		} else {
			help = append(help, "Esc: Annulla modifiche")
		}
	default:
		help = []string{"e: Modifica", "d: Elimina", "Ctrl+R: Report", "Esc: Chiudi"}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editingCompetitor {
		return m.handleCompetitorKeys(msg)
	}

	switch msg.String() {
	case "ctrl+r":
		m.reportPane = !m.reportPane
		return m, nil
	case "ctrl+s":
		if m.editable() {
			return m.saveReview()
		}
		return m, nil
	case "esc":
		return m.closeReview()
	}

	if m.reportPane {
		return m.handleReportKeys(msg)
	}

	if !m.editable() {
		switch msg.String() {
		case "e":
			if err := m.ctrl.BeginEdit(); err == nil {
				m.fieldInputs[m.focusIndex].Focus()
			}
		case "d":
			record := m.ctrl.InFlight()
			if record != nil && !record.IsDraft() {
				m.deleteContactID = record.ID
				m.viewMode = ViewConfirmDeleteContact
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		return m.focusField(m.focusIndex + 1), nil
	case "shift+tab", "up":
		return m.focusField(m.focusIndex - 1), nil
	}

	var cmd tea.Cmd
	m.fieldInputs[m.focusIndex], cmd = m.fieldInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) focusField(idx int) *Model {
	n := len(m.fieldInputs)
	idx = (idx + n) % n
	m.fieldInputs[m.focusIndex].Blur()
	m.focusIndex = idx
	m.fieldInputs[m.focusIndex].Focus()
	return m
}

func (m *Model) handleReportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	record := m.ctrl.InFlight()
	if record == nil || record.Report == nil {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.reportRow > 0 {
			m.reportRow--
		}
	case "down", "j":
		if m.reportRow < reportItemCount()-1 {
			m.reportRow++
		}
	case " ":
		if m.editable() {
			m.toggleReportItem()
		}
	case "c":
		if m.editable() && m.reportRow < len(models.ProductCatalog) {
			m.competitorInput = textinput.New()
			m.competitorInput.SetValue(record.Report.Products[m.reportRow].Competitor)
			m.competitorInput.Focus()
			m.editingCompetitor = true
		}
	}
	return m, nil
}

// toggleReportItem advances the item under the cursor: product rows
// cycle the tri-state flag, labels flip membership.
func (m *Model) toggleReportItem() {
	idx := m.reportRow
	_ = m.ctrl.UpdateInFlight(func(c *models.Contact) {
		if c.Report == nil {
			return
		}
		if idx < len(c.Report.Products) {
			row := &c.Report.Products[idx]
			switch row.Interest {
			case models.InterestUnset:
				row.Interest = models.InterestYes
			case models.InterestYes:
				row.Interest = models.InterestNo
			default:
				row.Interest = models.InterestUnset
			}
			return
		}
		idx -= len(c.Report.Products)
		if idx < len(models.SourceCatalog) {
			c.Report.Sources = models.ToggleLabel(c.Report.Sources, models.SourceCatalog[idx])
			return
		}
		idx -= len(models.SourceCatalog)
		if idx < len(models.FairActionCatalog) {
			c.Report.FairActions = models.ToggleLabel(c.Report.FairActions, models.FairActionCatalog[idx])
			return
		}
		idx -= len(models.FairActionCatalog)
		if idx < len(models.FutureActionCatalog) {
			c.Report.FutureActions = models.ToggleLabel(c.Report.FutureActions, models.FutureActionCatalog[idx])
		}
	})
}

func (m *Model) handleCompetitorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		idx := m.reportRow
		value := m.competitorInput.Value()
		_ = m.ctrl.UpdateInFlight(func(c *models.Contact) {
			if c.Report != nil && idx < len(c.Report.Products) {
				c.Report.Products[idx].Competitor = value
			}
		})
		m.editingCompetitor = false
		return m, nil
	case "esc":
		m.editingCompetitor = false
		return m, nil
	}

	var cmd tea.Cmd
	m.competitorInput, cmd = m.competitorInput.Update(msg)
	return m, cmd
}

func (m *Model) saveReview() (tea.Model, tea.Cmd) {
	values := make([]string, len(m.fieldInputs))
	for i := range m.fieldInputs {
		values[i] = m.fieldInputs[i].Value()
	}
	if err := m.ctrl.UpdateInFlight(func(c *models.Contact) {
		applyReviewFields(c, values)
	}); err != nil {
		return m, nil
	}

	if err := m.ctrl.Save(context.Background()); err != nil {
		// Record stays in flight; the surfaced error renders here.
		return m, nil
	}
	m.viewMode = ViewList
	return m, nil
}

func (m *Model) closeReview() (tea.Model, tea.Cmd) {
	record := m.ctrl.InFlight()
	if record == nil {
		m.viewMode = ViewList
		return m, nil
	}

	switch {
	case m.ctrl.State() == app.StateEditing:
		if err := m.ctrl.CancelEdit(); err == nil {
			// Rebuild the form from the restored snapshot.
			m.enterReview()
			return m, nil
		}
		// A draft in editing cannot cancel; fall through to discard.
		m.ctrl.Discard()
	default:
		m.ctrl.Discard()
	}
	m.viewMode = ViewList
	return m, nil
}

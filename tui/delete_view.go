// ABOUTME: Delete confirmation views
// ABOUTME: Contact confirmation plus the fiera dialog with its disposition choice
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) renderConfirmDeleteContactView() string {
	name := m.deleteContactID
	for _, c := range m.ctrl.Contacts() {
		if c.ID == m.deleteContactID {
			name = c.DisplayName()
			break
		}
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("ELIMINA CONTATTO"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Eliminare definitivamente %s?\n", name))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("y: Elimina • n/Esc: Annulla"))
	return s.String()
}

func (m *Model) handleConfirmDeleteContactKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		_ = m.ctrl.DeleteContact(context.Background(), m.deleteContactID)
		m.deleteContactID = ""
		m.viewMode = ViewList
	case "n", "N", "esc":
		m.deleteContactID = ""
		// Back to the review if one is still open, otherwise the list.
		if m.ctrl.InFlight() != nil {
			m.viewMode = ViewReview
		} else {
			m.viewMode = ViewList
		}
	}
	return m, nil
}

// beginDeleteFiera opens the fiera dialog. The disposition choices are
// detach plus every other fiera as a move target.
func (m *Model) beginDeleteFiera(id string) {
	m.deleteFieraID = id
	m.deleteFieraName = id
	m.deleteMoveChoices = []string{""}
	m.deleteMoveIndex = 0

	for _, f := range m.ctrl.Fieras() {
		if f.ID == id {
			m.deleteFieraName = f.Name
			continue
		}
		m.deleteMoveChoices = append(m.deleteMoveChoices, f.ID)
	}
	m.viewMode = ViewConfirmDeleteFiera
}

func (m *Model) renderConfirmDeleteFieraView() string {
	associated := m.ctrl.AssociatedContacts(m.deleteFieraID)

	var s strings.Builder
	s.WriteString(titleStyle.Render("ELIMINA FIERA"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Eliminare la fiera %q?\n", m.deleteFieraName))

	if len(associated) > 0 {
		s.WriteString(fmt.Sprintf("\n%d contatto/i associati. Destinazione:\n\n", len(associated)))

		names := map[string]string{}
		for _, f := range m.ctrl.Fieras() {
			names[f.ID] = f.Name
		}
		for i, choice := range m.deleteMoveChoices {
			label := "Nessuna fiera (scollega)"
			if choice != "" {
				label = "Sposta in " + names[choice]
			}
			if i == m.deleteMoveIndex {
				s.WriteString(selectedStyle.Render("> "+label) + "\n")
			} else {
				s.WriteString("  " + label + "\n")
			}
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: Destinazione • y: Elimina • n/Esc: Annulla"))
	return s.String()
}

func (m *Model) handleConfirmDeleteFieraKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.deleteMoveIndex > 0 {
			m.deleteMoveIndex--
		}
	case "down", "j":
		if m.deleteMoveIndex < len(m.deleteMoveChoices)-1 {
			m.deleteMoveIndex++
		}
	case "y", "Y":
		moveTo := ""
		if m.deleteMoveIndex < len(m.deleteMoveChoices) {
			moveTo = m.deleteMoveChoices[m.deleteMoveIndex]
		}
		_ = m.ctrl.DeleteFiera(context.Background(), m.deleteFieraID, moveTo)
		m.deleteFieraID = ""
		m.viewMode = ViewList
	case "n", "N", "esc":
		m.deleteFieraID = ""
		m.viewMode = ViewList
	}
	return m, nil
}

func (m *Model) renderNewFieraView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("NUOVA FIERA"))
	s.WriteString("\n\n")
	s.WriteString("Nome della fiera\n\n")
	s.WriteString(m.fieraInput.View())
	s.WriteString("\n")
	if m.status != "" {
		s.WriteString("\n" + m.status + "\n")
	}
	s.WriteString(helpStyle.Render("Enter: Crea • Esc: Annulla"))
	return s.String()
}

func (m *Model) handleNewFieraKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.status = ""
		m.viewMode = ViewList
		return m, nil
	case "enter":
		_, err := m.ctrl.CreateFiera(context.Background(), m.fieraInput.Value())
		if err != nil {
			m.status = errorStyle.Render(err.Error())
			return m, nil
		}
		m.status = ""
		m.viewMode = ViewList
		return m, nil
	}

	var cmd tea.Cmd
	m.fieraInput, cmd = m.fieraInput.Update(msg)
	return m, cmd
}

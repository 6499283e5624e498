// ABOUTME: Contact list view
// ABOUTME: Fiera filter tabs, live search and entry points to every flow
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fieracrm/models"
)

func (m *Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FIERA CRM"))
	s.WriteString("\n\n")

	s.WriteString(m.renderFieraTabs())
	s.WriteString("\n\n")

	if m.searching {
		s.WriteString("Cerca: " + m.searchInput.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderContactsTable())
	s.WriteString("\n")

	if msg := m.ctrl.LastError(); msg != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(msg))
		s.WriteString("\n")
	}
	if m.status != "" {
		s.WriteString("\n" + m.status + "\n")
	}

	s.WriteString(m.renderListHelp())
	return s.String()
}

func (m *Model) renderFieraTabs() string {
	fieras := m.ctrl.Fieras()
	active := m.ctrl.ActiveFiera()

	rendered := []string{}
	if active == models.AllFieras {
		rendered = append(rendered, tabActiveStyle.Render("Tutte"))
	} else {
		rendered = append(rendered, tabInactiveStyle.Render("Tutte"))
	}
	for _, f := range fieras {
		if f.ID == active {
			rendered = append(rendered, tabActiveStyle.Render(f.Name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(f.Name))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m *Model) renderContactsTable() string {
	contacts := m.ctrl.VisibleContacts()
	if len(contacts) == 0 {
		return helpStyle.Render("Nessun contatto")
	}

	fieraNames := map[string]string{}
	for _, f := range m.ctrl.Fieras() {
		fieraNames[f.ID] = f.Name
	}

	columns := []table.Column{
		{Title: "Nome", Width: 28},
		{Title: "Azienda", Width: 24},
		{Title: "Email", Width: 28},
		{Title: "Fiera", Width: 18},
	}

	var rows []table.Row
	for _, c := range contacts {
		rows = append(rows, table.Row{
			c.DisplayName(),
			c.Company,
			c.Email,
			fieraNames[c.FieraID],
		})
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m *Model) renderListHelp() string {
	help := []string{
		"↑/↓: Naviga",
		"Tab: Fiera",
		"Enter: Apri",
		"/: Cerca",
		"n: Scansiona",
		"f: Nuova fiera",
		"d: Elimina contatto",
		"x: Elimina fiera",
		"e: Esporta",
		"L: Logout",
		"q: Esci",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.searchInput.Blur()
			if msg.String() == "esc" {
				m.searchInput.SetValue("")
				m.ctrl.SetSearch("")
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.ctrl.SetSearch(m.searchInput.Value())
		m.selectedRow = 0
		return m, cmd
	}

	m.status = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.ctrl.VisibleContacts())-1 {
			m.selectedRow++
		}
	case "tab":
		m.cycleFiera(1)
		m.selectedRow = 0
	case "shift+tab":
		m.cycleFiera(-1)
		m.selectedRow = 0
	case "/":
		m.searching = true
		m.searchInput.Focus()
	case "enter":
		contacts := m.ctrl.VisibleContacts()
		if m.selectedRow < len(contacts) {
			if err := m.ctrl.OpenContact(contacts[m.selectedRow].ID); err == nil {
				m.enterReview()
			}
		}
	case "n":
		if err := m.ctrl.BeginCapture(); err == nil {
			m.pathInput.SetValue("")
			m.pathInput.Focus()
			m.viewMode = ViewCapture
		}
	case "f":
		m.fieraInput.SetValue("")
		m.fieraInput.Focus()
		m.viewMode = ViewNewFiera
	case "d":
		contacts := m.ctrl.VisibleContacts()
		if m.selectedRow < len(contacts) {
			m.deleteContactID = contacts[m.selectedRow].ID
			m.viewMode = ViewConfirmDeleteContact
		}
	case "x":
		if id := m.ctrl.ActiveFiera(); id != models.AllFieras {
			m.beginDeleteFiera(id)
		}
	case "e":
		m.exportCurrent()
	case "L":
		if err := m.ctrl.Logout(); err == nil {
			m.passwordInput.SetValue("")
			m.passwordInput.Focus()
			m.viewMode = ViewLogin
		}
	case "esc":
		m.ctrl.ClearError()
	}

	return m, nil
}

func (m *Model) cycleFiera(dir int) {
	fieras := m.ctrl.Fieras()
	ids := []string{models.AllFieras}
	for _, f := range fieras {
		ids = append(ids, f.ID)
	}

	current := 0
	for i, id := range ids {
		if id == m.ctrl.ActiveFiera() {
			current = i
			break
		}
	}
	next := (current + dir + len(ids)) % len(ids)
	m.ctrl.SetActiveFiera(ids[next])
}

func (m *Model) exportCurrent() {
	name := m.ctrl.ExportFileName()
	file, err := os.Create(name)
	if err != nil {
		m.status = errorStyle.Render("Esportazione fallita: " + err.Error())
		return
	}
	defer func() { _ = file.Close() }()

	if err := m.ctrl.ExportContacts(file); err != nil {
		m.status = errorStyle.Render("Esportazione fallita: " + err.Error())
		return
	}
	m.status = fmt.Sprintf("✓ Esportato in %s", name)
}

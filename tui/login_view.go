// ABOUTME: Login view
// ABOUTME: Shared-password gate in front of every other view
package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"fieracrm/app"
)

func (m *Model) renderLoginView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FIERA CRM"))
	s.WriteString("\n\n")
	s.WriteString("Inserisci la password per continuare\n\n")
	s.WriteString(m.passwordInput.View())
	s.WriteString("\n")

	if m.loginErr != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.loginErr))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("Enter: Accedi • Ctrl+C: Esci"))
	return s.String()
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		err := m.ctrl.Session().Login(m.passwordInput.Value())
		if errors.Is(err, app.ErrBadPassword) {
			m.loginErr = "Password errata"
			m.passwordInput.SetValue("")
			return m, nil
		}
		if err != nil {
			m.loginErr = err.Error()
			return m, nil
		}
		if err := m.ctrl.Start(context.Background()); err != nil {
			m.loginErr = err.Error()
			return m, nil
		}
		m.loginErr = ""
		m.viewMode = ViewList
		return m, nil
	}

	var cmd tea.Cmd
	m.passwordInput, cmd = m.passwordInput.Update(msg)
	return m, cmd
}

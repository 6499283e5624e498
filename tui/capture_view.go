// ABOUTME: Capture view
// ABOUTME: Image path input and the background OCR extraction step
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"fieracrm/app"
)

func (m *Model) renderCaptureView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("SCANSIONA BIGLIETTO"))
	s.WriteString("\n\n")

	if m.ctrl.State() == app.StateExtracting {
		s.WriteString("Estrazione in corso...\n")
		s.WriteString(helpStyle.Render("Esc: Annulla"))
		return s.String()
	}

	s.WriteString("Percorso dell'immagine del biglietto da visita\n\n")
	s.WriteString(m.pathInput.View())
	s.WriteString("\n")

	if msg := m.ctrl.LastError(); msg != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(msg))
		s.WriteString("\n")
	}
	if m.status != "" {
		s.WriteString("\n" + m.status + "\n")
	}

	s.WriteString(helpStyle.Render("Enter: Estrai • Esc: Indietro"))
	return s.String()
}

func (m *Model) handleCaptureKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ctrl.CancelCapture()
		m.viewMode = ViewList
		return m, nil
	case "enter":
		if m.ctrl.State() == app.StateExtracting {
			return m, nil
		}
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			return m, nil
		}
		image, err := os.ReadFile(path)
		if err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Impossibile leggere %s", path))
			return m, nil
		}
		return m, func() tea.Msg {
			err := m.ctrl.ProcessImage(context.Background(), image)
			return extractionDoneMsg{err: err}
		}
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) handleExtractionDone(msg extractionDoneMsg) (tea.Model, tea.Cmd) {
	if m.viewMode != ViewCapture {
		// Navigated away mid-extraction; the controller already
		// discarded the result.
		return m, nil
	}
	if msg.err != nil {
		// The surfaced error renders on the list view.
		m.viewMode = ViewList
		return m, nil
	}
	m.enterReview()
	return m, nil
}

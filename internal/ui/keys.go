package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(mobile bool) string {
	if mobile {
		return "space pause  ←/→ seek  +/- vol  m mirror  q quit"
	}
	return "space pause  ←/→ seek  +/- volume  m mirror  o loop  r restart  q quit"
}

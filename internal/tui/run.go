package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"stylist/internal/ingest"
	"stylist/internal/matching"
)

// Run starts the program and forwards service updates into it until exit.
func Run(service StylistPort) error {
	p := tea.NewProgram(New(service), tea.WithAltScreen())
	stopBatch := service.SubscribeBatch(func(u ingest.Update) { p.Send(batchMsg(u)) })
	defer stopBatch()
	stopMatch := service.SubscribeMatch(func(u matching.Update) { p.Send(matchMsg(u)) })
	defer stopMatch()
	_, err := p.Run()
	return err
}

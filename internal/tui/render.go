package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stylist/internal/domain"
	"stylist/internal/matching"
)

var (
	bodyStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 2)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 2)
	headingStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	toastStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func (m Model) renderTabs() string {
	names := []string{"Wardrobe", "Outfit"}
	parts := make([]string, len(names))
	for i, n := range names {
		if tab(i) == m.tab {
			parts[i] = activeTabStyle.Render(n)
		} else {
			parts[i] = tabStyle.Render(n)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderWardrobe() string {
	var b strings.Builder
	if len(m.entries) > 0 {
		b.WriteString(headingStyle.Render("Processing"))
		b.WriteString("\n")
		for _, e := range m.entries {
			b.WriteString(renderEntry(e, m.spinner.View()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if m.toast != "" {
		b.WriteString(toastStyle.Render(m.toast))
		b.WriteString("\n\n")
	}
	b.WriteString(headingStyle.Render(fmt.Sprintf("Recently added (%d)", len(m.recent))))
	b.WriteString("\n")
	if len(m.recent) == 0 {
		b.WriteString(mutedStyle.Render("Nothing added yet. Enter image paths below."))
		return b.String()
	}
	for _, it := range m.recent {
		b.WriteString(renderItemLine(it))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEntry(e domain.ProcessingEntry, spin string) string {
	switch e.Stage {
	case domain.StageComplete:
		return okStyle.Render("✓ ") + e.Name
	case domain.StageError:
		return errorStyle.Render("✗ ") + e.Name + "  " + errorStyle.Render(e.Status())
	}
	return spin + " " + e.Name + "  " + mutedStyle.Render(e.Status())
}

func renderItemLine(it domain.ClothingItem) string {
	var facets []string
	for _, v := range []string{it.Color(), it.Category(), it.Style()} {
		if v != "" {
			facets = append(facets, v)
		}
	}
	line := it.ImageFilename()
	if len(facets) > 0 {
		line += "  " + mutedStyle.Render(strings.Join(facets, " · "))
	}
	return line
}

func (m Model) renderOutfit() string {
	var b strings.Builder
	if m.phase != matching.PhaseIdle {
		b.WriteString(m.spinner.View() + " " + m.phase.Label())
		b.WriteString("\n\n")
	}
	if m.matchErr != "" {
		b.WriteString(errorStyle.Render(m.matchErr))
		b.WriteString("\n\n")
	}
	if m.result == nil {
		if m.phase == matching.PhaseIdle && m.matchErr == "" {
			b.WriteString(mutedStyle.Render("Describe an occasion below to get an outfit."))
		}
		return b.String()
	}
	sel := m.result.Selection
	b.WriteString(headingStyle.Render(fmt.Sprintf("Best outfit  score=%.1f", sel.Score)))
	b.WriteString("\n")
	for _, role := range domain.Roles {
		it := sel.Item(role)
		if it == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("%-10s %s\n", role, renderItemLine(*it)))
	}
	if sel.Reason != "" {
		b.WriteString("\n" + sel.Reason + "\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d combinations evaluated", m.result.Combinations)))
	return b.String()
}

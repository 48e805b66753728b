package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/verte-zerg/quickkeys/internal/model"
)

const newScoreMark = "◀ NEW"

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	penaltyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	bestStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FACC15")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80")).Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))

	targetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#1E3A8A"))
	targetErrorStyle = targetStyle.
				Foreground(lipgloss.Color("#FF4D4F")).
				BorderForeground(lipgloss.Color("#FF4D4F"))
)

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.engine.Snapshot()
	var content string
	switch snap.Phase {
	case model.PhasePlaying:
		content = m.renderPlaying(snap)
	case model.PhaseFinished:
		content = m.renderFinished()
	default:
		content = m.renderMenu()
	}
	footer := m.renderFooter(snap.Phase)
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, truncate(footer, m.width))
	return body + "\n" + footerLine
}

func (m *Model) renderMenu() string {
	rules := m.engine.Rules()
	lines := []string{
		titleStyle.Render("QUICKKEYS"),
		mutedStyle.Render("A reflex typing challenge."),
		"",
		fmt.Sprintf("• Press %d characters as they appear.", rules.TotalRounds),
		"• Your score is the total time. Lower is better.",
		fmt.Sprintf("• A wrong key adds %s.", penaltyStyle.Render(fmt.Sprintf("+%gs", rules.PenaltySeconds))),
	}
	if len(m.highScores) > 0 {
		lines = append(lines, "", labelStyle.Render("BEST SCORES"))
		lines = append(lines, renderHighScores(m.highScores, "")...)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPlaying(snap model.Snapshot) string {
	left := labelStyle.Render("SCORE ") + scoreStyle.Render(fmt.Sprintf("%.2fs", snap.Score))
	right := labelStyle.Render("ROUND ") + valueStyle.Render(fmt.Sprintf("%d/%d", snap.Round, snap.TotalRounds))
	bar := m.progress.ViewAs(roundProgress(snap.Round, snap.TotalRounds))
	header := spaceBetween(left, right, lipgloss.Width(bar))

	glyph := targetStyle
	penalty := ""
	if snap.Flash {
		glyph = targetErrorStyle
		penalty = penaltyStyle.Render(fmt.Sprintf("PENALTY +%gs!", m.engine.Rules().PenaltySeconds))
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		header,
		bar,
		"",
		glyph.Render(string(snap.Target)),
		penalty,
		mutedStyle.Render("Press the matching key"),
	)
}

func (m *Model) renderFinished() string {
	lines := []string{
		doneStyle.Render("CHALLENGE COMPLETE"),
		"",
		labelStyle.Render("YOUR SCORE"),
		scoreStyle.Render(fmt.Sprintf("%.2fs", m.finalScore)),
	}
	if m.personalBest {
		lines = append(lines, "", bestStyle.Render("NEW PERSONAL BEST!"))
	}
	if len(m.highScores) > 0 {
		lines = append(lines, "", labelStyle.Render("BEST SCORES"))
		lines = append(lines, renderHighScores(m.highScores, m.lastEntry.ID)...)
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderFooter(phase model.Phase) string {
	switch phase {
	case model.PhasePlaying:
		return footerStyle.Render("ctrl+c: quit")
	case model.PhaseFinished:
		return footerStyle.Render("space: try again  esc: main menu  ctrl+c: quit")
	default:
		return footerStyle.Render("space: start  esc: quit")
	}
}

// renderHighScores lists entries, marking the one with newID.
func renderHighScores(entries []model.ScoreEntry, newID string) []string {
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		line := fmt.Sprintf("%d. %s  %s", i+1, mutedStyle.Render(e.Date), scoreStyle.Render(fmt.Sprintf("%6.2fs", e.Score)))
		if newID != "" && e.ID == newID {
			line += " " + bestStyle.Render(newScoreMark)
		}
		lines = append(lines, line)
	}
	return lines
}

func roundProgress(round, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(round) / float64(total)
	if p > 1 {
		p = 1
	}
	return p
}

func spaceBetween(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

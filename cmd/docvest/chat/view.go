// Package chat view rendering: transcript, tabs, invest panel, banner,
// header and footer composition.
package chat

import (
	"fmt"
	"strings"
	"time"

	"docvest/internal/api"
	"docvest/internal/poll"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.viewMode == DocListView {
		return m.styles.Content.Render(m.list.View())
	}
	if m.viewMode == FilePickerView {
		title := m.styles.Header.Render(" Select a PDF ")
		content := m.styles.Content.Render(m.filepicker.View())
		return lipgloss.JoinVertical(lipgloss.Left, title, content)
	}

	header := m.renderHeader()
	tabs := m.renderTabs()

	var content string
	if m.viewMode == InvestView {
		content = m.styles.Content.Render(m.renderInvest())
	} else {
		content = m.styles.Content.Render(m.viewport.View())
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textarea.View())

	sections := []string{header, tabs, content}
	if banner := m.renderBanner(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, inputArea, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Content))
			sb.WriteString("\n\n")

		default: // "assistant"
			assistantStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1)
			sb.WriteString(assistantStyle.Render("DocVest") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Content))
			if cites := m.renderCitations(msg.Citations); cites != "" {
				sb.WriteString(cites)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// renderCitations formats the source list under an answer.
func (m Model) renderCitations(citations []api.Citation) string {
	if len(citations) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Muted.Render("Sources:") + "\n")
	for _, c := range citations {
		label := c.Title
		if label == "" {
			label = c.Source
		}
		if label == "" {
			label = c.DocID
		}
		line := "  • " + label
		if c.Slide > 0 {
			line += fmt.Sprintf(" (slide %d)", c.Slide)
		}
		sb.WriteString(m.styles.Muted.Render(line) + "\n")
	}
	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery.
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" DocVest ")
	version := m.styles.Badge.Render(m.version)

	meta := m.persona.Meta()
	personaBadge := lipgloss.NewStyle().
		Foreground(m.styles.ColorToken(meta.Color)).
		Bold(true).
		Render(meta.Icon + " " + meta.Name)

	var status string
	if m.busy() {
		status = lipgloss.JoinHorizontal(lipgloss.Center,
			m.spinner.View(), " ", m.styles.Badge.Render(m.busyLabel()))
	} else {
		status = m.styles.Success.Render("Ready")
	}

	headerLine := lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		" ",
		version,
		"  ",
		personaBadge,
		"  ",
		status,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.RenderDivider(m.width),
	)
}

// busyLabel names the workflow behind the spinner.
func (m Model) busyLabel() string {
	switch {
	case m.isClearing:
		return "Clearing..."
	case m.isUploading:
		return "Uploading..."
	case m.isAnalyzing:
		return "Analyzing as " + m.persona.Meta().Name + "..."
	case m.isAsking:
		return "Thinking as " + m.persona.Meta().Name + "..."
	}
	return ""
}

func (m Model) renderTabs() string {
	chat := m.styles.TabInactive.Render("Chat")
	invest := m.styles.TabInactive.Render("Invest")
	if m.viewMode == InvestView {
		invest = m.styles.TabActive.Render("Invest")
	} else {
		chat = m.styles.TabActive.Render("Chat")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, chat, invest)
}

func (m Model) renderBanner() string {
	if m.banner == "" {
		return ""
	}
	style := m.styles.Info
	if m.bannerErr {
		style = m.styles.Error
	}
	return style.Render("  " + m.banner)
}

// renderInvest draws the investment tab: verdict, likelihood badge,
// rationale and forecast points of the last analysis.
func (m Model) renderInvest() string {
	if m.isAnalyzing {
		return lipgloss.JoinHorizontal(lipgloss.Center,
			m.spinner.View(), " ",
			m.styles.Muted.Render("Analyzing as "+m.persona.Meta().Name+"..."))
	}
	var sb strings.Builder
	if m.analysisErr != "" {
		sb.WriteString(m.styles.Error.Render("Analysis failed: " + m.analysisErr))
		sb.WriteString("\n\n")
	}
	if m.analysis == nil {
		if m.analysisErr == "" {
			return m.styles.Muted.Render("No analysis yet. Run /invest to evaluate the current selection.")
		}
		return sb.String()
	}
	if m.analysisErr != "" {
		sb.WriteString(m.styles.Muted.Render("Showing the last completed analysis.") + "\n\n")
	}

	r := m.analysis

	verdict := decisionLabel(r.Decision)
	sb.WriteString(m.styles.Title.Render(verdict))
	if r.Company != "" {
		sb.WriteString("  " + m.styles.Subtitle.Render(r.Company))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.LikelihoodBadge(r.LikelihoodPercent))
	sb.WriteString("\n\n")

	if r.Rationale != "" {
		sb.WriteString(m.safeRenderMarkdown(r.Rationale))
		sb.WriteString("\n")
	}
	if len(r.ForecastPoints) > 0 {
		sb.WriteString(m.styles.Bold.Render("Forecast") + "\n")
		for _, p := range r.ForecastPoints {
			sb.WriteString("  • " + p + "\n")
		}
	}
	return sb.String()
}

// decisionLabel maps the verdict to its display heading.
func decisionLabel(d api.Decision) string {
	switch d {
	case api.DecisionInvest:
		return "Invest"
	case api.DecisionDefer:
		return "Defer"
	case api.DecisionInsufficientData:
		return "Insufficient Data"
	default:
		return "Inconclusive"
	}
}

func (m Model) renderFooter() string {
	scope := "All documents"
	if m.selectedDoc != "" {
		if d, ok := m.docs[m.selectedDoc]; ok {
			scope = d.Filename
		}
	}

	docIndicator := fmt.Sprintf("%d doc(s)", len(m.docs))

	liveIndicator := ""
	if m.liveOK {
		liveIndicator = fmt.Sprintf(" | Live: %d", m.liveCount)
	}

	pollIndicator := ""
	if m.scheduler.State() == poll.Paused {
		pollIndicator = " | [PAUSED]"
	} else if m.scheduler.Degraded() {
		pollIndicator = " | [OFFLINE?]"
	}

	timestamp := time.Now().Format("15:04")
	hotkeys := "Tab: tabs | /docs | /invest | /help"

	help := m.styles.Muted.Render(fmt.Sprintf("%s | %s%s%s | %s | %s",
		scope, docIndicator, liveIndicator, pollIndicator, timestamp, hotkeys))
	return lipgloss.NewStyle().
		MarginTop(1).
		Render(help)
}

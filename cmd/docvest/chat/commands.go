package chat

import (
	"fmt"
	"strings"
	"time"

	"docvest/internal/persona"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// COMMAND HANDLING
// =============================================================================
// handleCommand processes all /command inputs from the user.

func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/help":
		return m.appendTranscript(helpText)

	case "/upload":
		if len(args) == 0 {
			m.viewMode = FilePickerView
			m.filepicker = newPDFPicker()
			return m, m.filepicker.Init()
		}
		return m.startUpload(args)

	case "/docs":
		if len(m.docs) == 0 {
			return m.withBanner("No documents yet. Upload a PDF first.", true, nil)
		}
		m.viewMode = DocListView
		return m, nil

	case "/select":
		if len(args) == 0 {
			return m.withBanner("Usage: /select <doc id or filename>", true, nil)
		}
		return m.selectDocument(m.resolveDoc(strings.Join(args, " ")))

	case "/all":
		return m.selectAll()

	case "/persona":
		if len(args) == 0 {
			return m.appendTranscript(m.personaTable())
		}
		p, ok := persona.Parse(strings.Join(args, " "))
		if !ok {
			return m.withBanner("Unknown persona: "+strings.Join(args, " "), true, nil)
		}
		m.persona = p
		meta := p.Meta()
		return m.withBanner("Persona set to "+meta.Name+".", false, nil)

	case "/invest":
		return m.startAnalysis(strings.Join(args, " "))

	case "/chat":
		m.viewMode = ChatView
		return m, nil

	case "/clear":
		return m.clearAll()

	default:
		return m.withBanner("Unknown command: "+cmd+" (try /help)", true, nil)
	}
}

// startAnalysis runs the investment workflow guards and fires the
// analysis. The view always lands on the invest tab so the spinner and
// result are visible regardless of where the command was typed.
func (m Model) startAnalysis(company string) (tea.Model, tea.Cmd) {
	if len(m.docs) == 0 {
		return m.withBanner("No documents to analyze. Upload a PDF first.", true, nil)
	}
	if m.isAnalyzing {
		return m.withBanner("An analysis is already running.", true, nil)
	}
	m.viewMode = InvestView
	m.isAnalyzing = true
	m.analysisErr = ""
	return m, tea.Batch(m.investCmd(company), m.spinner.Tick)
}

// resolveDoc maps a user-supplied reference to a doc id, accepting
// either the id itself or a case-insensitive filename.
func (m Model) resolveDoc(ref string) string {
	if _, ok := m.docs[ref]; ok {
		return ref
	}
	for id, d := range m.docs {
		if strings.EqualFold(d.Filename, ref) {
			return id
		}
	}
	return ref
}

// appendTranscript adds an assistant-side informational message.
func (m Model) appendTranscript(content string) (tea.Model, tea.Cmd) {
	m.history = append(m.history, Message{
		Role:    "assistant",
		Content: content,
		Time:    time.Now(),
	})
	m.refreshViewport()
	return m, nil
}

// personaTable renders the persona roster with the active one marked.
func (m Model) personaTable() string {
	var sb strings.Builder
	sb.WriteString("## Personas\n\n")
	sb.WriteString("| Persona | Key | Lens |\n|---------|-----|------|\n")
	for _, p := range persona.All() {
		meta := p.Meta()
		marker := ""
		if p == m.persona {
			marker = " *(active)*"
		}
		sb.WriteString(fmt.Sprintf("| %s %s%s | `%s` | %s |\n", meta.Icon, meta.Name, marker, meta.Wire, meta.Lens))
	}
	sb.WriteString("\n*Switch with `/persona <key>`*")
	return sb.String()
}

const helpText = `## Available Commands

| Command | Description |
|---------|-------------|
| /help | Show this help message |
| /upload [path ...] | Upload PDFs (no args opens the file picker) |
| /docs | Pick a document to chat with |
| /select <id or name> | Chat with one document |
| /all | Chat with the whole collection |
| /persona [key] | Show or switch the investor persona |
| /invest [company] | Run an investment analysis on the current selection |
| /chat | Switch to the chat tab |
| /clear | Remove every document from the backend |
| /quit | Exit |

### Keyboard Shortcuts

| Key | Action |
|-----|--------|
| Tab | Toggle chat / invest tabs |
| Esc | Leave a picker, or exit |
| Ctrl+C | Exit |
`

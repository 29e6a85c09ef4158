package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"docvest/internal/api"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyTab:
			if m.viewMode == ChatView || m.viewMode == InvestView {
				if m.viewMode == ChatView {
					m.viewMode = InvestView
				} else {
					m.viewMode = ChatView
				}
				return m, nil
			}

		case tea.KeyEsc:
			switch m.viewMode {
			case DocListView, FilePickerView:
				m.viewMode = ChatView
				return m, nil
			case InvestView:
				m.viewMode = ChatView
				return m, nil
			default:
				return m, tea.Quit
			}
		}

		// Document List Handling
		if m.viewMode == DocListView {
			if msg.Type == tea.KeyEnter {
				if selected, ok := m.list.SelectedItem().(docItem); ok {
					return m.selectDocument(selected.id)
				}
			}
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		// File Picker Handling
		if m.viewMode == FilePickerView {
			var cmd tea.Cmd
			m.filepicker, cmd = m.filepicker.Update(msg)

			if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
				m.viewMode = ChatView
				m.filepicker = newPDFPicker()
				next, upCmd := m.startUpload([]string{path})
				return next, tea.Batch(cmd, upCmd)
			}
			if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
				return m.withBanner(fmt.Sprintf("%s is not a PDF.", path), true, cmd)
			}
			return m, cmd
		}

		// Chat / Invest Handling
		if msg.Type == tea.KeyEnter && !msg.Alt && !msg.Paste {
			return m.handleSubmit()
		}

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case pollTickMsg:
		// A stale generation means polling was paused after this tick
		// was armed; the chain dies here and Resume starts a new one.
		if !m.scheduler.ShouldFetch(msg.gen) {
			return m, nil
		}
		return m, tea.Batch(m.fetchDocsCmd(true), m.pollTickCmd(msg.gen))

	case docsMsg:
		return m.handleDocs(msg)

	case uploadDoneMsg:
		return m.handleUploadDone(msg)

	case clearDoneMsg:
		return m.handleClearDone(msg)

	case answerMsg:
		return m.handleAnswer(msg)

	case investMsg:
		m.isAnalyzing = false
		if msg.err != nil {
			// The last good result stays; only a new success or a
			// document clear replaces it.
			m.analysisErr = displayError(msg.err)
		} else {
			m.analysisErr = ""
			m.analysis = msg.result
			// The user may have tabbed away while the analysis ran;
			// bring the result back into view.
			m.viewMode = InvestView
		}
		return m, nil

	case bannerClearMsg:
		if msg.gen == m.bannerGen {
			m.banner = ""
			m.bannerErr = false
		}
		return m, nil

	case inboxFileMsg:
		if !msg.ok {
			return m, nil
		}
		next, upCmd := m.startUpload([]string{msg.path})
		return next, tea.Batch(upCmd, m.waitForInboxCmd())

	case liveTickMsg:
		return m, tea.Batch(m.liveCountCmd(), m.liveTickCmd())

	case liveCountMsg:
		m.liveOK = msg.err == nil
		if msg.err == nil {
			m.liveCount = msg.count
		}
		return m, nil
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// busy reports whether any workflow is in flight; drives the spinner.
func (m Model) busy() bool {
	return m.isAsking || m.isAnalyzing || m.isUploading || m.isClearing
}

// handleSubmit routes the textarea content: slash commands to the
// command table, everything else to the question workflow.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if strings.HasPrefix(input, "/") {
		m.textarea.Reset()
		return m.handleCommand(input)
	}
	m.textarea.Reset()
	return m.askQuestion(input)
}

// askQuestion runs the chat workflow guards, then fires the query.
func (m Model) askQuestion(question string) (tea.Model, tea.Cmd) {
	if m.isAsking {
		return m.withBanner("Still answering the previous question.", true, nil)
	}
	if len(m.docs) == 0 {
		return m.withBanner("No documents yet. Upload a PDF first.", true, nil)
	}
	if m.viewMode == InvestView {
		m.viewMode = ChatView
	}

	m.history = append(m.history, Message{Role: "user", Content: question, Time: time.Now()})
	m.isAsking = true
	m.refreshViewport()
	return m, tea.Batch(m.queryCmd(question), m.spinner.Tick)
}

// handleAnswer folds a completed question back into the transcript. A
// failed question still produces an assistant turn so the transcript
// records what happened to it.
func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	m.isAsking = false
	entry := Message{Role: "assistant", Time: time.Now()}
	if msg.err != nil {
		entry.Content = "Sorry, that question failed: " + displayError(msg.err)
	} else {
		entry.Content = msg.content
		entry.Citations = msg.citations
	}
	m.history = append(m.history, entry)
	m.refreshViewport()
	return m, nil
}

// handleDocs applies a document listing result.
func (m Model) handleDocs(msg docsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if msg.fromPoll {
			streak := m.scheduler.RecordFailure()
			m.log.Warn("background poll failed",
				zap.Int("streak", streak),
				zap.Error(msg.err))
			return m, nil
		}
		return m.withBanner(displayError(msg.err), true, nil)
	}
	if msg.fromPoll {
		m.scheduler.RecordSuccess()
	}

	m.docs = msg.docs
	m.docOrder = orderDocs(msg.docs)
	m.syncDocList()

	// A selection pointing at a vanished document falls back to the
	// whole collection; its conversation context is gone with it.
	if m.selectedDoc != "" {
		if _, ok := m.docs[m.selectedDoc]; !ok {
			m.selectedDoc = ""
			m.history = nil
			m.refreshViewport()
			return m.withBanner("Selected document was removed; showing all documents.", false, nil)
		}
	}
	return m, nil
}

// startUpload begins an upload batch unless one is already running.
func (m Model) startUpload(paths []string) (tea.Model, tea.Cmd) {
	if len(paths) == 0 {
		return m, nil
	}
	if m.isUploading {
		return m.withBanner("An upload is already in progress.", true, nil)
	}
	m.isUploading = true
	return m.withBanner("Uploading...", false, tea.Batch(m.uploadCmd(paths), m.spinner.Tick))
}

// handleUploadDone reports the batch outcome and refreshes the
// collection unconditionally; even a fully failed batch may have
// raced a backend-side change.
func (m Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	m.isUploading = false

	var parts []string
	if n := len(msg.uploaded); n > 0 {
		parts = append(parts, fmt.Sprintf("Uploaded %d file(s).", n))
	}
	if len(msg.skipped) > 0 {
		parts = append(parts, "Skipped (not PDF): "+strings.Join(msg.skipped, ", "))
	}
	parts = append(parts, msg.failures...)

	text := strings.Join(parts, "\n")
	isErr := len(msg.uploaded) == 0 && (len(msg.failures) > 0 || len(msg.skipped) > 0)
	return m.withBanner(text, isErr, m.fetchDocsCmd(false))
}

// clearAll optimistically empties the local state, pauses polling so a
// stale tick cannot resurrect the old collection, and fires the clear.
func (m Model) clearAll() (tea.Model, tea.Cmd) {
	if m.isClearing {
		return m.withBanner("A clear is already in progress.", true, nil)
	}
	m.isClearing = true
	m.docs = map[string]api.Document{}
	m.docOrder = nil
	m.selectedDoc = ""
	m.history = nil
	m.analysis = nil
	m.analysisErr = ""
	m.syncDocList()
	m.refreshViewport()
	m.scheduler.Pause()
	return m.withBanner("Clearing all documents...", false, tea.Batch(m.clearCmd(), m.spinner.Tick))
}

// handleClearDone resumes polling whatever the outcome; the next fetch
// reconciles local state with whatever the backend actually holds.
func (m Model) handleClearDone(msg clearDoneMsg) (tea.Model, tea.Cmd) {
	m.isClearing = false
	gen := m.scheduler.Resume()
	followUps := tea.Batch(m.pollTickCmd(gen), m.fetchDocsCmd(false))
	if msg.err != nil {
		return m.withBanner("Clear failed: "+displayError(msg.err), true, followUps)
	}
	return m.withBanner("All documents cleared.", false, followUps)
}

// selectDocument scopes the conversation to one document and resets
// the transcript, which was about a different scope.
func (m Model) selectDocument(id string) (tea.Model, tea.Cmd) {
	doc, ok := m.docs[id]
	if !ok {
		return m.withBanner("Unknown document: "+id, true, nil)
	}
	if m.selectedDoc != id {
		m.selectedDoc = id
		m.history = nil
		m.refreshViewport()
	}
	m.viewMode = ChatView
	return m.withBanner("Chatting with "+doc.Filename+".", false, nil)
}

// selectAll widens the scope back to the whole collection.
func (m Model) selectAll() (tea.Model, tea.Cmd) {
	if m.selectedDoc != "" {
		m.selectedDoc = ""
		m.history = nil
		m.refreshViewport()
	}
	m.viewMode = ChatView
	return m.withBanner("Chatting with all documents.", false, nil)
}

// withBanner sets the status banner and arms its expiry, chaining any
// additional command.
func (m Model) withBanner(text string, isErr bool, extra tea.Cmd) (tea.Model, tea.Cmd) {
	m.banner = text
	m.bannerErr = isErr
	m.bannerGen++
	tick := m.bannerTickCmd(m.bannerGen)
	if extra == nil {
		return m, tick
	}
	return m, tea.Batch(tick, extra)
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m *Model) syncDocList() {
	items := make([]list.Item, 0, len(m.docOrder))
	for _, id := range m.docOrder {
		d := m.docs[id]
		items = append(items, docItem{id: d.DocID, filename: d.Filename, date: d.ProcessedDate})
	}
	m.list.SetItems(items)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 4
	footerHeight := 3
	inputHeight := 4
	contentHeight := msg.Height - headerHeight - footerHeight - inputHeight
	if contentHeight < 3 {
		contentHeight = 3
	}

	m.viewport.Width = msg.Width - 4
	m.viewport.Height = contentHeight
	m.textarea.SetWidth(msg.Width - 6)
	m.list.SetSize(msg.Width-4, contentHeight)

	if msg.Width > 10 {
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-8),
		)
	}

	m.ready = true
	m.refreshViewport()
	return m, nil
}

// orderDocs produces the stable display order: by filename, ties by id.
func orderDocs(docs map[string]api.Document) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := docs[ids[i]], docs[ids[j]]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.DocID < b.DocID
	})
	return ids
}

func newPDFPicker() filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf", ".PDF"}
	return fp
}

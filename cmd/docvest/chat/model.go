// Package chat provides the interactive TUI for DocVest: a transcript
// of questions and answers over uploaded pitch decks, an investment
// analysis tab, and the workflows that keep the document collection in
// sync with the processing backend.
package chat

import (
	"time"

	"docvest/cmd/docvest/ui"
	"docvest/internal/api"
	"docvest/internal/inbox"
	"docvest/internal/persona"
	"docvest/internal/poll"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

// bannerTTL is how long a status banner stays up before self-clearing.
const bannerTTL = 3 * time.Second

// liveSampleInterval is the real-time index sampling cadence. Coarser
// than document polling; the count is a footer nicety, not state.
const liveSampleInterval = 10 * time.Second

// Options wires the model to its collaborators.
type Options struct {
	Client    *api.Client
	Scheduler *poll.Scheduler
	Styles    ui.Styles
	Persona   persona.Persona
	Inbox     <-chan inbox.Event // nil when no inbox directory is configured
	Logger    *zap.Logger
	Version   string
}

// Model is the main model for the interactive interface.
type Model struct {
	// UI Components
	textarea   textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	list       list.Model
	filepicker filepicker.Model
	styles     ui.Styles
	renderer   *glamour.TermRenderer

	viewMode ViewMode

	// Backend
	client    *api.Client
	scheduler *poll.Scheduler
	inboxCh   <-chan inbox.Event
	log       *zap.Logger
	version   string

	// Document collection, mirrored from the backend by polling.
	// docOrder keeps a stable display order (by filename, then id).
	docs     map[string]api.Document
	docOrder []string

	// selectedDoc scopes questions to one document; empty means the
	// whole collection.
	selectedDoc string

	persona persona.Persona

	// Transcript
	history []Message

	// Investment tab state
	analysis    *api.InvestmentResult
	analysisErr string

	// In-flight operation flags. Each workflow is single-flight: a
	// second request of the same kind is refused while one is running.
	isAsking    bool
	isAnalyzing bool
	isUploading bool
	isClearing  bool

	// Status banner
	banner    string
	bannerErr bool
	bannerGen int

	// Real-time index sample for the footer
	liveCount int
	liveOK    bool

	width  int
	height int
	ready  bool
}

// New builds the initial model.
func New(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents, or /help for commands..."
	ta.Focus()
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.FocusedStyle.Prompt = opts.Styles.Prompt
	ta.FocusedStyle.Text = opts.Styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf", ".PDF"}

	docList := list.New([]list.Item{}, list.NewDefaultDelegate(), 80, 20)
	docList.Title = "Documents"
	docList.SetShowStatusBar(false)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = poll.New(0)
	}

	return Model{
		textarea:   ta,
		viewport:   vp,
		spinner:    sp,
		list:       docList,
		filepicker: fp,
		styles:     opts.Styles,
		renderer:   renderer,
		viewMode:   ChatView,
		client:     opts.Client,
		scheduler:  scheduler,
		inboxCh:    opts.Inbox,
		log:        log,
		version:    opts.Version,
		docs:       map[string]api.Document{},
		persona:    opts.Persona,
		history:    []Message{},
	}
}

// Init kicks off the poll chain, an immediate first fetch, the
// real-time index sampler, and the inbox listener when configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		m.fetchDocsCmd(false),
		m.pollTickCmd(m.scheduler.Generation()),
		m.liveTickCmd(),
		m.liveCountCmd(),
	}
	if m.inboxCh != nil {
		cmds = append(cmds, m.waitForInboxCmd())
	}
	return tea.Batch(cmds...)
}

// Documents returns the documents in display order.
func (m Model) Documents() []api.Document {
	out := make([]api.Document, 0, len(m.docOrder))
	for _, id := range m.docOrder {
		out = append(out, m.docs[id])
	}
	return out
}

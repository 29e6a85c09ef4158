package chat

import (
	"time"

	"docvest/internal/api"
)

// ViewMode determines which component is focused/active.
type ViewMode int

const (
	ChatView ViewMode = iota
	InvestView
	DocListView
	FilePickerView
)

// Message represents a single entry in the conversation transcript.
type Message struct {
	Role      string // "user" or "assistant"
	Content   string
	Citations []api.Citation
	Time      time.Time
}

// docItem is a list item for the document picker.
type docItem struct {
	id, filename, date string
}

func (i docItem) Title() string       { return i.filename }
func (i docItem) Description() string { return "[" + i.id + "] processed " + i.date }
func (i docItem) FilterValue() string { return i.id + " " + i.filename }

// Messages for tea updates
type (
	// pollTickMsg fires on the document poll cadence. The generation
	// ties the tick to the scheduler chain that created it; a stale
	// generation means polling was paused after this tick was armed.
	pollTickMsg struct {
		gen int
	}

	// docsMsg carries a document listing result. fromPoll marks
	// background refreshes, whose failures stay out of the transcript.
	docsMsg struct {
		docs     map[string]api.Document
		err      error
		fromPoll bool
	}

	// uploadDoneMsg summarizes one upload batch.
	uploadDoneMsg struct {
		uploaded []string // filenames accepted by the backend
		skipped  []string // non-PDF filenames never sent
		failures []string // display messages for failed files
	}

	clearDoneMsg struct {
		err error
	}

	// answerMsg carries the outcome of a chat question.
	answerMsg struct {
		content   string
		citations []api.Citation
		err       error
	}

	// investMsg carries the outcome of an investment analysis.
	investMsg struct {
		result *api.InvestmentResult
		err    error
	}

	// bannerClearMsg expires the status banner. The generation guards
	// against clearing a newer banner that replaced the expired one.
	bannerClearMsg struct {
		gen int
	}

	// inboxFileMsg reports a PDF dropped into the watched inbox
	// directory. ok is false when the watcher shut down.
	inboxFileMsg struct {
		path string
		ok   bool
	}

	// liveTickMsg fires on the real-time index sampling cadence.
	liveTickMsg struct{}

	// liveCountMsg carries a real-time index size reading.
	liveCountMsg struct {
		count int
		err   error
	}
)

package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docvest/internal/api"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// =============================================================================
// ASYNC WORKFLOWS
// =============================================================================
// Every backend interaction is a tea.Cmd: a plain function producing a
// message the Update loop folds back into the model. No command mutates
// the model directly.

// pollTickCmd arms the next document poll tick for the given scheduler
// generation.
func (m Model) pollTickCmd(gen int) tea.Cmd {
	return tea.Tick(m.scheduler.Interval(), func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

// fetchDocsCmd lists the document collection. fromPoll marks background
// refreshes so their failures stay out of the transcript.
func (m Model) fetchDocsCmd(fromPoll bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		docs, err := client.ListDocuments(context.Background())
		return docsMsg{docs: docs, err: err, fromPoll: fromPoll}
	}
}

// uploadCmd sends each PDF in paths to the processing backend. Files
// without a .pdf extension are skipped client-side and never produce a
// request. The upload summary always follows, even if every file
// failed, so the caller can refetch and unblock the workflow flag.
func (m Model) uploadCmd(paths []string) tea.Cmd {
	client := m.client
	log := m.log
	return func() tea.Msg {
		var done uploadDoneMsg
		for _, path := range paths {
			name := filepath.Base(path)
			if !strings.EqualFold(filepath.Ext(name), ".pdf") {
				done.skipped = append(done.skipped, name)
				continue
			}
			f, err := os.Open(path)
			if err != nil {
				done.failures = append(done.failures, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			err = client.UploadPDF(context.Background(), name, f)
			f.Close()
			if err != nil {
				log.Warn("upload failed", zap.String("file", name), zap.Error(err))
				done.failures = append(done.failures, fmt.Sprintf("%s: %s", name, displayError(err)))
				continue
			}
			done.uploaded = append(done.uploaded, name)
		}
		return done
	}
}

// clearCmd empties the backend collection.
func (m Model) clearCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return clearDoneMsg{err: client.ClearDocuments(context.Background())}
	}
}

// queryCmd asks the question against the current selection: one
// document when selected, otherwise the whole collection. The backend
// may return several candidate answers; only the first one becomes the
// assistant turn. An empty answer set becomes a placeholder rather
// than a blank turn.
func (m Model) queryCmd(question string) tea.Cmd {
	client := m.client
	selected := m.selectedDoc
	docIDs := append([]string(nil), m.docOrder...)
	wire := m.persona.String()
	return func() tea.Msg {
		ts := time.Now().UnixMilli()
		var (
			resp *api.QueryResponse
			err  error
		)
		if selected != "" {
			resp, err = client.Query(context.Background(), selected, question, ts, wire)
		} else {
			resp, err = client.MultiQuery(context.Background(), docIDs, question, ts, wire)
		}
		if err != nil {
			return answerMsg{err: err}
		}
		content := ""
		if len(resp.Answers) > 0 {
			content = strings.TrimSpace(resp.Answers[0])
		}
		if content == "" {
			content = "No answer returned."
		}
		return answerMsg{content: content, citations: resp.Citations}
	}
}

// investCmd requests an investment analysis over the current selection.
func (m Model) investCmd(company string) tea.Cmd {
	client := m.client
	docIDs := append([]string(nil), m.docOrder...)
	if m.selectedDoc != "" {
		docIDs = []string{m.selectedDoc}
	}
	wire := m.persona.String()
	return func() tea.Msg {
		result, err := client.AnalyzeInvestment(context.Background(), docIDs, wire, company)
		return investMsg{result: result, err: err}
	}
}

// bannerTickCmd schedules the banner expiry for the given banner
// generation.
func (m Model) bannerTickCmd(gen int) tea.Cmd {
	return tea.Tick(bannerTTL, func(time.Time) tea.Msg {
		return bannerClearMsg{gen: gen}
	})
}

// liveTickCmd arms the next real-time index sample.
func (m Model) liveTickCmd() tea.Cmd {
	return tea.Tick(liveSampleInterval, func(time.Time) tea.Msg {
		return liveTickMsg{}
	})
}

// liveCountCmd reads the real-time index size.
func (m Model) liveCountCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		count, err := client.LiveIndexCount(context.Background())
		return liveCountMsg{count: count, err: err}
	}
}

// waitForInboxCmd blocks on the inbox channel until a PDF drops or the
// watcher shuts down.
func (m Model) waitForInboxCmd() tea.Cmd {
	ch := m.inboxCh
	return func() tea.Msg {
		ev, ok := <-ch
		return inboxFileMsg{path: ev.Path, ok: ok}
	}
}

// displayError unwraps the API error detail when available so the
// transcript shows the backend's message, not Go error plumbing.
func displayError(err error) string {
	if apiErr, ok := err.(*api.Error); ok {
		return apiErr.Message()
	}
	return err.Error()
}

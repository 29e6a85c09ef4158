package chat

import (
	"strings"
	"testing"

	"docvest/internal/api"
	"docvest/internal/poll"
)

func asModel(t *testing.T, tm interface{ View() string }) Model {
	t.Helper()
	m, ok := tm.(Model)
	if !ok {
		t.Fatalf("expected chat.Model, got %T", tm)
	}
	return m
}

func TestAskQuestionRequiresDocuments(t *testing.T) {
	m := newTestModel(t, nil)

	tm, _ := m.askQuestion("anyone home?")
	m = asModel(t, tm)

	if len(m.history) != 0 {
		t.Fatalf("guard must not append to the transcript, got %d entries", len(m.history))
	}
	if m.isAsking {
		t.Fatalf("guard must not start the workflow")
	}
	if m.banner == "" || !m.bannerErr {
		t.Fatalf("expected an error banner, got %q (err=%v)", m.banner, m.bannerErr)
	}
}

func TestAskQuestionIsSingleFlight(t *testing.T) {
	m := newTestModel(t, nil)
	m.docs = map[string]api.Document{"d1": {DocID: "d1"}}
	m.docOrder = []string{"d1"}
	m.isAsking = true

	tm, _ := m.askQuestion("second question")
	m = asModel(t, tm)

	if len(m.history) != 0 {
		t.Fatalf("concurrent question must be refused")
	}
	if !strings.Contains(m.banner, "previous question") {
		t.Fatalf("banner = %q", m.banner)
	}
}

func TestAskQuestionAppendsOptimisticUserTurn(t *testing.T) {
	m := newTestModel(t, nil)
	m.docs = map[string]api.Document{"d1": {DocID: "d1"}}
	m.docOrder = []string{"d1"}

	tm, cmd := m.askQuestion("what is the runway?")
	m = asModel(t, tm)

	if !m.isAsking {
		t.Fatalf("workflow flag not set")
	}
	if cmd == nil {
		t.Fatalf("expected a query command")
	}
	if len(m.history) != 1 || m.history[0].Role != "user" {
		t.Fatalf("history = %+v", m.history)
	}
	if m.history[0].Content != "what is the runway?" {
		t.Fatalf("content = %q", m.history[0].Content)
	}
}

func TestFailedAnswerLandsInTranscript(t *testing.T) {
	m := newTestModel(t, nil)
	m.isAsking = true

	tm, _ := m.handleAnswer(answerMsg{err: &api.Error{Op: "query", Status: 500, Detail: "index rebuilding"}})
	m = asModel(t, tm)

	if m.isAsking {
		t.Fatalf("workflow flag must clear")
	}
	if len(m.history) != 1 || m.history[0].Role != "assistant" {
		t.Fatalf("history = %+v", m.history)
	}
	if !strings.Contains(m.history[0].Content, "index rebuilding") {
		t.Fatalf("error detail missing from transcript: %q", m.history[0].Content)
	}
}

func TestClearAllIsOptimisticAndPausesPolling(t *testing.T) {
	m := newTestModel(t, nil)
	m.docs = map[string]api.Document{"d1": {DocID: "d1", Filename: "a.pdf"}}
	m.docOrder = []string{"d1"}
	m.selectedDoc = "d1"
	m.history = []Message{{Role: "user", Content: "hi"}}

	tm, cmd := m.clearAll()
	m = asModel(t, tm)

	if cmd == nil {
		t.Fatalf("expected the clear command")
	}
	if len(m.docs) != 0 || m.selectedDoc != "" || len(m.history) != 0 {
		t.Fatalf("clear must reset local state immediately")
	}
	if !m.isClearing {
		t.Fatalf("workflow flag not set")
	}
	if m.scheduler.State() != poll.Paused {
		t.Fatalf("polling must pause during a clear")
	}
}

func TestClearDoneResumesPolling(t *testing.T) {
	m := newTestModel(t, nil)
	m.scheduler.Pause()
	m.isClearing = true

	tm, cmd := m.handleClearDone(clearDoneMsg{})
	m = asModel(t, tm)

	if m.isClearing {
		t.Fatalf("workflow flag must clear")
	}
	if m.scheduler.State() != poll.Polling {
		t.Fatalf("polling must resume after the clear settles")
	}
	if cmd == nil {
		t.Fatalf("expected the refetch and tick commands")
	}
}

func TestStalePollTickDoesNotFetch(t *testing.T) {
	m := newTestModel(t, nil)
	staleGen := m.scheduler.Generation()
	m.scheduler.Pause()

	_, cmd := m.Update(pollTickMsg{gen: staleGen})
	if cmd != nil {
		t.Fatalf("stale tick must die without fetching or rescheduling")
	}
}

func TestVanishedSelectionFallsBackToAll(t *testing.T) {
	m := newTestModel(t, nil)
	m.docs = map[string]api.Document{"d1": {DocID: "d1", Filename: "a.pdf"}}
	m.docOrder = []string{"d1"}
	m.selectedDoc = "d1"
	m.history = []Message{{Role: "user", Content: "hi"}}

	tm, _ := m.handleDocs(docsMsg{docs: map[string]api.Document{}, fromPoll: true})
	m = asModel(t, tm)

	if m.selectedDoc != "" {
		t.Fatalf("selection must clear when the document vanishes")
	}
	if len(m.history) != 0 {
		t.Fatalf("transcript must reset with its scope")
	}
}

func TestPollFailureStaysOutOfTranscript(t *testing.T) {
	m := newTestModel(t, nil)

	tm, _ := m.handleDocs(docsMsg{err: &api.Error{Op: "list documents", Detail: "down"}, fromPoll: true})
	m = asModel(t, tm)

	if len(m.history) != 0 {
		t.Fatalf("background failures must stay out of the transcript")
	}
	if m.banner != "" {
		t.Fatalf("background failures must not raise a banner")
	}
	if m.scheduler.ConsecutiveFailures() != 1 {
		t.Fatalf("failure streak = %d, want 1", m.scheduler.ConsecutiveFailures())
	}
}

func TestPollRecoveryResetsDegraded(t *testing.T) {
	m := newTestModel(t, nil)
	for i := 0; i < poll.DegradedThreshold; i++ {
		m.scheduler.RecordFailure()
	}
	if !m.scheduler.Degraded() {
		t.Fatalf("precondition: scheduler should be degraded")
	}

	tm, _ := m.handleDocs(docsMsg{docs: map[string]api.Document{}, fromPoll: true})
	m = asModel(t, tm)

	if m.scheduler.Degraded() {
		t.Fatalf("successful poll must reset the degraded signal")
	}
}

func TestBannerGenerationGuardsExpiry(t *testing.T) {
	m := newTestModel(t, nil)

	tm, _ := m.withBanner("first", false, nil)
	m = asModel(t, tm)
	firstGen := m.bannerGen

	tm, _ = m.withBanner("second", false, nil)
	m = asModel(t, tm)

	tm, _ = m.Update(bannerClearMsg{gen: firstGen})
	m = asModel(t, tm)
	if m.banner != "second" {
		t.Fatalf("stale expiry must not clear a newer banner, got %q", m.banner)
	}

	tm, _ = m.Update(bannerClearMsg{gen: m.bannerGen})
	m = asModel(t, tm)
	if m.banner != "" {
		t.Fatalf("current expiry must clear the banner, got %q", m.banner)
	}
}

func TestSelectDocumentResetsTranscript(t *testing.T) {
	m := newTestModel(t, nil)
	m.docs = map[string]api.Document{
		"d1": {DocID: "d1", Filename: "a.pdf"},
		"d2": {DocID: "d2", Filename: "b.pdf"},
	}
	m.docOrder = []string{"d1", "d2"}
	m.history = []Message{{Role: "user", Content: "about everything"}}

	tm, _ := m.selectDocument("d2")
	m = asModel(t, tm)

	if m.selectedDoc != "d2" {
		t.Fatalf("selectedDoc = %q", m.selectedDoc)
	}
	if len(m.history) != 0 {
		t.Fatalf("transcript must reset on scope change")
	}

	// Re-selecting the same document keeps the transcript.
	m.history = []Message{{Role: "user", Content: "about b"}}
	tm, _ = m.selectDocument("d2")
	m = asModel(t, tm)
	if len(m.history) != 1 {
		t.Fatalf("same-document reselect must keep the transcript")
	}
}

func TestSuccessfulAnalysisForcesInvestTab(t *testing.T) {
	m := newTestModel(t, nil)
	m.isAnalyzing = true
	m.viewMode = ChatView // user tabbed away while the analysis ran

	tm, _ := m.Update(investMsg{result: &api.InvestmentResult{
		Status:            "ok",
		Decision:          api.DecisionInvest,
		LikelihoodPercent: 70,
	}})
	m = asModel(t, tm)

	if m.viewMode != InvestView {
		t.Fatalf("viewMode = %v, want InvestView after a successful analysis", m.viewMode)
	}
	if m.analysis == nil || m.analysis.Decision != api.DecisionInvest {
		t.Fatalf("result not stored: %+v", m.analysis)
	}
}

func TestFailedAnalysisKeepsLastResult(t *testing.T) {
	m := newTestModel(t, nil)
	previous := &api.InvestmentResult{
		Status:            "ok",
		Decision:          api.DecisionDefer,
		LikelihoodPercent: 45,
	}
	m.analysis = previous
	m.isAnalyzing = true

	tm, _ := m.Update(investMsg{err: &api.Error{Op: "investment analysis", Detail: "backend busy"}})
	m = asModel(t, tm)

	if m.analysis != previous {
		t.Fatalf("failed analysis must not discard the previous result")
	}
	if !strings.Contains(m.analysisErr, "backend busy") {
		t.Fatalf("analysisErr = %q", m.analysisErr)
	}
	if m.viewMode == InvestView {
		t.Fatalf("a failed analysis must not force a tab switch")
	}
}

func TestUploadSummaryJoinsLines(t *testing.T) {
	m := newTestModel(t, nil)
	m.isUploading = true

	tm, _ := m.handleUploadDone(uploadDoneMsg{
		uploaded: []string{"deck.pdf"},
		skipped:  []string{"notes.txt"},
		failures: []string{"other.pdf: backend unreachable"},
	})
	m = asModel(t, tm)

	lines := strings.Split(m.banner, "\n")
	if len(lines) != 3 {
		t.Fatalf("banner should hold one line per outcome, got %q", m.banner)
	}
}

func TestUploadDoneAlwaysRefetches(t *testing.T) {
	m := newTestModel(t, nil)
	m.isUploading = true

	tm, cmd := m.handleUploadDone(uploadDoneMsg{failures: []string{"deck.pdf: backend unreachable"}})
	m = asModel(t, tm)

	if m.isUploading {
		t.Fatalf("workflow flag must clear")
	}
	if cmd == nil {
		t.Fatalf("even a failed batch must trigger a refetch")
	}
	if !m.bannerErr {
		t.Fatalf("fully failed batch should raise an error banner")
	}
}

func TestDocOrderIsStable(t *testing.T) {
	docs := map[string]api.Document{
		"z": {DocID: "z", Filename: "alpha.pdf"},
		"a": {DocID: "a", Filename: "beta.pdf"},
		"m": {DocID: "m", Filename: "alpha.pdf"},
	}
	order := orderDocs(docs)
	want := []string{"m", "z", "a"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

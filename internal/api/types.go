// Package api provides the typed HTTP clients for the two DocVest
// backends: the document processing service and the real-time index
// service. Every call is attempted exactly once; there is no retry or
// backoff, and failures surface as *Error values carrying a message
// fit for display.
package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is one processed PDF as tracked by the backend.
type Document struct {
	DocID         string         `json:"doc_id"`
	Filename      string         `json:"filename"`
	ProcessedDate string         `json:"processed_date"`
	Content       string         `json:"content,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Citation points at the source material behind an answer.
type Citation struct {
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
	DocID  string `json:"doc_id,omitempty"`
	Slide  int    `json:"slide,omitempty"`
}

// QueryResponse is the answer envelope for both single- and
// multi-document queries.
type QueryResponse struct {
	Status    string     `json:"status"`
	Answers   []string   `json:"answers"`
	Citations []Citation `json:"citations,omitempty"`
}

// statusResponse covers the upload and clear success markers.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	DocID   string `json:"doc_id,omitempty"`
}

// Decision is the closed verdict set of an investment analysis.
type Decision string

const (
	DecisionInvest           Decision = "invest"
	DecisionDefer            Decision = "defer"
	DecisionInsufficientData Decision = "insufficient_data"
	DecisionOther            Decision = "other"
)

// UnmarshalJSON normalizes backend verdicts into the closed set. The
// backend's "do_not_invest" maps to defer; anything unrecognized maps
// to other rather than leaking free text into the UI.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "invest":
		*d = DecisionInvest
	case "defer", "do_not_invest", "pass", "hold":
		*d = DecisionDefer
	case "insufficient_data":
		*d = DecisionInsufficientData
	default:
		*d = DecisionOther
	}
	return nil
}

// InvestmentResult is the structured outcome of an analysis request.
type InvestmentResult struct {
	Status            string   `json:"status"`
	Decision          Decision `json:"decision"`
	LikelihoodPercent float64  `json:"likelihood_percent"`
	Rationale         string   `json:"rationale"`
	ForecastPoints    []string `json:"forecast_points"`
	Company           string   `json:"company,omitempty"`
}

// Error is the single failure type surfaced by this package. Detail is
// always safe to render to the user.
type Error struct {
	Op     string // e.g. "list documents"
	Status int    // HTTP status, 0 for transport failures
	Detail string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Detail, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// Message returns the displayable detail.
func (e *Error) Message() string { return e.Detail }

package api

import (
	"context"
	"net/http"
)

type investRequest struct {
	DocIDs  []string `json:"doc_ids"`
	Persona string   `json:"persona"`
	Company string   `json:"company,omitempty"`
	TopK    int      `json:"top_k"`
}

// AnalyzeInvestment requests a structured investment verdict over the
// given document set. company is an optional free-text hint for the
// backend's web-presence check.
func (c *Client) AnalyzeInvestment(ctx context.Context, docIDs []string, persona, company string) (*InvestmentResult, error) {
	body := investRequest{
		DocIDs:  docIDs,
		Persona: persona,
		Company: company,
		TopK:    topK,
	}
	var result InvestmentResult
	if err := c.doJSON(ctx, c.processing, c.processingURL, http.MethodPost, "/invest/analyze", "investment analysis", body, &result); err != nil {
		return nil, err
	}
	if result.Status != "ok" {
		return nil, &Error{Op: "investment analysis", Detail: "analysis did not complete"}
	}
	return &result, nil
}

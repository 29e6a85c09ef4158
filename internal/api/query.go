package api

import (
	"context"
	"net/http"
)

// topK is the fixed retrieval depth for queries and analysis.
const topK = 5

type queryRequest struct {
	DocID     string `json:"doc_id"`
	Question  string `json:"question"`
	TopK      int    `json:"top_k"`
	Timestamp int64  `json:"timestamp"`
	Persona   string `json:"persona"`
}

type multiQueryRequest struct {
	DocIDs    []string `json:"doc_ids"`
	Question  string   `json:"question"`
	TopK      int      `json:"top_k"`
	Timestamp int64    `json:"timestamp"`
	Persona   string   `json:"persona"`
}

// Query asks a question against one document. The timestamp is a
// client clock reading in unix milliseconds, forwarded to defeat
// backend caching.
func (c *Client) Query(ctx context.Context, docID, question string, timestamp int64, persona string) (*QueryResponse, error) {
	body := queryRequest{
		DocID:     docID,
		Question:  question,
		TopK:      topK,
		Timestamp: timestamp,
		Persona:   persona,
	}
	var resp QueryResponse
	if err := c.doJSON(ctx, c.processing, c.processingURL, http.MethodPost, "/query", "query", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultiQuery asks a question across the given document set.
func (c *Client) MultiQuery(ctx context.Context, docIDs []string, question string, timestamp int64, persona string) (*QueryResponse, error) {
	body := multiQueryRequest{
		DocIDs:    docIDs,
		Question:  question,
		TopK:      topK,
		Timestamp: timestamp,
		Persona:   persona,
	}
	var resp QueryResponse
	if err := c.doJSON(ctx, c.processing, c.processingURL, http.MethodPost, "/query/multi", "query", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// ListDocuments fetches the full document collection, keyed by doc_id.
// Concurrent callers share one in-flight fetch.
func (c *Client) ListDocuments(ctx context.Context) (map[string]Document, error) {
	v, err, _ := c.listGroup.Do("list", func() (any, error) {
		docs := map[string]Document{}
		if err := c.doJSON(ctx, c.processing, c.processingURL, http.MethodGet, "/documents", "list documents", nil, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]Document), nil
}

// UploadPDF submits one file as a multipart request. The caller is
// responsible for only passing PDFs; this method does not inspect the
// content.
func (c *Client) UploadPDF(ctx context.Context, filename string, r io.Reader) error {
	const op = "upload"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return &Error{Op: op, Detail: fmt.Sprintf("build upload: %v", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return &Error{Op: op, Detail: fmt.Sprintf("read %s: %v", filepath.Base(filename), err)}
	}
	if err := w.Close(); err != nil {
		return &Error{Op: op, Detail: fmt.Sprintf("build upload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.processingURL+"/process/pdf", &buf)
	if err != nil {
		return &Error{Op: op, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", w.FormDataContentType())

	var status statusResponse
	if err := c.send(req, c.processing, op, &status); err != nil {
		return err
	}
	if status.Status != "success" {
		return &Error{Op: op, Detail: "processing did not confirm success"}
	}
	return nil
}

// ClearDocuments removes every document from the backend.
func (c *Client) ClearDocuments(ctx context.Context) error {
	var status statusResponse
	if err := c.doJSON(ctx, c.processing, c.processingURL, http.MethodPost, "/clear/documents", "clear documents", nil, &status); err != nil {
		return err
	}
	if status.Status != "success" {
		return &Error{Op: "clear documents", Detail: "backend did not confirm the clear"}
	}
	return nil
}

// LiveIndexCount reports how many documents the real-time index holds.
func (c *Client) LiveIndexCount(ctx context.Context) (int, error) {
	docs := map[string]Document{}
	if err := c.doJSON(ctx, c.realtime, c.realtimeURL, http.MethodGet, "/documents", "live index", nil, &docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

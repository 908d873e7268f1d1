package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/clawdlabs/rivaldeck/ingest"
	"github.com/clawdlabs/rivaldeck/model"
	"github.com/pkg/errors"
)

// Ingestor hands one normalized, validated batch to the ingestion path.
// LocalIngestor writes through the in-process batch processor, HTTPIngestor
// posts to a remote ingestion endpoint with the same credential scheme the
// endpoint enforces.
type Ingestor interface {
	Ingest(ctx context.Context, payload *model.IngestPayload) (*model.IngestResult, error)
}

type LocalIngestor struct {
	Processor *ingest.Processor
}

func (l *LocalIngestor) Ingest(ctx context.Context, payload *model.IngestPayload) (*model.IngestResult, error) {
	return l.Processor.Process(payload), nil
}

type HTTPIngestor struct {
	Url    string
	ApiKey string
	Client *http.Client
}

func NewHTTPIngestor(url, apiKey string) *HTTPIngestor {
	return &HTTPIngestor{Url: url, ApiKey: apiKey, Client: &http.Client{}}
}

// ingestResponse is the envelope the remote ingestion endpoint returns.
type ingestResponse struct {
	Processed struct {
		PostsInserted int `json:"postsInserted"`
		PostsUpdated  int `json:"postsUpdated"`
	} `json:"processed"`
	Errors []string `json:"errors"`
}

func (h *HTTPIngestor) Ingest(ctx context.Context, payload *model.IngestPayload) (*model.IngestResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.ApiKey)
	req.Header.Set("X-Batch-Id", payload.BatchId)

	res, err := h.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fail to reach ingestion endpoint")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return nil, errors.Errorf("ingestion endpoint returned %d: %s", res.StatusCode, string(raw))
	}

	var decoded ingestResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "fail to decode ingestion response")
	}
	return &model.IngestResult{
		Inserted: decoded.Processed.PostsInserted,
		Updated:  decoded.Processed.PostsUpdated,
		Errors:   decoded.Errors,
	}, nil
}

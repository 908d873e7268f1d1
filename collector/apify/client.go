// Package apify is a thin client for the Apify actor-run API, the external
// scraping service. It only covers the three calls the orchestrator needs:
// start a run, poll run status, and list a run's dataset items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
)

const (
	DefaultBaseUrl = "https://api.apify.com"
	DefaultActorId = "apify/instagram-scraper"
)

// Terminal and transient run statuses as reported by the service.
const (
	RunStatusReady     = "READY"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusTimedOut  = "TIMED-OUT"
	RunStatusAborted   = "ABORTED"
)

// InstagramPost is one raw record produced by the instagram-scraper actor.
// Only the fields the normalizer consumes are mapped.
type InstagramPost struct {
	Id            string   `json:"id"`
	Url           string   `json:"url"`
	Caption       string   `json:"caption,omitempty"`
	LikesCount    int      `json:"likesCount,omitempty"`
	CommentsCount int      `json:"commentsCount,omitempty"`
	Timestamp     string   `json:"timestamp,omitempty"`
	Type          string   `json:"type,omitempty"`
	Hashtags      []string `json:"hashtags,omitempty"`
	Mentions      []string `json:"mentions,omitempty"`
	DisplayUrl    string   `json:"displayUrl,omitempty"`
	Images        []string `json:"images,omitempty"`
	VideoUrl      string   `json:"videoUrl,omitempty"`
	OwnerUsername string   `json:"ownerUsername,omitempty"`
}

type ProxyConfiguration struct {
	UseApifyProxy     bool     `json:"useApifyProxy"`
	ApifyProxyGroups  []string `json:"apifyProxyGroups,omitempty"`
	ApifyProxyCountry string   `json:"apifyProxyCountry,omitempty"`
}

// RunInput is the actor input for one scrape job.
type RunInput struct {
	Username          []string            `json:"username"`
	ResultsLimit      int                 `json:"resultsLimit"`
	ResultsType       string              `json:"resultsType"`
	MaxRequestRetries int                 `json:"maxRequestRetries"`
	Proxy             *ProxyConfiguration `json:"proxy,omitempty"`
	ScrollTimeout     int                 `json:"scrollTimeout,omitempty"`
	AddParentData     bool                `json:"addParentData"`
}

// Run is the service-side state of one scrape job.
type Run struct {
	Id               string `json:"id"`
	Status           string `json:"status"`
	StatusMessage    string `json:"statusMessage"`
	DefaultDatasetId string `json:"defaultDatasetId"`
}

type Client struct {
	token   string
	actorId string
	baseUrl string
	client  *http.Client
}

// NewClientFromEnv builds a client from APIFY_TOKEN and APIFY_ACTOR_ID.
// Errors out when the token is missing so that a misconfigured worker fails
// at startup rather than on its first job.
func NewClientFromEnv() (*Client, error) {
	token := os.Getenv("APIFY_TOKEN")
	if token == "" {
		return nil, errors.New("APIFY_TOKEN is not configured")
	}
	actorId := os.Getenv("APIFY_ACTOR_ID")
	if actorId == "" {
		actorId = DefaultActorId
	}
	return NewClient(token, actorId, DefaultBaseUrl), nil
}

func NewClient(token, actorId, baseUrl string) *Client {
	return &Client{
		token:   token,
		actorId: actorId,
		baseUrl: baseUrl,
		client:  &http.Client{},
	}
}

// StartRun submits one asynchronous scrape job and returns immediately with
// the created run.
func (c *Client) StartRun(ctx context.Context, input *RunInput) (*Run, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	uri := fmt.Sprintf("%s/v2/acts/%s/runs?token=%s",
		c.baseUrl, url.PathEscape(c.actorId), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRun(req)
}

// GetRun fetches the current status of a run.
func (c *Client) GetRun(ctx context.Context, runId string) (*Run, error) {
	uri := fmt.Sprintf("%s/v2/actor-runs/%s?token=%s",
		c.baseUrl, url.PathEscape(runId), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	return c.doRun(req)
}

// DatasetItems lists all items of a run's output dataset. The result sets we
// deal with are bounded by resultsLimit, so no pagination is attempted.
func (c *Client) DatasetItems(ctx context.Context, datasetId string) ([]InstagramPost, error) {
	uri := fmt.Sprintf("%s/v2/datasets/%s/items?token=%s&format=json",
		c.baseUrl, url.PathEscape(datasetId), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return nil, err
	}

	var items []InstagramPost
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "fail to decode dataset items")
	}
	return items, nil
}

// The run endpoints wrap their payload in a "data" envelope.
type runEnvelope struct {
	Data Run `json:"data"`
}

func (c *Client) doRun(req *http.Request) (*Run, error) {
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return nil, err
	}

	var envelope runEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, "fail to decode run")
	}
	return &envelope.Data, nil
}

func checkStatus(res *http.Response) error {
	if res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	return errors.Errorf("non-2xx response from scraping service: %d: %s",
		res.StatusCode, string(body))
}

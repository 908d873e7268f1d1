package scraper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clawdlabs/rivaldeck/collector/apify"
	"github.com/clawdlabs/rivaldeck/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeClock never sleeps and counts how often the loop asked it to.
type fakeClock struct {
	sleeps int
}

func (c *fakeClock) Now() time.Time { return time.Unix(0, 0) }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps++
	return ctx.Err()
}

// fakeRunClient replays a scripted sequence of run statuses.
type fakeRunClient struct {
	statuses     []string
	polls        int
	items        []apify.InstagramPost
	itemsFetched bool
	startErr     error
}

func (f *fakeRunClient) StartRun(ctx context.Context, input *apify.RunInput) (*apify.Run, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &apify.Run{Id: "run-1", Status: apify.RunStatusRunning, DefaultDatasetId: "ds-1"}, nil
}

func (f *fakeRunClient) GetRun(ctx context.Context, runId string) (*apify.Run, error) {
	status := f.statuses[len(f.statuses)-1]
	if f.polls < len(f.statuses) {
		status = f.statuses[f.polls]
	}
	f.polls++
	return &apify.Run{Id: runId, Status: status, DefaultDatasetId: "ds-1"}, nil
}

func (f *fakeRunClient) DatasetItems(ctx context.Context, datasetId string) ([]apify.InstagramPost, error) {
	f.itemsFetched = true
	return f.items, nil
}

// captureIngestor records the payload it was handed. Safe for use across
// goroutines so the queue worker tests can share it.
type captureIngestor struct {
	m       sync.Mutex
	payload *model.IngestPayload
}

func (c *captureIngestor) Ingest(ctx context.Context, payload *model.IngestPayload) (*model.IngestResult, error) {
	c.m.Lock()
	c.payload = payload
	c.m.Unlock()
	return &model.IngestResult{Inserted: len(payload.Posts), Errors: []string{}}, nil
}

func (c *captureIngestor) captured() *model.IngestPayload {
	c.m.Lock()
	defer c.m.Unlock()
	return c.payload
}

func newTestOrchestrator(client RunClient, ingestor Ingestor, clock Clock) *Orchestrator {
	o := NewOrchestrator(client, ingestor)
	o.Clock = clock
	return o
}

func TestScrapeProfileSucceeds(t *testing.T) {
	client := &fakeRunClient{
		statuses: []string{apify.RunStatusRunning, apify.RunStatusRunning, apify.RunStatusSucceeded},
		items: []apify.InstagramPost{
			{Id: "one", Url: "https://instagram.com/p/one", Caption: "hi", Timestamp: "2024-06-01T12:00:00Z"},
		},
	}
	sink := &captureIngestor{}
	clock := &fakeClock{}
	o := newTestOrchestrator(client, sink, clock)

	report, err := o.ScrapeProfile(context.Background(), "@nike", 20)
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, report.State)
	require.Equal(t, 3, report.Attempts)
	require.Equal(t, 2, clock.sleeps)
	require.Equal(t, 1, report.RawPosts)
	require.Equal(t, 1, report.Inserted)

	// The leading @ is stripped before submission.
	require.NotNil(t, sink.payload)
	require.Equal(t, "nike", sink.payload.Source.Handle)
}

func TestScrapeProfileFailedRun(t *testing.T) {
	client := &fakeRunClient{statuses: []string{apify.RunStatusFailed}}
	o := newTestOrchestrator(client, &captureIngestor{}, &fakeClock{})

	report, err := o.ScrapeProfile(context.Background(), "nike", 20)
	require.Error(t, err)

	var failed *JobFailedError
	require.True(t, errors.As(err, &failed))
	require.Equal(t, "run-1", failed.RunId)
	require.Equal(t, StateFailed, report.State)
	// A failed run never has its results fetched.
	require.False(t, client.itemsFetched)
}

func TestScrapeProfilePollTimeout(t *testing.T) {
	client := &fakeRunClient{statuses: []string{apify.RunStatusRunning}}
	sink := &captureIngestor{}
	o := newTestOrchestrator(client, sink, &fakeClock{})
	o.MaxPollAttempts = 4

	report, err := o.ScrapeProfile(context.Background(), "nike", 20)
	require.Error(t, err)

	var timeout *PollTimeoutError
	require.True(t, errors.As(err, &timeout))
	require.Equal(t, 4, timeout.Attempts)
	require.Equal(t, StateTimedOut, report.State)
	require.Equal(t, 4, client.polls)
	require.Nil(t, sink.payload)
}

func TestScrapeProfileZeroItems(t *testing.T) {
	client := &fakeRunClient{statuses: []string{apify.RunStatusSucceeded}}
	sink := &captureIngestor{}
	o := newTestOrchestrator(client, sink, &fakeClock{})

	report, err := o.ScrapeProfile(context.Background(), "ghost_account", 20)
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, report.State)
	require.Zero(t, report.RawPosts)
	require.Nil(t, sink.payload)
}

func TestScrapeProfileCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeRunClient{statuses: []string{apify.RunStatusRunning}}
	o := newTestOrchestrator(client, &captureIngestor{}, &fakeClock{})

	_, err := o.ScrapeProfile(ctx, "nike", 20)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScrapeProfileSubmitFailure(t *testing.T) {
	client := &fakeRunClient{startErr: errors.New("boom")}
	o := newTestOrchestrator(client, &captureIngestor{}, &fakeClock{})

	report, err := o.ScrapeProfile(context.Background(), "nike", 20)
	require.Error(t, err)
	require.Nil(t, report)
}

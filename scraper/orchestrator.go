// Package scraper drives asynchronous scrape jobs on the external scraping
// service to completion and feeds their output into the ingestion path.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clawdlabs/rivaldeck/collector"
	"github.com/clawdlabs/rivaldeck/collector/apify"
	"github.com/clawdlabs/rivaldeck/ingest"
	"github.com/pkg/errors"

	Logger "github.com/clawdlabs/rivaldeck/utils/log"
)

// JobState is the orchestrator-side state of one scrape job:
// SUBMITTED -> POLLING -> {SUCCEEDED | FAILED | TIMED_OUT}.
type JobState string

const (
	StateSubmitted JobState = "SUBMITTED"
	StatePolling   JobState = "POLLING"
	StateSucceeded JobState = "SUCCEEDED"
	StateFailed    JobState = "FAILED"
	StateTimedOut  JobState = "TIMED_OUT"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 60
	DefaultResultsLimit    = 50
	MaxResultsLimit        = 50
)

// RunClient is the slice of the external service the orchestrator needs.
// Satisfied by *apify.Client.
type RunClient interface {
	StartRun(ctx context.Context, input *apify.RunInput) (*apify.Run, error)
	GetRun(ctx context.Context, runId string) (*apify.Run, error)
	DatasetItems(ctx context.Context, datasetId string) ([]apify.InstagramPost, error)
}

// Clock abstracts time so tests can drive the polling loop without real
// delays. Sleep must honor context cancellation.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// JobFailedError is returned when the external service reports the job as
// failed. It carries the service's own failure message for manual re-trigger.
type JobFailedError struct {
	RunId   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("scrape run %s failed: %s", e.RunId, e.Message)
}

// PollTimeoutError is returned when the polling attempt ceiling is reached
// while the job is still running. The underlying job is left running on the
// service, it is not cancelled.
type PollTimeoutError struct {
	RunId    string
	Attempts int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("scrape run %s still not terminal after %d poll attempts", e.RunId, e.Attempts)
}

// Report summarizes one orchestrated scrape run.
type Report struct {
	RunId     string
	State     JobState
	Attempts  int
	RawPosts  int
	Inserted  int
	Updated   int
	PostTally *collector.TransformationStats
	Errors    []string
}

// Orchestrator owns the full lifecycle of one scrape job: submit, poll until
// terminal, fetch raw results, normalize, validate, ingest. Multiple
// orchestrator runs may execute concurrently, each owns an independent job
// and polling loop.
type Orchestrator struct {
	Client RunClient
	Ingest Ingestor
	Clock  Clock

	PollInterval    time.Duration
	MaxPollAttempts int
}

func NewOrchestrator(client RunClient, ingestor Ingestor) *Orchestrator {
	return &Orchestrator{
		Client:          client,
		Ingest:          ingestor,
		Clock:           realClock{},
		PollInterval:    DefaultPollInterval,
		MaxPollAttempts: DefaultMaxPollAttempts,
	}
}

// ScrapeProfile runs one instagram scrape job for a handle and pipes the
// output into ingestion. The limit is clamped to MaxResultsLimit. The call
// blocks for the duration of the job; run it from a dedicated worker, not a
// request handler. Cancelling ctx stops polling without side effects on
// already-fetched data.
func (o *Orchestrator) ScrapeProfile(ctx context.Context, handle string, limit int) (*Report, error) {
	handle = strings.TrimPrefix(handle, "@")
	if limit <= 0 {
		limit = DefaultResultsLimit
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}

	input := &apify.RunInput{
		Username:          []string{handle},
		ResultsLimit:      limit,
		ResultsType:       "posts",
		MaxRequestRetries: 3,
		Proxy: &apify.ProxyConfiguration{
			UseApifyProxy:     true,
			ApifyProxyGroups:  []string{"RESIDENTIAL"},
			ApifyProxyCountry: "BR",
		},
		ScrollTimeout: 60,
	}

	run, err := o.Client.StartRun(ctx, input)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to submit scrape job for @%s", handle)
	}
	report := &Report{RunId: run.Id, State: StateSubmitted}
	Logger.Log.Infof("submitted scrape run %s for @%s, limit %d", run.Id, handle, limit)

	run, err = o.poll(ctx, run, report)
	if err != nil {
		return report, err
	}

	items, err := o.Client.DatasetItems(ctx, run.DefaultDatasetId)
	if err != nil {
		return report, errors.Wrapf(err, "fail to fetch results of run %s", run.Id)
	}
	report.RawPosts = len(items)

	// An empty result set is not an error: the profile may be private or has
	// simply never posted. Nothing to ingest.
	if len(items) == 0 {
		Logger.Log.Warnf("scrape run %s for @%s extracted zero posts, skipping ingestion", run.Id, handle)
		return report, nil
	}

	payload, stats, err := collector.BuildInstagramPayload(items, handle)
	report.PostTally = stats
	if err != nil {
		return report, err
	}

	if valid, violations := ingest.ValidatePayload(payload); !valid {
		return report, errors.Errorf(
			"normalized batch failed validation: %s", strings.Join(violations, "; "))
	}

	result, err := o.Ingest.Ingest(ctx, payload)
	if err != nil {
		return report, err
	}
	report.Inserted = result.Inserted
	report.Updated = result.Updated
	report.Errors = result.Errors
	return report, nil
}

// poll drives SUBMITTED -> POLLING until a terminal status, one blocking
// status call per attempt on a fixed interval, up to the attempt ceiling.
func (o *Orchestrator) poll(ctx context.Context, run *apify.Run, report *Report) (*apify.Run, error) {
	report.State = StatePolling

	for attempt := 0; attempt < o.MaxPollAttempts; attempt++ {
		report.Attempts = attempt + 1

		current, err := o.Client.GetRun(ctx, run.Id)
		if err != nil {
			return nil, errors.Wrapf(err, "fail to poll run %s", run.Id)
		}

		switch current.Status {
		case apify.RunStatusSucceeded:
			report.State = StateSucceeded
			return current, nil
		case apify.RunStatusFailed, apify.RunStatusAborted, apify.RunStatusTimedOut:
			report.State = StateFailed
			message := current.StatusMessage
			if message == "" {
				message = current.Status
			}
			return nil, &JobFailedError{RunId: run.Id, Message: message}
		}

		if err := o.Clock.Sleep(ctx, o.PollInterval); err != nil {
			return nil, err
		}
	}

	report.State = StateTimedOut
	return nil, &PollTimeoutError{RunId: run.Id, Attempts: report.Attempts}
}

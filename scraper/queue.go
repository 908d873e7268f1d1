package scraper

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"

	Logger "github.com/clawdlabs/rivaldeck/utils/log"
)

const scrapeJobsTopic = "scrape.jobs"

// Request is one queued manual scrape trigger.
type Request struct {
	Target      string    `json:"target"`
	Depth       int       `json:"depth"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Queue is the in-memory scrape-trigger queue backing the manual-testing
// endpoints. Jobs are dispatched over an in-process event bus to the worker.
//
// Contract: this queue is process-scoped and not durable. A restart drops
// pending jobs, which is acceptable for its manual-testing purpose; anything
// scheduled runs through the operator CLI instead.
type Queue struct {
	bus *gochannel.GoChannel

	m       sync.Mutex
	pending int
	recent  []Request
}

const recentJobsKept = 5

func NewQueue() *Queue {
	return &Queue{
		bus: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
	}
}

// Enqueue publishes one scrape request and returns the current queue length
// including the new job.
func (q *Queue) Enqueue(req Request) (int, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	q.m.Lock()
	q.pending++
	q.recent = append(q.recent, req)
	if len(q.recent) > recentJobsKept {
		q.recent = q.recent[len(q.recent)-recentJobsKept:]
	}
	position := q.pending
	q.m.Unlock()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := q.bus.Publish(scrapeJobsTopic, msg); err != nil {
		q.m.Lock()
		q.pending--
		q.m.Unlock()
		return 0, errors.Wrap(err, "fail to enqueue scrape request")
	}
	return position, nil
}

// Status reports the queue length and the most recently queued jobs.
func (q *Queue) Status() (int, []Request) {
	q.m.Lock()
	defer q.m.Unlock()
	recent := make([]Request, len(q.recent))
	copy(recent, q.recent)
	return q.pending, recent
}

// Run consumes queued requests and executes them on the orchestrator, one at
// a time, until ctx is cancelled. A failed job is logged and must not crash
// the worker; the report carries enough context for manual re-trigger.
func (q *Queue) Run(ctx context.Context, orchestrator *Orchestrator) error {
	messages, err := q.bus.Subscribe(ctx, scrapeJobsTopic)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var req Request
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			Logger.Log.Errorf("fail to decode queued scrape request: %v", err)
			continue
		}

		report, err := orchestrator.ScrapeProfile(ctx, req.Target, req.Depth)
		q.m.Lock()
		q.pending--
		q.m.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			Logger.Log.Errorf("scrape job for %q failed: %v", req.Target, err)
			continue
		}
		Logger.Log.Infof(
			"scrape job for %q finished: run %s, %d raw posts, %d inserted, %d updated",
			req.Target, report.RunId, report.RawPosts, report.Inserted, report.Updated)
	}
	return nil
}

package ingest

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/clawdlabs/rivaldeck/model"
	"github.com/clawdlabs/rivaldeck/store"
	"github.com/pkg/errors"

	Logger "github.com/clawdlabs/rivaldeck/utils/log"
)

// Processor consumes one validated ingestion batch: it resolves the batch's
// source to a tracked board and column, then walks the posts in order with a
// per-post failure boundary. One bad post is recorded and skipped, it never
// aborts its siblings. The result is always returned, never raised, even when
// every post in the batch failed.
type Processor struct {
	Store *store.Store
}

func NewProcessor(s *store.Store) *Processor {
	return &Processor{Store: s}
}

func (p *Processor) Process(payload *model.IngestPayload) *model.IngestResult {
	result := &model.IngestResult{Errors: []string{}}

	board, column, err := p.Store.ResolveSource(payload.Source)
	if err != nil {
		// Resolution failure short-circuits the batch with zero progress but is
		// still a structured result for the caller.
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, post := range payload.Posts {
		created, err := p.processOne(payload.Source, board, column, &post)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", post.Id, err))
			continue
		}
		if created {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	Logger.Log.Infof(
		"processed batch %s for %s/@%s: %d inserted, %d updated, %d errors",
		payload.BatchId, payload.Source.Platform, payload.Source.Handle,
		result.Inserted, result.Updated, len(result.Errors))

	return result
}

func (p *Processor) processOne(source model.IngestSource, board *model.Board, column *model.Column, post *model.IngestPost) (bool, error) {
	if post.Id == "" {
		return false, errors.New("missing post id")
	}
	if post.Url == "" {
		return false, errors.New("missing post url")
	}

	mediaType, err := model.ParseMediaType(post.MediaType)
	if err != nil {
		return false, err
	}

	publishedAt, err := parsePublishedAt(post.PublishedAt)
	if err != nil {
		return false, err
	}

	engagement := post.Engagement
	if engagement == nil {
		engagement = &model.Engagement{}
	}
	if engagement.Likes < 0 || engagement.Comments < 0 {
		return false, errors.New("engagement counters must be non-negative")
	}
	shares := 0
	if engagement.Shares != nil {
		if *engagement.Shares < 0 {
			return false, errors.New("engagement counters must be non-negative")
		}
		shares = *engagement.Shares
	}

	content := ""
	if post.Content != nil {
		content = *post.Content
	}

	// Absent tag lists persist as empty lists, not null, so reads always
	// render a JSON array.
	hashtags := post.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	mentions := post.Mentions
	if mentions == nil {
		mentions = []string{}
	}

	canonical := &model.Post{
		// The deterministic id makes re-scraping the same external post
		// naturally idempotent without a separate dedup index.
		Id:          fmt.Sprintf("%s_%s", source.Platform, post.Id),
		ColumnID:    column.Id,
		BoardID:     board.Id,
		Url:         post.Url,
		Content:     content,
		MediaUrls:   []string{},
		MediaType:   mediaType,
		PublishedAt: publishedAt,
		Likes:       engagement.Likes,
		Comments:    engagement.Comments,
		Shares:      shares,
		Hashtags:    hashtags,
		Mentions:    mentions,
	}

	return p.Store.UpsertPost(canonical)
}

func parsePublishedAt(raw string) (time.Time, error) {
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid publishedAt %q", raw)
	}
	return t, nil
}

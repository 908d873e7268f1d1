// Package ingest implements the ingestion side of the pipeline: structural
// batch validation and per-post processing against the store.
package ingest

import (
	"fmt"

	"github.com/clawdlabs/rivaldeck/model"
)

// ValidatePayload structurally checks one canonical batch before it is
// accepted. Validation is exhaustive: every violation is collected in order
// instead of stopping at the first, so a caller can fix a malformed batch in
// one round trip. The whole batch is rejected when the flag is false, there
// is no partial acceptance.
func ValidatePayload(payload *model.IngestPayload) (bool, []string) {
	var violations []string

	if payload.BatchId == "" {
		violations = append(violations, "batchId is required")
	}
	if payload.ScrapedAt == "" {
		violations = append(violations, "scrapedAt is required")
	}

	if payload.Source == (model.IngestSource{}) {
		violations = append(violations, "source is required")
	} else {
		if payload.Source.Platform == "" {
			violations = append(violations, "source.platform is required")
		} else if _, err := model.ParseSourceType(payload.Source.Platform); err != nil {
			violations = append(violations, fmt.Sprintf("source.platform: %v", err))
		}
		if payload.Source.Handle == "" {
			violations = append(violations, "source.handle is required")
		}
		if payload.Source.Url == "" {
			violations = append(violations, "source.url is required")
		}
	}

	if payload.Posts == nil {
		violations = append(violations, "posts must be an array")
	} else {
		for index, post := range payload.Posts {
			violations = append(violations, validatePost(index, &post)...)
		}
	}

	return len(violations) == 0, violations
}

func validatePost(index int, post *model.IngestPost) []string {
	var violations []string
	if post.Id == "" {
		violations = append(violations, fmt.Sprintf("post %d: id is required", index))
	}
	if post.Url == "" {
		violations = append(violations, fmt.Sprintf("post %d: url is required", index))
	}
	// An empty caption is a legal post, an absent content field is not.
	if post.Content == nil {
		violations = append(violations, fmt.Sprintf("post %d: content is required", index))
	}
	if post.PublishedAt == "" {
		violations = append(violations, fmt.Sprintf("post %d: publishedAt is required", index))
	}
	if post.Engagement == nil {
		violations = append(violations, fmt.Sprintf("post %d: engagement is required", index))
	}
	return violations
}

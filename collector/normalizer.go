// Package collector converts raw externally-scraped records into the
// canonical batch format consumed by the ingestion endpoint. Transforms here
// are pure, all side effects live in the orchestrator and the store.
package collector

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/clawdlabs/rivaldeck/collector/apify"
	"github.com/clawdlabs/rivaldeck/model"
	"github.com/pkg/errors"
)

var (
	mentionRe = regexp.MustCompile(`@([a-zA-Z0-9_.]+)`)
	// Extended Latin letters included so tags like #verão survive.
	hashtagRe = regexp.MustCompile(`#([a-zA-Z0-9_\x{00C0}-\x{00FF}]+)`)
)

// MapMediaType is the fixed lookup from the scraper's record type to the
// canonical media kind. Anything unknown or absent is an image.
func MapMediaType(rawType string) model.MediaType {
	switch rawType {
	case "Sidecar", "Carousel":
		return model.MediaTypeCarousel
	case "Video":
		return model.MediaTypeVideo
	default:
		return model.MediaTypeImage
	}
}

// ExtractMentions pulls @handles out of a caption.
func ExtractMentions(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, m[1])
	}
	return mentions
}

// ExtractHashtags returns the provided tags when there are any, otherwise
// pulls #tags out of the caption.
func ExtractHashtags(text string, provided []string) []string {
	if len(provided) > 0 {
		return provided
	}
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	hashtags := make([]string, 0, len(matches))
	for _, m := range matches {
		hashtags = append(hashtags, m[1])
	}
	return hashtags
}

// FormatProfileUrl builds the canonical instagram profile url for a handle.
func FormatProfileUrl(username string) string {
	return fmt.Sprintf("https://instagram.com/%s", username)
}

// FormatPostUrl passes absolute urls through unchanged and treats anything
// else as a shortcode to build the canonical post url from.
func FormatPostUrl(shortcodeOrUrl string) string {
	if strings.HasPrefix(shortcodeOrUrl, "http") {
		return shortcodeOrUrl
	}
	return fmt.Sprintf("https://instagram.com/p/%s", shortcodeOrUrl)
}

// TransformPost converts one raw scraped record into a canonical batch post.
// A missing publication timestamp defaults to the normalization's own
// wall-clock time, which is an accepted approximation for freshly scraped
// content.
func TransformPost(post *apify.InstagramPost) model.IngestPost {
	caption := post.Caption

	// A provided mentions list wins even when it is empty; only an absent
	// field falls back to caption extraction. Hashtags differ: a provided
	// empty list still falls through to extraction.
	mentions := post.Mentions
	if mentions == nil {
		mentions = ExtractMentions(caption)
	}
	hashtags := ExtractHashtags(caption, post.Hashtags)

	publishedAt := post.Timestamp
	if publishedAt == "" {
		publishedAt = time.Now().UTC().Format(time.RFC3339)
	}

	return model.IngestPost{
		Id:          post.Id,
		Url:         FormatPostUrl(post.Url),
		Content:     &caption,
		MediaType:   string(MapMediaType(post.Type)),
		PublishedAt: publishedAt,
		// The scraper does not report shares for instagram posts.
		Engagement: &model.Engagement{
			Likes:    post.LikesCount,
			Comments: post.CommentsCount,
		},
		Hashtags: hashtags,
		Mentions: mentions,
	}
}

// TransformationStats reports how many raw records survived normalization.
type TransformationStats struct {
	TotalPosts   int
	ValidPosts   int
	InvalidPosts int
	Errors       []string
}

// BuildInstagramPayload normalizes a full scrape result into one ingestion
// batch. Records lacking both an id and a url are dropped before
// normalization and counted as invalid. Errors out when nothing survives.
func BuildInstagramPayload(posts []apify.InstagramPost, username string) (*model.IngestPayload, *TransformationStats, error) {
	stats := &TransformationStats{TotalPosts: len(posts)}

	var transformed []model.IngestPost
	for index, post := range posts {
		var missing []string
		if post.Id == "" {
			missing = append(missing, "id missing")
		}
		if post.Url == "" {
			missing = append(missing, "url missing")
		}
		if len(missing) > 0 {
			stats.InvalidPosts++
			stats.Errors = append(stats.Errors,
				fmt.Sprintf("post %d: %s", index, strings.Join(missing, ", ")))
			continue
		}
		stats.ValidPosts++
		transformed = append(transformed, TransformPost(&post))
	}

	if len(transformed) == 0 {
		return nil, stats, errors.Errorf(
			"no valid posts after transformation: %s", strings.Join(stats.Errors, "; "))
	}

	payload := &model.IngestPayload{
		BatchId:   GenerateBatchId(),
		ScrapedAt: time.Now().UTC().Format(time.RFC3339),
		Source: model.IngestSource{
			Platform: string(model.SourceTypeInstagram),
			Handle:   username,
			Url:      FormatProfileUrl(username),
		},
		Posts: transformed,
	}
	return payload, stats, nil
}

const batchIdAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateBatchId issues a unique id for one batch, readable enough to grep
// in logs.
func GenerateBatchId() string {
	suffix := make([]byte, 7)
	for i := range suffix {
		suffix[i] = batchIdAlphabet[rand.Intn(len(batchIdAlphabet))]
	}
	return fmt.Sprintf("batch_%d_%s", time.Now().UnixMilli(), suffix)
}

package collector

import (
	"context"
	"time"

	"github.com/clawdlabs/rivaldeck/model"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
)

// RssCollector fills rss columns: it fetches a syndication feed and
// assembles its items into the same canonical batch format the instagram
// path produces, so both flow through one validator and one ingestion path.
type RssCollector struct {
	parser *gofeed.Parser
}

func NewRssCollector() *RssCollector {
	return &RssCollector{parser: gofeed.NewParser()}
}

// Collect fetches the feed at feedUrl and builds one ingestion batch for the
// given handle. Returns an error when the feed is unreachable or empty.
func (c *RssCollector) Collect(ctx context.Context, feedUrl string, handle string) (*model.IngestPayload, error) {
	feed, err := c.parser.ParseURLWithContext(feedUrl, ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to fetch feed %s", feedUrl)
	}
	if len(feed.Items) == 0 {
		return nil, errors.Errorf("feed %s has no items", feedUrl)
	}

	posts := make([]model.IngestPost, 0, len(feed.Items))
	for _, item := range feed.Items {
		posts = append(posts, transformFeedItem(item))
	}

	return &model.IngestPayload{
		BatchId:   GenerateBatchId(),
		ScrapedAt: time.Now().UTC().Format(time.RFC3339),
		Source: model.IngestSource{
			Platform: string(model.SourceTypeRss),
			Handle:   handle,
			Url:      feedUrl,
		},
		Posts: posts,
	}, nil
}

func transformFeedItem(item *gofeed.Item) model.IngestPost {
	id := item.GUID
	if id == "" {
		id = item.Link
	}

	content := item.Title
	if item.Description != "" {
		content = content + "\n" + item.Description
	}

	publishedAt := ""
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else {
		publishedAt = time.Now().UTC().Format(time.RFC3339)
	}

	mediaType := model.MediaTypeNone
	if item.Image != nil && item.Image.URL != "" {
		mediaType = model.MediaTypeImage
	}

	return model.IngestPost{
		Id:          id,
		Url:         item.Link,
		Content:     &content,
		MediaType:   string(mediaType),
		PublishedAt: publishedAt,
		Engagement:  &model.Engagement{},
		Hashtags:    ExtractHashtags(content, item.Categories),
	}
}

package model

/*

Wire-level types for one authenticated ingestion batch.

A batch is constructed by the scrape orchestrator (or an external scraper
agent), validated once, consumed exactly once by the batch processor, then
discarded. No batch history is retained beyond what lands in posts.

Timestamps travel as strings on the wire and are only parsed at the
processing boundary. Content is a pointer so that the validator can tell an
absent field from a legitimately empty caption. Engagement is a pointer for
the same reason.
*/

// IngestSource describes the account a batch was scraped from.
type IngestSource struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
	Url      string `json:"url"`
}

// Engagement carries the post counters. Shares may be absent and defaults
// to zero.
type Engagement struct {
	Likes    int  `json:"likes"`
	Comments int  `json:"comments"`
	Shares   *int `json:"shares,omitempty"`
}

// IngestPost is one raw post inside a batch, keyed by the platform-local
// post id.
type IngestPost struct {
	Id          string      `json:"id"`
	Url         string      `json:"url"`
	Content     *string     `json:"content"`
	MediaType   string      `json:"mediaType"`
	PublishedAt string      `json:"publishedAt"`
	Engagement  *Engagement `json:"engagement"`
	Hashtags    []string    `json:"hashtags,omitempty"`
	Mentions    []string    `json:"mentions,omitempty"`
}

// IngestPayload is the full batch as posted to the ingestion endpoint.
type IngestPayload struct {
	BatchId   string       `json:"batchId"`
	ScrapedAt string       `json:"scrapedAt"`
	Source    IngestSource `json:"source"`
	Posts     []IngestPost `json:"posts"`
}

// IngestResult is the structured outcome of processing one batch. It is
// always returned, never raised: a batch that matched no board still yields
// a result with zero progress and a collected error.
type IngestResult struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors"`
}

package collector

import (
	"strings"
	"testing"

	"github.com/clawdlabs/rivaldeck/collector/apify"
	"github.com/clawdlabs/rivaldeck/model"
	"github.com/stretchr/testify/require"
)

func TestMapMediaType(t *testing.T) {
	require.Equal(t, model.MediaTypeCarousel, MapMediaType("Sidecar"))
	require.Equal(t, model.MediaTypeCarousel, MapMediaType("Carousel"))
	require.Equal(t, model.MediaTypeVideo, MapMediaType("Video"))
	require.Equal(t, model.MediaTypeImage, MapMediaType("Image"))
	require.Equal(t, model.MediaTypeImage, MapMediaType(""))
	require.Equal(t, model.MediaTypeImage, MapMediaType("GraphWhatever"))
}

func TestExtractMentionsAndHashtags(t *testing.T) {
	caption := "Check out #summer2024 @partner_brand"
	require.Equal(t, []string{"partner_brand"}, ExtractMentions(caption))
	require.Equal(t, []string{"summer2024"}, ExtractHashtags(caption, nil))

	t.Run("provided hashtags win over the caption", func(t *testing.T) {
		got := ExtractHashtags(caption, []string{"official"})
		require.Equal(t, []string{"official"}, got)
	})

	t.Run("accented tags survive", func(t *testing.T) {
		got := ExtractHashtags("chegou o #verão", nil)
		require.Equal(t, []string{"verão"}, got)
	})

	t.Run("dotted mention handles", func(t *testing.T) {
		got := ExtractMentions("shot by @studio.nine")
		require.Equal(t, []string{"studio.nine"}, got)
	})

	t.Run("no matches yields empty slices", func(t *testing.T) {
		require.Empty(t, ExtractMentions("plain caption"))
		require.Empty(t, ExtractHashtags("plain caption", nil))
	})
}

func TestFormatPostUrl(t *testing.T) {
	require.Equal(t, "https://instagram.com/p/DEF456", FormatPostUrl("DEF456"))
	require.Equal(t, "https://example.com/p/x", FormatPostUrl("https://example.com/p/x"))
	require.Equal(t, "http://example.com/p/x", FormatPostUrl("http://example.com/p/x"))
}

func TestTransformPost(t *testing.T) {
	raw := apify.InstagramPost{
		Id:            "abc",
		Url:           "DEF456",
		Caption:       "Check out #summer2024 @partner_brand",
		LikesCount:    10,
		CommentsCount: 2,
		Timestamp:     "2024-06-01T12:00:00Z",
		Type:          "Sidecar",
	}

	post := TransformPost(&raw)
	require.Equal(t, "abc", post.Id)
	require.Equal(t, "https://instagram.com/p/DEF456", post.Url)
	require.Equal(t, "carousel", post.MediaType)
	require.Equal(t, "2024-06-01T12:00:00Z", post.PublishedAt)
	require.NotNil(t, post.Content)
	require.Equal(t, raw.Caption, *post.Content)
	require.Equal(t, []string{"summer2024"}, post.Hashtags)
	require.Equal(t, []string{"partner_brand"}, post.Mentions)
	require.NotNil(t, post.Engagement)
	require.Equal(t, 10, post.Engagement.Likes)
	require.Equal(t, 2, post.Engagement.Comments)
	require.Nil(t, post.Engagement.Shares)

	t.Run("provided empty mentions list wins over the caption", func(t *testing.T) {
		raw := apify.InstagramPost{
			Id:       "abc",
			Url:      "DEF456",
			Caption:  "shot with @partner_brand",
			Mentions: []string{},
		}
		post := TransformPost(&raw)
		require.Empty(t, post.Mentions)
	})

	t.Run("absent mentions fall back to the caption", func(t *testing.T) {
		raw := apify.InstagramPost{Id: "abc", Url: "DEF456", Caption: "shot with @partner_brand"}
		post := TransformPost(&raw)
		require.Equal(t, []string{"partner_brand"}, post.Mentions)
	})

	t.Run("missing timestamp defaults to now", func(t *testing.T) {
		raw := apify.InstagramPost{Id: "abc", Url: "DEF456"}
		post := TransformPost(&raw)
		require.NotEmpty(t, post.PublishedAt)
	})
}

func TestBuildInstagramPayload(t *testing.T) {
	records := []apify.InstagramPost{
		{Id: "one", Url: "https://instagram.com/p/one"},
		{Url: "https://instagram.com/p/two"},
		{Id: "three", Url: "https://instagram.com/p/three"},
	}

	payload, stats, err := BuildInstagramPayload(records, "nike")
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalPosts)
	require.Equal(t, 2, stats.ValidPosts)
	require.Equal(t, 1, stats.InvalidPosts)
	require.Len(t, stats.Errors, 1)
	require.Contains(t, stats.Errors[0], "post 1")

	require.Equal(t, "instagram", payload.Source.Platform)
	require.Equal(t, "nike", payload.Source.Handle)
	require.Equal(t, "https://instagram.com/nike", payload.Source.Url)
	require.Len(t, payload.Posts, 2)
	require.True(t, strings.HasPrefix(payload.BatchId, "batch_"))
	require.NotEmpty(t, payload.ScrapedAt)

	t.Run("errors out when nothing survives", func(t *testing.T) {
		_, stats, err := BuildInstagramPayload([]apify.InstagramPost{{Caption: "x"}}, "nike")
		require.Error(t, err)
		require.Equal(t, 1, stats.InvalidPosts)
	})
}

func TestGenerateBatchId(t *testing.T) {
	first := GenerateBatchId()
	second := GenerateBatchId()
	require.True(t, strings.HasPrefix(first, "batch_"))
	require.NotEqual(t, first, second)
}

package ingest

import (
	"testing"
	"time"

	"github.com/clawdlabs/rivaldeck/model"
	"github.com/clawdlabs/rivaldeck/store"
	"github.com/clawdlabs/rivaldeck/utils"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) (*Processor, *store.Store) {
	t.Helper()
	s := store.New(utils.CreateTempDB(t))
	return NewProcessor(s), s
}

func seedBoard(t *testing.T, s *store.Store, name string) *model.Board {
	t.Helper()
	board, err := s.CreateBoard(name, nil)
	require.NoError(t, err)
	return board
}

func TestProcessUnknownHandle(t *testing.T) {
	p, _ := newTestProcessor(t)

	payload := validPayload()
	payload.Source.Handle = "unknown_brand"
	payload.Source.Url = "https://instagram.com/unknown_brand"

	result := p.Process(payload)
	require.NotNil(t, result)
	require.Zero(t, result.Inserted)
	require.Zero(t, result.Updated)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "board not found")
}

func TestProcessPerPostFailureBoundary(t *testing.T) {
	p, s := newTestProcessor(t)
	board := seedBoard(t, s, "Nike")

	payload := validPayload()
	payload.Posts = []model.IngestPost{
		validPost("one"),
		validPost("two"),
		validPost("three"),
	}
	payload.Posts[1].Url = ""

	result := p.Process(payload)
	require.Equal(t, 2, result.Inserted)
	require.Zero(t, result.Updated)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "two")
	require.Contains(t, result.Errors[0], "missing post url")

	posts, err := s.GetPostsByBoard(board.Id, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
}

func TestProcessReingestUpdates(t *testing.T) {
	p, s := newTestProcessor(t)
	seedBoard(t, s, "Nike")

	payload := validPayload()
	result := p.Process(payload)
	require.Equal(t, 1, result.Inserted)
	require.Zero(t, result.Updated)

	payload.Posts[0].Engagement.Likes = 99
	result = p.Process(payload)
	require.Zero(t, result.Inserted)
	require.Equal(t, 1, result.Updated)
	require.Empty(t, result.Errors)

	stored, err := s.GetPostById("instagram_abc")
	require.NoError(t, err)
	require.Equal(t, 99, stored.Likes)
}

func TestProcessOne(t *testing.T) {
	p, s := newTestProcessor(t)
	board := seedBoard(t, s, "Nike")
	column := board.Columns[0]

	t.Run("platform prefixed deterministic id", func(t *testing.T) {
		post := validPost("xyz")
		created, err := p.processOne(validSource(), board, &column, &post)
		require.NoError(t, err)
		require.True(t, created)

		stored, err := s.GetPostById("instagram_xyz")
		require.NoError(t, err)
		require.Equal(t, column.Id, stored.ColumnID)
	})

	t.Run("unknown media type rejected", func(t *testing.T) {
		post := validPost("m1")
		post.MediaType = "hologram"
		_, err := p.processOne(validSource(), board, &column, &post)
		require.Error(t, err)
	})

	t.Run("flexible timestamp formats", func(t *testing.T) {
		post := validPost("t1")
		post.PublishedAt = "June 1, 2024"
		created, err := p.processOne(validSource(), board, &column, &post)
		require.NoError(t, err)
		require.True(t, created)

		stored, err := s.GetPostById("instagram_t1")
		require.NoError(t, err)
		require.Equal(t, time.June, stored.PublishedAt.Month())
	})

	t.Run("garbage timestamp rejected", func(t *testing.T) {
		post := validPost("t2")
		post.PublishedAt = "not a date"
		_, err := p.processOne(validSource(), board, &column, &post)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid publishedAt")
	})

	t.Run("negative counters rejected", func(t *testing.T) {
		post := validPost("n1")
		post.Engagement.Likes = -1
		_, err := p.processOne(validSource(), board, &column, &post)
		require.Error(t, err)
	})

	t.Run("absent tag lists stored as empty lists", func(t *testing.T) {
		post := validPost("h1")
		post.Hashtags = nil
		post.Mentions = nil
		created, err := p.processOne(validSource(), board, &column, &post)
		require.NoError(t, err)
		require.True(t, created)

		stored, err := s.GetPostById("instagram_h1")
		require.NoError(t, err)
		require.NotNil(t, stored.Hashtags)
		require.Empty(t, stored.Hashtags)
		require.NotNil(t, stored.Mentions)
		require.Empty(t, stored.Mentions)
	})

	t.Run("absent shares defaults to zero", func(t *testing.T) {
		post := validPost("s1")
		post.Engagement.Shares = nil
		created, err := p.processOne(validSource(), board, &column, &post)
		require.NoError(t, err)
		require.True(t, created)

		stored, err := s.GetPostById("instagram_s1")
		require.NoError(t, err)
		require.Zero(t, stored.Shares)
	})
}

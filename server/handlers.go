// Package server carries the HTTP surface: the authenticated ingestion
// endpoint, the board/column/post resources backing the dashboard, and the
// manual scrape-trigger queue endpoints.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/clawdlabs/rivaldeck/ingest"
	"github.com/clawdlabs/rivaldeck/model"
	"github.com/clawdlabs/rivaldeck/scraper"
	"github.com/clawdlabs/rivaldeck/store"
	"github.com/clawdlabs/rivaldeck/utils"
	"github.com/gin-gonic/gin"

	Logger "github.com/clawdlabs/rivaldeck/utils/log"
)

const (
	defaultScrapeDepth = 20
	maxScrapeDepth     = 50
	defaultPostsLimit  = 50
)

// Handler bundles the process-scoped services every route needs. Constructed
// once at startup and injected, there is no ambient state.
type Handler struct {
	Store     *store.Store
	Processor *ingest.Processor
	Queue     *scraper.Queue
}

func NewHandler(s *store.Store, queue *scraper.Queue) *Handler {
	return &Handler{
		Store:     s,
		Processor: ingest.NewProcessor(s),
		Queue:     queue,
	}
}

// IngestHealth is the unauthenticated health probe of the ingestion service,
// also surfacing rough corpus stats.
func (h *Handler) IngestHealth(c *gin.Context) {
	stats, err := h.Store.Stats()
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "rivaldeck-ingest-api",
		"stats":   stats,
	})
}

// Ingest accepts one batch of scraped posts. Auth and throttling have
// already run as middlewares; here the batch is validated as a whole,
// resolved to a board, and processed post by post.
func (h *Handler) Ingest(c *gin.Context) {
	var payload model.IngestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": utils.ErrorMalformedBatch,
			"msg":  "request body is not a valid ingestion batch: " + err.Error(),
		})
		return
	}

	if valid, violations := ingest.ValidatePayload(&payload); !valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   utils.ErrorMalformedBatch,
			"msg":    "batch failed validation",
			"errors": violations,
		})
		return
	}

	// An explicit batch id header wins over the payload's, mirroring the
	// scraper agent contract.
	batchId := c.GetHeader("X-Batch-Id")
	if batchId == "" {
		batchId = payload.BatchId
	}

	result := h.Processor.Process(&payload)

	response := gin.H{
		"success": true,
		"batchId": batchId,
		"processed": gin.H{
			"platform":      payload.Source.Platform,
			"handle":        payload.Source.Handle,
			"postsReceived": len(payload.Posts),
			"postsInserted": result.Inserted,
			"postsUpdated":  result.Updated,
		},
	}
	if len(result.Errors) > 0 {
		response["errors"] = result.Errors
	}
	c.JSON(http.StatusOK, response)
}

// ForceScrape queues a manual scrape request for one target handle. The
// depth bound is clamped server-side.
func (h *Handler) ForceScrape(c *gin.Context) {
	var body struct {
		Target string `json:"target"`
		Depth  int    `json:"depth"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Target == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": utils.ErrorBadRequest,
			"msg":  "missing required field: target",
		})
		return
	}

	depth := body.Depth
	if depth <= 0 {
		depth = defaultScrapeDepth
	}
	if depth > maxScrapeDepth {
		depth = maxScrapeDepth
	}

	job := scraper.Request{
		Target:      body.Target,
		Depth:       depth,
		RequestedAt: time.Now().UTC(),
	}
	position, err := h.Queue.Enqueue(job)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "scrape request queued",
		"job":           job,
		"queuePosition": position,
	})
}

// ScrapeQueueStatus reports the queue length and the most recent jobs.
func (h *Handler) ScrapeQueueStatus(c *gin.Context) {
	length, recent := h.Queue.Status()
	c.JSON(http.StatusOK, gin.H{
		"queueLength": length,
		"recentJobs":  recent,
	})
}

// ListBoards returns all boards, or a single board when ?slug= is given.
func (h *Handler) ListBoards(c *gin.Context) {
	if slug := c.Query("slug"); slug != "" {
		board, err := h.Store.GetBoardBySlug(slug)
		if err != nil {
			h.boardError(c, err)
			return
		}
		c.JSON(http.StatusOK, board)
		return
	}

	boards, err := h.Store.GetBoards()
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (h *Handler) CreateBoard(c *gin.Context) {
	var body struct {
		Name      string  `json:"name"`
		AvatarUrl *string `json:"avatarUrl"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": utils.ErrorBadRequest,
			"msg":  "missing required field: name",
		})
		return
	}

	board, err := h.Store.CreateBoard(body.Name, body.AvatarUrl)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

func (h *Handler) DeleteBoard(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": utils.ErrorBadRequest,
			"msg":  "missing required parameter: id",
		})
		return
	}
	if err := h.Store.DeleteBoard(id); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateColumn adds a platform column to a board, e.g. an rss column next to
// the default social ones. Creating the pair again overwrites display name
// and position instead of duplicating.
func (h *Handler) CreateColumn(c *gin.Context) {
	var body struct {
		BoardID     string `json:"boardId"`
		SourceType  string `json:"sourceType"`
		DisplayName string `json:"displayName"`
		Position    int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.BoardID == "" || body.SourceType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": utils.ErrorBadRequest,
			"msg":  "missing required fields: boardId, sourceType",
		})
		return
	}

	sourceType, err := model.ParseSourceType(body.SourceType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": utils.ErrorBadRequest,
			"msg":  err.Error(),
		})
		return
	}

	if _, err := h.Store.GetBoardById(body.BoardID); err != nil {
		h.boardError(c, err)
		return
	}

	displayName := body.DisplayName
	if displayName == "" {
		displayName = body.SourceType
	}

	column, err := h.Store.UpsertColumn(body.BoardID, sourceType, displayName, body.Position)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, column)
}

func (h *Handler) GetColumn(c *gin.Context) {
	column, err := h.Store.GetColumnById(c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"code": utils.ErrorNotFound,
				"msg":  "column not found",
			})
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, column)
}

// UpdateColumnHandle sets or clears the scrape handle of a column. The handle
// is trimmed; an empty string clears it.
func (h *Handler) UpdateColumnHandle(c *gin.Context) {
	var body struct {
		Handle *string `json:"handle"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Handle == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": utils.ErrorBadRequest,
			"msg":  "missing or invalid handle field",
		})
		return
	}

	column, err := h.Store.UpdateColumnHandle(c.Param("id"), *body.Handle)
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"code": utils.ErrorNotFound,
				"msg":  "column not found",
			})
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"column":  column,
	})
}

// ListPosts serves the dashboard timeline, by column or by board.
func (h *Handler) ListPosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPostsLimit)))
	if err != nil || limit <= 0 {
		limit = defaultPostsLimit
	}

	if columnId := c.Query("columnId"); columnId != "" {
		posts, err := h.Store.GetPostsByColumn(columnId, limit)
		if err != nil {
			h.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, posts)
		return
	}
	if boardId := c.Query("boardId"); boardId != "" {
		posts, err := h.Store.GetPostsByBoard(boardId, limit)
		if err != nil {
			h.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, posts)
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"code": utils.ErrorBadRequest,
		"msg":  "missing required parameter: boardId or columnId",
	})
}

func (h *Handler) boardError(c *gin.Context, err error) {
	if store.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"code": utils.ErrorNotFound,
			"msg":  "board not found",
		})
		return
	}
	h.internalError(c, err)
}

// internalError logs the full failure but only returns a generic response so
// internals never leak to callers.
func (h *Handler) internalError(c *gin.Context, err error) {
	Logger.Log.Errorf("internal error serving %s %s: %+v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code": utils.ErrorInternal,
		"msg":  "internal server error",
	})
}

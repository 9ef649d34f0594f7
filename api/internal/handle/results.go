package handle

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/store"
)

type resultItem struct {
	ID        string        `json:"id"`
	UseCase   types.UseCase `json:"use_case"`
	Language  string        `json:"language"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	InputType string        `json:"input_type"`
	CreatedAt time.Time     `json:"created_at"`
	Result    any           `json:"result"`
}

func toItem(r store.Record) resultItem {
	return resultItem{
		ID:        r.ID.String(),
		UseCase:   r.UseCase,
		Language:  r.Language,
		Provider:  r.Provider,
		Model:     r.Model,
		InputType: r.InputType,
		CreatedAt: r.CreatedAt,
		Result:    r.Result,
	}
}

// caller returns the user ID, or writes the error response and "" when the
// request cannot reach stored results.
func (h *Handle) caller(c *gin.Context) string {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errorBody{Kind: "unavailable", Message: "result storage is disabled"}})
		return ""
	}
	userID := strings.TrimSpace(c.GetHeader(headerUserID))
	if userID == "" {
		badRequest(c, "%s header is required", headerUserID)
	}
	return userID
}

// ListResults returns the caller's stored results, newest first.
func (h *Handle) ListResults(c *gin.Context) {
	userID := h.caller(c)
	if userID == "" {
		return
	}
	var u types.UseCase
	if q := c.Query("use_case"); q != "" {
		parsed, err := types.ParseUseCase(q)
		if err != nil {
			badRequest(c, "%v", err)
			return
		}
		u = parsed
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	recs, err := h.store.ListByUser(c.Request.Context(), userID, u, limit)
	if err != nil {
		log.WithError(err).Error("list results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{Kind: "internal", Message: "could not list results"}})
		return
	}
	items := make([]resultItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, toItem(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// GetResult returns one stored result; other users' results are not found.
func (h *Handle) GetResult(c *gin.Context) {
	userID := h.caller(c)
	if userID == "" {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "bad result id")
		return
	}
	rec, err := h.store.Get(c.Request.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errorBody{Kind: "not_found", Message: "result not found"}})
		return
	}
	if err != nil {
		log.WithError(err).WithField("id", id.String()).Error("get result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{Kind: "internal", Message: "could not load result"}})
		return
	}
	c.JSON(http.StatusOK, toItem(rec))
}

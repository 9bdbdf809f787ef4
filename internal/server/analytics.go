package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/store/sqlite"
)

// parseAnalyticsRange reads the optional created-date range shared by
// the analytics endpoints.
func parseAnalyticsRange(c *gin.Context) (from, to *time.Time, ok bool) {
	if from, ok = parseDateBound(c, "start_date", false); !ok {
		return nil, nil, false
	}
	if to, ok = parseDateBound(c, "end_date", true); !ok {
		return nil, nil, false
	}
	return from, to, true
}

// handleAnalyticsStatus returns task counts grouped by status.
func (s *Server) handleAnalyticsStatus(c *gin.Context) {
	from, to, ok := parseAnalyticsRange(c)
	if !ok {
		return
	}

	counts, err := s.store.StatusCounts(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if counts == nil {
		counts = []sqlite.StatusCount{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"summary": counts}})
}

// handleAnalyticsPriority returns task counts grouped by priority.
func (s *Server) handleAnalyticsPriority(c *gin.Context) {
	from, to, ok := parseAnalyticsRange(c)
	if !ok {
		return
	}

	counts, err := s.store.PriorityCounts(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if counts == nil {
		counts = []sqlite.PriorityCount{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"summary": counts}})
}

// handleAnalyticsCompletion returns the completion trend per period.
func (s *Server) handleAnalyticsCompletion(c *gin.Context) {
	period := c.DefaultQuery("period", "month")
	if !sqlite.ValidCompletionPeriod(period) {
		respondFail(c, http.StatusBadRequest, "period must be one of: day, week, month, year")
		return
	}

	from, to, ok := parseAnalyticsRange(c)
	if !ok {
		return
	}

	buckets, err := s.store.CompletionBuckets(c.Request.Context(), currentUserID(c), period, from, to)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if buckets == nil {
		buckets = []sqlite.CompletionBucket{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"period":  period,
		"data":    gin.H{"summary": buckets},
	})
}

// handleAnalyticsSummary returns the dashboard headline numbers.
func (s *Server) handleAnalyticsSummary(c *gin.Context) {
	summary, err := s.store.Summary(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

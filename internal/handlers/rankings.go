package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/site-analytics/internal/auth"
	"github.com/PratikDhanave/site-analytics/internal/models"
	"github.com/PratikDhanave/site-analytics/internal/store"
)

// RankingsReader answers the rankings query; both stores implement it.
type RankingsReader interface {
	Rankings(ctx context.Context, q models.RankingsQuery) ([]models.Ranking, error)
}

// RegisterRankingRoutes registers the chart data endpoint.
//
// GET /api/website/:websiteId/rankings?start_at=...&end_at=...&type=...
// - start_at/end_at are unix milliseconds, inclusive
// - Returns [{x, y, z}] ordered by y desc; z is y's share of the total in percent
func RegisterRankingRoutes(r gin.IRoutes, st RankingsReader) {
	r.GET("/rankings", func(c *gin.Context) {
		websiteID := auth.WebsiteID(c)
		if websiteID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, err := uuid.Parse(websiteID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "websiteId must be a UUID"})
			return
		}

		startStr := c.Query("start_at")
		endStr := c.Query("end_at")
		typ := c.Query("type")

		if startStr == "" || endStr == "" || typ == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_at, end_at, type are required"})
			return
		}

		startMs, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must be unix milliseconds"})
			return
		}
		endMs, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_at must be unix milliseconds"})
			return
		}
		if endMs < startMs {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must be <= end_at"})
			return
		}

		rows, err := st.Rankings(c.Request.Context(), models.RankingsQuery{
			WebsiteID: websiteID,
			StartAt:   time.UnixMilli(startMs).UTC(),
			EndAt:     time.UnixMilli(endMs).UTC(),
			Type:      models.RankingType(typ),
		})
		if errors.Is(err, store.ErrUnsupportedRanking) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}

		c.JSON(http.StatusOK, models.PercentFilter(rows))
	})
}

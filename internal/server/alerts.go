package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	alertdomain "github.com/openretail/stocksync/internal/alert/domain"
	"github.com/openretail/stocksync/pkg/db/pagination"
)

func (s *Server) ListAlerts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		UnreadOnly bool `form:"unread_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if query.PageSize <= 0 {
		query.PageSize = 50
	}

	var afterID snowflake.ID
	if query.PageToken != "" {
		cursor, err := pagination.DecodeCursor(query.PageToken)
		if err != nil {
			AbortWithError(c, newValidationError("page_token", "invalid_page_token", "invalid page token"))
			return
		}
		if cursor.ID != "" {
			parsed, err := snowflake.ParseString(cursor.ID)
			if err != nil {
				AbortWithError(c, newValidationError("page_token", "invalid_page_token", "invalid page token"))
				return
			}
			afterID = parsed
		}
	}

	// Over-fetch one row to detect a further page.
	alerts, err := s.alertRepo.Find(c.Request.Context(), s.db, query.UnreadOnly, afterID, query.PageSize+1)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	alerts, pageInfo := pagination.BuildPageInfo(alerts, query.PageSize, func(a alertdomain.Alert) string {
		return a.ID.String()
	})

	c.JSON(http.StatusOK, gin.H{
		"data":      alerts,
		"page_info": pageInfo,
	})
}

func (s *Server) MarkAlertRead(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.alertRepo.MarkRead(c.Request.Context(), s.db, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DismissCriticalAlert suppresses further critical-stock notifications for a
// product until its quantity recovers above the critical level.
func (s *Server) DismissCriticalAlert(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("productId"))
	if productID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.alertEngine.Dismiss(productID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

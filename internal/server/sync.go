package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obsmetrics "github.com/openretail/stocksync/internal/observability/metrics"
)

// RunSync performs one reconciliation cycle inline and reports the result.
func (s *Server) RunSync(c *gin.Context) {
	if err := s.syncSched.RunOnce(c.Request.Context(), obsmetrics.SyncTriggerManual); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

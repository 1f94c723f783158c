package channelsync

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type pushRequestBody struct {
	ProposalIds []int `json:"proposalIds"`
	DryRun      bool  `json:"dryRun"`
}

// PushHandler triggers a channel push. An empty body (or empty ids) pushes
// everything currently approved or modified.
func PushHandler(proposals ProposalSource, channel PriceUpdater) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body pushRequestBody
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		if !body.DryRun && channel == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "channel api is not configured"})
			return
		}

		sync := NewSynchronizer(proposals, channel)
		result, err := sync.Push(c.Request.Context(), body.ProposalIds, body.DryRun)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if result.TotalFailed > 0 {
			// nothing was marked pushed; surface the channel's verdict as-is
			c.JSON(http.StatusBadGateway, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

package workflow

import (
	"net/http"

	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type settingsRequestBody struct {
	DefaultTargetMarginPercent decimal.Decimal `json:"defaultTargetMarginPercent"`
	MinChangePercent           decimal.Decimal `json:"minChangePercent"`
	ProposalTTLDays            int             `json:"proposalTtlDays" validate:"min=1"`
	VelocityWindowDays         int             `json:"velocityWindowDays" validate:"min=1"`
}

func GetSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := models.GetRepricerSettings(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func UpdateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body settingsRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := validate.Struct(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.DefaultTargetMarginPercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "defaultTargetMarginPercent must be below 100"})
			return
		}
		if body.MinChangePercent.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minChangePercent cannot be negative"})
			return
		}

		settings, err := models.UpdateRepricerSettings(c.Request.Context(), models.RepricerSettings{
			DefaultTargetMarginPercent: body.DefaultTargetMarginPercent,
			MinChangePercent:           body.MinChangePercent,
			ProposalTTLDays:            body.ProposalTTLDays,
			VelocityWindowDays:         body.VelocityWindowDays,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

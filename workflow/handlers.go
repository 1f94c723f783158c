package workflow

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"bitbucket.org/mmdatafocus/repricer_backend/utils"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const batchRunLockKey = "repricerBatchRun"

var validate = validator.New()

// TriggerBatchRunHandler starts a synchronous batch run. A redis lock keeps
// two concurrent triggers from generating duplicate proposals; when redis is
// not configured the run proceeds unguarded.
func TriggerBatchRunHandler(store ProposalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if locker := config.GetRedisLock(); locker != nil {
			lock, err := locker.Obtain(c.Request.Context(), batchRunLockKey, 10*time.Minute, nil)
			if errors.Is(err, redislock.ErrNotObtained) {
				c.JSON(http.StatusConflict, gin.H{"error": "a batch run is already in progress"})
				return
			}
			if err == nil {
				defer lock.Release(c.Request.Context())
			}
		}

		gen := NewGenerator(store)
		result, err := gen.RunBatch(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "workflow", "TriggerBatchRunHandler", "batch run failed", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func parseProposalFilters(c *gin.Context) (models.ProposalFilters, error) {
	var f models.ProposalFilters

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status, err := models.ParseProposalStatus(strings.TrimSpace(s))
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, status)
		}
	}
	f.BatchId = c.Query("batchId")
	f.Brand = c.Query("brand")
	f.Category = c.Query("category")
	f.Search = c.Query("search")

	for name, dest := range map[string]**decimal.Decimal{
		"minPriceChange":  &f.MinPriceChange,
		"maxPriceChange":  &f.MaxPriceChange,
		"minMarginChange": &f.MinMarginChange,
		"maxMarginChange": &f.MaxMarginChange,
	} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, errors.New(name + " must be a number")
		}
		*dest = &d
	}

	if raw := c.Query("hasWarnings"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.New("hasWarnings must be true or false")
		}
		f.HasWarnings = &b
	}
	return f, nil
}

func ListProposalsHandler(store ProposalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := parseProposalFilters(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

		// mirror the clamping the repository applies so the echoed values
		// match what was actually queried
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = 50
		} else if pageSize > 200 {
			pageSize = 200
		}

		items, total, err := store.Query(c.Request.Context(), filters, page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"items":      items,
			"totalCount": total,
			"page":       page,
			"pageSize":   pageSize,
			"hasMore":    int64(page*pageSize) < total,
		})
	}
}

func GetProposalHandler(store ProposalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
			return
		}
		p, err := store.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// Reviewer is optional in the body when an auth middleware has already
// identified the caller; the workflow falls back to the request context.
type reviewRequestBody struct {
	Action        string           `json:"action" validate:"required"`
	ModifiedPrice *decimal.Decimal `json:"modifiedPrice"`
	Reviewer      string           `json:"reviewer"`
	Notes         string           `json:"notes"`
}

func respondReviewError(c *gin.Context, err error) {
	var transition *models.InvalidTransitionError
	switch {
	case errors.Is(err, utils.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
	case errors.As(err, &transition), errors.Is(err, utils.ErrorReviewConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func ReviewProposalHandler(store ProposalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
			return
		}

		var body reviewRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := validate.Struct(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p, err := ReviewProposal(c.Request.Context(), store, id, ReviewRequest{
			Action:        models.ReviewAction(body.Action),
			ModifiedPrice: body.ModifiedPrice,
			Reviewer:      body.Reviewer,
			Notes:         body.Notes,
		})
		if err != nil {
			respondReviewError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

type bulkReviewRequestBody struct {
	Ids      []int  `json:"ids" validate:"required,min=1"`
	Action   string `json:"action" validate:"required,oneof=approve reject"`
	Reviewer string `json:"reviewer"`
	Notes    string `json:"notes"`
}

func BulkReviewHandler(store ProposalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body bulkReviewRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := validate.Struct(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		outcomes, err := BulkReview(c.Request.Context(), store, body.Ids,
			models.ReviewAction(body.Action), body.Reviewer, body.Notes)
		if err != nil {
			respondReviewError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
	}
}

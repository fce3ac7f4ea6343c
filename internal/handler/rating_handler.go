package handler

import (
	"net/http"
	"strconv"

	"alrater/internal/intake"
	"alrater/internal/service"
	"alrater/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxPolicyBytes bounds a submitted policy document.
const maxPolicyBytes = 1 << 20

type RatingHandler struct {
	quoteService service.QuoteService
}

func NewRatingHandler(quoteService service.QuoteService) *RatingHandler {
	return &RatingHandler{quoteService: quoteService}
}

func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup) {
	quotes := router.Group("/api/quotes")
	{
		quotes.POST("/rate", h.Rate)
	}
}

// Rate prices a policy document and optionally stores the result
// @Summary      Rate a policy
// @Description  Validates a policy document, computes the AL premium, fees, taxes and total, and reconciles against the printed total
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        save            query     bool  false  "Persist the calculation"
// @Param        include_broker  query     bool  false  "Override the configured broker fee switch"
// @Success      200  {object}  response.Response{data=service.Quote}
// @Success      201  {object}  response.Response{data=service.Quote}
// @Failure      400  {object}  response.Response
// @Failure      413  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/quotes/rate [post]
func (h *RatingHandler) Rate(c *gin.Context) {
	sub, err := intake.DecodeReader(http.MaxBytesReader(c.Writer, c.Request.Body, maxPolicyBytes))
	if err != nil {
		respondError(c, err)
		return
	}

	req := service.QuoteRequest{
		Policy:         sub.Policy,
		PrintedTotal:   sub.PrintedTotal,
		SourceDocument: sub.SourceDocument,
	}
	if v, ok := c.GetQuery("include_broker"); ok {
		include, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "include_broker must be a boolean"))
			return
		}
		req.IncludeBroker = &include
	}

	save, err := strconv.ParseBool(c.DefaultQuery("save", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "save must be a boolean"))
		return
	}
	if !save {
		q, err := h.quoteService.Rate(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, q))
		return
	}

	q, err := h.quoteService.RateAndSave(c.Request.Context(), req)
	if err != nil {
		status, body := failure(err)
		if q != nil {
			body.Data = q
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, q))
}

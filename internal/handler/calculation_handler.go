package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"alrater/internal/service"
	"alrater/pkg/pagination"
	"alrater/pkg/response"

	"github.com/gin-gonic/gin"
)

type CalculationHandler struct {
	calcService service.CalculationService
}

func NewCalculationHandler(calcService service.CalculationService) *CalculationHandler {
	return &CalculationHandler{calcService: calcService}
}

func (h *CalculationHandler) RegisterRoutes(router *gin.RouterGroup) {
	calcs := router.Group("/api/calculations")
	{
		calcs.GET("", h.List)
		calcs.GET("/:id", h.Get)
		calcs.DELETE("/:id", h.Delete)
		calcs.GET("/:id/export", h.Export)
	}
}

// List returns stored calculations, newest first
// @Summary      List calculations
// @Tags         calculations
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Router       /api/calculations [get]
func (h *CalculationHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.calcService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(items, total)))
}

// Get returns one stored calculation with its factor trail
// @Summary      Get a calculation
// @Tags         calculations
// @Produce      json
// @Param        id   path      string  true  "Calculation ID"
// @Success      200  {object}  response.Response{data=model.CalculationResult}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/calculations/{id} [get]
func (h *CalculationHandler) Get(c *gin.Context) {
	res, err := h.calcService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Delete removes a stored calculation
// @Summary      Delete a calculation
// @Tags         calculations
// @Produce      json
// @Param        id   path      string  true  "Calculation ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/calculations/{id} [delete]
func (h *CalculationHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.calcService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}

// Export downloads a stored calculation as a JSON file
// @Summary      Export a calculation
// @Tags         calculations
// @Produce      json
// @Param        id       path      string  true   "Calculation ID"
// @Param        summary  query     bool    false  "Compact summary instead of the full result"
// @Success      200      {file}    file
// @Failure      404      {object}  response.Response
// @Router       /api/calculations/{id}/export [get]
func (h *CalculationHandler) Export(c *gin.Context) {
	summary, _ := strconv.ParseBool(c.DefaultQuery("summary", "false"))
	file, err := h.calcService.Export(c.Request.Context(), c.Param("id"), summary)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, "application/json", file.Content)
}

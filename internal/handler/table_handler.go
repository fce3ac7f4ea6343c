package handler

import (
	"net/http"

	"alrater/internal/service"
	"alrater/pkg/response"

	"github.com/gin-gonic/gin"
)

type TableHandler struct {
	tableService service.TableService
}

func NewTableHandler(tableService service.TableService) *TableHandler {
	return &TableHandler{tableService: tableService}
}

func (h *TableHandler) RegisterRoutes(router *gin.RouterGroup) {
	tables := router.Group("/api/tables")
	{
		tables.GET("/edition", h.GetEdition)
		tables.GET("/tax-configs", h.GetTaxConfigs)
	}
}

// GetEdition describes the loaded rating workbook
// @Summary      Rating table edition
// @Tags         tables
// @Produce      json
// @Success      200  {object}  response.Response{data=service.EditionResponse}
// @Router       /api/tables/edition [get]
func (h *TableHandler) GetEdition(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.tableService.Edition()))
}

// GetTaxConfigs lists the loaded state tax configurations
// @Summary      State tax configurations
// @Tags         tables
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.TaxConfigResponse}
// @Router       /api/tables/tax-configs [get]
func (h *TableHandler) GetTaxConfigs(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.tableService.TaxConfigs()))
}

package handler

import (
	"net/http"

	"github.com/jos3lo89/ice-mankora-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ImpresionHandler struct{ svc service.ComandaService }

func NewImpresionHandler(svc service.ComandaService) *ImpresionHandler {
	return &ImpresionHandler{svc: svc}
}

// Reintentar godoc
// @Summary Reintenta una impresión fallida
// @Tags impresion
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del print log"
// @Success 202 {object} dto.ReintentarImpresionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/impresion/{id}/reintentar [post]
func (h *ImpresionHandler) Reintentar(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.Reintentar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

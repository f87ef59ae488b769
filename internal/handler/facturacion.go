package handler

import (
	"net/http"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type FacturacionHandler struct{ svc service.FacturacionService }

func NewFacturacionHandler(svc service.FacturacionService) *FacturacionHandler {
	return &FacturacionHandler{svc: svc}
}

// CrearVenta godoc
// @Summary Emite un comprobante para items de un pedido
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearVentaRequest true "Datos del cobro"
// @Success 201 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *FacturacionHandler) CrearVenta(c *gin.Context) {
	var req dto.CrearVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearVenta(c.Request.Context(), actorFromClaims(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Impresion godoc
// @Summary Proyección de impresión de una venta (desde el snapshot)
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la venta"
// @Success 200 {object} dto.TicketVenta
// @Router /v1/ventas/{id}/impresion [get]
func (h *FacturacionHandler) Impresion(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.ProyeccionImpresion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary Descarga el PDF del comprobante
// @Tags ventas
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID de la venta"
// @Success 200 {file} binary
// @Router /v1/ventas/{id}/pdf [get]
func (h *FacturacionHandler) PDF(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	venta, err := h.svc.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if venta.PDFPath == nil {
		c.JSON(http.StatusNotFound, apierror.New("el PDF aún no fue generado"))
		return
	}
	c.FileAttachment(*venta.PDFPath, venta.NumeroComprobante+".pdf")
}

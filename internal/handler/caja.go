package handler

import (
	"net/http"

	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Apertura la caja del día
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Monto inicial"
// @Success 201 {object} dto.CajaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), actorFromClaims(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary Cierra la caja abierta con el monto contado
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CerrarCajaRequest true "Monto contado"
// @Success 200 {object} dto.CajaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), actorFromClaims(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimiento godoc
// @Summary Registra un ingreso/egreso manual
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoManualRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Router /v1/caja/movimiento [post]
func (h *CajaHandler) Movimiento(c *gin.Context) {
	var req dto.MovimientoManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MovimientoManual(c.Request.Context(), actorFromClaims(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Activa godoc
// @Summary Devuelve la caja abierta hoy
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/activa [get]
func (h *CajaHandler) Activa(c *gin.Context) {
	resp, err := h.svc.Activa(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Detalle godoc
// @Summary Reporte agrupado de una caja
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la caja"
// @Success 200 {object} dto.CajaDetalleResponse
// @Router /v1/caja/{id}/detalle [get]
func (h *CajaHandler) Detalle(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.Detalle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

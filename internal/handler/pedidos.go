package handler

import (
	"net/http"

	"github.com/jos3lo89/ice-mankora-backend/internal/dto"
	"github.com/jos3lo89/ice-mankora-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type PedidoHandler struct{ svc service.PedidoService }

func NewPedidoHandler(svc service.PedidoService) *PedidoHandler { return &PedidoHandler{svc: svc} }

// Crear godoc
// @Summary Abre un pedido en una mesa
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPedidoRequest true "Mesa e items"
// @Success 201 {object} dto.PedidoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/pedidos [post]
func (h *PedidoHandler) Crear(c *gin.Context) {
	var req dto.CrearPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), actorFromClaims(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AgregarItems godoc
// @Summary Agrega items a un pedido abierto
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del pedido"
// @Param body body dto.AgregarItemsRequest true "Items nuevos"
// @Success 200 {object} dto.PedidoResponse
// @Router /v1/pedidos/{id}/items [post]
func (h *PedidoHandler) AgregarItems(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.AgregarItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItems(c.Request.Context(), actorFromClaims(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary Cancela un pedido con código de autorización
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del pedido"
// @Param body body dto.CancelarPedidoRequest true "Motivo y código"
// @Success 204 "cancelado"
// @Failure 403 {object} apierror.APIError
// @Router /v1/pedidos/{id}/cancelar [post]
func (h *PedidoHandler) Cancelar(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.CancelarPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Cancelar(c.Request.Context(), actorFromClaims(c), id, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PreCuenta godoc
// @Summary Genera la pre-cuenta de un pedido
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del pedido"
// @Success 200 {object} dto.PreCuentaResponse
// @Router /v1/pedidos/{id}/precuenta [post]
func (h *PedidoHandler) PreCuenta(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.PreCuenta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarEstado godoc
// @Summary Actualiza el estado de preparación de un pedido
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del pedido"
// @Param body body dto.ActualizarEstadoRequest true "Nuevo estado"
// @Success 204 "actualizado"
// @Router /v1/pedidos/{id}/estado [patch]
func (h *PedidoHandler) ActualizarEstado(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.ActualizarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ActualizarEstado(c.Request.Context(), id, req.Estado); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListarPendientes godoc
// @Summary Lista pedidos pendientes en los pisos del usuario
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PedidoResponse
// @Router /v1/pedidos/pendientes [get]
func (h *PedidoHandler) ListarPendientes(c *gin.Context) {
	resp, err := h.svc.ListarPendientes(c.Request.Context(), actorFromClaims(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Obtiene un pedido por id
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del pedido"
// @Success 200 {object} dto.PedidoResponse
// @Router /v1/pedidos/{id} [get]
func (h *PedidoHandler) Obtener(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MisPedidos godoc
// @Summary Lista los pedidos del mozo autenticado
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PedidoResponse
// @Router /v1/pedidos/mios [get]
func (h *PedidoHandler) MisPedidos(c *gin.Context) {
	resp, err := h.svc.MisPedidos(c.Request.Context(), actorFromClaims(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"
	"raffle-platform/internal/service"

	"github.com/gin-gonic/gin"
)

type DrawHandler struct {
	service     service.DrawService
	maintenance service.MaintenanceService
}

func NewDrawHandler(service service.DrawService, maintenance service.MaintenanceService) *DrawHandler {
	return &DrawHandler{service: service, maintenance: maintenance}
}

func (h *DrawHandler) RegisterRoutes(routes Routes) {
	routes.Public.GET("winners", h.ListWinners)

	admin := routes.Admin
	{
		admin.POST("campaigns/:id/draw", h.DrawWinner)
		admin.GET("campaigns/:id/peek", h.PeekWinner)
		admin.POST("maintenance/run", h.RunMaintenance)
	}
}

func (h *DrawHandler) ListWinners(c *gin.Context) {
	h.maintenance.Trigger(c)

	winners, err := h.service.ListWinners(c)
	if err != nil {
		handleError(c, err, "ListWinners")
		return
	}

	handleSuccess(c, winners, http.StatusOK)
}

// DrawWinner 沒有已售號碼時回傳 winner: null
func (h *DrawHandler) DrawWinner(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	winner, err := h.service.DrawWinner(c, uri.ID)
	if err != nil {
		handleError(c, err, "DrawWinner")
		return
	}

	handleSuccess(c, gin.H{"winner": winner}, http.StatusOK)
}

func (h *DrawHandler) PeekWinner(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	preview, err := h.service.PeekWinner(c, currentActor(c), uri.ID)
	if err != nil {
		handleError(c, err, "PeekWinner")
		return
	}

	handleSuccess(c, preview, http.StatusOK)
}

func (h *DrawHandler) RunMaintenance(c *gin.Context) {
	report, err := h.maintenance.Run(c)
	if err != nil {
		handleError(c, err, "RunMaintenance")
		return
	}

	handleSuccess(c, report, http.StatusOK)
}

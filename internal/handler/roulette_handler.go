package handler

import (
	"net/http"
	"raffle-platform/internal/model"
	"raffle-platform/internal/service"

	"github.com/gin-gonic/gin"
)

type RouletteHandler struct {
	service service.RouletteService
}

func NewRouletteHandler(service service.RouletteService) *RouletteHandler {
	return &RouletteHandler{service: service}
}

func (h *RouletteHandler) RegisterRoutes(routes Routes) {
	routes.Public.GET("roulette/prizes", h.ListActivePrizes)

	user := routes.User
	{
		user.GET("roulette/status", h.Status)
		user.POST("roulette/spin", h.Spin)
	}

	admin := routes.Admin
	{
		admin.GET("roulette/prizes", h.ListPrizes)
		admin.POST("roulette/prizes", h.CreatePrize)
		admin.PUT("roulette/prizes/:id", h.UpdatePrize)
		admin.DELETE("roulette/prizes/:id", h.DeletePrize)
		admin.GET("roulette/settings", h.GetSettings)
		admin.PUT("roulette/settings", h.UpdateSettings)
	}
}

func (h *RouletteHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c, currentActor(c).UserID)
	if err != nil {
		handleError(c, err, "RouletteStatus")
		return
	}

	handleSuccess(c, status, http.StatusOK)
}

func (h *RouletteHandler) Spin(c *gin.Context) {
	result, err := h.service.Spin(c, currentActor(c).UserID)
	if err != nil {
		handleError(c, err, "Spin")
		return
	}

	handleSuccess(c, result, http.StatusOK)
}

func (h *RouletteHandler) ListActivePrizes(c *gin.Context) {
	prizes, err := h.service.ListPrizes(c, true)
	if err != nil {
		handleError(c, err, "ListActivePrizes")
		return
	}

	handleSuccess(c, prizes, http.StatusOK)
}

func (h *RouletteHandler) ListPrizes(c *gin.Context) {
	prizes, err := h.service.ListPrizes(c, false)
	if err != nil {
		handleError(c, err, "ListPrizes")
		return
	}

	handleSuccess(c, prizes, http.StatusOK)
}

func (h *RouletteHandler) CreatePrize(c *gin.Context) {
	var req model.CreatePrizeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	prize, err := h.service.CreatePrize(c, &req)
	if err != nil {
		handleError(c, err, "CreatePrize")
		return
	}

	handleSuccess(c, prize, http.StatusCreated)
}

func (h *RouletteHandler) UpdatePrize(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var params model.UpdatePrizeParams
	if err := BindJson(c, &params); err != nil {
		return
	}

	prize, err := h.service.UpdatePrize(c, uri.ID, &params)
	if err != nil {
		handleError(c, err, "UpdatePrize")
		return
	}

	handleSuccess(c, prize, http.StatusOK)
}

func (h *RouletteHandler) DeletePrize(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	if err := h.service.DeletePrize(c, uri.ID); err != nil {
		handleError(c, err, "DeletePrize")
		return
	}

	handleSuccess(c, nil, http.StatusNoContent)
}

func (h *RouletteHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c)
	if err != nil {
		handleError(c, err, "GetSettings")
		return
	}

	handleSuccess(c, settings, http.StatusOK)
}

func (h *RouletteHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	settings, err := h.service.UpdateSettings(c, req.RTP)
	if err != nil {
		handleError(c, err, "UpdateSettings")
		return
	}

	handleSuccess(c, settings, http.StatusOK)
}

package handler

import (
	"net/http"
	"raffle-platform/internal/model"
	"raffle-platform/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	service service.PurchaseService
}

func NewPurchaseHandler(service service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

func (h *PurchaseHandler) RegisterRoutes(routes Routes) {
	user := routes.User
	{
		user.POST("purchases/reserve", h.Reserve)
		user.POST("purchases", h.PurchaseImmediate)
		user.GET("purchases/:id", h.GetPurchase)
		user.GET("me/titles", h.MyTitles)
	}

	admin := routes.Admin
	{
		admin.POST("purchases/:id/confirm", h.Confirm)
	}
}

func (h *PurchaseHandler) Reserve(c *gin.Context) {
	var req model.ReserveRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.Reserve(c, currentActor(c).UserID, req.CampaignID, req.Numbers, req.TTLMinutes)
	if err != nil {
		handleError(c, err, "Reserve")
		return
	}

	handleSuccess(c, result, http.StatusCreated)
}

func (h *PurchaseHandler) PurchaseImmediate(c *gin.Context) {
	var req model.DirectPurchaseRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.PurchaseImmediate(c, currentActor(c).UserID, req.CampaignID, req.Numbers)
	if err != nil {
		handleError(c, err, "PurchaseImmediate")
		return
	}

	handleSuccess(c, result, http.StatusCreated)
}

func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	purchase, err := h.service.GetPurchase(c, currentActor(c), uri.ID)
	if err != nil {
		handleError(c, err, "GetPurchase")
		return
	}

	handleSuccess(c, purchase, http.StatusOK)
}

type myTitlesQuery struct {
	CampaignID *int `form:"campaign_id" binding:"omitempty,min=1"`
}

func (h *PurchaseHandler) MyTitles(c *gin.Context) {
	var query myTitlesQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	titles, err := h.service.MyTitles(c, currentActor(c).UserID, query.CampaignID)
	if err != nil {
		handleError(c, err, "MyTitles")
		return
	}

	handleSuccess(c, titles, http.StatusOK)
}

// Confirm 管理員手動確認付款
func (h *PurchaseHandler) Confirm(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	purchase, err := h.service.Confirm(c, uri.ID)
	if err != nil {
		handleError(c, err, "Confirm")
		return
	}

	handleSuccess(c, purchase, http.StatusOK)
}

package handler

import (
	"net/http"
	"raffle-platform/internal/model"
	"raffle-platform/internal/service"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaigns service.CampaignService
	inventory service.InventoryService
}

func NewCampaignHandler(campaigns service.CampaignService, inventory service.InventoryService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, inventory: inventory}
}

func (h *CampaignHandler) RegisterRoutes(routes Routes) {
	public := routes.Public
	{
		public.GET("campaigns", h.ListCampaigns)
		public.GET("campaigns/:id", h.GetCampaign)
		public.GET("campaigns/:id/unavailable", h.UnavailableNumbers)
	}

	admin := routes.Admin
	{
		admin.POST("campaigns", h.CreateCampaign)
		admin.PUT("campaigns/:id", h.UpdateCampaign)
		admin.DELETE("campaigns/:id", h.DeleteCampaign)
		admin.POST("campaigns/:id/tickets", h.GenerateTickets)
		admin.GET("campaigns/:id/numbers", h.ListNumbers)
		admin.POST("campaigns/:id/reserve", h.AdminReserve)
		admin.POST("campaigns/:id/release", h.AdminRelease)
		admin.POST("campaigns/:id/sell", h.AdminSell)
	}
}

type listCampaignsQuery struct {
	Status string `form:"status"`
}

func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	var query listCampaignsQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	var status *model.CampaignStatus
	if query.Status != "" {
		s := model.CampaignStatus(query.Status)
		status = &s
	}

	campaigns, err := h.campaigns.ListCampaigns(c, status)
	if err != nil {
		handleError(c, err, "ListCampaigns")
		return
	}

	handleSuccess(c, campaigns, http.StatusOK)
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	campaign, err := h.campaigns.GetCampaign(c, uri.ID)
	if err != nil {
		handleError(c, err, "GetCampaign")
		return
	}

	handleSuccess(c, campaign, http.StatusOK)
}

func (h *CampaignHandler) UnavailableNumbers(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	numbers, err := h.inventory.UnavailableNumbers(c, uri.ID)
	if err != nil {
		handleError(c, err, "UnavailableNumbers")
		return
	}

	handleSuccess(c, numbers, http.StatusOK)
}

func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req model.CreateCampaignRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	campaign, err := h.campaigns.CreateCampaign(c, &req)
	if err != nil {
		handleError(c, err, "CreateCampaign")
		return
	}

	handleSuccess(c, campaign, http.StatusCreated)
}

func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var params model.UpdateCampaignParams
	if err := BindJson(c, &params); err != nil {
		return
	}

	campaign, err := h.campaigns.UpdateCampaign(c, uri.ID, &params)
	if err != nil {
		handleError(c, err, "UpdateCampaign")
		return
	}

	handleSuccess(c, campaign, http.StatusOK)
}

type deleteCampaignQuery struct {
	Hard bool `form:"hard"`
}

func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var query deleteCampaignQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	if err := h.campaigns.DeleteCampaign(c, uri.ID, query.Hard); err != nil {
		handleError(c, err, "DeleteCampaign")
		return
	}

	handleSuccess(c, nil, http.StatusNoContent)
}

func (h *CampaignHandler) GenerateTickets(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var req model.GenerateTicketsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	generated, err := h.inventory.GenerateTickets(c, uri.ID, req.Digits)
	if err != nil {
		handleError(c, err, "GenerateTickets")
		return
	}

	handleSuccess(c, gin.H{"generated": generated}, http.StatusCreated)
}

func (h *CampaignHandler) ListNumbers(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	numbers, err := h.inventory.ListNumbers(c, uri.ID)
	if err != nil {
		handleError(c, err, "ListNumbers")
		return
	}

	handleSuccess(c, numbers, http.StatusOK)
}

func (h *CampaignHandler) AdminReserve(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var req model.AdminReserveRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, err := h.inventory.AdminReserve(c, currentActor(c), uri.ID, req)
	if err != nil {
		handleError(c, err, "AdminReserve")
		return
	}

	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CampaignHandler) AdminRelease(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var req model.AdminReleaseRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, err := h.inventory.AdminRelease(c, currentActor(c), uri.ID, req)
	if err != nil {
		handleError(c, err, "AdminRelease")
		return
	}

	handleSuccess(c, ticket, http.StatusOK)
}

func (h *CampaignHandler) AdminSell(c *gin.Context) {
	var uri IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var req model.AdminSellRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, err := h.inventory.AdminSell(c, currentActor(c), uri.ID, req)
	if err != nil {
		handleError(c, err, "AdminSell")
		return
	}

	handleSuccess(c, ticket, http.StatusOK)
}

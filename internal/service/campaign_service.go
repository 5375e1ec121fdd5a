package service

import (
	"context"
	"fmt"
	"raffle-platform/internal/model"
	"raffle-platform/internal/repository"
	apperrors "raffle-platform/pkg/app_errors"
	"raffle-platform/pkg/logger"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CampaignService interface {
	// 建立活動並一次產生全部號碼
	CreateCampaign(ctx context.Context, req *model.CreateCampaignRequest) (*model.CampaignView, error)
	ListCampaigns(ctx context.Context, status *model.CampaignStatus) ([]*model.CampaignView, error)
	GetCampaign(ctx context.Context, id int) (*model.CampaignView, error)
	UpdateCampaign(ctx context.Context, id int, params *model.UpdateCampaignParams) (*model.Campaign, error)
	// hard 為 true 時連同號碼與購買紀錄一併刪除
	DeleteCampaign(ctx context.Context, id int, hard bool) error
}

type CampaignServiceImpl struct {
	pool               *pgxpool.Pool
	campaignRepository repository.CampaignRepository
	ticketRepository   repository.TicketRepository
	winnerRepository   repository.WinnerRepository
	maintenance        MaintenanceService
}

func NewCampaignService(
	pool *pgxpool.Pool,
	campaignRepository repository.CampaignRepository,
	ticketRepository repository.TicketRepository,
	winnerRepository repository.WinnerRepository,
	maintenance MaintenanceService,
) CampaignService {
	return &CampaignServiceImpl{
		pool:               pool,
		campaignRepository: campaignRepository,
		ticketRepository:   ticketRepository,
		winnerRepository:   winnerRepository,
		maintenance:        maintenance,
	}
}

func (s *CampaignServiceImpl) sweep(ctx context.Context) {
	if s.maintenance != nil {
		s.maintenance.Trigger(ctx)
	}
}

func (s *CampaignServiceImpl) CreateCampaign(ctx context.Context, req *model.CreateCampaignRequest) (*model.CampaignView, error) {
	if strings.TrimSpace(req.Title) == "" || req.TotalTickets <= 0 || req.TicketPrice.IsNegative() {
		return nil, apperrors.ErrInvalidInput
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	campaign, err := s.campaignRepository.Create(ctx, tx, &model.Campaign{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		TicketPrice:  req.TicketPrice,
		TotalTickets: req.TotalTickets,
		DrawDate:     req.DrawDate,
		Status:       model.CampaignStatusActive,
	})
	if err != nil {
		return nil, err
	}

	generated, err := generateTickets(ctx, tx, s.campaignRepository, s.ticketRepository, campaign, req.Digits)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("campaign created",
		zap.Int("campaign_id", campaign.ID),
		zap.Int("digit_width", campaign.DigitWidth),
		zap.Int64("tickets", generated),
	)

	return &model.CampaignView{
		Campaign: *campaign,
		Stats:    model.CampaignStats{Available: int(generated)},
	}, nil
}

func (s *CampaignServiceImpl) ListCampaigns(ctx context.Context, status *model.CampaignStatus) ([]*model.CampaignView, error) {
	if status != nil && !status.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	s.sweep(ctx)

	campaigns, err := s.campaignRepository.List(ctx, status)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}

	stats, err := s.ticketRepository.StatsByCampaigns(ctx, ids)
	if err != nil {
		return nil, err
	}
	winners, err := s.winnerRepository.FindByCampaigns(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*model.CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, newCampaignView(c, stats[c.ID], winners[c.ID]))
	}
	return views, nil
}

func (s *CampaignServiceImpl) GetCampaign(ctx context.Context, id int) (*model.CampaignView, error) {
	s.sweep(ctx)

	campaign, err := s.campaignRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.IsDeleted() {
		return nil, apperrors.ErrCampaignNotFound
	}

	stats, err := s.ticketRepository.Stats(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	winner, err := s.winnerRepository.FindByCampaign(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}

	return newCampaignView(campaign, stats, winner), nil
}

// newCampaignView progress 以 total_tickets 為分母，保留中的號碼也算進度
func newCampaignView(c *model.Campaign, stats model.CampaignStats, winner *model.Winner) *model.CampaignView {
	view := &model.CampaignView{Campaign: *c, Stats: stats, Winner: winner}
	if c.TotalTickets > 0 {
		view.Progress = min(100, (stats.Sold+stats.Reserved)*100/c.TotalTickets)
	}
	return view
}

func (s *CampaignServiceImpl) UpdateCampaign(ctx context.Context, id int, params *model.UpdateCampaignParams) (*model.Campaign, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	campaign, err := s.campaignRepository.FindByIDWithLock(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if campaign.IsDeleted() {
		return nil, apperrors.ErrCampaignNotFound
	}

	values := map[string]interface{}{}
	if params.Title != nil {
		if strings.TrimSpace(*params.Title) == "" {
			return nil, apperrors.ErrInvalidInput
		}
		values["title"] = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		values["description"] = *params.Description
	}
	if params.ImageURL != nil {
		values["image_url"] = *params.ImageURL
	}
	if params.TicketPrice != nil {
		if params.TicketPrice.IsNegative() {
			return nil, apperrors.ErrInvalidInput
		}
		values["ticket_price"] = *params.TicketPrice
	}
	if params.DrawDate != nil {
		values["draw_date"] = *params.DrawDate
	}
	if params.TotalTickets != nil && *params.TotalTickets != campaign.TotalTickets {
		// 號碼產生後總數不可再改
		count, err := s.ticketRepository.CountByCampaign(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperrors.ErrTicketsAlreadyGenerated
		}
		if *params.TotalTickets <= 0 {
			return nil, apperrors.ErrInvalidInput
		}
		values["total_tickets"] = *params.TotalTickets
	}
	if params.Status != nil && *params.Status != campaign.Status {
		// 刪除走 DeleteCampaign
		if *params.Status == model.CampaignStatusDeleted || !campaign.Status.CanTransitionTo(*params.Status) {
			return nil, fmt.Errorf("%w: cannot change status from %s to %s", apperrors.ErrInvalidInput, campaign.Status, *params.Status)
		}
		values["status"] = *params.Status
	}

	if len(values) == 0 {
		return campaign, nil
	}

	updated, err := s.campaignRepository.Update(ctx, tx, id, values)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *CampaignServiceImpl) DeleteCampaign(ctx context.Context, id int, hard bool) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	campaign, err := s.campaignRepository.FindByIDWithLock(ctx, tx, id)
	if err != nil {
		return err
	}

	if hard {
		if err := s.campaignRepository.Delete(ctx, tx, id); err != nil {
			return err
		}
	} else {
		if campaign.IsDeleted() {
			return apperrors.ErrCampaignNotFound
		}
		if _, err := s.campaignRepository.Update(ctx, tx, id, map[string]interface{}{
			"status": model.CampaignStatusDeleted,
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.WithComponent("service").Info("campaign deleted", zap.Int("campaign_id", id), zap.Bool("hard", hard))
	return nil
}

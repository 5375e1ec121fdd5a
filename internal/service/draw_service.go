package service

import (
	"context"
	"errors"
	"fmt"
	"raffle-platform/internal/draw"
	"raffle-platform/internal/model"
	"raffle-platform/internal/repository"
	apperrors "raffle-platform/pkg/app_errors"
	"raffle-platform/pkg/logger"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DrawService interface {
	// 決定性開獎；已有中獎者時直接回傳，沒有已售號碼時回傳 nil
	DrawWinner(ctx context.Context, campaignID int) (*model.Winner, error)
	// 預覽開獎結果，僅限 master 管理員
	PeekWinner(ctx context.Context, actor model.Actor, campaignID int) (*model.WinnerPreview, error)
	// 將開獎時間已到的活動設為 expired，並為尚無中獎者的活動開獎
	AutoExpireAndDraw(ctx context.Context) (expired int, drawn int, err error)
	ListWinners(ctx context.Context) ([]*model.Winner, error)
}

type DrawServiceImpl struct {
	pool               *pgxpool.Pool
	campaignRepository repository.CampaignRepository
	ticketRepository   repository.TicketRepository
	winnerRepository   repository.WinnerRepository
	salt               string
	now                func() time.Time
}

func NewDrawService(
	pool *pgxpool.Pool,
	campaignRepository repository.CampaignRepository,
	ticketRepository repository.TicketRepository,
	winnerRepository repository.WinnerRepository,
	salt string,
) DrawService {
	return &DrawServiceImpl{
		pool:               pool,
		campaignRepository: campaignRepository,
		ticketRepository:   ticketRepository,
		winnerRepository:   winnerRepository,
		salt:               salt,
		now:                time.Now,
	}
}

// selection 由活動 id、開獎日與已售號碼集合決定，不含其他隨機來源
type selection struct {
	seed       uint32
	candidates int
	rank       int
	winner     *model.Winner
}

func (s *DrawServiceImpl) selectWinner(campaign *model.Campaign, candidates []model.DrawCandidate) selection {
	seed := draw.Seed(draw.SeedInput{
		CampaignID: campaign.ID,
		Salt:       s.salt,
		DrawDate:   campaign.DrawDate,
	})

	sel := selection{seed: seed, candidates: len(candidates)}
	picked, rank, ok := draw.SelectWinner(seed, candidates)
	if !ok {
		return sel
	}

	sel.rank = rank
	sel.winner = &model.Winner{
		CampaignID:   campaign.ID,
		TicketID:     picked.TicketID,
		UserID:       picked.UserID,
		TicketNumber: picked.TicketNumber,
	}
	return sel
}

func (s *DrawServiceImpl) DrawWinner(ctx context.Context, campaignID int) (*model.Winner, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 鎖住活動，同一活動的開獎依序執行
	campaign, err := s.campaignRepository.FindByIDWithLock(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	existing, err := s.winnerRepository.FindByCampaign(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	switch campaign.Status {
	case model.CampaignStatusDeleted:
		return nil, apperrors.ErrCampaignNotFound
	case model.CampaignStatusActive:
		return nil, apperrors.ErrDrawNotDue
	}

	candidates, err := s.ticketRepository.DrawCandidates(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load draw candidates: %w", err)
	}

	sel := s.selectWinner(campaign, candidates)
	if sel.winner == nil {
		logger.WithComponent("service").Info("no sold tickets, no winner", zap.Int("campaign_id", campaignID))
		return nil, nil
	}

	winner, _, err := s.winnerRepository.Create(ctx, tx, sel.winner)
	if err != nil {
		return nil, fmt.Errorf("create winner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("winner drawn",
		zap.Int("campaign_id", campaignID),
		zap.Uint32("seed", sel.seed),
		zap.Int("candidates", sel.candidates),
		zap.Int("rank", sel.rank),
		zap.String("ticket_number", winner.TicketNumber),
	)
	return winner, nil
}

func (s *DrawServiceImpl) PeekWinner(ctx context.Context, actor model.Actor, campaignID int) (*model.WinnerPreview, error) {
	if !actor.IsAdmin() || !actor.IsMaster {
		return nil, apperrors.ErrForbidden
	}

	campaign, err := s.campaignRepository.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.IsDeleted() {
		return nil, apperrors.ErrCampaignNotFound
	}

	preview := &model.WinnerPreview{
		CampaignID: campaignID,
		PreviewAt:  s.now().UTC(),
	}

	existing, err := s.winnerRepository.FindByCampaign(ctx, s.pool, campaignID)
	if err != nil {
		return nil, err
	}
	preview.Existing = existing

	candidates, err := s.ticketRepository.DrawCandidates(ctx, s.pool, campaignID)
	if err != nil {
		return nil, err
	}

	sel := s.selectWinner(campaign, candidates)
	preview.Seed = sel.seed
	preview.Candidates = sel.candidates
	preview.Rank = sel.rank
	preview.Predicted = sel.winner

	switch {
	case existing != nil:
		preview.Reason = "winner already drawn"
	case sel.winner == nil:
		preview.Reason = "no sold tickets"
	}
	return preview, nil
}

func (s *DrawServiceImpl) AutoExpireAndDraw(ctx context.Context) (int, int, error) {
	expired, err := s.expireDue(ctx)
	if err != nil {
		return 0, 0, err
	}

	ids, err := s.campaignRepository.ListExpiredWithoutWinner(ctx)
	if err != nil {
		return len(expired), 0, err
	}

	var errs []error
	drawn := 0
	for _, id := range ids {
		winner, err := s.DrawWinner(ctx, id)
		if err != nil {
			logger.WithComponent("service").Error("auto draw failed", zap.Int("campaign_id", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("campaign %d: %w", id, err))
			continue
		}
		if winner != nil {
			drawn++
		}
	}

	return len(expired), drawn, errors.Join(errs...)
}

func (s *DrawServiceImpl) expireDue(ctx context.Context) ([]int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids, err := s.campaignRepository.ExpireDue(ctx, tx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("expire campaigns: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		logger.WithComponent("service").Info("campaigns expired", zap.Ints("campaign_ids", ids))
	}
	return ids, nil
}

func (s *DrawServiceImpl) ListWinners(ctx context.Context) ([]*model.Winner, error) {
	return s.winnerRepository.List(ctx)
}

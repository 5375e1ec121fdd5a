package service

import (
	"context"
	"fmt"
	"raffle-platform/internal/model"
	"raffle-platform/internal/repository"
	"raffle-platform/internal/ticketno"
	apperrors "raffle-platform/pkg/app_errors"
	"raffle-platform/pkg/logger"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type InventoryService interface {
	// 將逾時的保留放回 available，並取消對應的 pending 購買
	ExpireReservations(ctx context.Context) (int, error)
	// 只處理指定號碼，用於搶號前
	ExpireReservationsFor(ctx context.Context, campaignID int, numbers []string) (int, error)
	GenerateTickets(ctx context.Context, campaignID int, digits int) (int64, error)
	ListNumbers(ctx context.Context, campaignID int) ([]*model.NumberEntry, error)
	UnavailableNumbers(ctx context.Context, campaignID int) (*model.UnavailableNumbers, error)

	// 管理員手動操作，不建立購買紀錄
	AdminReserve(ctx context.Context, actor model.Actor, campaignID int, req model.AdminReserveRequest) (*model.Ticket, error)
	AdminRelease(ctx context.Context, actor model.Actor, campaignID int, req model.AdminReleaseRequest) (*model.Ticket, error)
	AdminSell(ctx context.Context, actor model.Actor, campaignID int, req model.AdminSellRequest) (*model.Ticket, error)
}

type InventoryServiceImpl struct {
	pool                    *pgxpool.Pool
	campaignRepository      repository.CampaignRepository
	ticketRepository        repository.TicketRepository
	purchaseRepository      repository.PurchaseRepository
	adminReservationMinutes int
	now                     func() time.Time
}

func NewInventoryService(
	pool *pgxpool.Pool,
	campaignRepository repository.CampaignRepository,
	ticketRepository repository.TicketRepository,
	purchaseRepository repository.PurchaseRepository,
	adminReservationMinutes int,
) InventoryService {
	if adminReservationMinutes <= 0 {
		adminReservationMinutes = 30
	}
	return &InventoryServiceImpl{
		pool:                    pool,
		campaignRepository:      campaignRepository,
		ticketRepository:        ticketRepository,
		purchaseRepository:      purchaseRepository,
		adminReservationMinutes: adminReservationMinutes,
		now:                     time.Now,
	}
}

func (s *InventoryServiceImpl) ExpireReservations(ctx context.Context) (int, error) {
	return s.expire(ctx, func(tx pgx.Tx, now time.Time) ([]int, error) {
		return s.ticketRepository.ExpireReservations(ctx, tx, now)
	})
}

func (s *InventoryServiceImpl) ExpireReservationsFor(ctx context.Context, campaignID int, numbers []string) (int, error) {
	return s.expire(ctx, func(tx pgx.Tx, now time.Time) ([]int, error) {
		return s.ticketRepository.ExpireReservationsFor(ctx, tx, campaignID, numbers, now)
	})
}

func (s *InventoryServiceImpl) expire(ctx context.Context, sweep func(tx pgx.Tx, now time.Time) ([]int, error)) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	ticketIDs, err := sweep(tx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	if len(ticketIDs) == 0 {
		return 0, nil
	}

	cancelled, err := s.purchaseRepository.CancelPendingForTickets(ctx, tx, ticketIDs)
	if err != nil {
		return 0, fmt.Errorf("cancel expired purchases: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	logger.WithComponent("service").Info("reservations expired",
		zap.Int("tickets", len(ticketIDs)),
		zap.Int("purchases_cancelled", len(cancelled)),
	)
	return len(ticketIDs), nil
}

func (s *InventoryServiceImpl) GenerateTickets(ctx context.Context, campaignID int, digits int) (int64, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	campaign, err := s.campaignRepository.FindByIDWithLock(ctx, tx, campaignID)
	if err != nil {
		return 0, err
	}
	if campaign.IsDeleted() {
		return 0, apperrors.ErrCampaignNotFound
	}

	n, err := generateTickets(ctx, tx, s.campaignRepository, s.ticketRepository, campaign, digits)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

// generateTickets 呼叫端需先鎖住活動；已有號碼時拒絕，避免重複產生
func generateTickets(
	ctx context.Context,
	tx pgx.Tx,
	campaignRepository repository.CampaignRepository,
	ticketRepository repository.TicketRepository,
	campaign *model.Campaign,
	digits int,
) (int64, error) {
	existing, err := ticketRepository.CountByCampaign(ctx, tx, campaign.ID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, apperrors.ErrTicketsAlreadyGenerated
	}

	if digits <= 0 {
		digits = ticketno.DefaultWidth(campaign.TotalTickets)
	}
	if err := ticketno.ValidateWidth(campaign.TotalTickets, digits); err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrDigitWidth, err)
	}

	if err := campaignRepository.SetDigitWidth(ctx, tx, campaign.ID, digits); err != nil {
		return 0, err
	}
	campaign.DigitWidth = digits

	n, err := ticketRepository.Generate(ctx, tx, campaign.ID, campaign.TotalTickets, digits)
	if err != nil {
		return 0, fmt.Errorf("generate tickets: %w", err)
	}
	return n, nil
}

func (s *InventoryServiceImpl) ListNumbers(ctx context.Context, campaignID int) ([]*model.NumberEntry, error) {
	if _, err := s.campaignRepository.FindByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.ticketRepository.ListNumbers(ctx, campaignID)
}

func (s *InventoryServiceImpl) UnavailableNumbers(ctx context.Context, campaignID int) (*model.UnavailableNumbers, error) {
	campaign, err := s.campaignRepository.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.IsDeleted() {
		return nil, apperrors.ErrCampaignNotFound
	}

	if _, err := s.ExpireReservations(ctx); err != nil {
		return nil, err
	}
	return s.ticketRepository.ListUnavailable(ctx, campaignID)
}

func (s *InventoryServiceImpl) AdminReserve(ctx context.Context, actor model.Actor, campaignID int, req model.AdminReserveRequest) (*model.Ticket, error) {
	minutes := req.Minutes
	if minutes <= 0 {
		minutes = s.adminReservationMinutes
	}

	var out *model.Ticket
	err := s.withAdminTicket(ctx, campaignID, req.Number, func(tx pgx.Tx, ticket *model.Ticket) error {
		if ticket.Status != model.TicketStatusAvailable {
			return apperrors.ErrTicketNotAvailable
		}

		until := s.now().UTC().Add(time.Duration(minutes) * time.Minute)
		if err := s.ticketRepository.MarkReserved(ctx, tx, []int{ticket.ID}, until); err != nil {
			return err
		}
		ticket.Status = model.TicketStatusReserved
		ticket.ReservedUntil = &until
		out = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("admin reserved ticket",
		zap.Int("admin_id", actor.UserID),
		zap.Int("campaign_id", campaignID),
		zap.String("ticket_number", out.TicketNumber),
	)
	return out, nil
}

// AdminRelease 強制放回 available，並取消佔用該號碼的 pending 購買
func (s *InventoryServiceImpl) AdminRelease(ctx context.Context, actor model.Actor, campaignID int, req model.AdminReleaseRequest) (*model.Ticket, error) {
	campaign, err := s.activeOrExpiredCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	number, err := singleNumber(req.Number, campaign.DigitWidth)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ticket, err := s.lockTicketWithPurchases(ctx, tx, campaignID, number)
	if err != nil {
		return nil, err
	}
	if ticket.Status == model.TicketStatusSold {
		return nil, apperrors.ErrTicketAlreadySold
	}

	if _, err := s.ticketRepository.Release(ctx, tx, []int{ticket.ID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	ticket.Status = model.TicketStatusAvailable
	ticket.ReservedUntil = nil

	logger.WithComponent("service").Info("admin released ticket",
		zap.Int("admin_id", actor.UserID),
		zap.Int("campaign_id", campaignID),
		zap.String("ticket_number", ticket.TicketNumber),
	)
	return ticket, nil
}

// lockTicketWithPurchases 先鎖佔用該號碼的 pending 購買，再以 id 順序鎖住它們的全部號碼，
// 與確認付款的加鎖順序一致。號碼未售出時，這些購買會被取消並釋放其餘保留中的號碼。
func (s *InventoryServiceImpl) lockTicketWithPurchases(ctx context.Context, tx pgx.Tx, campaignID int, number string) (*model.Ticket, error) {
	ids, err := s.ticketRepository.IDsByNumbers(ctx, tx, campaignID, []string{number})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperrors.ErrTicketNotFound
	}

	pending, err := s.purchaseRepository.LockPendingForTicket(ctx, tx, ids[0])
	if err != nil {
		return nil, err
	}

	if err := s.ticketRepository.LockWithPurchases(ctx, tx, ids[0], pending); err != nil {
		return nil, err
	}

	ticket, err := s.ticketRepository.FindByNumberWithLock(ctx, tx, campaignID, number)
	if err != nil {
		return nil, err
	}
	if ticket.Status == model.TicketStatusSold {
		return ticket, nil
	}

	for _, purchaseID := range pending {
		if _, err := releasePurchaseTickets(ctx, tx, s.ticketRepository, purchaseID); err != nil {
			return nil, err
		}
	}
	if err := s.purchaseRepository.CancelByIDs(ctx, tx, pending); err != nil {
		return nil, err
	}
	return ticket, nil
}

// releasePurchaseTickets 釋放購買仍保留中的號碼；已被其他購買佔用的號碼不動
func releasePurchaseTickets(ctx context.Context, tx pgx.Tx, ticketRepository repository.TicketRepository, purchaseID int) (int64, error) {
	tickets, err := ticketRepository.FindByPurchaseWithLock(ctx, tx, purchaseID)
	if err != nil {
		return 0, err
	}

	ids := make([]int, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == model.TicketStatusReserved && !t.HeldByOther {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ticketRepository.Release(ctx, tx, ids)
}

// AdminSell 現場售出，只記錄客戶姓名與電話，不建立購買紀錄
func (s *InventoryServiceImpl) AdminSell(ctx context.Context, actor model.Actor, campaignID int, req model.AdminSellRequest) (*model.Ticket, error) {
	campaign, err := s.activeOrExpiredCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	number, err := singleNumber(req.Number, campaign.DigitWidth)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ticket, err := s.lockTicketWithPurchases(ctx, tx, campaignID, number)
	if err != nil {
		return nil, err
	}
	if ticket.Status == model.TicketStatusSold {
		return nil, apperrors.ErrTicketAlreadySold
	}

	sold, err := s.ticketRepository.SellToCustomer(ctx, tx, ticket.ID, req.CustomerName, req.CustomerPhone, actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("admin sold ticket",
		zap.Int("admin_id", actor.UserID),
		zap.Int("campaign_id", campaignID),
		zap.String("ticket_number", sold.TicketNumber),
	)
	return sold, nil
}

func (s *InventoryServiceImpl) withAdminTicket(ctx context.Context, campaignID int, raw string, fn func(tx pgx.Tx, ticket *model.Ticket) error) error {
	campaign, err := s.activeOrExpiredCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	number, err := singleNumber(raw, campaign.DigitWidth)
	if err != nil {
		return err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ticket, err := s.ticketRepository.FindByNumberWithLock(ctx, tx, campaignID, number)
	if err != nil {
		return err
	}

	if err := fn(tx, ticket); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *InventoryServiceImpl) activeOrExpiredCampaign(ctx context.Context, campaignID int) (*model.Campaign, error) {
	campaign, err := s.campaignRepository.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.IsDeleted() {
		return nil, apperrors.ErrCampaignNotFound
	}
	return campaign, nil
}

func singleNumber(raw string, width int) (string, error) {
	numbers := ticketno.Normalize([]string{raw}, width)
	if len(numbers) == 0 {
		return "", apperrors.ErrNoValidNumbers
	}
	return numbers[0], nil
}

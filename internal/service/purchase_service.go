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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PurchaseService interface {
	// 兩階段：保留號碼並建立 pending 購買
	Reserve(ctx context.Context, userID int, campaignID int, numbers []string, ttlMinutes int) (*model.ReservationResult, error)
	// 一階段：直接售出並建立 completed 購買
	PurchaseImmediate(ctx context.Context, userID int, campaignID int, numbers []string) (*model.DirectPurchaseResult, error)
	// 付款完成：reserved → sold；已完成的購買視為成功
	Confirm(ctx context.Context, purchaseID int) (*model.Purchase, error)
	// 套用付款服務回報的狀態
	ApplySettlement(ctx context.Context, event *model.SettlementEvent) (*model.Purchase, error)
	GetPurchase(ctx context.Context, actor model.Actor, purchaseID int) (*model.Purchase, error)
	MyTitles(ctx context.Context, userID int, campaignID *int) ([]*model.CampaignTitles, error)
}

// SpinAccrual 購買完成後重新計算可用轉盤次數
type SpinAccrual interface {
	AvailableSpins(ctx context.Context, userID int) (int, error)
}

type PurchaseServiceImpl struct {
	pool               *pgxpool.Pool
	campaignRepository repository.CampaignRepository
	ticketRepository   repository.TicketRepository
	purchaseRepository repository.PurchaseRepository
	inventory          InventoryService
	accrual            SpinAccrual
	reservationMinutes int
	now                func() time.Time
}

func NewPurchaseService(
	pool *pgxpool.Pool,
	campaignRepository repository.CampaignRepository,
	ticketRepository repository.TicketRepository,
	purchaseRepository repository.PurchaseRepository,
	inventory InventoryService,
	accrual SpinAccrual,
	reservationMinutes int,
) PurchaseService {
	if reservationMinutes <= 0 {
		reservationMinutes = 10
	}
	return &PurchaseServiceImpl{
		pool:               pool,
		campaignRepository: campaignRepository,
		ticketRepository:   ticketRepository,
		purchaseRepository: purchaseRepository,
		inventory:          inventory,
		accrual:            accrual,
		reservationMinutes: reservationMinutes,
		now:                time.Now,
	}
}

// claimFunc 在同一交易內處理已鎖定的號碼
type claimFunc func(tx pgx.Tx, campaign *model.Campaign, tickets []*model.Ticket) error

// claim 鎖定請求中的全部號碼後交給 fn；只要有一個號碼拿不到就整筆失敗，並回報原因
func (s *PurchaseServiceImpl) claim(ctx context.Context, campaignID int, raw []string, fn claimFunc) ([]string, error) {
	campaign, err := s.campaignRepository.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(campaign); err != nil {
		return nil, err
	}

	width := campaign.DigitWidth
	if width == 0 {
		width = ticketno.DefaultWidth(campaign.TotalTickets)
	}
	numbers := ticketno.Normalize(raw, width)
	if len(numbers) == 0 {
		return nil, apperrors.ErrNoValidNumbers
	}

	// 先清掉這些號碼中已逾時的保留，否則它們不會被視為 available
	if _, err := s.inventory.ExpireReservationsFor(ctx, campaignID, numbers); err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 鎖住活動列到交易結束，到期或開獎要等這筆購買完成
	campaign, err = s.campaignRepository.FindByIDForShare(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(campaign); err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepository.ClaimAvailable(ctx, tx, campaignID, numbers)
	if err != nil {
		return nil, fmt.Errorf("claim tickets: %w", err)
	}

	if len(tickets) != len(numbers) {
		_ = tx.Rollback(ctx)
		return nil, s.conflict(ctx, campaignID, numbers, tickets)
	}

	if err := fn(tx, campaign, tickets); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	claimed := make([]string, 0, len(tickets))
	for _, t := range tickets {
		claimed = append(claimed, t.TicketNumber)
	}
	ticketno.Sort(claimed)
	return claimed, nil
}

func (s *PurchaseServiceImpl) ensureOpen(campaign *model.Campaign) error {
	if campaign.IsDeleted() {
		return apperrors.ErrCampaignNotFound
	}
	if campaign.Status != model.CampaignStatusActive || campaign.DrawDue(s.now()) {
		return apperrors.ErrCampaignNotActive
	}
	return nil
}

// conflict 區分已售出、已被保留（含正被其他交易鎖定）與不存在的號碼
func (s *PurchaseServiceImpl) conflict(ctx context.Context, campaignID int, requested []string, claimed []*model.Ticket) error {
	got := make(map[string]struct{}, len(claimed))
	for _, t := range claimed {
		got[t.TicketNumber] = struct{}{}
	}

	missing := make([]string, 0, len(requested)-len(claimed))
	for _, n := range requested {
		if _, ok := got[n]; !ok {
			missing = append(missing, n)
		}
	}

	statuses, err := s.ticketRepository.StatusByNumbers(ctx, s.pool, campaignID, missing)
	if err != nil {
		return fmt.Errorf("diagnose conflict: %w", err)
	}

	detail := apperrors.ConflictDetail{
		Requested:   append([]string(nil), requested...),
		Unavailable: missing,
		Sold:        []string{},
		Reserved:    []string{},
		NotFound:    []string{},
	}
	for _, n := range missing {
		status, ok := statuses[n]
		switch {
		case !ok:
			detail.NotFound = append(detail.NotFound, n)
		case status == model.TicketStatusSold:
			detail.Sold = append(detail.Sold, n)
		default:
			detail.Reserved = append(detail.Reserved, n)
		}
	}
	ticketno.Sort(detail.Requested)
	ticketno.Sort(detail.Unavailable)

	return apperrors.NewConflictError(detail)
}

func ticketIDs(tickets []*model.Ticket) []int {
	ids := make([]int, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

func (s *PurchaseServiceImpl) Reserve(ctx context.Context, userID int, campaignID int, numbers []string, ttlMinutes int) (*model.ReservationResult, error) {
	if ttlMinutes <= 0 {
		ttlMinutes = s.reservationMinutes
	}
	until := s.now().UTC().Add(time.Duration(ttlMinutes) * time.Minute)

	var purchase *model.Purchase
	reserved, err := s.claim(ctx, campaignID, numbers, func(tx pgx.Tx, campaign *model.Campaign, tickets []*model.Ticket) error {
		ids := ticketIDs(tickets)
		if err := s.ticketRepository.MarkReserved(ctx, tx, ids, until); err != nil {
			return fmt.Errorf("mark reserved: %w", err)
		}

		var err error
		purchase, err = s.createPurchase(ctx, tx, userID, campaign, ids, model.PurchaseStatusPending)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("tickets reserved",
		zap.Int("purchase_id", purchase.ID),
		zap.Int("user_id", userID),
		zap.Int("campaign_id", campaignID),
		zap.Strings("numbers", reserved),
	)

	return &model.ReservationResult{
		PurchaseID:      purchase.ID,
		ReservedNumbers: reserved,
		ReservedUntil:   until,
		Subtotal:        purchase.TotalAmount,
	}, nil
}

func (s *PurchaseServiceImpl) PurchaseImmediate(ctx context.Context, userID int, campaignID int, numbers []string) (*model.DirectPurchaseResult, error) {
	var purchase *model.Purchase
	sold, err := s.claim(ctx, campaignID, numbers, func(tx pgx.Tx, campaign *model.Campaign, tickets []*model.Ticket) error {
		ids := ticketIDs(tickets)
		if err := s.ticketRepository.MarkSold(ctx, tx, ids); err != nil {
			return fmt.Errorf("mark sold: %w", err)
		}

		var err error
		purchase, err = s.createPurchase(ctx, tx, userID, campaign, ids, model.PurchaseStatusCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &model.DirectPurchaseResult{
		PurchaseID: purchase.ID,
		Numbers:    sold,
		Total:      purchase.TotalAmount,
		UnitPrice:  purchase.UnitPrice,
	}

	// 購買已提交，次數計算失敗不影響結果
	if s.accrual != nil {
		spins, err := s.accrual.AvailableSpins(ctx, userID)
		if err != nil {
			logger.WithComponent("service").Warn("spin accrual failed", zap.Int("user_id", userID), zap.Error(err))
		} else {
			result.AvailableSpins = spins
		}
	}

	logger.WithComponent("service").Info("tickets purchased",
		zap.Int("purchase_id", purchase.ID),
		zap.Int("user_id", userID),
		zap.Int("campaign_id", campaignID),
		zap.Strings("numbers", sold),
	)
	return result, nil
}

// createPurchase total_amount = 單價 × 張數，建立後不再重算
func (s *PurchaseServiceImpl) createPurchase(ctx context.Context, tx pgx.Tx, userID int, campaign *model.Campaign, ids []int, status model.PurchaseStatus) (*model.Purchase, error) {
	purchase, err := s.purchaseRepository.Create(ctx, tx, &model.Purchase{
		UserID:      userID,
		CampaignID:  campaign.ID,
		UnitPrice:   campaign.TicketPrice,
		TicketCount: len(ids),
		TotalAmount: campaign.TicketPrice.Mul(decimal.NewFromInt(int64(len(ids)))),
		Status:      status,
	})
	if err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	if err := s.purchaseRepository.LinkTickets(ctx, tx, purchase.ID, ids); err != nil {
		return nil, fmt.Errorf("link tickets: %w", err)
	}
	return purchase, nil
}

func (s *PurchaseServiceImpl) Confirm(ctx context.Context, purchaseID int) (*model.Purchase, error) {
	return s.complete(ctx, purchaseID, "")
}

func (s *PurchaseServiceImpl) complete(ctx context.Context, purchaseID int, gatewayID string) (*model.Purchase, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	purchase, err := s.purchaseRepository.FindByIDWithLock(ctx, tx, purchaseID)
	if err != nil {
		return nil, err
	}

	switch purchase.Status {
	case model.PurchaseStatusCompleted:
		// 重送的通知
		_ = tx.Rollback(ctx)
		return s.purchaseRepository.FindByID(ctx, purchaseID)
	case model.PurchaseStatusPending:
	default:
		return nil, fmt.Errorf("%w: purchase %d is %s", apperrors.ErrInvalidPurchaseStatus, purchaseID, purchase.Status)
	}

	tickets, err := s.ticketRepository.FindByPurchaseWithLock(ctx, tx, purchaseID)
	if err != nil {
		return nil, err
	}

	// 保留可能已逾時被清掉；只要號碼沒有被別人拿走就照樣售出
	detail := apperrors.ConflictDetail{Sold: []string{}, Reserved: []string{}, NotFound: []string{}}
	for _, t := range tickets {
		detail.Requested = append(detail.Requested, t.TicketNumber)
		switch {
		case t.Status == model.TicketStatusSold:
			detail.Unavailable = append(detail.Unavailable, t.TicketNumber)
			detail.Sold = append(detail.Sold, t.TicketNumber)
		case t.HeldByOther:
			detail.Unavailable = append(detail.Unavailable, t.TicketNumber)
			detail.Reserved = append(detail.Reserved, t.TicketNumber)
		}
	}
	if len(detail.Unavailable) > 0 {
		return nil, apperrors.NewConflictError(detail)
	}

	if err := s.ticketRepository.MarkSold(ctx, tx, ticketIDsOf(tickets)); err != nil {
		return nil, fmt.Errorf("mark sold: %w", err)
	}

	updated, err := s.purchaseRepository.UpdateStatus(ctx, tx, purchaseID, model.PurchaseStatusCompleted, gatewayID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("purchase completed",
		zap.Int("purchase_id", purchaseID),
		zap.Int("user_id", updated.UserID),
		zap.Strings("numbers", updated.Numbers),
	)
	return updated, nil
}

func ticketIDsOf(tickets []*repository.PurchaseTicket) []int {
	ids := make([]int, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

// cancel 釋放保留中的號碼；已取消或失敗的購買直接回傳，已完成的購買不可回退
func (s *PurchaseServiceImpl) cancel(ctx context.Context, purchaseID int, status model.PurchaseStatus, gatewayID string) (*model.Purchase, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	purchase, err := s.purchaseRepository.FindByIDWithLock(ctx, tx, purchaseID)
	if err != nil {
		return nil, err
	}

	switch purchase.Status {
	case model.PurchaseStatusCancelled, model.PurchaseStatusFailed:
		_ = tx.Rollback(ctx)
		return s.purchaseRepository.FindByID(ctx, purchaseID)
	case model.PurchaseStatusCompleted:
		return nil, fmt.Errorf("%w: purchase %d already completed", apperrors.ErrInvalidPurchaseStatus, purchaseID)
	}

	released, err := releasePurchaseTickets(ctx, tx, s.ticketRepository, purchaseID)
	if err != nil {
		return nil, err
	}

	updated, err := s.purchaseRepository.UpdateStatus(ctx, tx, purchaseID, status, gatewayID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("purchase cancelled",
		zap.Int("purchase_id", purchaseID),
		zap.String("status", string(status)),
		zap.Int64("released", released),
	)
	return updated, nil
}

func (s *PurchaseServiceImpl) ApplySettlement(ctx context.Context, event *model.SettlementEvent) (*model.Purchase, error) {
	if event == nil || event.PurchaseID <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	switch event.Status {
	case model.PurchaseStatusCompleted:
		return s.complete(ctx, event.PurchaseID, event.GatewayID)
	case model.PurchaseStatusCancelled, model.PurchaseStatusFailed:
		return s.cancel(ctx, event.PurchaseID, event.Status, event.GatewayID)
	default:
		return nil, fmt.Errorf("%w: unsupported settlement status %q", apperrors.ErrInvalidInput, event.Status)
	}
}

func (s *PurchaseServiceImpl) GetPurchase(ctx context.Context, actor model.Actor, purchaseID int) (*model.Purchase, error) {
	purchase, err := s.purchaseRepository.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	// 非本人也非管理員時當作不存在
	if purchase.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.ErrPurchaseNotFound
	}
	return purchase, nil
}

func (s *PurchaseServiceImpl) MyTitles(ctx context.Context, userID int, campaignID *int) ([]*model.CampaignTitles, error) {
	return s.purchaseRepository.ListTitles(ctx, userID, campaignID)
}

package service

import (
	"context"
	"fmt"
	"raffle-platform/internal/accrual"
	"raffle-platform/internal/draw"
	"raffle-platform/internal/model"
	"raffle-platform/internal/repository"
	apperrors "raffle-platform/pkg/app_errors"
	"raffle-platform/pkg/logger"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const historyLimit = 20

type RouletteService interface {
	// 可用次數 = 依累計完成消費換算的次數 - 已使用次數
	AvailableSpins(ctx context.Context, userID int) (int, error)
	Spin(ctx context.Context, userID int) (*model.SpinResult, error)
	Status(ctx context.Context, userID int) (*model.RouletteStatus, error)

	ListPrizes(ctx context.Context, activeOnly bool) ([]*model.RoulettePrize, error)
	CreatePrize(ctx context.Context, req *model.CreatePrizeRequest) (*model.RoulettePrize, error)
	UpdatePrize(ctx context.Context, id int, params *model.UpdatePrizeParams) (*model.RoulettePrize, error)
	DeletePrize(ctx context.Context, id int) error

	GetSettings(ctx context.Context) (*model.RouletteSettings, error)
	UpdateSettings(ctx context.Context, rtp int) (*model.RouletteSettings, error)
}

type RouletteServiceImpl struct {
	pool               *pgxpool.Pool
	purchaseRepository repository.PurchaseRepository
	rouletteRepository repository.RouletteRepository
	rule               accrual.Rule
	random             draw.RandomSource
}

func NewRouletteService(
	pool *pgxpool.Pool,
	purchaseRepository repository.PurchaseRepository,
	rouletteRepository repository.RouletteRepository,
	rule accrual.Rule,
	random draw.RandomSource,
) RouletteService {
	if random == nil {
		random = draw.NewCryptoSource()
	}
	return &RouletteServiceImpl{
		pool:               pool,
		purchaseRepository: purchaseRepository,
		rouletteRepository: rouletteRepository,
		rule:               rule,
		random:             random,
	}
}

// entitlement 每次都從購買與轉盤紀錄重新計算，不做快取
func (s *RouletteServiceImpl) entitlement(ctx context.Context, q repository.Querier, userID int) (decimal.Decimal, int, int, error) {
	spent, err := s.purchaseRepository.TotalCompletedSpend(ctx, q, userID)
	if err != nil {
		return decimal.Zero, 0, 0, err
	}
	used, err := s.rouletteRepository.CountPlays(ctx, q, userID)
	if err != nil {
		return decimal.Zero, 0, 0, err
	}
	return spent, used, s.rule.Available(spent, used), nil
}

func (s *RouletteServiceImpl) AvailableSpins(ctx context.Context, userID int) (int, error) {
	_, _, available, err := s.entitlement(ctx, s.pool, userID)
	return available, err
}

func (s *RouletteServiceImpl) Spin(ctx context.Context, userID int) (*model.SpinResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 同一使用者的轉盤依序執行，避免同時消耗同一次機會
	if err := s.rouletteRepository.LockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	_, _, available, err := s.entitlement(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if available <= 0 {
		return nil, apperrors.ErrNoSpinsAvailable
	}

	settings, err := s.rouletteRepository.GetSettings(ctx, tx)
	if err != nil {
		return nil, err
	}

	won, roll, err := draw.RollWin(s.random, settings.RTP)
	if err != nil {
		return nil, fmt.Errorf("roll: %w", err)
	}

	play := &model.SpinPlay{UserID: userID, Outcome: model.SpinOutcomeLose, Amount: decimal.Zero}
	var prize *model.RoulettePrize
	if won {
		prizes, err := s.rouletteRepository.ActivePrizes(ctx, tx)
		if err != nil {
			return nil, err
		}
		picked, ok, err := draw.PickWeighted(s.random, prizes)
		if err != nil {
			return nil, fmt.Errorf("pick prize: %w", err)
		}
		if ok {
			prize = picked
			play.Outcome = model.SpinOutcomeWin
			play.PrizeID = &picked.ID
			play.PrizeName = &picked.Name
			if picked.Category == model.PrizeCategoryCash {
				play.Amount = picked.Amount
			}
		}
	}

	saved, err := s.rouletteRepository.CreatePlay(ctx, tx, play)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("service").Info("roulette spin",
		zap.Int("user_id", userID),
		zap.String("outcome", string(saved.Outcome)),
		zap.Int64("roll", roll),
		zap.Int("rtp", settings.RTP),
	)

	return &model.SpinResult{
		Outcome:        saved.Outcome,
		Prize:          prize,
		Play:           saved,
		AvailableSpins: available - 1,
	}, nil
}

func (s *RouletteServiceImpl) Status(ctx context.Context, userID int) (*model.RouletteStatus, error) {
	spent, used, available, err := s.entitlement(ctx, s.pool, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.rouletteRepository.RecentPlays(ctx, userID, historyLimit)
	if err != nil {
		return nil, err
	}

	return &model.RouletteStatus{
		AvailableSpins: available,
		TotalSpent:     spent,
		UsedSpins:      used,
		History:        history,
	}, nil
}

func (s *RouletteServiceImpl) ListPrizes(ctx context.Context, activeOnly bool) ([]*model.RoulettePrize, error) {
	return s.rouletteRepository.ListPrizes(ctx, activeOnly)
}

func (s *RouletteServiceImpl) CreatePrize(ctx context.Context, req *model.CreatePrizeRequest) (*model.RoulettePrize, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Category.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}

	prize := &model.RoulettePrize{
		Name:     name,
		Category: req.Category,
		Amount:   req.Amount,
		Weight:   1,
		Active:   true,
	}
	if req.Weight != nil {
		prize.Weight = *req.Weight
	}
	if req.Active != nil {
		prize.Active = *req.Active
	}
	if err := normalizePrize(prize); err != nil {
		return nil, err
	}

	return s.rouletteRepository.CreatePrize(ctx, prize)
}

// normalizePrize 非現金獎項金額固定為 0
func normalizePrize(p *model.RoulettePrize) error {
	if p.Weight < 0 || p.Amount.IsNegative() {
		return apperrors.ErrInvalidInput
	}
	if p.Category != model.PrizeCategoryCash {
		p.Amount = decimal.Zero
	}
	return nil
}

func (s *RouletteServiceImpl) UpdatePrize(ctx context.Context, id int, params *model.UpdatePrizeParams) (*model.RoulettePrize, error) {
	current, err := s.rouletteRepository.FindPrize(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	if params.Name != nil {
		next.Name = strings.TrimSpace(*params.Name)
		if next.Name == "" {
			return nil, apperrors.ErrInvalidInput
		}
	}
	if params.Category != nil {
		if !params.Category.IsValid() {
			return nil, apperrors.ErrInvalidInput
		}
		next.Category = *params.Category
	}
	if params.Amount != nil {
		next.Amount = *params.Amount
	}
	if params.Weight != nil {
		next.Weight = *params.Weight
	}
	if params.Active != nil {
		next.Active = *params.Active
	}
	if err := normalizePrize(&next); err != nil {
		return nil, err
	}

	values := map[string]interface{}{}
	if next.Name != current.Name {
		values["name"] = next.Name
	}
	if next.Category != current.Category {
		values["category"] = next.Category
	}
	if !next.Amount.Equal(current.Amount) {
		values["amount"] = next.Amount
	}
	if next.Weight != current.Weight {
		values["weight"] = next.Weight
	}
	if next.Active != current.Active {
		values["active"] = next.Active
	}

	if len(values) == 0 {
		return current, nil
	}
	return s.rouletteRepository.UpdatePrize(ctx, id, values)
}

func (s *RouletteServiceImpl) DeletePrize(ctx context.Context, id int) error {
	return s.rouletteRepository.DeletePrize(ctx, id)
}

func (s *RouletteServiceImpl) GetSettings(ctx context.Context) (*model.RouletteSettings, error) {
	return s.rouletteRepository.GetSettings(ctx, s.pool)
}

// UpdateSettings 超出 0..100 的值會被夾回範圍內
func (s *RouletteServiceImpl) UpdateSettings(ctx context.Context, rtp int) (*model.RouletteSettings, error) {
	return s.rouletteRepository.SaveSettings(ctx, draw.ClampRTP(rtp))
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// 轉盤 advisory lock 的命名空間，與使用者 id 一起雜湊成 64 位元的 key
const spinLockNamespace = "roulette_spin"

type RouletteRepository interface {
	ListPrizes(ctx context.Context, activeOnly bool) ([]*model.RoulettePrize, error)
	FindPrize(ctx context.Context, id int) (*model.RoulettePrize, error)
	CreatePrize(ctx context.Context, prize *model.RoulettePrize) (*model.RoulettePrize, error)
	UpdatePrize(ctx context.Context, id int, values map[string]interface{}) (*model.RoulettePrize, error)
	DeletePrize(ctx context.Context, id int) error

	GetSettings(ctx context.Context, q Querier) (*model.RouletteSettings, error)
	SaveSettings(ctx context.Context, rtp int) (*model.RouletteSettings, error)

	CountPlays(ctx context.Context, q Querier, userID int) (int, error)
	RecentPlays(ctx context.Context, userID int, limit int) ([]*model.SpinPlay, error)

	// Transaction methods
	LockUser(ctx context.Context, tx pgx.Tx, userID int) error
	ActivePrizes(ctx context.Context, tx pgx.Tx) ([]*model.RoulettePrize, error)
	CreatePlay(ctx context.Context, tx pgx.Tx, play *model.SpinPlay) (*model.SpinPlay, error)
}

type RouletteRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewRouletteRepository(pool *pgxpool.Pool) RouletteRepository {
	return &RouletteRepositoryImpl{
		pool: pool,
	}
}

const prizeColumns = `id, name, category, amount, weight, active, created_at, updated_at`

func scanPrize(row scanner) (*model.RoulettePrize, error) {
	var p model.RoulettePrize
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Amount, &p.Weight, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPrizeNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectPrizes(rows pgx.Rows) ([]*model.RoulettePrize, error) {
	defer rows.Close()

	prizes := make([]*model.RoulettePrize, 0)
	for rows.Next() {
		p, err := scanPrize(rows)
		if err != nil {
			return nil, err
		}
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

func (r *RouletteRepositoryImpl) ListPrizes(ctx context.Context, activeOnly bool) ([]*model.RoulettePrize, error) {
	query := `SELECT ` + prizeColumns + ` FROM roulette_prizes WHERE ($1 = FALSE OR active) ORDER BY id`
	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	return collectPrizes(rows)
}

func (r *RouletteRepositoryImpl) FindPrize(ctx context.Context, id int) (*model.RoulettePrize, error) {
	return scanPrize(r.pool.QueryRow(ctx, `SELECT `+prizeColumns+` FROM roulette_prizes WHERE id = $1`, id))
}

func (r *RouletteRepositoryImpl) CreatePrize(ctx context.Context, prize *model.RoulettePrize) (*model.RoulettePrize, error) {
	query := `
		INSERT INTO roulette_prizes (name, category, amount, weight, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + prizeColumns

	return scanPrize(r.pool.QueryRow(ctx, query,
		prize.Name, prize.Category, prize.Amount, prize.Weight, prize.Active,
	))
}

func (r *RouletteRepositoryImpl) UpdatePrize(ctx context.Context, id int, values map[string]interface{}) (*model.RoulettePrize, error) {
	allowedFields := map[string]bool{
		"name":     true,
		"category": true,
		"amount":   true,
		"weight":   true,
		"active":   true,
	}

	sets := []string{}
	args := []interface{}{}
	argPos := 1

	for column, value := range values {
		if ok := allowedFields[column]; !ok {
			return nil, apperrors.ErrInvalidInput
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE roulette_prizes
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, prizeColumns)

	return scanPrize(r.pool.QueryRow(ctx, query, args...))
}

func (r *RouletteRepositoryImpl) DeletePrize(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roulette_prizes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPrizeNotFound
	}
	return nil
}

// GetSettings 尚未設定時 rtp 為 0
func (r *RouletteRepositoryImpl) GetSettings(ctx context.Context, q Querier) (*model.RouletteSettings, error) {
	var s model.RouletteSettings
	err := q.QueryRow(ctx, `SELECT rtp, updated_at FROM roulette_settings WHERE id = 1`).Scan(&s.RTP, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.RouletteSettings{}, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *RouletteRepositoryImpl) SaveSettings(ctx context.Context, rtp int) (*model.RouletteSettings, error) {
	var s model.RouletteSettings
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roulette_settings (id, rtp) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET rtp = EXCLUDED.rtp, updated_at = NOW()
		RETURNING rtp, updated_at
	`, rtp).Scan(&s.RTP, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RouletteRepositoryImpl) CountPlays(ctx context.Context, q Querier, userID int) (int, error) {
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM roulette_spin_plays WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

const playColumns = `id, user_id, outcome, prize_id, prize_name, amount, created_at`

func scanPlay(row scanner) (*model.SpinPlay, error) {
	var p model.SpinPlay
	if err := row.Scan(&p.ID, &p.UserID, &p.Outcome, &p.PrizeID, &p.PrizeName, &p.Amount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RouletteRepositoryImpl) RecentPlays(ctx context.Context, userID int, limit int) ([]*model.SpinPlay, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+playColumns+`
		FROM roulette_spin_plays
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plays := make([]*model.SpinPlay, 0)
	for rows.Next() {
		p, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

// LockUser 交易結束時自動釋放，同一使用者的轉盤依序執行。
// 雜湊碰撞只會讓兩個使用者互相等待
func (r *RouletteRepositoryImpl) LockUser(ctx context.Context, tx pgx.Tx, userID int) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, $2))`, spinLockNamespace, int64(userID))
	return err
}

func (r *RouletteRepositoryImpl) ActivePrizes(ctx context.Context, tx pgx.Tx) ([]*model.RoulettePrize, error) {
	rows, err := tx.Query(ctx, `SELECT `+prizeColumns+` FROM roulette_prizes WHERE active AND weight > 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectPrizes(rows)
}

func (r *RouletteRepositoryImpl) CreatePlay(ctx context.Context, tx pgx.Tx, play *model.SpinPlay) (*model.SpinPlay, error) {
	query := `
		INSERT INTO roulette_spin_plays (user_id, outcome, prize_id, prize_name, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + playColumns

	return scanPlay(tx.QueryRow(ctx, query,
		play.UserID, play.Outcome, play.PrizeID, play.PrizeName, play.Amount,
	))
}

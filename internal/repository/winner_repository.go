package repository

import (
	"context"
	"errors"
	"raffle-platform/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WinnerRepository interface {
	FindByCampaign(ctx context.Context, q Querier, campaignID int) (*model.Winner, error)
	FindByCampaigns(ctx context.Context, campaignIDs []int) (map[int]*model.Winner, error)
	List(ctx context.Context) ([]*model.Winner, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, winner *model.Winner) (*model.Winner, bool, error)
}

type WinnerRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewWinnerRepository(pool *pgxpool.Pool) WinnerRepository {
	return &WinnerRepositoryImpl{
		pool: pool,
	}
}

const winnerColumns = `w.id, w.campaign_id, w.ticket_id, w.user_id, w.ticket_number, w.announced_at`

func scanWinner(row scanner, extra ...any) (*model.Winner, error) {
	var w model.Winner
	dest := []any{&w.ID, &w.CampaignID, &w.TicketID, &w.UserID, &w.TicketNumber, &w.AnnouncedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &w, nil
}

// Create 每個活動最多一位中獎者；已存在時回傳既有紀錄與 false
func (r *WinnerRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, winner *model.Winner) (*model.Winner, bool, error) {
	query := `
		INSERT INTO winners AS w (campaign_id, ticket_id, user_id, ticket_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (campaign_id) DO NOTHING
		RETURNING ` + winnerColumns

	created, err := scanWinner(tx.QueryRow(ctx, query,
		winner.CampaignID, winner.TicketID, winner.UserID, winner.TicketNumber,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.FindByCampaign(ctx, tx, winner.CampaignID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByCampaign 尚未開獎時回傳 nil, nil
func (r *WinnerRepositoryImpl) FindByCampaign(ctx context.Context, q Querier, campaignID int) (*model.Winner, error) {
	query := `SELECT ` + winnerColumns + ` FROM winners w WHERE w.campaign_id = $1`
	w, err := scanWinner(q.QueryRow(ctx, query, campaignID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

func (r *WinnerRepositoryImpl) FindByCampaigns(ctx context.Context, campaignIDs []int) (map[int]*model.Winner, error) {
	query := `SELECT ` + winnerColumns + ` FROM winners w WHERE w.campaign_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, campaignIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := make(map[int]*model.Winner, len(campaignIDs))
	for rows.Next() {
		w, err := scanWinner(rows)
		if err != nil {
			return nil, err
		}
		winners[w.CampaignID] = w
	}
	return winners, rows.Err()
}

func (r *WinnerRepositoryImpl) List(ctx context.Context) ([]*model.Winner, error) {
	query := `
		SELECT ` + winnerColumns + `, c.title
		FROM winners w
		JOIN campaigns c ON c.id = w.campaign_id
		WHERE c.status <> 'deleted'
		ORDER BY w.announced_at DESC, w.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := make([]*model.Winner, 0)
	for rows.Next() {
		var title string
		w, err := scanWinner(rows, &title)
		if err != nil {
			return nil, err
		}
		w.CampaignTitle = title
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

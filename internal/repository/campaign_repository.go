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

type CampaignRepository interface {
	List(ctx context.Context, status *model.CampaignStatus) ([]*model.Campaign, error)
	FindByID(ctx context.Context, id int) (*model.Campaign, error)
	ListExpiredWithoutWinner(ctx context.Context) ([]int, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, campaign *model.Campaign) (*model.Campaign, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Campaign, error)
	FindByIDForShare(ctx context.Context, tx pgx.Tx, id int) (*model.Campaign, error)
	Update(ctx context.Context, tx pgx.Tx, id int, values map[string]interface{}) (*model.Campaign, error)
	SetDigitWidth(ctx context.Context, tx pgx.Tx, id int, width int) error
	ExpireDue(ctx context.Context, tx pgx.Tx, now time.Time) ([]int, error)
	Delete(ctx context.Context, tx pgx.Tx, id int) error
}

type CampaignRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCampaignRepository(pool *pgxpool.Pool) CampaignRepository {
	return &CampaignRepositoryImpl{
		pool: pool,
	}
}

const campaignColumns = `id, title, description, image_url, ticket_price, total_tickets,
		digit_width, draw_date, status, created_at, updated_at`

func scanCampaign(row scanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ImageURL,
		&c.TicketPrice,
		&c.TotalTickets,
		&c.DigitWidth,
		&c.DrawDate,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, campaign *model.Campaign) (*model.Campaign, error) {
	query := `
		INSERT INTO campaigns (title, description, image_url, ticket_price, total_tickets, draw_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + campaignColumns

	status := campaign.Status
	if status == "" {
		status = model.CampaignStatusActive
	}

	return scanCampaign(tx.QueryRow(ctx, query,
		campaign.Title, campaign.Description, campaign.ImageURL,
		campaign.TicketPrice, campaign.TotalTickets, campaign.DrawDate, status,
	))
}

// List status 為 nil 時回傳所有未刪除的活動
func (r *CampaignRepositoryImpl) List(ctx context.Context, status *model.CampaignStatus) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status <> 'deleted' ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if status != nil {
		query = `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = $1 ORDER BY created_at DESC, id DESC`
		args = append(args, *status)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := make([]*model.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return campaigns, nil
}

func (r *CampaignRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return scanCampaign(r.pool.QueryRow(ctx, query, id))
}

func (r *CampaignRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR UPDATE`
	return scanCampaign(tx.QueryRow(ctx, query, id))
}

// FindByIDForShare 允許多筆購買同時進行，但會擋住到期與開獎對活動的更新
func (r *CampaignRepositoryImpl) FindByIDForShare(ctx context.Context, tx pgx.Tx, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR SHARE`
	return scanCampaign(tx.QueryRow(ctx, query, id))
}

func (r *CampaignRepositoryImpl) Update(ctx context.Context, tx pgx.Tx, id int, values map[string]interface{}) (*model.Campaign, error) {
	allowedFields := map[string]bool{
		"title":         true,
		"description":   true,
		"image_url":     true,
		"ticket_price":  true,
		"total_tickets": true,
		"draw_date":     true,
		"status":        true,
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
		UPDATE campaigns
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, campaignColumns)

	return scanCampaign(tx.QueryRow(ctx, query, args...))
}

func (r *CampaignRepositoryImpl) SetDigitWidth(ctx context.Context, tx pgx.Tx, id int, width int) error {
	tag, err := tx.Exec(ctx, `UPDATE campaigns SET digit_width = $1, updated_at = NOW() WHERE id = $2`, width, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCampaignNotFound
	}
	return nil
}

// ExpireDue 只處理 active 的活動，已刪除的活動不會被改回 expired
func (r *CampaignRepositoryImpl) ExpireDue(ctx context.Context, tx pgx.Tx, now time.Time) ([]int, error) {
	query := `
		UPDATE campaigns
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND draw_date IS NOT NULL AND draw_date <= $1
		RETURNING id
	`

	rows, err := tx.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *CampaignRepositoryImpl) ListExpiredWithoutWinner(ctx context.Context) ([]int, error) {
	query := `
		SELECT c.id
		FROM campaigns c
		LEFT JOIN winners w ON w.campaign_id = c.id
		WHERE c.status = 'expired' AND w.id IS NULL
		ORDER BY c.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *CampaignRepositoryImpl) Delete(ctx context.Context, tx pgx.Tx, id int) error {
	tag, err := tx.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCampaignNotFound
	}
	return nil
}

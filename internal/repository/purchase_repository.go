package repository

import (
	"context"
	"errors"
	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PurchaseRepository interface {
	FindByID(ctx context.Context, id int) (*model.Purchase, error)
	TotalCompletedSpend(ctx context.Context, q Querier, userID int) (decimal.Decimal, error)
	ListTitles(ctx context.Context, userID int, campaignID *int) ([]*model.CampaignTitles, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, purchase *model.Purchase) (*model.Purchase, error)
	LinkTickets(ctx context.Context, tx pgx.Tx, purchaseID int, ticketIDs []int) error
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Purchase, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PurchaseStatus, gatewayID string) (*model.Purchase, error)
	CancelPendingForTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) ([]int, error)
	LockPendingForTicket(ctx context.Context, tx pgx.Tx, ticketID int) ([]int, error)
	CancelByIDs(ctx context.Context, tx pgx.Tx, ids []int) error
}

type PurchaseRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) PurchaseRepository {
	return &PurchaseRepositoryImpl{
		pool: pool,
	}
}

const purchaseColumns = `id, user_id, campaign_id, unit_price, ticket_count, total_amount,
		status, gateway_id, created_at, updated_at, completed_at`

func scanPurchase(row scanner) (*model.Purchase, error) {
	var p model.Purchase
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CampaignID,
		&p.UnitPrice,
		&p.TicketCount,
		&p.TotalAmount,
		&p.Status,
		&p.GatewayID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create total_amount 在此時固定，之後不再重算
func (r *PurchaseRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, purchase *model.Purchase) (*model.Purchase, error) {
	query := `
		INSERT INTO purchases (user_id, campaign_id, unit_price, ticket_count, total_amount, status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $6 = 'completed' THEN NOW() END)
		RETURNING ` + purchaseColumns

	return scanPurchase(tx.QueryRow(ctx, query,
		purchase.UserID, purchase.CampaignID, purchase.UnitPrice,
		purchase.TicketCount, purchase.TotalAmount, string(purchase.Status),
	))
}

func (r *PurchaseRepositoryImpl) LinkTickets(ctx context.Context, tx pgx.Tx, purchaseID int, ticketIDs []int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO purchase_tickets (purchase_id, ticket_id)
		SELECT $1, UNNEST($2::bigint[])
	`, purchaseID, ticketIDs)
	return err
}

func (r *PurchaseRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	p, err := scanPurchase(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	numbers, err := r.numbers(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	p.Numbers = numbers
	return p, nil
}

func (r *PurchaseRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1 FOR UPDATE`
	return scanPurchase(tx.QueryRow(ctx, query, id))
}

func (r *PurchaseRepositoryImpl) numbers(ctx context.Context, q Querier, purchaseID int) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT t.ticket_number
		FROM purchase_tickets pt
		JOIN tickets t ON t.id = pt.ticket_id
		WHERE pt.purchase_id = $1
		ORDER BY `+numericOrder, purchaseID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PurchaseRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PurchaseStatus, gatewayID string) (*model.Purchase, error) {
	query := `
		UPDATE purchases
		SET status = $2,
			gateway_id = COALESCE(NULLIF($3, ''), gateway_id),
			completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + purchaseColumns

	p, err := scanPurchase(tx.QueryRow(ctx, query, id, string(status), gatewayID))
	if err != nil {
		return nil, err
	}

	numbers, err := r.numbers(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	p.Numbers = numbers
	return p, nil
}

// CancelPendingForTickets 由過期清理呼叫；被其他交易鎖住的購買（例如正在確認）直接跳過
func (r *PurchaseRepositoryImpl) CancelPendingForTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) ([]int, error) {
	query := `
		WITH pending AS (
			SELECT p.id
			FROM purchases p
			WHERE p.status = 'pending'
				AND EXISTS (
					SELECT 1 FROM purchase_tickets pt
					WHERE pt.purchase_id = p.id AND pt.ticket_id = ANY($1)
				)
			ORDER BY p.id
			FOR UPDATE SKIP LOCKED
		)
		UPDATE purchases p
		SET status = 'cancelled', updated_at = NOW()
		FROM pending
		WHERE p.id = pending.id
		RETURNING p.id
	`

	rows, err := tx.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

// LockPendingForTicket 依 id 順序鎖住佔用該號碼的 pending 購買，與確認流程的加鎖順序一致
func (r *PurchaseRepositoryImpl) LockPendingForTicket(ctx context.Context, tx pgx.Tx, ticketID int) ([]int, error) {
	query := `
		SELECT p.id
		FROM purchases p
		JOIN purchase_tickets pt ON pt.purchase_id = p.id
		WHERE pt.ticket_id = $1 AND p.status = 'pending'
		ORDER BY p.id
		FOR UPDATE OF p
	`

	rows, err := tx.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *PurchaseRepositoryImpl) CancelByIDs(ctx context.Context, tx pgx.Tx, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE purchases
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = ANY($1) AND status = 'pending'
	`, ids)
	return err
}

func (r *PurchaseRepositoryImpl) TotalCompletedSpend(ctx context.Context, q Querier, userID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM purchases
		WHERE user_id = $1 AND status = 'completed'
	`, userID).Scan(&total)
	return total, err
}

// ListTitles 依活動分組列出使用者已完成購買的號碼
func (r *PurchaseRepositoryImpl) ListTitles(ctx context.Context, userID int, campaignID *int) ([]*model.CampaignTitles, error) {
	query := `
		SELECT c.id, c.title, c.status, c.draw_date,
			ARRAY_AGG(t.ticket_number ORDER BY ` + numericOrder + `)
		FROM purchases p
		JOIN purchase_tickets pt ON pt.purchase_id = p.id
		JOIN tickets t ON t.id = pt.ticket_id
		JOIN campaigns c ON c.id = p.campaign_id
		WHERE p.user_id = $1 AND p.status = 'completed'
			AND c.status <> 'deleted'
			AND ($2::bigint IS NULL OR c.id = $2)
		GROUP BY c.id, c.title, c.status, c.draw_date
		ORDER BY c.id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := make([]*model.CampaignTitles, 0)
	for rows.Next() {
		var ct model.CampaignTitles
		if err := rows.Scan(&ct.CampaignID, &ct.CampaignTitle, &ct.Status, &ct.DrawDate, &ct.Numbers); err != nil {
			return nil, err
		}
		titles = append(titles, &ct)
	}
	return titles, rows.Err()
}

package repository

import (
	"context"
	"errors"
	"raffle-platform/internal/model"
	apperrors "raffle-platform/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// 號碼長度不一時，排序前先補齊到 12 位
const numericOrder = `LPAD(t.ticket_number, 12, '0')`

type TicketRepository interface {
	Stats(ctx context.Context, q Querier, campaignID int) (model.CampaignStats, error)
	StatsByCampaigns(ctx context.Context, campaignIDs []int) (map[int]model.CampaignStats, error)
	ListNumbers(ctx context.Context, campaignID int) ([]*model.NumberEntry, error)
	ListUnavailable(ctx context.Context, campaignID int) (*model.UnavailableNumbers, error)
	StatusByNumbers(ctx context.Context, q Querier, campaignID int, numbers []string) (map[string]model.TicketStatus, error)
	DrawCandidates(ctx context.Context, q Querier, campaignID int) ([]model.DrawCandidate, error)

	// Transaction methods
	CountByCampaign(ctx context.Context, tx pgx.Tx, campaignID int) (int, error)
	Generate(ctx context.Context, tx pgx.Tx, campaignID int, total int, width int) (int64, error)
	ClaimAvailable(ctx context.Context, tx pgx.Tx, campaignID int, numbers []string) ([]*model.Ticket, error)
	MarkReserved(ctx context.Context, tx pgx.Tx, ticketIDs []int, until time.Time) error
	MarkSold(ctx context.Context, tx pgx.Tx, ticketIDs []int) error
	Release(ctx context.Context, tx pgx.Tx, ticketIDs []int) (int64, error)
	ExpireReservations(ctx context.Context, tx pgx.Tx, now time.Time) ([]int, error)
	ExpireReservationsFor(ctx context.Context, tx pgx.Tx, campaignID int, numbers []string, now time.Time) ([]int, error)
	IDsByNumbers(ctx context.Context, tx pgx.Tx, campaignID int, numbers []string) ([]int, error)
	FindByNumberWithLock(ctx context.Context, tx pgx.Tx, campaignID int, number string) (*model.Ticket, error)
	LockWithPurchases(ctx context.Context, tx pgx.Tx, ticketID int, purchaseIDs []int) error
	SellToCustomer(ctx context.Context, tx pgx.Tx, ticketID int, name, phone string, soldBy int) (*model.Ticket, error)
	FindByPurchaseWithLock(ctx context.Context, tx pgx.Tx, purchaseID int) ([]*PurchaseTicket, error)
}

// PurchaseTicket 購買連結的號碼，HeldByOther 表示另有進行中或已完成的購買佔用
type PurchaseTicket struct {
	model.Ticket
	HeldByOther bool
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `t.id, t.campaign_id, t.ticket_number, t.status, t.reserved_until,
		t.customer_name, t.customer_phone, t.sold_by, t.created_at, t.updated_at`

func scanTicket(row scanner) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(
		&t.ID,
		&t.CampaignID,
		&t.TicketNumber,
		&t.Status,
		&t.ReservedUntil,
		&t.CustomerName,
		&t.CustomerPhone,
		&t.SoldBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func collectTickets(rows pgx.Rows) ([]*model.Ticket, error) {
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *TicketRepositoryImpl) Stats(ctx context.Context, q Querier, campaignID int) (model.CampaignStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'reserved'),
			COUNT(*) FILTER (WHERE status = 'sold')
		FROM tickets
		WHERE campaign_id = $1
	`

	var s model.CampaignStats
	err := q.QueryRow(ctx, query, campaignID).Scan(&s.Available, &s.Reserved, &s.Sold)
	return s, err
}

func (r *TicketRepositoryImpl) StatsByCampaigns(ctx context.Context, campaignIDs []int) (map[int]model.CampaignStats, error) {
	query := `
		SELECT campaign_id,
			COUNT(*) FILTER (WHERE status = 'available'),
			COUNT(*) FILTER (WHERE status = 'reserved'),
			COUNT(*) FILTER (WHERE status = 'sold')
		FROM tickets
		WHERE campaign_id = ANY($1)
		GROUP BY campaign_id
	`

	rows, err := r.pool.Query(ctx, query, campaignIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[int]model.CampaignStats, len(campaignIDs))
	for rows.Next() {
		var id int
		var s model.CampaignStats
		if err := rows.Scan(&id, &s.Available, &s.Reserved, &s.Sold); err != nil {
			return nil, err
		}
		stats[id] = s
	}
	return stats, rows.Err()
}

// ListNumbers 每個號碼附上最近一筆有效購買（pending 或 completed）的資訊
func (r *TicketRepositoryImpl) ListNumbers(ctx context.Context, campaignID int) ([]*model.NumberEntry, error) {
	query := `
		SELECT t.id, t.ticket_number, t.status, t.reserved_until,
			p.id, p.status, p.user_id, t.customer_name, t.customer_phone
		FROM tickets t
		LEFT JOIN LATERAL (
			SELECT p.id, p.status, p.user_id
			FROM purchase_tickets pt
			JOIN purchases p ON p.id = pt.purchase_id
			WHERE pt.ticket_id = t.id AND p.status IN ('pending', 'completed')
			ORDER BY p.id DESC
			LIMIT 1
		) p ON TRUE
		WHERE t.campaign_id = $1
		ORDER BY ` + numericOrder

	rows, err := r.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.NumberEntry, 0)
	for rows.Next() {
		var e model.NumberEntry
		err := rows.Scan(
			&e.TicketID,
			&e.TicketNumber,
			&e.Status,
			&e.ReservedUntil,
			&e.PurchaseID,
			&e.PurchaseStatus,
			&e.UserID,
			&e.CustomerName,
			&e.CustomerPhone,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *TicketRepositoryImpl) ListUnavailable(ctx context.Context, campaignID int) (*model.UnavailableNumbers, error) {
	query := `
		SELECT t.ticket_number, t.status
		FROM tickets t
		WHERE t.campaign_id = $1 AND t.status IN ('reserved', 'sold')
		ORDER BY ` + numericOrder

	rows, err := r.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &model.UnavailableNumbers{
		Unavailable: []string{},
		Reserved:    []string{},
		Sold:        []string{},
	}
	for rows.Next() {
		var number string
		var status model.TicketStatus
		if err := rows.Scan(&number, &status); err != nil {
			return nil, err
		}
		out.Unavailable = append(out.Unavailable, number)
		if status == model.TicketStatusSold {
			out.Sold = append(out.Sold, number)
		} else {
			out.Reserved = append(out.Reserved, number)
		}
	}
	return out, rows.Err()
}

// StatusByNumbers 不加鎖的狀態快照，不存在的號碼不會出現在結果中
func (r *TicketRepositoryImpl) StatusByNumbers(ctx context.Context, q Querier, campaignID int, numbers []string) (map[string]model.TicketStatus, error) {
	rows, err := q.Query(ctx,
		`SELECT ticket_number, status FROM tickets WHERE campaign_id = $1 AND ticket_number = ANY($2)`,
		campaignID, numbers,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[string]model.TicketStatus, len(numbers))
	for rows.Next() {
		var number string
		var status model.TicketStatus
		if err := rows.Scan(&number, &status); err != nil {
			return nil, err
		}
		statuses[number] = status
	}
	return statuses, rows.Err()
}

// DrawCandidates 已售且購買已完成的號碼，依號碼數值排序；現場售出的號碼沒有購買紀錄，不參與開獎
func (r *TicketRepositoryImpl) DrawCandidates(ctx context.Context, q Querier, campaignID int) ([]model.DrawCandidate, error) {
	query := `
		SELECT t.id, t.ticket_number, p.user_id
		FROM tickets t
		JOIN purchase_tickets pt ON pt.ticket_id = t.id
		JOIN purchases p ON p.id = pt.purchase_id AND p.status = 'completed'
		WHERE t.campaign_id = $1 AND t.status = 'sold'
		ORDER BY ` + numericOrder + `, t.id`

	rows, err := q.Query(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]model.DrawCandidate, 0)
	for rows.Next() {
		var c model.DrawCandidate
		if err := rows.Scan(&c.TicketID, &c.TicketNumber, &c.UserID); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *TicketRepositoryImpl) CountByCampaign(ctx context.Context, tx pgx.Tx, campaignID int) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE campaign_id = $1`, campaignID).Scan(&n)
	return n, err
}

// Generate 產生 0..total-1 的號碼，補零到 width
func (r *TicketRepositoryImpl) Generate(ctx context.Context, tx pgx.Tx, campaignID int, total int, width int) (int64, error) {
	query := `
		INSERT INTO tickets (campaign_id, ticket_number, status)
		SELECT $1, LPAD(n::text, $3, '0'), 'available'
		FROM generate_series(0, $2 - 1) AS n
		ON CONFLICT (campaign_id, ticket_number) DO NOTHING
	`

	tag, err := tx.Exec(ctx, query, campaignID, total, width)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ClaimAvailable 鎖定請求中仍為 available 的號碼，已被其他交易鎖住的列直接跳過
func (r *TicketRepositoryImpl) ClaimAvailable(ctx context.Context, tx pgx.Tx, campaignID int, numbers []string) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		WHERE t.campaign_id = $1 AND t.ticket_number = ANY($2) AND t.status = 'available'
		ORDER BY t.id
		FOR UPDATE SKIP LOCKED
	`

	rows, err := tx.Query(ctx, query, campaignID, numbers)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

func (r *TicketRepositoryImpl) MarkReserved(ctx context.Context, tx pgx.Tx, ticketIDs []int, until time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE tickets
		SET status = 'reserved', reserved_until = $2, updated_at = NOW()
		WHERE id = ANY($1)
	`, ticketIDs, until)
	return err
}

func (r *TicketRepositoryImpl) MarkSold(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	_, err := tx.Exec(ctx, `
		UPDATE tickets
		SET status = 'sold', reserved_until = NULL, updated_at = NOW()
		WHERE id = ANY($1)
	`, ticketIDs)
	return err
}

// Release 只把 reserved 的號碼放回 available
func (r *TicketRepositoryImpl) Release(ctx context.Context, tx pgx.Tx, ticketIDs []int) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tickets
		SET status = 'available', reserved_until = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND status = 'reserved'
	`, ticketIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExpireReservations 與 ClaimAvailable 使用相同的列鎖，正在被處理的號碼會留到下一輪
func (r *TicketRepositoryImpl) ExpireReservations(ctx context.Context, tx pgx.Tx, now time.Time) ([]int, error) {
	query := `
		WITH expired AS (
			SELECT id
			FROM tickets
			WHERE status = 'reserved' AND reserved_until < $1
			ORDER BY id
			FOR UPDATE SKIP LOCKED
		)
		UPDATE tickets t
		SET status = 'available', reserved_until = NULL, updated_at = NOW()
		FROM expired
		WHERE t.id = expired.id
		RETURNING t.id
	`

	rows, err := tx.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *TicketRepositoryImpl) ExpireReservationsFor(ctx context.Context, tx pgx.Tx, campaignID int, numbers []string, now time.Time) ([]int, error) {
	query := `
		WITH expired AS (
			SELECT id
			FROM tickets
			WHERE campaign_id = $1 AND ticket_number = ANY($2)
				AND status = 'reserved' AND reserved_until < $3
			ORDER BY id
			FOR UPDATE SKIP LOCKED
		)
		UPDATE tickets t
		SET status = 'available', reserved_until = NULL, updated_at = NOW()
		FROM expired
		WHERE t.id = expired.id
		RETURNING t.id
	`

	rows, err := tx.Query(ctx, query, campaignID, numbers, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *TicketRepositoryImpl) IDsByNumbers(ctx context.Context, tx pgx.Tx, campaignID int, numbers []string) ([]int, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM tickets WHERE campaign_id = $1 AND ticket_number = ANY($2) ORDER BY id`,
		campaignID, numbers,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *TicketRepositoryImpl) FindByNumberWithLock(ctx context.Context, tx pgx.Tx, campaignID int, number string) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		WHERE t.campaign_id = $1 AND t.ticket_number = $2
		FOR UPDATE
	`
	return scanTicket(tx.QueryRow(ctx, query, campaignID, number))
}

// LockWithPurchases 以 id 順序一次鎖住號碼本身與這些購買連結的全部號碼，
// 與 FindByPurchaseWithLock 的加鎖順序一致
func (r *TicketRepositoryImpl) LockWithPurchases(ctx context.Context, tx pgx.Tx, ticketID int, purchaseIDs []int) error {
	query := `
		SELECT t.id
		FROM tickets t
		WHERE t.id = $1
			OR t.id IN (SELECT pt.ticket_id FROM purchase_tickets pt WHERE pt.purchase_id = ANY($2))
		ORDER BY t.id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ticketID, purchaseIDs)
	if err != nil {
		return err
	}
	_, err = pgx.CollectRows(rows, pgx.RowTo[int])
	return err
}

func (r *TicketRepositoryImpl) SellToCustomer(ctx context.Context, tx pgx.Tx, ticketID int, name, phone string, soldBy int) (*model.Ticket, error) {
	query := `
		UPDATE tickets t
		SET status = 'sold', reserved_until = NULL,
			customer_name = NULLIF($2, ''), customer_phone = NULLIF($3, ''), sold_by = $4,
			updated_at = NOW()
		WHERE t.id = $1
		RETURNING ` + ticketColumns

	return scanTicket(tx.QueryRow(ctx, query, ticketID, name, phone, soldBy))
}

// FindByPurchaseWithLock 先鎖號碼，再另起一個查詢判斷是否被其他購買持有，
// 讓判斷看得到等鎖期間其他交易已提交的連結
func (r *TicketRepositoryImpl) FindByPurchaseWithLock(ctx context.Context, tx pgx.Tx, purchaseID int) ([]*PurchaseTicket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		JOIN purchase_tickets pt ON pt.ticket_id = t.id
		WHERE pt.purchase_id = $1
		ORDER BY t.id
		FOR UPDATE OF t
	`

	rows, err := tx.Query(ctx, query, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*PurchaseTicket, 0)
	ids := make([]int, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, &PurchaseTicket{Ticket: *t})
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return tickets, nil
	}

	heldQuery := `
		SELECT DISTINCT pt.ticket_id
		FROM purchase_tickets pt
		JOIN purchases p ON p.id = pt.purchase_id
		WHERE pt.ticket_id = ANY($1) AND p.id <> $2 AND p.status IN ('pending', 'completed')
	`

	heldRows, err := tx.Query(ctx, heldQuery, ids, purchaseID)
	if err != nil {
		return nil, err
	}
	heldIDs, err := pgx.CollectRows(heldRows, pgx.RowTo[int])
	if err != nil {
		return nil, err
	}

	held := make(map[int]bool, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = true
	}
	for _, t := range tickets {
		t.HeldByOther = held[t.ID]
	}
	return tickets, nil
}

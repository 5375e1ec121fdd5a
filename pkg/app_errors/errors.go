package apperrors

import "errors"

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrPrizeNotFound    = errors.New("prize not found")

	ErrCampaignNotActive       = errors.New("campaign not active")
	ErrSomeNumbersUnavailable  = errors.New("some numbers unavailable")
	ErrTicketNotAvailable      = errors.New("ticket not available")
	ErrTicketAlreadySold       = errors.New("ticket already sold")
	ErrTicketsAlreadyGenerated = errors.New("tickets already generated")
	ErrInvalidPurchaseStatus   = errors.New("invalid purchase status")
	ErrDrawNotDue              = errors.New("campaign draw not due")
	ErrConcurrentUpdate        = errors.New("concurrent update, please retry")

	ErrNoValidNumbers = errors.New("no valid numbers")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDigitWidth     = errors.New("digit width too small for ticket count")

	ErrNoSpinsAvailable = errors.New("no spins available")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")

	ErrInternalServerError = errors.New("internal server error")
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindForbidden
	KindUnauthorized
)

var kinds = map[error]Kind{
	ErrCampaignNotFound: KindNotFound,
	ErrTicketNotFound:   KindNotFound,
	ErrPurchaseNotFound: KindNotFound,
	ErrPrizeNotFound:    KindNotFound,

	ErrCampaignNotActive:       KindConflict,
	ErrSomeNumbersUnavailable:  KindConflict,
	ErrTicketNotAvailable:      KindConflict,
	ErrTicketAlreadySold:       KindConflict,
	ErrTicketsAlreadyGenerated: KindConflict,
	ErrInvalidPurchaseStatus:   KindConflict,
	ErrDrawNotDue:              KindConflict,
	ErrConcurrentUpdate:        KindConflict,

	ErrNoValidNumbers: KindInvalidInput,
	ErrInvalidInput:   KindInvalidInput,
	ErrDigitWidth:     KindInvalidInput,

	ErrNoSpinsAvailable: KindForbidden,
	ErrForbidden:        KindForbidden,
	ErrUnauthorized:     KindUnauthorized,
}

// KindOf 依 errors.Is 找出錯誤類別，未知錯誤一律視為內部錯誤
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// Sentinel 回傳 err 所對應的已知錯誤
func Sentinel(err error) (error, bool) {
	for sentinel := range kinds {
		if errors.Is(err, sentinel) {
			return sentinel, true
		}
	}
	return nil, false
}

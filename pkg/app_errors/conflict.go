package apperrors

import "fmt"

// ConflictDetail 列出請求號碼中無法取得的部分及原因
type ConflictDetail struct {
	Requested   []string `json:"requested"`
	Unavailable []string `json:"unavailable"`
	Sold        []string `json:"sold"`
	Reserved    []string `json:"reserved"`
	NotFound    []string `json:"not_found"`
}

type ConflictError struct {
	Detail ConflictDetail
}

func NewConflictError(detail ConflictDetail) *ConflictError {
	return &ConflictError{Detail: detail}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %d of %d requested", ErrSomeNumbersUnavailable.Error(), len(e.Detail.Unavailable), len(e.Detail.Requested))
}

func (e *ConflictError) Unwrap() error {
	return ErrSomeNumbersUnavailable
}

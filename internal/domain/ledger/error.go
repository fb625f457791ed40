package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedShape = errors.New("malformed remote snapshot")
	ErrRecordRejected = errors.New("record rejected")
)

// Rejection запись, не прошедшая проверку при импорте
type Rejection struct {
	Collection Collection `json:"collection"`
	Index      int        `json:"index"`
	ID         string     `json:"id,omitempty"`
	Reason     string     `json:"reason"`
}

func (r Rejection) Error() string {
	if r.ID != "" {
		return fmt.Sprintf("%s[%d] id=%s: %s", r.Collection, r.Index, r.ID, r.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", r.Collection, r.Index, r.Reason)
}

func (r Rejection) Unwrap() error {
	return ErrRecordRejected
}

func reject(reason string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRecordRejected, fmt.Sprintf(reason, args...))
}

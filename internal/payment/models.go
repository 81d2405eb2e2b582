package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Payment buys a number of PT sessions for a member.
// Invariant: recording a payment and crediting its sessions happen together.
type Payment struct {
	ID           string          `json:"id"`
	ShopID       string          `json:"shopId"`
	MemberID     string          `json:"memberId"`
	Amount       decimal.Decimal `json:"amount"`
	SessionCount int             `json:"sessionCount"`
	Method       Method          `json:"method"`
	Memo         string          `json:"memo,omitempty"`
	CreatedBy    string          `json:"createdBy"`
	PaidAt       time.Time       `json:"paidAt"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type Method string

const (
	MethodCard     Method = "card"
	MethodCash     Method = "cash"
	MethodTransfer Method = "transfer"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodCash, MethodTransfer:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidArgument = errors.New("payment: invalid argument")
	ErrMemberNotFound  = errors.New("payment: member not found in shop")
)

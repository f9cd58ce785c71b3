package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Fine struct {
	ID             string          `gorm:"primaryKey;size:32" json:"id"`
	BorrowRecordID string          `gorm:"size:32;not null;index" json:"borrowRecordId"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Reason         *string         `gorm:"size:200" json:"reason,omitempty"`
	Paid           bool            `gorm:"not null" json:"paid"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	BorrowRecord *BorrowRecord `gorm:"foreignKey:BorrowRecordID" json:"-"`
}

func (Fine) TableName() string { return "fines" }

// FinePatch carries a partial update; nil fields are left untouched.
type FinePatch struct {
	Amount *decimal.Decimal
	Reason *string
	Paid   *bool
}

func (p FinePatch) Empty() bool { return p.Amount == nil && p.Reason == nil && p.Paid == nil }

package domain

import "time"

type BorrowStatus string

const (
	BorrowActive   BorrowStatus = "ACTIVE"
	BorrowReturned BorrowStatus = "RETURNED"
)

// BorrowRecord is active while ReturnedAt is nil. ActiveKey mirrors that state as a
// nullable unique column so storage rejects a second active loan of the same pair.
type BorrowRecord struct {
	ID         string     `gorm:"primaryKey;size:32" json:"id"`
	UserID     string     `gorm:"size:32;not null;index" json:"userId"`
	BookID     string     `gorm:"size:32;not null;index" json:"bookId"`
	BorrowedAt time.Time  `gorm:"not null;index" json:"borrowedAt"`
	ReturnedAt *time.Time `gorm:"index" json:"returnedAt"`
	ActiveKey  *string    `gorm:"size:65;uniqueIndex" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (BorrowRecord) TableName() string { return "borrow_records" }

func (b *BorrowRecord) Status() BorrowStatus {
	if b.ReturnedAt == nil {
		return BorrowActive
	}
	return BorrowReturned
}

func (b *BorrowRecord) Active() bool { return b.ReturnedAt == nil }

// ActiveKeyFor is the value a record holds in active_key until it is returned.
func ActiveKeyFor(userID, bookID string) string { return userID + ":" + bookID }

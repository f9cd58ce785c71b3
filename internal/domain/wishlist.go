package domain

import "time"

type WishlistEntry struct {
	ID      string    `gorm:"primaryKey;size:32" json:"id"`
	UserID  string    `gorm:"size:32;not null;uniqueIndex:ux_wishlist_user_book" json:"userId"`
	BookID  string    `gorm:"size:32;not null;uniqueIndex:ux_wishlist_user_book;index" json:"bookId"`
	Notes   *string   `gorm:"size:500" json:"notes,omitempty"`
	AddedAt time.Time `gorm:"not null" json:"addedAt"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (WishlistEntry) TableName() string { return "wishlist_entries" }

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{&User{}, &Book{}, &BorrowRecord{}, &Fine{}, &WishlistEntry{}}
}

package domain

import "time"

type Book struct {
	ID              string    `gorm:"primaryKey;size:32" json:"id"`
	Title           string    `gorm:"size:200;not null;index" json:"title"`
	Author          string    `gorm:"size:100;not null;index" json:"author"`
	ISBN            *string   `gorm:"uniqueIndex;size:13" json:"isbn,omitempty"`
	Publisher       string    `gorm:"size:100" json:"publisher,omitempty"`
	PublishedYear   *int      `json:"publishedYear,omitempty"`
	ImageURL        string    `gorm:"size:512" json:"imageUrl,omitempty"`
	TotalCopies     int       `gorm:"not null" json:"totalCopies"`
	AvailableCopies int       `gorm:"not null" json:"availableCopies"`
	CreatedByID     *string   `gorm:"size:32;index" json:"createdById,omitempty"`
	UpdatedByID     *string   `gorm:"size:32;index" json:"updatedById,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Book) TableName() string { return "books" }

// BookFilter narrows catalog listings. Available is tri-state: nil means any.
type BookFilter struct {
	Search    string
	Author    string
	Publisher string
	Available *bool
	Offset    int
	Limit     int
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	UID          uuid.UUID `gorm:"type:uuid;primaryKey"           json:"uid"`
	Username     string    `gorm:"size:100;not null"              json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	FirstName    string    `gorm:"size:100;not null"              json:"first_name"`
	LastName     string    `gorm:"size:100;not null"              json:"last_name"`
	Role         string    `gorm:"not null;default:user"          json:"role"`
	IsVerified   bool      `gorm:"default:false"                  json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Books        []Book    `gorm:"foreignKey:UserUID;constraint:OnDelete:CASCADE" json:"books,omitempty"`
	Reviews      []Review  `gorm:"foreignKey:UserUID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UID == uuid.Nil {
		u.UID = uuid.New()
	}
	return nil
}

type Book struct {
	UID uuid.UUID `gorm:"type:uuid;primaryKey" json:"uid"`

	// Title and Author are stored uppercased and trimmed; the pair is the
	// duplicate-detection key.
	Title         string    `gorm:"size:150;not null"         json:"title"`
	Author        string    `gorm:"size:150;not null"         json:"author"`
	Publisher     string    `gorm:"size:150"                  json:"publisher"`
	PublishedDate string    `gorm:"size:30"                   json:"published_date"`
	PageCount     int       `json:"page_count"`
	Language      string    `gorm:"size:100;default:English"  json:"language"`
	UserUID       uuid.UUID `gorm:"type:uuid;index;not null"  json:"user_uid"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Reviews       []Review  `gorm:"foreignKey:BookUID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.UID == uuid.Nil {
		b.UID = uuid.New()
	}
	return nil
}

type Review struct {
	UID        uuid.UUID `gorm:"type:uuid;primaryKey"                      json:"uid"`
	Rating     int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	ReviewText string    `gorm:"not null"                                  json:"review_text"`
	UserUID    uuid.UUID `gorm:"type:uuid;index;not null"                  json:"user_uid"`
	BookUID    uuid.UUID `gorm:"type:uuid;index;not null"                  json:"book_uid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.UID == uuid.Nil {
		r.UID = uuid.New()
	}
	return nil
}

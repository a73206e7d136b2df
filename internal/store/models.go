package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account
type User struct {
	ID           string     `gorm:"primaryKey;type:text" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// AuthToken is an opaque bearer token
type AuthToken struct {
	Token     string    `gorm:"primaryKey;type:text"`
	UserID    string    `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// GameSave holds the latest save of an account. Score, day and money are
// copied out of the document so they can be queried.
type GameSave struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"uniqueIndex;not null"`
	GameState string    `gorm:"type:text;not null"`
	Score     int       `gorm:"not null;default:0"`
	Day       int       `gorm:"not null;default:1"`
	Money     int       `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaderboardEntry is one account's best results
type LeaderboardEntry struct {
	UserID        string    `gorm:"primaryKey;type:text" json:"-"`
	Username      string    `gorm:"not null" json:"username"`
	HighScore     int       `gorm:"index;not null;default:0" json:"highScore"`
	TotalHarvests int       `gorm:"not null;default:0" json:"totalHarvests"`
	BestDay       int       `gorm:"not null;default:0" json:"bestDay"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}

// RankedEntry is a leaderboard row with its position
type RankedEntry struct {
	Rank int `json:"rank"`
	LeaderboardEntry
}

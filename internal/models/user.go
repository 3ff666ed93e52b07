// Package models holds the GORM models shared by the API, the ingestion
// pipeline and the CLI.
package models

import "time"

// User owns every other record. PasswordHash is never serialized.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Profile fields, all optional. Used for the energy estimate.
	Sex           *string   `json:"sex"`
	DateOfBirth   *DateOnly `json:"dateOfBirth"`
	HeightCM      *float64  `gorm:"column:height_cm" json:"heightCm"`
	ActivityLevel *string   `json:"activityLevel"`

	Sessions      []Session      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	DailyLogs     []DailyLog     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BodyMetrics   []BodyMetric   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Goals         []Goal         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MealTemplates []MealTemplate `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// Session stores hashes of an access/refresh token pair issued at login.
type Session struct {
	ID               uint      `gorm:"primaryKey"`
	UserID           uint      `gorm:"not null;index"`
	AccessHash       string    `gorm:"not null;uniqueIndex"`
	RefreshHash      string    `gorm:"not null;uniqueIndex"`
	AccessExpiresAt  time.Time `gorm:"not null"`
	RefreshExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt        time.Time
}

func (Session) TableName() string { return "sessions" }

package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string
	Email           *string `gorm:"uniqueIndex"`
	PasswordHash    string
	IsAnonymous     bool   `gorm:"not null;index:idx_users_device,priority:3"`
	DeviceID        string `gorm:"index:idx_users_device,priority:1"`
	Platform        string `gorm:"index:idx_users_device,priority:2"`
	AuthenticatedAt *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type AssistantModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Category     string `gorm:"not null"`
	Description  string `gorm:"type:text"`
	IsActive     bool   `gorm:"not null;index"`
	AppType      string `gorm:"not null;index"`
	PromptConfig datatypes.JSON `gorm:"type:jsonb"`
	OutputFormat datatypes.JSON `gorm:"type:jsonb"`
	AppSettings  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type ThreadModel struct {
	ID          string         `gorm:"primaryKey"`
	UserID      string         `gorm:"not null;index"`
	AssistantID string         `gorm:"not null;index"`
	Title       string         `gorm:"not null"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null;index"`
}

type MessageModel struct {
	ID        string    `gorm:"primaryKey"`
	ThreadID  string    `gorm:"not null;index:idx_messages_thread_card,priority:1"`
	CardID    string    `gorm:"index:idx_messages_thread_card,priority:2"`
	Sender    string    `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ChatMessage struct {
	Text      string    `json:"text"`
	IsBot     bool      `json:"is_bot"`
	Timestamp time.Time `json:"timestamp"`
	Image     *string   `json:"image,omitempty"` // base64-encoded blob
}

// ChatMessages is stored as a single JSON column. Updates replace the whole
// list; there is no per-message mutation path.
type ChatMessages []ChatMessage

func (m ChatMessages) Value() (driver.Value, error) {
	if m == nil {
		m = ChatMessages{}
	}
	return json.Marshal(m)
}

func (m *ChatMessages) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = ChatMessages{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("chat messages: cannot scan %T", src)
	}
}

// ChatSession is owned by exactly one user. Every access path filters on
// user_id, so a foreign session is indistinguishable from a missing one.
type ChatSession struct {
	ID        uint64       `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string       `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID    uint64       `gorm:"index;not null" json:"-"`
	Title     string       `gorm:"type:varchar(255);not null" json:"title"`
	Messages  ChatMessages `gorm:"type:json" json:"messages"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

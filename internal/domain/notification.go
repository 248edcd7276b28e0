package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Notification types produced by the application.
const (
	NotificationTypeTaskUpdated = "task_updated"
)

// NotificationData is the free-form payload of a notification. It is stored
// as JSON text.
type NotificationData map[string]any

// Value implements driver.Valuer.
func (d NotificationData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding notification data: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *NotificationData) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = NotificationData{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into NotificationData", src)
	}
	out := NotificationData{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decoding notification data: %w", err)
	}
	*d = out
	return nil
}

// Notification is a message addressed to one user. A nil ReadAt means unread.
type Notification struct {
	ID        int64            `json:"id"         db:"id"`
	UserID    int64            `json:"user_id"    db:"user_id"`
	Type      string           `json:"type"       db:"type"`
	Data      NotificationData `json:"data"       db:"data"`
	ReadAt    *time.Time       `json:"read_at"    db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NotificationSnapshot identifies a deleted notification.
type NotificationSnapshot struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
}

// Snapshot returns the identifying subset of n.
func (n *Notification) Snapshot() NotificationSnapshot {
	return NotificationSnapshot{ID: n.ID, Type: n.Type, UserID: n.UserID}
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxCommentLength bounds comment content.
const MaxCommentLength = 5000

// snapshotContentLength is how much content a deleted-comment snapshot keeps.
const snapshotContentLength = 50

// Comment is a note attached to a task.
type Comment struct {
	ID        int64     `json:"id"         db:"id"`
	TaskID    int64     `json:"task_id"    db:"task_id"`
	UserID    *int64    `json:"user_id"    db:"user_id"`
	Content   string    `json:"content"    db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CommentSnapshot identifies a deleted comment.
type CommentSnapshot struct {
	ID      int64  `json:"id"`
	TaskID  int64  `json:"task_id"`
	Content string `json:"content"`
}

// Snapshot returns the identifying subset of c with content shortened to
// 50 characters followed by "...".
func (c *Comment) Snapshot() CommentSnapshot {
	content := c.Content
	if utf8.RuneCountInString(content) > snapshotContentLength {
		content = string([]rune(content)[:snapshotContentLength]) + "..."
	}
	return CommentSnapshot{ID: c.ID, TaskID: c.TaskID, Content: content}
}

// CommentInput carries comment content.
type CommentInput struct {
	Content string `json:"content"`
}

// Validate checks the content.
func (in CommentInput) Validate() error {
	v := &ValidationError{}
	trimmed := strings.TrimSpace(in.Content)
	switch {
	case trimmed == "":
		v.Add("content", "The content field is required.")
	case utf8.RuneCountInString(trimmed) > MaxCommentLength:
		v.Add("content", "The content may not be greater than 5000 characters.")
	}
	return v.Err()
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TaskType string

const (
	TaskTypeMeme   TaskType = "meme"
	TaskTypeText   TaskType = "text"
	TaskTypeRepost TaskType = "repost"
	TaskTypePromo  TaskType = "promo"
)

type TaskStatus string

const (
	TaskStatusPending        TaskStatus = "pending"
	TaskStatusAwaitingReview TaskStatus = "awaiting_review"
	TaskStatusApproved       TaskStatus = "approved"
	TaskStatusDeclined       TaskStatus = "declined"
)

type Task struct {
	bun.BaseModel  `bun:"table:tasks"`
	ID             int64      `bun:"task_id,pk,autoincrement" json:"task_id"`
	UserID         int64      `bun:"user_id" json:"user_id"`
	Type           TaskType   `bun:"task_type" json:"task_type"`
	Status         TaskStatus `bun:"status,default:'pending'" json:"status"`
	Description    string     `bun:"task_description" json:"task_description"`
	TemplateID     *int64     `bun:"template_id" json:"template_id"`
	OfferID        *int64     `bun:"offer_id" json:"offer_id"`
	ScreenshotPath *string    `bun:"screenshot_path" json:"screenshot_path"`
	CreatedAt      time.Time  `bun:"created_at" json:"created_at"`
}

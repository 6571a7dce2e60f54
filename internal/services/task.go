package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"ambpromo/internal/datastore"
	"ambpromo/internal/interfaces"
	"ambpromo/internal/models"
)

var ErrNoTemplates = errors.New("no templates available")
var ErrNoPendingTask = errors.New("no pending task")

type ServiceTask struct {
	db       *bun.DB
	notifier interfaces.Notifier
}

func NewServiceTask(container *do.Injector) (*ServiceTask, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	return &ServiceTask{db, notifier}, nil
}

// IssueMemeTask hands the user a random meme template to repost.
func (service *ServiceTask) IssueMemeTask(ctx context.Context, userID int64) (*models.Task, *models.MemeTemplate, error) {
	tpl, err := datastore.GetRandomMemeTemplate(ctx, service.db)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, nil, ErrNoTemplates
		}
		return nil, nil, errorx.Wrap(err, errorx.Service)
	}

	tplID := tpl.ID
	task := &models.Task{
		UserID:      userID,
		Type:        models.TaskTypeMeme,
		Status:      models.TaskStatusPending,
		Description: fmt.Sprintf("meme:%d", tpl.ID),
		TemplateID:  &tplID,
	}
	task, err = datastore.CreateTask(ctx, service.db, task)
	if err != nil {
		return nil, nil, errorx.Wrap(err, errorx.Service)
	}

	return task, tpl, nil
}

// IssueTextTask hands the user a random text template to repost.
func (service *ServiceTask) IssueTextTask(ctx context.Context, userID int64) (*models.Task, *models.TextTemplate, error) {
	tpl, err := datastore.GetRandomTextTemplate(ctx, service.db)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, nil, ErrNoTemplates
		}
		return nil, nil, errorx.Wrap(err, errorx.Service)
	}

	tplID := tpl.ID
	task := &models.Task{
		UserID:      userID,
		Type:        models.TaskTypeText,
		Status:      models.TaskStatusPending,
		Description: fmt.Sprintf("text:%d", tpl.ID),
		TemplateID:  &tplID,
	}
	task, err = datastore.CreateTask(ctx, service.db, task)
	if err != nil {
		return nil, nil, errorx.Wrap(err, errorx.Service)
	}

	return task, tpl, nil
}

// IssueRepostTask opens a repost task: the user shares their own invite
// link in one of the suggested chats.
func (service *ServiceTask) IssueRepostTask(ctx context.Context, userID int64) (*models.Task, error) {
	task := &models.Task{
		UserID:      userID,
		Type:        models.TaskTypeRepost,
		Status:      models.TaskStatusPending,
		Description: "repost",
	}
	task, err := datastore.CreateTask(ctx, service.db, task)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return task, nil
}

// SuggestChats picks chats where the user can repost.
func (service *ServiceTask) SuggestChats(ctx context.Context) ([]string, error) {
	chats, err := datastore.GetRandomAllowedChats(ctx, service.db, REPOST_CHAT_SUGGESTIONS)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	usernames := make([]string, 0, len(chats))
	for _, chat := range chats {
		usernames = append(usernames, "@"+chat.Username)
	}
	return usernames, nil
}

// SubmitScreenshot attaches proof to the user's latest pending task and
// moves it into review.
func (service *ServiceTask) SubmitScreenshot(ctx context.Context, userID int64, path string) (*models.Task, error) {
	task, err := datastore.FindLatestPendingTask(ctx, service.db, userID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, ErrNoPendingTask
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if err := datastore.AttachScreenshot(ctx, service.db, task.ID, path); err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	task.Status = models.TaskStatusAwaitingReview
	task.ScreenshotPath = &path

	return task, nil
}

// Cancel removes the user's latest pending task.
func (service *ServiceTask) Cancel(ctx context.Context, userID int64) (bool, error) {
	cancelled, err := datastore.CancelLatestPendingTask(ctx, service.db, userID)
	if err != nil {
		return false, errorx.Wrap(err, errorx.Service)
	}
	return cancelled, nil
}

// NextReview returns the oldest submission waiting for an admin.
func (service *ServiceTask) NextReview(ctx context.Context) (*models.Task, error) {
	task, err := datastore.FindOldestAwaitingReview(ctx, service.db)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, errorx.Wrap(errors.New("no tasks awaiting review"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return task, nil
}

// Approve settles a submission and notifies the owner.
func (service *ServiceTask) Approve(ctx context.Context, taskID int64) (*models.Task, error) {
	task, err := datastore.ApproveTask(ctx, service.db, taskID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, errorx.Wrap(errors.New("task not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	//nolint:errcheck
	service.notifier.Notify(ctx, task.UserID, "✅ Your task was approved. Thanks for spreading the word!")

	return task, nil
}

// Decline settles a submission without credit and notifies the owner.
func (service *ServiceTask) Decline(ctx context.Context, taskID int64) (*models.Task, error) {
	task, err := datastore.DeclineTask(ctx, service.db, taskID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return nil, errorx.Wrap(errors.New("task not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	//nolint:errcheck
	service.notifier.Notify(ctx, task.UserID, "❌ Your task submission was declined. You can pick a new task anytime.")

	return task, nil
}

// DescribeTask renders a short admin-facing summary.
func DescribeTask(task *models.Task, owner *models.User) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task #%d (%s) from %s\n", task.ID, task.Type, owner.DisplayName())
	fmt.Fprintf(&sb, "Status: %s\n", task.Status)
	if task.Description != "" {
		fmt.Fprintf(&sb, "Details: %s\n", task.Description)
	}
	return sb.String()
}

package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/metrics"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"
	"virtualwardrobe/suggestion"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
)

const (
	TypeDeleteBlob     = "storage:delete_blob"
	TypeAnalyzeItem    = "wardrobe:analyze_item"
	TypeOutfitReminder = "reminder:daily_outfit"

	QueueDefault  = "default"
	QueueAnalysis = "analysis"

	// 08:00 every day, scheduler location
	OutfitReminderCron = "0 8 * * *"

	maxAnalysisAttempts = 3
)

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type DeleteBlobPayload struct {
	Key string `json:"key"`
}

type AnalyzeItemPayload struct {
	ItemID string `json:"item_id"`
}

func NewDeleteBlobTask(key string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeleteBlobPayload{Key: key})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeleteBlob, payload), nil
}

func NewAnalyzeItemTask(itemID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AnalyzeItemPayload{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAnalyzeItem, payload), nil
}

func NewOutfitReminderTask() *asynq.Task {
	return asynq.NewTask(TypeOutfitReminder, nil)
}

func EnqueueDeleteBlob(ctx context.Context, enqueuer Enqueuer, key string) error {
	task, err := NewDeleteBlobTask(key)
	if err != nil {
		return err
	}
	_, err = enqueuer.EnqueueContext(ctx, task, asynq.MaxRetry(10), asynq.Queue(QueueDefault), asynq.ProcessIn(5*time.Second))
	return err
}

func EnqueueAnalyzeItem(ctx context.Context, enqueuer Enqueuer, itemID string) error {
	task, err := NewAnalyzeItemTask(itemID)
	if err != nil {
		return err
	}
	_, err = enqueuer.EnqueueContext(ctx, task, asynq.MaxRetry(maxAnalysisAttempts), asynq.Queue(QueueAnalysis))
	return err
}

type ItemAnalyzer interface {
	AnalyzeItem(ctx context.Context, image []byte, mimeType string) (*models.ItemAttributes, error)
}

type ItemRepository interface {
	FindItem(ctx context.Context, id string) (*models.WardrobeItem, error)
	UpdateAnalysis(ctx context.Context, id string, update models.AnalysisUpdate) error
}

type ReminderRecipients interface {
	OwnersWithoutLogOn(ctx context.Context, date string) ([]string, error)
}

type PushNotifier interface {
	Notify(ctx context.Context, userID, title, body string, data map[string]string) (int, error)
}

// Handlers holds the collaborators of every background task.
type Handlers struct {
	Blobs      services.ObjectStore
	Items      ItemRepository
	Analyzer   ItemAnalyzer
	Recipients ReminderRecipients
	Notifier   PushNotifier
	Logger     logging.Logger
	Now        func() time.Time
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDeleteBlob, h.HandleDeleteBlob)
	mux.HandleFunc(TypeAnalyzeItem, h.HandleAnalyzeItem)
	mux.HandleFunc(TypeOutfitReminder, h.HandleOutfitReminder)
}

func record(taskType string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.TasksProcessed.WithLabelValues(taskType, result).Inc()
}

func (h *Handlers) HandleDeleteBlob(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { record(TypeDeleteBlob, err) }()

	var payload DeleteBlobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Key == "" {
		return fmt.Errorf("invalid delete blob payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.Blobs.Delete(ctx, payload.Key); err != nil && !errors.Is(err, services.ErrObjectNotFound) {
		h.Logger.Warn("blob delete failed", logging.Fields{"key": payload.Key, "error": err})
		return err
	}
	h.Logger.Info("blob deleted", logging.Fields{"key": payload.Key})
	return nil
}

func (h *Handlers) HandleAnalyzeItem(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { record(TypeAnalyzeItem, err) }()

	var payload AnalyzeItemPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ItemID == "" {
		return fmt.Errorf("invalid analyze item payload: %v: %w", err, asynq.SkipRetry)
	}

	item, err := h.Items.FindItem(ctx, payload.ItemID)
	if errors.Is(err, repository.ErrNotFound) {
		h.Logger.Info("item deleted before analysis", logging.Fields{"item_id": payload.ItemID})
		return nil
	}
	if err != nil {
		return err
	}

	key, err := suggestion.ObjectKey(*item)
	if err != nil {
		return h.saveAnalysisFail(ctx, item, err, false)
	}
	info, err := h.Blobs.Stat(ctx, key)
	if err != nil {
		return h.saveAnalysisFail(ctx, item, err, !errors.Is(err, services.ErrObjectNotFound))
	}
	data, err := h.Blobs.Download(ctx, key)
	if err != nil {
		return h.saveAnalysisFail(ctx, item, err, true)
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	attributes, err := h.Analyzer.AnalyzeItem(ctx, data, contentType)
	if err != nil {
		retryable := true
		if appErr, ok := apperrors.As(err); ok {
			retryable = appErr.Retryable
		}
		return h.saveAnalysisFail(ctx, item, err, retryable)
	}

	err = h.Items.UpdateAnalysis(ctx, item.ID, models.AnalysisUpdate{
		Status:     models.AnalysisCompleted,
		RetryTimes: item.AnalysisRetryTimes,
		Attributes: attributes,
	})
	if errors.Is(err, repository.ErrNotFound) {
		h.Logger.Info("item deleted during analysis", logging.Fields{"item_id": item.ID})
		return nil
	}
	if err != nil {
		return err
	}
	h.Logger.Info("item analyzed", logging.Fields{"item_id": item.ID})
	return nil
}

// saveAnalysisFail records the failure on the item. It returns an error, so
// asynq retries, only while attempts remain and the failure is retryable.
func (h *Handlers) saveAnalysisFail(ctx context.Context, item *models.WardrobeItem, cause error, shouldRetry bool) error {
	update := models.AnalysisUpdate{
		Status:       models.AnalysisFailed,
		RetryTimes:   item.AnalysisRetryTimes + 1,
		ErrorMessage: services.StrPointer(cause.Error()),
	}
	retry := shouldRetry && update.RetryTimes < maxAnalysisAttempts
	if retry {
		update.Status = models.AnalysisPending
	} else {
		sentry.CaptureException(fmt.Errorf("[Item %s] analysis failed: %w", item.ID, cause))
	}
	if err := h.Items.UpdateAnalysis(ctx, item.ID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	h.Logger.Warn("item analysis failed", logging.Fields{
		"item_id": item.ID,
		"attempt": update.RetryTimes,
		"retry":   retry,
		"error":   cause,
	})
	if retry {
		return cause
	}
	return nil
}

func (h *Handlers) HandleOutfitReminder(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { record(TypeOutfitReminder, err) }()

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	date := now().Format(models.CalendarDateLayout)
	userIDs, err := h.Recipients.OwnersWithoutLogOn(ctx, date)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Outfit Reminder] Error fetching users: %w", err))
		return err
	}

	sent := 0
	for _, userID := range userIDs {
		delivered, err := h.Notifier.Notify(ctx, userID,
			"What are you wearing today?",
			"Log today's outfit to keep your style calendar up to date.",
			map[string]string{"type": "outfit_reminder", "date": date},
		)
		if err != nil {
			h.Logger.Error("outfit reminder failed", logging.Fields{"user_id": userID, "error": err})
			sentry.CaptureException(fmt.Errorf("[Outfit Reminder] Failed to send to user %s: %w", userID, err))
			continue
		}
		sent += delivered
	}
	h.Logger.Info("outfit reminders sent", logging.Fields{"date": date, "users": len(userIDs), "devices": sent})
	return nil
}

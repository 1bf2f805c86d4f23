// messages.go — тексты уведомлений (ключ перевода + английский оригинал).
package service

import "github.com/bigkaa/pottd-feedback/internal/domain/model"

// message — уведомление без аргументов.
type message struct {
	key  string
	text string
}

var (
	msgMissingFields   = message{"notify.missing_fields", "Please fill in all required fields"}
	msgInvalidFields   = message{"notify.invalid_fields", "Please choose a valid category and a rating from 1 to 5"}
	msgSubmitted       = message{"notify.submitted", "Feedback submitted successfully!"}
	msgSubmitFailed    = message{"notify.submit_failed", "Failed to submit feedback"}
	msgUpdated         = message{"notify.updated", "Feedback updated successfully!"}
	msgUpdateFailed    = message{"notify.update_failed", "Failed to update feedback"}
	msgDeleted         = message{"notify.deleted", "Feedback deleted successfully!"}
	msgDeleteFailed    = message{"notify.delete_failed", "Failed to delete feedback"}
	msgFetchFailed     = message{"notify.fetch_failed", "Failed to fetch feedback data"}
	msgConnection      = message{"notify.connection_error", "Error connecting to server"}
	msgNotFound        = message{"notify.not_found", "Feedback not found"}
	msgImagesDisabled  = message{"notify.images_disabled", "Image uploads are disabled"}
	msgImageRejected   = message{"notify.image_rejected", "Failed to upload image"}
	msgModerateInvalid = message{"notify.moderate_invalid", "Unknown moderation action"}
)

// moderationSuccess — сообщения об успешной модерации по действию.
var moderationSuccess = map[model.Action]message{
	model.ActionApprove: {"notify.approved", "Feedback approved successfully!"},
	model.ActionReject:  {"notify.rejected", "Feedback rejected successfully!"},
	model.ActionFlag:    {"notify.flagged", "Feedback flagged for review!"},
}

// Ключ и шаблон ошибки модерации; аргумент — действие.
const (
	keyModerateFailed  = "notify.moderate_failed"
	textModerateFailed = "Failed to %s feedback"
)

package services

import (
	"context"
	"fmt"

	"virtualwardrobe/logging"
	"virtualwardrobe/models"

	"firebase.google.com/go/v4/messaging"
)

type MessageSender interface {
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

type PushTokenStore interface {
	ActivePushTokens(ctx context.Context, userID string) ([]models.UserPushToken, error)
	DeactivatePushToken(ctx context.Context, token string) error
}

// Notifier sends FCM pushes to every active device of a user.
type Notifier struct {
	Sender MessageSender
	Tokens PushTokenStore
	Logger logging.Logger
}

func stringMapToInterfaceMap(stringMap map[string]string) map[string]interface{} {
	interfaceMap := make(map[string]interface{}, len(stringMap))
	for key, value := range stringMap {
		interfaceMap[key] = value
	}
	return interfaceMap
}

func buildMessage(token models.UserPushToken, title, body string, data map[string]string) *messaging.Message {
	return &messaging.Message{
		Token: token.Token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: title, Body: body},
					Sound: "default",
				},
				CustomData: stringMapToInterfaceMap(data),
			},
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "wardrobe-reminders",
			},
		},
	}
}

// Notify returns the number of devices that accepted the push. Tokens that
// FCM reports as unregistered are deactivated.
func (n *Notifier) Notify(ctx context.Context, userID, title, body string, data map[string]string) (int, error) {
	tokens, err := n.Tokens.ActivePushTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, buildMessage(token, title, body, data))
	}
	batch, err := n.Sender.SendEach(ctx, messages)
	if err != nil {
		return 0, fmt.Errorf("send push: %w", err)
	}

	for i, resp := range batch.Responses {
		if resp == nil || resp.Success {
			continue
		}
		n.Logger.Warn("push delivery failed", logging.Fields{"user_id": userID, "error": resp.Error})
		if messaging.IsRegistrationTokenNotRegistered(resp.Error) {
			if err := n.Tokens.DeactivatePushToken(ctx, tokens[i].Token); err != nil {
				n.Logger.Error("failed to deactivate push token", logging.Fields{"user_id": userID, "error": err})
			}
		}
	}
	return batch.SuccessCount, nil
}

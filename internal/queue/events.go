package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the notification stream
const (
	EventNotificationCreated = "notification_created"
)

// Stream names
const (
	StreamNotifications = "stream:notifications"
)

// Consumer group name for push delivery workers
const (
	ConsumerGroupPush = "push_workers"
)

// NotificationEvent represents an event published to the notification
// stream. The DB row is already committed when the event is published; the
// event only drives asynchronous web-push delivery.
type NotificationEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	NotificationID int64  `json:"notification_id"`
	RecipientID    int64  `json:"recipient_id"`
	NotifType      string `json:"notif_type"` // model.Notification* constant
	Title          string `json:"title"`
	Message        string `json:"message"`
}

// NewNotificationCreatedEvent creates an event for a freshly inserted
// notification row. The worker fans it out to the recipient's push
// subscriptions.
func NewNotificationCreatedEvent(notificationID, recipientID int64, notifType, title, message string) NotificationEvent {
	return NotificationEvent{
		Type:           EventNotificationCreated,
		Timestamp:      time.Now().Unix(),
		NotificationID: notificationID,
		RecipientID:    recipientID,
		NotifType:      notifType,
		Title:          title,
		Message:        message,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e NotificationEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseNotificationEvent parses a NotificationEvent from Redis stream message values.
func ParseNotificationEvent(values map[string]interface{}) (NotificationEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return NotificationEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event NotificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return NotificationEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

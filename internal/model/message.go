package model

import "time"

// RemoteMessage is a push notification. Data is an opaque key-value map.
type RemoteMessage struct {
	ID     string            `json:"message_id"`
	Topic  string            `json:"topic,omitempty"`
	Title  string            `json:"title,omitempty"`
	Body   string            `json:"body,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt time.Time         `json:"sent_at"`
}

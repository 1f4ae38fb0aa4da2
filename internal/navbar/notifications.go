package navbar

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationPromo   NotificationType = "promo"
	NotificationInfo    NotificationType = "info"
	NotificationOther   NotificationType = "other"
)

type Notification struct {
	ID        int              `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	Timestamp time.Time        `json:"timestamp"`
}

// NotificationIcon maps a type to its badge glyph. Unknown types share the
// generic one.
func NotificationIcon(t NotificationType) string {
	switch t {
	case NotificationSuccess:
		return "✅"
	case NotificationPromo:
		return "🎉"
	case NotificationInfo:
		return "ℹ️"
	default:
		return "📢"
	}
}

// FormatRelativeTime renders how long before now t happened, truncating to
// whole minutes, hours or days.
func FormatRelativeTime(now, t time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}

func unreadCount(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}

package session

import "time"

// NotificationType classifies a notification for display.
type NotificationType string

const (
	NotificationDiscovery NotificationType = "discovery"
	NotificationLevelUp   NotificationType = "level_up"
	NotificationSpecial   NotificationType = "special"
)

// Notification is a transient message for the player. Expiry is up to the
// consumer; the controller only bounds how many it keeps.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Points    *int             `json:"points,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Titles of the notifications the controller emits.
const (
	TitleNoMatch      = "No Combination Found"
	TitleRecognized   = "Pattern Recognized!"
	TitleDiscovery    = "New Discovery!"
	TitleLevelUp      = "Level Up!"
	TitleUnlock       = "Special Feature Unlocked!"
	TitleUniverse     = "🌟 UNIVERSE UNLOCKED!"
	TitleMysterySolve = "🎁 Daily Mystery Solved!"
)

// pushNotifications prepends ns (oldest first) and keeps at most window.
func pushNotifications(list []Notification, window int, ns ...Notification) []Notification {
	out := make([]Notification, 0, len(list)+len(ns))
	for i := len(ns) - 1; i >= 0; i-- {
		out = append(out, ns[i])
	}
	out = append(out, list...)
	if window > 0 && len(out) > window {
		out = out[:window]
	}
	return out
}

func pointsPtr(p int) *int {
	return &p
}

package form

import (
	"github.com/rs/zerolog"

	"invoiceform/internal/logger"
)

// Level tells the notification surface how to style a message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a short-lived message with a primary and a secondary line.
type Notification struct {
	Level  Level
	Title  string
	Detail string
}

// Notifications shown after a save.
var (
	SavedNotification = Notification{
		Level:  LevelSuccess,
		Title:  "Invoice created successfully!",
		Detail: "Your invoice has been created.",
	}
	SaveFailedNotification = Notification{
		Level:  LevelError,
		Title:  "Failed to create invoice.",
		Detail: "Please try again.",
	}
)

// Notifier presents notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to the log. Used by non-interactive commands.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.WithComponent("notify")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(note Notification) {
	ev := n.log.Info()
	if note.Level == LevelError {
		ev = n.log.Warn()
	}
	ev.Str("detail", note.Detail).Msg(note.Title)
}

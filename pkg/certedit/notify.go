package certedit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
)

type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

// Notifier surfaces messages to the person using the editor.
type Notifier interface {
	Notify(n Notification)
}

// NotificationLog keeps notifications until a client drains them.
type NotificationLog struct {
	mu    sync.Mutex
	items []Notification
}

func (l *NotificationLog) Notify(n Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, n)
}

func (l *NotificationLog) Drain() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.items
	l.items = nil
	return out
}

// LoggerNotifier forwards notifications to a zap logger, used by the CLI.
type LoggerNotifier struct {
	Logger *zap.SugaredLogger
}

func (n LoggerNotifier) Notify(note Notification) {
	if note.Level == NotifyError {
		n.Logger.Error(note.Message)
		return
	}
	n.Logger.Info(note.Message)
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(n Notification) {
	for _, x := range m {
		x.Notify(n)
	}
}

func MultiNotifier(ns ...Notifier) Notifier {
	return multiNotifier(ns)
}

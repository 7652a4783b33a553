package ports

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ParseLevel maps engine toast types onto a Level. Unknown types are info.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelSuccess, LevelWarning, LevelError:
		return Level(s)
	case "warn":
		return LevelWarning
	default:
		return LevelInfo
	}
}

// Notification is a single user-facing message.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier delivers notifications. Notify must not block on user interaction.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// NopNotifier discards everything.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

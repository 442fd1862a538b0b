package pipeline

import "context"

// Level is the severity of a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a user-visible outcome of a trigger or upload.
type Notice struct {
	Level    Level
	Relation Relation
	Kind     ErrorKind
	Message  string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Notice) {}

package tracker

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notification is a one-shot message for the user.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

func notifyError(n Notifier, title string, err error) {
	n.Notify(Notification{Kind: Error, Title: title, Message: err.Error()})
}

package auth

type Variant string

const (
	VariantDefault     Variant = ""
	VariantDestructive Variant = "destructive"
)

// Notice is a transient message for the user, rendered as a toast.
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant,omitempty"`
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

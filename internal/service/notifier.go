package service

// Notification is the in-app event pushed to connected clients when a
// request needs attention or reaches a decision. Email delivery hangs off
// the same payload but lives outside this backend.
type Notification struct {
	Event         string `json:"event"`
	FormType      string `json:"form_type"`
	RequestID     string `json:"request_id"`
	RequestNo     string `json:"request_no"`
	Status        string `json:"status"`
	ApproverID    string `json:"approver_id,omitempty"`
	ApproverEmail string `json:"approver_email,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Notification event names
const (
	EventApprovalRequested = "approval_requested"
	EventRequestCompleted  = "request_completed"
	EventRequestDeclined   = "request_declined"
	EventRequestReturned   = "request_returned"
	EventRequestCancelled  = "request_cancelled"
)

// Notifier delivers notifications best-effort; failures must never block
// or roll back the request transition that produced them.
type Notifier interface {
	Notify(n Notification)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Notification) {}

// NopNotifier is used in tests and when no hub is wired.
func NopNotifier() Notifier { return noopNotifier{} }

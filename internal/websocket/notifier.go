package websocket

import (
	"encoding/json"

	"backend/internal/service"

	"go.uber.org/zap"
)

// HubNotifier pushes request lifecycle notifications to all connected
// clients through the hub's broadcast channel.
type HubNotifier struct {
	hub *Hub
	log *zap.Logger
}

func NewHubNotifier(hub *Hub, log *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, log: log}
}

// Notify marshals the event and hands it to the hub. Delivery is
// best-effort; a full broadcast channel never blocks the caller.
func (n *HubNotifier) Notify(event service.Notification) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Error("failed to marshal notification", zap.Error(err))
		return
	}
	select {
	case n.hub.Broadcast <- payload:
	default:
		n.log.Warn("notification dropped: broadcast channel full",
			zap.String("event", event.Event),
			zap.String("request_no", event.RequestNo))
	}
}

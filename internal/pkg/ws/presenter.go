package ws

const (
	EventOpenView  = "OPEN_VIEW"
	EventCloseView = "CLOSE_VIEW"
	// EventViewClosed is sent by the client.
	EventViewClosed = "VIEW_CLOSED"
)

// ViewEvent asks the connected client to open or close a wallet view.
type ViewEvent struct {
	Type string `json:"type"`
	Url  string `json:"url,omitempty"`
}

// Presenter shows wallet views by notifying the websocket clients of a topic.
type Presenter struct {
	hub   *WebSocketNotificationHub
	topic string
}

func (hub *WebSocketNotificationHub) Presenter(topic string) *Presenter {
	return &Presenter{hub: hub, topic: topic}
}

func (p *Presenter) Present(url string) error {
	if p.hub.Publish(p.topic, ViewEvent{Type: EventOpenView, Url: url}) == 0 {
		return ErrNoListener
	}
	return nil
}

func (p *Presenter) Dismiss() {
	p.hub.Publish(p.topic, ViewEvent{Type: EventCloseView})
}

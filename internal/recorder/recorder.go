package recorder

// MessageEvent records a push message seen by the client.
type MessageEvent struct {
	MessageID string
	Topic     string
	Title     string
	Opened    bool // true when the message opened the app
	Data      map[string]string
}

// PurchaseEvent records a purchase update from the billing gateway.
type PurchaseEvent struct {
	Token    string
	OrderID  string
	SKU      string
	State    string
	Consumed bool
}

// PurchaseErrorEvent records a purchase error from the billing gateway.
type PurchaseErrorEvent struct {
	Code    string
	Message string
	SKU     string
}

// Recorder journals gateway events for later analysis.
type Recorder interface {
	RecordMessage(evt *MessageEvent) error
	RecordPurchase(evt *PurchaseEvent) error
	RecordPurchaseError(evt *PurchaseErrorEvent) error
	Close() error
}

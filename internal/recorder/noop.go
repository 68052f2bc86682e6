package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordMessage(_ *MessageEvent) error             { return nil }
func (n *NoopRecorder) RecordPurchase(_ *PurchaseEvent) error           { return nil }
func (n *NoopRecorder) RecordPurchaseError(_ *PurchaseErrorEvent) error { return nil }
func (n *NoopRecorder) Close() error                                    { return nil }

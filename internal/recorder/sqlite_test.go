package recorder

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func countRows(t *testing.T, r *SQLiteRecorder, table string) int {
	t.Helper()
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestSQLiteRecorder_RecordsEvents(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "events.db"), logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if err := r.RecordMessage(&MessageEvent{
		MessageID: "m1", Topic: "new_signals", Title: "BTC/USDT long",
		Data: map[string]string{"signal_id": "1"},
	}); err != nil {
		t.Fatalf("record message: %v", err)
	}
	if err := r.RecordPurchase(&PurchaseEvent{
		Token: "tok", OrderID: "o1", SKU: "pro_monthly", State: "purchased", Consumed: true,
	}); err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if err := r.RecordPurchaseError(&PurchaseErrorEvent{
		Code: "item_unavailable", Message: "unknown sku", SKU: "gold",
	}); err != nil {
		t.Fatalf("record purchase error: %v", err)
	}

	for _, table := range []string{"messages", "purchases", "purchase_errors"} {
		if n := countRows(t, r, table); n != 1 {
			t.Errorf("%s: expected 1 row, got %d", table, n)
		}
	}

	var data string
	if err := r.db.QueryRow("SELECT data FROM messages WHERE message_id = ?", "m1").Scan(&data); err != nil {
		t.Fatal(err)
	}
	if data != `{"signal_id":"1"}` {
		t.Errorf("data = %s", data)
	}
}

func TestSQLiteRecorder_ReopenKeepsSchema(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "events.db")
	r, err := NewSQLiteRecorder(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	_ = r.RecordPurchase(&PurchaseEvent{Token: "a", State: "pending"})
	r.Close()

	r, err = NewSQLiteRecorder(path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()
	if n := countRows(t, r, "purchases"); n != 1 {
		t.Errorf("expected 1 purchase after reopen, got %d", n)
	}
}

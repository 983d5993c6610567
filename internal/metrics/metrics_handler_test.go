package metrics

import (
	"testing"

	"hotelprices/logger"
)

func TestRegisterHandlerReturnsUniqueIDs(t *testing.T) {
	r := NewRecorder(logger.Discard())

	id := r.RegisterHandler(func(Metric) {})
	if id == 0 {
		t.Fatalf("expected non-zero handler id")
	}

	second := r.RegisterHandler(func(Metric) {})
	if second == 0 || second == id {
		t.Fatalf("expected unique handler id")
	}
}

func TestRegisterHandlerNil(t *testing.T) {
	r := NewRecorder(logger.Discard())

	if id := r.RegisterHandler(nil); id != 0 {
		t.Fatalf("expected zero id for nil handler, got %d", id)
	}
}

func TestEmitDispatchesToHandlers(t *testing.T) {
	r := NewRecorder(logger.Discard())

	var events []Metric
	id := r.RegisterHandler(func(m Metric) { events = append(events, m) })

	fields := logger.Fields{"hotel": "Seven Stars"}
	r.Emit("collector", "quotes_extracted", 4, "", fields)
	fields["hotel"] = "mutated"

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Component != "collector" || event.Name != "quotes_extracted" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Value != 4 || event.Unit != "count" {
		t.Fatalf("unexpected value/unit: %v %s", event.Value, event.Unit)
	}
	if event.Fields["hotel"] != "Seven Stars" {
		t.Fatalf("fields were not copied: %v", event.Fields)
	}

	r.UnregisterHandler(id)
	r.Emit("collector", "quotes_extracted", 1, "count", nil)
	if len(events) != 1 {
		t.Fatalf("unregistered handler still called")
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Emit("collector", "quotes_extracted", 1, "", nil)
	if id := r.RegisterHandler(func(Metric) {}); id != 0 {
		t.Fatalf("expected zero id from nil recorder")
	}
}

package queue

import (
	"testing"
)

func TestNotificationEvent_MapRoundTrip(t *testing.T) {
	event := NewNotificationCreatedEvent(42, 7, "new_common_limit",
		"Nouvelle limite en commun", "Vous avez une nouvelle limite en commun avec Alice.")

	values, err := event.ToMap()
	if err != nil {
		t.Fatalf("ToMap: %v", err)
	}
	if values["type"] != EventNotificationCreated {
		t.Errorf("type field = %v", values["type"])
	}

	parsed, err := ParseNotificationEvent(values)
	if err != nil {
		t.Fatalf("ParseNotificationEvent: %v", err)
	}
	if parsed != event {
		t.Errorf("round trip changed the event: %+v vs %+v", parsed, event)
	}
}

func TestParseNotificationEvent_MissingData(t *testing.T) {
	if _, err := ParseNotificationEvent(map[string]interface{}{"type": "x"}); err == nil {
		t.Fatal("expected an error without a data field")
	}
}

func TestParseNotificationEvent_MalformedData(t *testing.T) {
	if _, err := ParseNotificationEvent(map[string]interface{}{"data": "{not json"}); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

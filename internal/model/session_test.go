package model

import "testing"

func TestParseSessionRequiresTruthyID(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		loggedIn bool
	}{
		{"string id", `{"id":"6650a1","name":"Rina","role":"admin"}`, true},
		{"numeric id", `{"id":42,"role":"customer"}`, true},
		{"empty id with admin role", `{"id":"","name":"Rina","role":"admin"}`, false},
		{"zero id", `{"id":0,"role":"admin"}`, false},
		{"null id", `{"id":null,"name":"x","email":"x@y","role":"admin"}`, false},
		{"false id", `{"id":false,"role":"admin"}`, false},
		{"missing id", `{"name":"Rina","role":"admin"}`, false},
		{"not json", `Rina`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ParseSession([]byte(tc.raw))
			if s.LoggedIn() != tc.loggedIn {
				t.Fatalf("LoggedIn() = %v, want %v (session %+v)", s.LoggedIn(), tc.loggedIn, s)
			}
			if !tc.loggedIn && s.IsAdmin() {
				t.Fatalf("logged-out session must never be admin: %+v", s)
			}
		})
	}
}

func TestNewEntityNormalisesIdentity(t *testing.T) {
	booking := NewEntity(map[string]any{"_id": "b1", "booking_code": "TRAV-1"}, "_id")
	if booking.ID != "b1" {
		t.Fatalf("booking id = %q, want b1", booking.ID)
	}
	company := NewEntity(map[string]any{"id": "c1", "name": "Acme Bus"}, "id")
	if company.ID != "c1" || company.String("name") != "Acme Bus" {
		t.Fatalf("unexpected company entity %+v", company)
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind(" Schedule "); !ok || k != KindSchedule {
		t.Fatalf("ParseKind(Schedule) = %q, %v", k, ok)
	}
	if _, ok := ParseKind("payment"); ok {
		t.Fatal("payment must not be a managed kind")
	}
}

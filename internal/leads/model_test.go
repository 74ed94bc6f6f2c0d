package leads

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 123-4567", "+15551234567"},
		{"555.123.4567", "5551234567"},
		{"  +44 20 7946 0958 ", "+442079460958"},
		{"5+551234", "5551234"},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  John.Doe@Example.COM "); got != "john.doe@example.com" {
		t.Errorf("unexpected normalized email: %q", got)
	}
}

func TestMergeNeverClearsFields(t *testing.T) {
	lead := Lead{
		Name:  "Jane",
		Email: "jane@example.com",
		Phone: "+15550001111",
	}

	changed := lead.Merge(ContactInfo{Company: "Acme"})
	if !changed {
		t.Fatal("expected merge to report a change")
	}
	if lead.Email != "jane@example.com" || lead.Phone != "+15550001111" {
		t.Errorf("existing fields must survive an empty incoming value: %+v", lead)
	}
	if lead.Company != "Acme" {
		t.Errorf("incoming non-empty field must fill empty existing: %q", lead.Company)
	}
}

func TestMergeIncomingWinsWhenNonEmpty(t *testing.T) {
	lead := Lead{Name: "J."}
	lead.Merge(ContactInfo{Name: "Jane Doe", Email: "JANE@Example.com"})
	if lead.Name != "Jane Doe" {
		t.Errorf("incoming non-empty name should win, got %q", lead.Name)
	}
	if lead.Email != "jane@example.com" {
		t.Errorf("merged email should be normalized, got %q", lead.Email)
	}
}

func TestMergeNoChange(t *testing.T) {
	lead := Lead{Name: "Jane", Email: "jane@example.com"}
	if lead.Merge(ContactInfo{Email: "jane@example.com"}) {
		t.Error("identical incoming value should not report a change")
	}
}

func TestHasContact(t *testing.T) {
	if (ContactInfo{Company: "Acme", Requirements: "a site"}).HasContact() {
		t.Error("company/requirements alone do not identify a lead")
	}
	if !(ContactInfo{Name: "Jane"}).HasContact() {
		t.Error("name alone identifies a lead")
	}
}

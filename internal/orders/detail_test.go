package orders

import (
	"encoding/json"
	"testing"

	"github.com/simp-lee/order360/internal/domain"
)

func TestBuildDetail(t *testing.T) {
	raw := `{
		"id": "A1",
		"state": "completed",
		"orderItems": [
			{"id": "i1", "action": "add", "state": "completed", "businessProcess": "acquisition",
			 "productOffering": {"id": "O1", "name": "Tariff L", "group": "Tariff"},
			 "upfrontPrice": {"price": {"taxIncludedAmount": "49.99", "currencyCode": "EUR"}},
			 "recurringPrices": [{"price": {"taxIncludedAmount": 19.9}}]},
			{"id": "i2"}
		],
		"stateChanges": [
			{"state": "acknowledged", "validFor": {"startDateTime": "2025-01-01T08:00:00Z", "endDateTime": "2025-01-02T09:30:00Z"}},
			{"state": "completed", "validFor": {"startDateTime": "2025-01-02T09:30:00Z"}}
		],
		"contacts": [
			{"type": "phone", "role": {"name": "customer"}, "medium": {"phoneNumber": "030 12345678"}},
			{"type": "email", "medium": {"emailAddress": "a@example.com"}}
		],
		"upfrontPrice": {"price": {"taxIncludedAmount": 0.01}},
		"recurringPrices": [{"price": {"taxIncludedAmount": "10.10"}}]
	}`
	var o domain.Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	d := BuildDetail(&o, "DE")

	if len(d.Items) != 2 {
		t.Fatalf("Items = %d; want 2", len(d.Items))
	}
	if d.Items[0].OfferingName != "Tariff L" || d.Items[0].Group != "Tariff" || d.Items[0].Badge != domain.BadgeCompleted {
		t.Errorf("Items[0] = %+v", d.Items[0])
	}
	if d.Items[1].OfferingID != Placeholder || d.Items[1].Action != Placeholder {
		t.Errorf("Items[1] should be placeholders, got %+v", d.Items[1])
	}

	if len(d.Timeline) != 2 || d.Timeline[0].State != "completed" {
		t.Fatalf("Timeline should be newest first, got %+v", d.Timeline)
	}
	if d.Timeline[0].End != Placeholder || d.Timeline[1].End != "2025-01-02 09:30" {
		t.Errorf("Timeline dates = %+v", d.Timeline)
	}

	if d.Contacts[0].Phone != "+49 30 12345678" || d.Contacts[0].Role != "customer" {
		t.Errorf("Contacts[0] = %+v", d.Contacts[0])
	}
	if d.Contacts[1].Role != Placeholder || d.Contacts[1].Email != "a@example.com" {
		t.Errorf("Contacts[1] = %+v", d.Contacts[1])
	}

	if got := d.Prices.UpfrontText(); got != "50.00 EUR" {
		t.Errorf("UpfrontText() = %q; want 50.00 EUR", got)
	}
	if got := d.Prices.RecurringText(); got != "30.00 EUR" {
		t.Errorf("RecurringText() = %q; want 30.00 EUR", got)
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		name, in, region, want string
	}{
		{"national number", "030 12345678", "DE", "+49 30 12345678"},
		{"international number", "+31 20 123 4567", "DE", "+31 20 123 4567"},
		{"invalid kept", " 12 ", "DE", "12"},
		{"garbage kept", "call me", "DE", "call me"},
		{"empty", "", "DE", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPhone(tt.in, tt.region); got != tt.want {
				t.Errorf("FormatPhone(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSumPrices_NoPrices(t *testing.T) {
	p := SumPrices(&domain.Order{})
	if p.UpfrontText() != Placeholder || p.RecurringText() != Placeholder {
		t.Errorf("empty totals = %q / %q", p.UpfrontText(), p.RecurringText())
	}
}

package orders

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/shopspring/decimal"
	"github.com/simp-lee/order360/internal/domain"
)

// Detail is the display model of the order detail page.
type Detail struct {
	Order    *domain.Order
	Summary  domain.OrderSummary
	Items    []ItemRow
	Timeline []TimelineEntry
	Contacts []ContactRow
	Prices   PriceTotals
}

type ItemRow struct {
	ID              string
	Name            string
	Action          string
	State           string
	Badge           domain.Badge
	BusinessProcess string
	OfferingID      string
	OfferingName    string
	Group           string
	Quantity        int
}

type TimelineEntry struct {
	State       string
	Description string
	Start       string
	End         string
	Badge       domain.Badge
}

type ContactRow struct {
	Role  string
	Type  string
	Phone string
	Email string
}

// PriceTotals sums the order level and item level prices. Amounts without a
// currency are counted in the first currency seen.
type PriceTotals struct {
	Upfront   decimal.Decimal
	Recurring decimal.Decimal
	Currency  string
	Lines     int
}

// UpfrontText and RecurringText format totals with two decimals.
func (p PriceTotals) UpfrontText() string   { return p.format(p.Upfront) }
func (p PriceTotals) RecurringText() string { return p.format(p.Recurring) }

func (p PriceTotals) format(d decimal.Decimal) string {
	if p.Lines == 0 {
		return Placeholder
	}
	s := d.StringFixed(2)
	if p.Currency != "" {
		s += " " + p.Currency
	}
	return s
}

// BuildDetail assembles the detail view. Phone numbers without a country
// prefix are read as numbers of region.
func BuildDetail(o *domain.Order, region string) Detail {
	d := Detail{Order: o, Summary: Summarize(*o)}

	for _, item := range o.OrderItems {
		row := ItemRow{
			ID:              orPlaceholder(item.ID),
			Name:            orPlaceholder(item.Name),
			Action:          orPlaceholder(item.Action),
			State:           orPlaceholder(item.State),
			Badge:           BadgeFor(item.State),
			BusinessProcess: orPlaceholder(item.BusinessProcess),
			OfferingID:      Placeholder,
			OfferingName:    Placeholder,
			Group:           Placeholder,
			Quantity:        item.Quantity,
		}
		if po := item.ProductOffering; po != nil {
			row.OfferingID = orPlaceholder(po.ID)
			row.OfferingName = orPlaceholder(po.Name)
			row.Group = orPlaceholder(po.Group)
		}
		d.Items = append(d.Items, row)
	}

	for i := len(o.StateChanges) - 1; i >= 0; i-- {
		sc := o.StateChanges[i]
		entry := TimelineEntry{
			State:       orPlaceholder(sc.State),
			Description: orPlaceholder(sc.Description),
			Start:       Placeholder,
			End:         Placeholder,
			Badge:       BadgeFor(sc.State),
		}
		if sc.ValidFor != nil {
			entry.Start = FormatDateTime(sc.ValidFor.StartDateTime)
			entry.End = FormatDateTime(sc.ValidFor.EndDateTime)
		}
		d.Timeline = append(d.Timeline, entry)
	}

	for _, c := range o.Contacts {
		row := ContactRow{Role: Placeholder, Type: orPlaceholder(c.Type), Phone: Placeholder, Email: Placeholder}
		if c.Role != nil {
			row.Role = orPlaceholder(c.Role.Name)
		}
		if c.Medium != nil {
			row.Phone = orPlaceholder(FormatPhone(c.Medium.PhoneNumber, region))
			row.Email = orPlaceholder(c.Medium.EmailAddress)
		}
		d.Contacts = append(d.Contacts, row)
	}

	d.Prices = SumPrices(o)
	return d
}

// FormatPhone renders a phone number in international format. Input that is
// not a valid number is returned trimmed.
func FormatPhone(raw, region string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	num, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return trimmed
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

// SumPrices totals the tax-included amounts of the order and its items.
func SumPrices(o *domain.Order) PriceTotals {
	var t PriceTotals
	add := func(p *domain.Price, recurring bool) {
		if p == nil || p.Price == nil || !p.Price.TaxIncludedAmount.Valid {
			return
		}
		if t.Currency == "" {
			t.Currency = p.Price.CurrencyCode
		}
		if recurring {
			t.Recurring = t.Recurring.Add(p.Price.TaxIncludedAmount.Decimal)
		} else {
			t.Upfront = t.Upfront.Add(p.Price.TaxIncludedAmount.Decimal)
		}
		t.Lines++
	}

	add(o.UpfrontPrice, false)
	for i := range o.RecurringPrices {
		add(&o.RecurringPrices[i], true)
	}
	for _, item := range o.OrderItems {
		add(item.UpfrontPrice, false)
		for i := range item.RecurringPrices {
			add(&item.RecurringPrices[i], true)
		}
	}
	return t
}

package orders

import (
	"strings"
	"time"

	"github.com/simp-lee/order360/internal/domain"
)

// Placeholder is rendered for any value the order does not carry.
const Placeholder = "-"

// EmptyMessage is the single row shown when a query matches no orders.
const EmptyMessage = "No orders found. Try adjusting your filters."

// Summarize projects an order onto a table row. It never fails; missing
// values become Placeholder.
func Summarize(o domain.Order) domain.OrderSummary {
	var processes, offeringIDs, offeringNames []string
	for _, item := range o.OrderItems {
		processes = append(processes, item.BusinessProcess)
		if item.ProductOffering != nil {
			offeringIDs = append(offeringIDs, item.ProductOffering.ID)
			offeringNames = append(offeringNames, item.ProductOffering.Name)
		}
	}

	channel := ""
	if o.Channel != nil {
		channel = o.Channel.Name
		if strings.TrimSpace(channel) == "" {
			channel = o.Channel.ID
		}
	}

	return domain.OrderSummary{
		ID:                orPlaceholder(o.ID),
		PublicIdentifier:  orPlaceholder(o.PublicIdentifier),
		Channel:           orPlaceholder(channel),
		BusinessProcesses: JoinUnique(processes),
		State:             orPlaceholder(o.State),
		OfferingIDs:       JoinUnique(offeringIDs),
		OfferingNames:     JoinUnique(offeringNames),
		OrderDate:         orPlaceholder(FormatDate(OrderDate(o))),
		LastUpdated:       orPlaceholder(FormatDate(LastUpdated(o.StateChanges))),
		Badge:             BadgeFor(o.State),
	}
}

// SummarizeAll summarizes a page of orders, preserving order.
func SummarizeAll(orders []domain.Order) []domain.OrderSummary {
	out := make([]domain.OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, Summarize(o))
	}
	return out
}

// JoinUnique trims values, drops empties and duplicates, and joins the rest
// with ", " in first-seen order.
func JoinUnique(values []string) string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return Placeholder
	}
	return strings.Join(out, ", ")
}

// LastUpdated scans state changes from newest to oldest and returns the
// first available date, preferring a change's end date over its start date.
func LastUpdated(changes []domain.StateChange) string {
	for i := len(changes) - 1; i >= 0; i-- {
		vf := changes[i].ValidFor
		if vf == nil {
			continue
		}
		if d := strings.TrimSpace(vf.EndDateTime); d != "" {
			return d
		}
		if d := strings.TrimSpace(vf.StartDateTime); d != "" {
			return d
		}
	}
	return ""
}

// OrderDate is the start of the first state change, falling back to the
// capture date and then the order date.
func OrderDate(o domain.Order) string {
	if len(o.StateChanges) > 0 && o.StateChanges[0].ValidFor != nil {
		if d := strings.TrimSpace(o.StateChanges[0].ValidFor.StartDateTime); d != "" {
			return d
		}
	}
	if d := strings.TrimSpace(o.OrderCaptureDate); d != "" {
		return d
	}
	return strings.TrimSpace(o.OrderDate)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	domain.DateLayout,
}

// FormatDate renders a backend timestamp as yyyy-MM-dd. Values that do not
// parse are returned unchanged.
func FormatDate(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(domain.DateLayout)
		}
	}
	return raw
}

// FormatDateTime renders a backend timestamp as yyyy-MM-dd HH:mm, or
// returns it unchanged.
func FormatDateTime(raw string) string {
	for _, layout := range timestampLayouts[:3] {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return orPlaceholder(raw)
}

// BadgeFor maps an order state onto its badge. Matching ignores case and
// separators, so "In Progress", "inProgress" and "in_progress" agree.
func BadgeFor(state string) domain.Badge {
	switch foldState(state) {
	case "completed":
		return domain.BadgeCompleted
	case "inprogress":
		return domain.BadgeInProgress
	case "canceled", "cancelled":
		return domain.BadgeCanceled
	case "created":
		return domain.BadgeCreated
	case "accepted":
		return domain.BadgeAccepted
	default:
		return domain.BadgeNeutral
	}
}

// foldState lowercases s and strips everything but letters and digits.
func foldState(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func orPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return Placeholder
	}
	return v
}

package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Order is the order record returned by the order-management backend.
// Every nested field is optional; callers must tolerate zero values.
type Order struct {
	ID               string           `json:"id"`
	ExternalID       string           `json:"externalId,omitempty"`
	PublicIdentifier string           `json:"publicIdentifier,omitempty"`
	Channel          *Channel         `json:"channel,omitempty"`
	State            string           `json:"state,omitempty"`
	OrderCaptureDate string           `json:"orderCaptureDate,omitempty"`
	OrderDate        string           `json:"orderDate,omitempty"`
	RelatedParties   []RelatedParty   `json:"relatedParties,omitempty"`
	OrderItems       []OrderItem      `json:"orderItems,omitempty"`
	StateChanges     []StateChange    `json:"stateChanges,omitempty"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Characteristics  []Characteristic `json:"characteristics,omitempty"`
	RecurringPrices  []Price          `json:"recurringPrices,omitempty"`
	UpfrontPrice     *Price           `json:"upfrontPrice,omitempty"`
	Documents        []Document       `json:"documents,omitempty"`
}

type Channel struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type RelatedParty struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"@referredType,omitempty"`
	Email string `json:"email,omitempty"`
}

type OrderItem struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name,omitempty"`
	State           string           `json:"state,omitempty"`
	Action          string           `json:"action,omitempty"`
	BusinessProcess string           `json:"businessProcess,omitempty"`
	Quantity        int              `json:"quantity,omitempty"`
	ProductOffering *ProductOffering `json:"productOffering,omitempty"`
	Product         *ProductRef      `json:"product,omitempty"`
	StateChanges    []StateChange    `json:"stateChanges,omitempty"`
	RecurringPrices []Price          `json:"recurringPrices,omitempty"`
	UpfrontPrice    *Price           `json:"upfrontPrice,omitempty"`
}

type ProductOffering struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Group string `json:"group,omitempty"`
}

type ProductRef struct {
	ID string `json:"id,omitempty"`
}

// StateChange is one entry of an order's state history, oldest first.
type StateChange struct {
	ID          string    `json:"id,omitempty"`
	State       string    `json:"state,omitempty"`
	Description string    `json:"description,omitempty"`
	ValidFor    *ValidFor `json:"validFor,omitempty"`
}

type ValidFor struct {
	StartDateTime string `json:"startDateTime,omitempty"`
	EndDateTime   string `json:"endDateTime,omitempty"`
}

type Contact struct {
	ID     string         `json:"id,omitempty"`
	Type   string         `json:"type,omitempty"`
	Role   *ContactRole   `json:"role,omitempty"`
	Medium *ContactMedium `json:"medium,omitempty"`
}

type ContactRole struct {
	Name string `json:"name,omitempty"`
}

type ContactMedium struct {
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type Characteristic struct {
	Name      string `json:"name,omitempty"`
	ValueType string `json:"valueType,omitempty"`
	Value     string `json:"value,omitempty"`
}

type Price struct {
	Name                  string `json:"name,omitempty"`
	PriceType             string `json:"priceType,omitempty"`
	RecurringChargePeriod string `json:"recurringChargePeriod,omitempty"`
	Price                 *Money `json:"price,omitempty"`
}

// Money accepts amounts encoded either as JSON numbers or strings.
type Money struct {
	TaxIncludedAmount decimal.NullDecimal `json:"taxIncludedAmount"`
	DutyFreeAmount    decimal.NullDecimal `json:"dutyFreeAmount"`
	CurrencyCode      string              `json:"currencyCode,omitempty"`
}

type Document struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// OrderPage is the backend's response to an order list query.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	TotalCount int64   `json:"totalCount"`
}

// Badge is the visual category of an order state.
type Badge string

const (
	BadgeCompleted  Badge = "completed"
	BadgeInProgress Badge = "in-progress"
	BadgeCanceled   Badge = "canceled"
	BadgeCreated    Badge = "created"
	BadgeAccepted   Badge = "accepted"
	BadgeNeutral    Badge = "neutral"
)

// OrderSummary is the table-row projection of an Order. Every field is
// display-ready; absent values are rendered as "-".
type OrderSummary struct {
	ID                string `json:"id"`
	PublicIdentifier  string `json:"publicIdentifier"`
	Channel           string `json:"channel"`
	BusinessProcesses string `json:"businessProcesses"`
	State             string `json:"state"`
	OfferingIDs       string `json:"offeringIds"`
	OfferingNames     string `json:"offeringNames"`
	OrderDate         string `json:"orderDate"`
	LastUpdated       string `json:"lastUpdated"`
	Badge             Badge  `json:"badge"`
}

// QueryResult is one page of summarized orders. TotalCount spans the whole
// filtered set, not just this page.
type QueryResult struct {
	Orders     []OrderSummary `json:"orders"`
	TotalCount int64          `json:"totalCount"`
}

// ProcessVariable is one workflow variable attached to an order's process instance.
type ProcessVariable struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProcessNode is a BPMN flow node and its highlight status for one order.
type ProcessNode struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Kind   string `json:"kind"`
	Status string `json:"status,omitempty"`
}

const (
	NodeVisited = "visited"
	NodeActive  = "active"
)

// ProcessView is everything the process page needs to draw and annotate a diagram.
type ProcessView struct {
	Order     *Order            `json:"order"`
	XML       string            `json:"xml"`
	Nodes     []ProcessNode     `json:"nodes"`
	Variables []ProcessVariable `json:"variables"`
}

// OrderService defines the read operations the dashboard performs against orders.
type OrderService interface {
	ListOrders(ctx context.Context, state ListState) (*QueryResult, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetProcess(ctx context.Context, id string) (*ProcessView, error)
}

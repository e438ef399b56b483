package orders

import "github.com/simp-lee/order360/internal/domain"

// Option is one value/label pair of a filter control.
type Option struct {
	Value string
	Label string
}

// AllValue is what the form submits for an unfiltered select.
const AllValue = "all"

var searchTypeLabels = map[domain.SearchType]string{
	domain.SearchOrderID:           "Order ID",
	domain.SearchPartyID:           "Party ID",
	domain.SearchProfileID:         "Profile ID",
	domain.SearchOfferingID:        "Offering ID",
	domain.SearchSalesOrganization: "Sales Organization",
	domain.SearchGroup:             "Group",
}

// SearchTypeOptions returns the search type selector options in form order.
func SearchTypeOptions() []Option {
	opts := make([]Option, 0, len(domain.SearchTypes))
	for _, t := range domain.SearchTypes {
		opts = append(opts, Option{Value: string(t), Label: searchTypeLabels[t]})
	}
	return opts
}

var StateOptions = []Option{
	{"acknowledged", "Acknowledged"},
	{"accepted", "Accepted"},
	{"rejected", "Rejected"},
	{"inProgress", "In Progress"},
	{"pending", "Pending"},
	{"held", "Held"},
	{"cancelled", "Cancelled"},
	{"completed", "Completed"},
	{"failed", "Failed"},
	{"partial", "Partial"},
	{"provisioned", "Provisioned"},
	{"pendingCancellation", "Pending Cancellation"},
}

var ChannelOptions = []Option{
	{"OneApp", "OneApp"},
	{"MagentaView", "MagentaView"},
	{"Mmkc", "MMKC"},
	{"Phoenix", "Phoenix"},
	{"TVPP", "TVPP"},
	{"MOM", "MOM"},
	{"MPFDevices", "MPFDevices"},
	{"TVPP-CC", "TVPP CC"},
	{"GSMAEntitlementServer", "GSMA Entitlement Server"},
	{"eCRM am POS", "eCRM am POS"},
	{"CRMT", "CRMT"},
	{"YoungApp", "Young App"},
	{"Webportal_Mobilfunk", "Webportal Mobilfunk"},
	{"AVIA", "AVIA"},
	{"OneShop", "Oneshop"},
	{"OneAppWeb", "One App Web"},
	{"Carmen", "Carmen"},
	{"Mavi", "Mavi"},
}

var BusinessProcessOptions = []Option{
	{"acquisition", "Acquisition"},
	{"fixedLineRelocation", "FixedLine Relocation"},
	{"tariffChange", "Tariff Change"},
	{"eSIMActivation", "eSIM Activation"},
	{"prepaidRegistration", "Prepaid Registration"},
	{"addonManagement", "Addon Management"},
	{"productAdjustment", "Product Adjustment"},
	{"contractTermination", "Contract Termination"},
	{"productReactivation", "Product Reactivation"},
	{"hardwareOnlyPurchase", "Hardware Only Purchase"},
	{"deviceReturn", "Device Return"},
	{"SIMreplacement", "SIM Replacement"},
	{"selfReconnect", "Self Reconnect"},
}

var GroupOptions = []Option{
	{"Tariff", "Tariff"},
	{"Addon", "Addon"},
	{"Number", "Number"},
	{"Device", "Device"},
	{"Sim", "Sim"},
	{"Service", "Service"},
	{"Delivery Method", "Delivery Method"},
	{"Bill Delivery Method", "Bill Delivery Method"},
	{"Installation Method", "Installation Method"},
}

// Catalog bundles every option list the filter form renders.
type Catalog struct {
	SearchTypes       []Option
	Channels          []Option
	BusinessProcesses []Option
	States            []Option
	Groups            []Option
	PageSizes         []int
}

// FilterCatalog returns the option lists for the filter form.
func FilterCatalog() Catalog {
	return Catalog{
		SearchTypes:       SearchTypeOptions(),
		Channels:          ChannelOptions,
		BusinessProcesses: BusinessProcessOptions,
		States:            StateOptions,
		Groups:            GroupOptions,
		PageSizes:         domain.PageSizes,
	}
}

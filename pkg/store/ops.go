package store

// Op names an asynchronous request lifecycle.
type Op int

const (
	OpCreateOrder Op = iota
	OpFetchOrder
	OpFetchTracking
	OpUpdateOrderStatus
	OpLogin
	OpVerifySession
	OpFetchDashboard
	OpFetchLogs
	OpFetchOrders
	OpFetchFleet
	OpUpdateOrderStatusAdmin
	OpUpdateFleetUnit
)

var opNames = map[Op]string{
	OpCreateOrder:            "create_order",
	OpFetchOrder:             "fetch_order",
	OpFetchTracking:          "fetch_tracking",
	OpUpdateOrderStatus:      "update_order_status",
	OpLogin:                  "login",
	OpVerifySession:          "verify_session",
	OpFetchDashboard:         "fetch_dashboard",
	OpFetchLogs:              "fetch_logs",
	OpFetchOrders:            "fetch_orders",
	OpFetchFleet:             "fetch_fleet",
	OpUpdateOrderStatusAdmin: "update_order_status_admin",
	OpUpdateFleetUnit:        "update_fleet_unit",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// slot is the piece of state a fetch replaces. Operations that replace the
// same slot share a token sequence.
type slot int

const (
	slotCurrentOrder slot = iota
	slotTracking
	slotSession
	slotDashboard
	slotLogs
	slotAdminOrders
	slotFleet
	slotCount
)

// tracked reports whether the operation is token-gated. Status and fleet
// updates patch a single target, so every successful one commits.
func (o Op) tracked() bool {
	switch o {
	case OpUpdateOrderStatus, OpUpdateOrderStatusAdmin, OpUpdateFleetUnit:
		return false
	}
	return true
}

// slot is only meaningful for tracked operations.
func (o Op) slot() slot {
	switch o {
	case OpCreateOrder, OpFetchOrder:
		return slotCurrentOrder
	case OpFetchTracking:
		return slotTracking
	case OpLogin, OpVerifySession:
		return slotSession
	case OpFetchDashboard:
		return slotDashboard
	case OpFetchLogs:
		return slotLogs
	case OpFetchOrders:
		return slotAdminOrders
	default:
		return slotFleet
	}
}

// isAdmin reports whether the operation belongs to the admin slice.
func (o Op) isAdmin() bool {
	return o >= OpLogin
}

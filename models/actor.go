package models

// Role is the coarse role carried on a user document and inside auth tokens
type Role string

// Predefined Role values
const (
	RoleRenter   Role = "renter"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RolePayments Role = "payments" // trusted internal payment subsystem
)

// IsValid checks if the Role value is one of the predefined constants
func (r Role) IsValid() bool {
	switch r {
	case RoleRenter, RoleOwner, RoleAdmin, RolePayments:
		return true
	}
	return false
}

// Capability names a single gated action. Handlers evaluate capabilities
// through Actor.Can instead of repeating inline role checks per route.
type Capability string

// Predefined Capability values
const (
	CapManageCatalog    Capability = "manage_catalog"
	CapModerateListings Capability = "moderate_listings"
	CapListCars         Capability = "list_cars"
	CapViewAllBookings  Capability = "view_all_bookings"
	CapRecordPayments   Capability = "record_payments"
)

var roleGrants = map[Role]map[Capability]bool{
	RoleRenter: {},
	RoleOwner: {
		CapListCars: true,
	},
	RoleAdmin: {
		CapManageCatalog:    true,
		CapModerateListings: true,
		CapListCars:         true,
		CapViewAllBookings:  true,
		CapRecordPayments:   true,
	},
	RolePayments: {
		CapRecordPayments: true,
	},
}

// Actor is the authenticated identity attached to every request: an opaque
// ID plus a role. Ownership checks (car owner, booking requester) compare
// against the ID; everything else goes through Can.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Can reports whether the actor's role grants the capability
func (a Actor) Can(c Capability) bool {
	return roleGrants[a.Role][c]
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

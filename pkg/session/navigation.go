package session

// Navigation exposes what the runtime knows about how the visitor arrived.
// The boolean results report whether the runtime provides the value at all;
// an empty referrer with ok=true is a direct visit.
type Navigation interface {
	Referrer() (string, bool)
	Location() (string, bool)
}

// StaticNavigation is a Navigation with fixed values, used by server hosts
// that learn the referrer and URL from the incoming request.
type StaticNavigation struct {
	ReferrerURL string
	LocationURL string
}

// Referrer returns ReferrerURL. It is always available, possibly empty.
func (n StaticNavigation) Referrer() (string, bool) { return n.ReferrerURL, true }

// Location returns LocationURL, unavailable when empty.
func (n StaticNavigation) Location() (string, bool) {
	return n.LocationURL, n.LocationURL != ""
}

func resolve(nav Navigation) (referrer, location string, ok bool) {
	if nav == nil {
		return "", "", false
	}
	referrer, rok := nav.Referrer()
	location, lok := nav.Location()
	return referrer, location, rok && lok
}

package model

import "strings"

// Kind names a REST resource category managed by the admin console.  Each
// kind has its own schema and endpoint family on the backend.
type Kind string

const (
	KindUser     Kind = "user"
	KindCompany  Kind = "company"
	KindSchedule Kind = "schedule"
	KindBooking  Kind = "booking"
	KindReview   Kind = "review"
)

// Kinds lists every managed kind in the order the console shows its tabs.
func Kinds() []Kind {
	return []Kind{KindCompany, KindSchedule, KindBooking, KindReview, KindUser}
}

// ParseKind normalises s and reports whether it names a managed kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, true
		}
	}
	return k, false
}

package model

// Actor is the resolved subject of a request: a signed-in user or a durable
// guest. After resolution at most one of the two ids identifies the subject;
// a user id always wins over a guest id.
type Actor struct {
	UserID  string `json:"user_id,omitempty"`
	GuestID string `json:"guest_id,omitempty"`
}

func (a Actor) IsZero() bool {
	return a.UserID == "" && a.GuestID == ""
}

// Ref returns the stable ownership key used on practice sessions. Guest and
// user lineages are deliberately distinct; sessions started as a guest are
// never folded into the user's history on sign-in.
func (a Actor) Ref() string {
	if a.UserID != "" {
		return "user:" + a.UserID
	}
	if a.GuestID != "" {
		return "guest:" + a.GuestID
	}
	return ""
}

// SameAs reports whether two resolved actors are the same subject. A token
// bound to one actor must never be redeemable by another.
func (a Actor) SameAs(b Actor) bool {
	if a.UserID != "" || b.UserID != "" {
		return a.UserID == b.UserID
	}
	if a.GuestID != "" || b.GuestID != "" {
		return a.GuestID == b.GuestID
	}
	return false
}

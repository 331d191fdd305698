package domain

// Actor identifies who is reading or mutating an order.
type Actor struct {
	// ID is the subject of the caller's bearer token.
	ID string
	// Operator is true for back-office staff.
	Operator bool
}

// CanView reports whether the actor may see the order. Operators see every order,
// customers only their own.
func (a Actor) CanView(o *Order) bool {
	if o == nil {
		return false
	}
	return a.Operator || (a.ID != "" && a.ID == o.CustomerID)
}

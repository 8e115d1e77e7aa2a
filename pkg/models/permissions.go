package models

// The helpers below mirror what the UI is allowed to offer a viewer.
// The backend remains the authority; these only decide which controls render.

// OwnsProject reports whether u is the buyer who posted p.
func OwnsProject(u *User, p *Project) bool {
	return u != nil && p != nil && u.Role == RoleBuyer && u.ID == p.BuyerID
}

// CanDeliver reports whether u is the assigned seller of an in-progress project.
func CanDeliver(u *User, p *Project) bool {
	return u != nil && p != nil &&
		u.Role == RoleSeller &&
		p.AssignedTo(u.ID) &&
		p.Status.Normalize() == StatusInProgress
}

// CanMarkComplete reports whether u may mark p as completed.
func CanMarkComplete(u *User, p *Project) bool {
	return OwnsProject(u, p) && p.Status.Normalize() == StatusInProgress
}

// CanBid reports whether the bid form is offered to u.
func CanBid(u *User, p *Project) bool {
	return u != nil && u.Role == RoleSeller && !CanDeliver(u, p)
}

// CanAcceptBids reports whether bids on p can still be accepted.
func CanAcceptBids(p *Project) bool {
	return p != nil && p.Status.Normalize() == StatusOpen
}

package models

import "path"

// Bid is a seller's offer on a project.
type Bid struct {
	ID        int64   `json:"id"`
	ProjectID int64   `json:"projectId"`
	SellerID  int64   `json:"sellerId"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message"`
	ETADays   int     `json:"etaDays"`
	Seller    *User   `json:"seller,omitempty"`
}

// SellerUserID returns the bidding seller's id, preferring the embedded
// seller object the backend includes on bid listings.
func (b *Bid) SellerUserID() int64 {
	if b.Seller != nil && b.Seller.ID != 0 {
		return b.Seller.ID
	}
	return b.SellerID
}

// SellerName returns the seller's display name, if the backend sent one.
func (b *Bid) SellerName() string {
	if b.Seller == nil {
		return ""
	}
	return b.Seller.Name
}

// FindBid returns the bid with the given id.
func FindBid(bids []Bid, id int64) (*Bid, bool) {
	for i := range bids {
		if bids[i].ID == id {
			return &bids[i], true
		}
	}
	return nil, false
}

// SubmitBidRequest is the body of POST /bids.
type SubmitBidRequest struct {
	Amount    float64 `json:"amount"`
	Message   string  `json:"message"`
	ETADays   int     `json:"etaDays"`
	ProjectID int64   `json:"projectId"`
}

// Deliverable is a file uploaded against a project.
type Deliverable struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"projectId"`
	FileURL   string `json:"fileUrl"`
}

// FileName returns the last path segment of the deliverable URL.
func (d *Deliverable) FileName() string {
	if d.FileURL == "" {
		return ""
	}
	return path.Base(d.FileURL)
}

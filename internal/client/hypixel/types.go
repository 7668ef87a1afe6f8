package hypixel

// Auction is one marketplace listing from the snapshot. It lives only for
// the duration of a single fetch cycle.
type Auction struct {
	UUID        string `json:"uuid"`
	ItemName    string `json:"item_name"`
	Tier        string `json:"tier"`
	StartingBid int64  `json:"starting_bid"`
	Bin         bool   `json:"bin"`
	ItemLore    string `json:"item_lore"` // empty when the field is absent
}

// AuctionsPage mirrors one page of the upstream response. TotalPages and
// Auctions are pointers so that a response missing either field is
// distinguishable from a zero value or an empty page.
type AuctionsPage struct {
	Page       int        `json:"page"`
	TotalPages *int       `json:"totalPages"`
	Auctions   *[]Auction `json:"auctions"`
}

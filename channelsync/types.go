package channelsync

// PriceUpdate is one line of a batch push to the sales channel.
type PriceUpdate struct {
	Sku        string `json:"sku"`
	Price      string `json:"price"`
	ProposalId int    `json:"proposalId"`
}

// ItemError is a per-sku failure reported by the channel.
type ItemError struct {
	Sku     string `json:"sku"`
	Message string `json:"message"`
}

// UpdateResult is the channel's verdict on one batch request.
type UpdateResult struct {
	Success bool        `json:"success"`
	Errors  []ItemError `json:"errors"`
}

// PushResult summarizes one synchronizer run for the caller.
type PushResult struct {
	DryRun      bool          `json:"dryRun"`
	Pushed      int           `json:"pushed"`
	TotalFailed int           `json:"totalFailed"`
	Updates     []PriceUpdate `json:"updates"`
	Errors      []ItemError   `json:"errors,omitempty"`
}

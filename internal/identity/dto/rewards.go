package dto

import "strconv"

type RedeemInput struct {
	RewardType string `json:"rewardType"`
	Points     any    `json:"points"`
}

// Cost coerces the loosely-typed points field to a non-negative integer.
// Missing, non-numeric or negative values coerce to zero, which makes the
// debit a no-op rather than an error.
func (in RedeemInput) Cost() int {
	var cost int

	switch v := in.Points.(type) {
	case float64:
		cost = int(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		cost = int(n)
	default:
		return 0
	}

	if cost < 0 {
		return 0
	}
	return cost
}

type RedeemResponse struct {
	OK         bool   `json:"ok"`
	RewardType string `json:"rewardType"`
	NewBalance int    `json:"newBalance"`
}

type UpvoteResponse struct {
	OK         bool `json:"ok"`
	NewBalance int  `json:"newBalance"`
}

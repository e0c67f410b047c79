package constant

const (
	UpvoteAward = 5

	TokenTypeRefresh = "refresh"
)

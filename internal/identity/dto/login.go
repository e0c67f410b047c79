package dto

type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identity returns the identity field used to look the user up.
// Email wins when both email and username are present.
func (in LoginInput) Identity() string {
	if in.Email != "" {
		return in.Email
	}
	return in.Username
}

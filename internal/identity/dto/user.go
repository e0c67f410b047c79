package dto

// UserOutput is the public view of a user. The password hash is never part
// of any response body.
type UserOutput struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
	Points    int    `json:"points"`
}

type AuthResponse struct {
	User         UserOutput `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

package model

// NotePage is one page of a user's notes, newest first.
// CurrentPage is 1 when TotalPages is 0.
type NotePage struct {
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	Data        []Note `json:"data"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"

// AccessToken is the login response body.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

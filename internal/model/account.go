package model

// SignUpRequest is the body of a sign-up call.
type SignUpRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Metadata is the user metadata attached to the new account.
func (r SignUpRequest) Metadata() map[string]any {
	return map[string]any{
		"first_name":   r.FirstName,
		"last_name":    r.LastName,
		"phone_number": r.PhoneNumber,
	}
}

// ProfileRow is the user_profiles row created for the account with userID.
func (r SignUpRequest) ProfileRow(userID string) ProfileRow {
	return ProfileRow{
		ID:          userID,
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
	}
}

// SignInRequest is the body of a sign-in call.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

package application

import "github.com/bnema/guac-console/internal/domain"

type AddProfileCommand struct {
	ID         domain.ProfileID
	Name       string
	BaseURL    string
	DataSource string
	Username   string
}

type LoginCommand struct {
	ID domain.ProfileID
	// Username overrides the profile's username when set.
	Username string
	Password string
	// RememberPassword stores the password so an expired session can be renewed
	// without prompting.
	RememberPassword bool
}

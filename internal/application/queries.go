package application

import "github.com/bnema/guac-console/internal/domain"

type ProfileStatus struct {
	Profile  domain.Profile
	LoggedIn bool
	Session  domain.Session
}

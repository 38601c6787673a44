package domain

import "time"

type ProfileID string

// Profile is a named connection to one console deployment.
type Profile struct {
	ID          ProfileID
	Name        string
	BaseURL     string
	DataSource  string
	Username    string
	Credentials Credentials
}

// Credentials points at secret-store entries, typically in "guacc://profile/kind" form.
type Credentials struct {
	PasswordRef string
	TokenRef    string
}

func (p Profile) HasPassword() bool {
	return p.Credentials.PasswordRef != ""
}

// Session is the outcome of a token exchange.
type Session struct {
	Token                string
	Username             string
	DataSource           string
	AvailableDataSources []string
	IssuedAt             time.Time
}

func (s Session) Valid() bool {
	return s.Token != ""
}

const secretRefScheme = "guacc://"

func PasswordRef(id ProfileID) string {
	return secretRefScheme + string(id) + "/password"
}

func TokenRef(id ProfileID) string {
	return secretRefScheme + string(id) + "/token"
}

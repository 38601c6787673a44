package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/ports"
)

var (
	ErrInvalidProfileID = errors.New("profile id must contain only letters, digits, '.', '_' or '-'")
	ErrUsernameRequired = errors.New("username is required")

	profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// AuthenticatorFactory returns the token endpoint client for a profile's deployment.
type AuthenticatorFactory func(profile domain.Profile) ports.Authenticator

type ProfileService struct {
	repo          ports.ProfileRepository
	store         ports.SecretStore
	authenticator AuthenticatorFactory
}

func NewProfileService(repo ports.ProfileRepository, store ports.SecretStore, authenticator AuthenticatorFactory) *ProfileService {
	return &ProfileService{
		repo:          repo,
		store:         store,
		authenticator: authenticator,
	}
}

// AddProfile creates a profile or updates the connection settings of an existing one.
// Stored credentials are kept.
func (s *ProfileService) AddProfile(ctx context.Context, cmd AddProfileCommand) (domain.Profile, error) {
	if !profileIDPattern.MatchString(string(cmd.ID)) || cmd.ID == "." || cmd.ID == ".." {
		return domain.Profile{}, fmt.Errorf("%w: %q", ErrInvalidProfileID, cmd.ID)
	}
	baseURL, err := normalizeBaseURL(cmd.BaseURL)
	if err != nil {
		return domain.Profile{}, err
	}

	profile, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Profile{}, fmt.Errorf("get profile by id: %w", err)
		}
		profile = domain.Profile{ID: cmd.ID}
	}

	profile.Name = cmd.Name
	if profile.Name == "" {
		profile.Name = string(cmd.ID)
	}
	profile.BaseURL = baseURL
	profile.DataSource = cmd.DataSource
	profile.Username = cmd.Username

	if err := s.repo.Save(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]ProfileStatus, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	statuses := make([]ProfileStatus, 0, len(profiles))
	for _, profile := range profiles {
		status := ProfileStatus{Profile: profile}
		session, err := s.storedSession(ctx, profile)
		switch {
		case err == nil:
			status.LoggedIn = true
			status.Session = session
		case errors.Is(err, domain.ErrSecretNotFound), errors.Is(err, domain.ErrUnauthenticated):
		default:
			return nil, fmt.Errorf("load session for profile %s: %w", profile.ID, err)
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// RemoveProfile deletes the profile after its stored secrets. When a secret cannot be
// deleted the profile is kept so the secret stays reachable.
func (s *ProfileService) RemoveProfile(ctx context.Context, id domain.ProfileID) error {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get profile by id: %w", err)
	}

	for _, ref := range uniqueSecretRefs(profile.Credentials.TokenRef, profile.Credentials.PasswordRef) {
		if err := s.store.Delete(ctx, ref); err != nil {
			return fmt.Errorf("delete profile secret: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	return nil
}

// Login exchanges credentials for a session and stores it with the profile.
// Secrets written by a failed login are rolled back.
func (s *ProfileService) Login(ctx context.Context, cmd LoginCommand) (domain.Session, error) {
	profile, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get profile by id: %w", err)
	}

	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		username = profile.Username
	}
	if username == "" {
		return domain.Session{}, ErrUsernameRequired
	}

	session, err := s.authenticator(profile).Login(ctx, username, cmd.Password, profile.DataSource)
	if err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}

	encoded, err := session.Encode()
	if err != nil {
		return domain.Session{}, err
	}

	updated := profile
	updated.Username = username
	tokenRef := domain.TokenRef(profile.ID)
	if err := s.store.Put(ctx, tokenRef, encoded); err != nil {
		return domain.Session{}, fmt.Errorf("store session token: %w", err)
	}
	written := []string{tokenRef}
	updated.Credentials.TokenRef = tokenRef

	if cmd.RememberPassword {
		passwordRef := domain.PasswordRef(profile.ID)
		if err := s.store.Put(ctx, passwordRef, cmd.Password); err != nil {
			return domain.Session{}, s.rollbackSecrets(ctx, fmt.Errorf("store password: %w", err), written)
		}
		written = append(written, passwordRef)
		updated.Credentials.PasswordRef = passwordRef
	}

	if err := s.repo.Save(ctx, updated); err != nil {
		return domain.Session{}, s.rollbackSecrets(ctx, fmt.Errorf("save profile credentials: %w", err), written)
	}

	if stale := profile.Credentials.PasswordRef; cmd.RememberPassword && stale != "" && stale != updated.Credentials.PasswordRef {
		if err := s.store.Delete(ctx, stale); err != nil {
			return session, fmt.Errorf("delete previous password secret: %w", err)
		}
	}

	return session, nil
}

// Logout revokes the stored session on the server and forgets it locally. It reports
// false when the profile had no session.
func (s *ProfileService) Logout(ctx context.Context, id domain.ProfileID) (bool, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get profile by id: %w", err)
	}

	session, err := s.storedSession(ctx, profile)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) || errors.Is(err, domain.ErrUnauthenticated) {
			return false, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}

	revokeErr := s.authenticator(profile).Logout(ctx, session.Token)

	if err := s.store.Delete(ctx, profile.Credentials.TokenRef); err != nil {
		return true, fmt.Errorf("forget session token: %w", errors.Join(err, revokeErr))
	}
	if revokeErr != nil {
		return true, fmt.Errorf("revoke session token: %w", revokeErr)
	}

	return true, nil
}

func (s *ProfileService) storedSession(ctx context.Context, profile domain.Profile) (domain.Session, error) {
	if profile.Credentials.TokenRef == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	raw, err := s.store.Get(ctx, profile.Credentials.TokenRef)
	if err != nil {
		return domain.Session{}, err
	}

	session, err := domain.DecodeSession(raw)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return session, nil
}

func (s *ProfileService) rollbackSecrets(ctx context.Context, cause error, refs []string) error {
	var rollbackErr error
	for _, ref := range refs {
		if err := s.store.Delete(ctx, ref); err != nil {
			rollbackErr = errors.Join(rollbackErr, err)
		}
	}
	if rollbackErr != nil {
		return fmt.Errorf("%w; rollback stored secrets: %w", cause, rollbackErr)
	}
	return cause
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("base url is required")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("base url host is required")
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return strings.TrimSuffix(parsed.String(), "/"), nil
}

func uniqueSecretRefs(secretRefs ...string) []string {
	result := make([]string, 0, len(secretRefs))
	seen := make(map[string]struct{}, len(secretRefs))

	for _, secretRef := range secretRefs {
		if secretRef == "" {
			continue
		}
		if _, ok := seen[secretRef]; ok {
			continue
		}

		seen[secretRef] = struct{}{}
		result = append(result, secretRef)
	}

	return result
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/ports"
	"golang.org/x/sync/singleflight"
)

const reauthenticateKey = "reauthenticate"

// SessionProvider attaches the session token of one profile to outgoing requests and
// renews it from the stored password when the server reports it expired.
type SessionProvider struct {
	profile       domain.Profile
	secrets       ports.SecretStore
	authenticator ports.Authenticator
	log           *slog.Logger

	mu      sync.RWMutex
	session domain.Session
	loaded  bool

	group singleflight.Group
}

var _ ports.CredentialProvider = (*SessionProvider)(nil)

func NewSessionProvider(profile domain.Profile, secrets ports.SecretStore, authenticator ports.Authenticator, log *slog.Logger) *SessionProvider {
	return &SessionProvider{
		profile:       profile,
		secrets:       secrets,
		authenticator: authenticator,
		log:           log,
	}
}

func (p *SessionProvider) AttachCredentials(ctx context.Context, req *http.Request) error {
	session, err := p.current(ctx)
	if err != nil {
		return err
	}
	if !session.Valid() {
		return fmt.Errorf("%w: no session for profile %s", domain.ErrUnauthenticated, p.profile.ID)
	}

	req.Header.Set(TokenHeader, session.Token)
	return nil
}

// Reauthenticate exchanges the stored password for a new token. Concurrent callers
// share a single exchange; it runs detached from any one caller's cancellation and
// each caller stops waiting when its own ctx is done.
func (p *SessionProvider) Reauthenticate(ctx context.Context) error {
	shared := context.WithoutCancel(ctx)
	result := p.group.DoChan(reauthenticateKey, func() (interface{}, error) {
		return nil, p.reauthenticate(shared)
	})

	select {
	case res := <-result:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *SessionProvider) Session(ctx context.Context) (domain.Session, error) {
	return p.current(ctx)
}

func (p *SessionProvider) reauthenticate(ctx context.Context) error {
	if !p.profile.HasPassword() {
		return fmt.Errorf("%w: profile %s has no stored password", domain.ErrUnauthenticated, p.profile.ID)
	}

	password, err := p.secrets.Get(ctx, p.profile.Credentials.PasswordRef)
	if err != nil {
		return fmt.Errorf("%w: load password: %w", domain.ErrUnauthenticated, err)
	}

	session, err := p.authenticator.Login(ctx, p.profile.Username, password, p.profile.DataSource)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
		return fmt.Errorf("login: %w", err)
	}

	p.mu.Lock()
	p.session = session
	p.loaded = true
	p.mu.Unlock()

	if p.profile.Credentials.TokenRef != "" {
		encoded, err := session.Encode()
		if err == nil {
			err = p.secrets.Put(ctx, p.profile.Credentials.TokenRef, encoded)
		}
		if err != nil {
			p.log.Warn("failed to persist renewed session", "profile", p.profile.ID, "error", err)
		}
	}

	p.log.Info("session renewed", "profile", p.profile.ID, "username", session.Username)
	return nil
}

func (p *SessionProvider) current(ctx context.Context) (domain.Session, error) {
	p.mu.RLock()
	if p.loaded {
		session := p.session
		p.mu.RUnlock()
		return session, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.session, nil
	}

	if ref := p.profile.Credentials.TokenRef; ref != "" {
		raw, err := p.secrets.Get(ctx, ref)
		switch {
		case err == nil:
			session, decodeErr := domain.DecodeSession(raw)
			if decodeErr != nil {
				p.log.Warn("ignoring unreadable stored session", "profile", p.profile.ID, "error", decodeErr)
			} else {
				p.session = session
			}
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return domain.Session{}, err
		default:
			p.log.Debug("no stored session", "profile", p.profile.ID, "error", err)
		}
	}

	p.loaded = true
	return p.session, nil
}

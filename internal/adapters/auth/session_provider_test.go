package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/logging"
	"github.com/bnema/guac-console/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testProfile() domain.Profile {
	return domain.Profile{
		ID:         "lab",
		BaseURL:    "https://console.example.com/guacamole",
		DataSource: "mysql",
		Username:   "alice",
		Credentials: domain.Credentials{
			PasswordRef: "guacc://lab/password",
			TokenRef:    "guacc://lab/token",
		},
	}
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "https://console.example.com/guacamole/api/session/data/poolimage", nil)
	require.NoError(t, err)
	return req
}

func TestAttachCredentialsUsesStoredSession(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	encoded, err := domain.Session{Token: "tok-1", Username: "alice", DataSource: "mysql"}.Encode()
	require.NoError(t, err)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/token").Return(encoded, nil).Once()

	provider := NewSessionProvider(testProfile(), secrets, mocks.NewMockAuthenticator(t), logging.Discard())

	first := newRequest(t)
	require.NoError(t, provider.AttachCredentials(context.Background(), first))
	assert.Equal(t, "tok-1", first.Header.Get(TokenHeader))

	second := newRequest(t)
	require.NoError(t, provider.AttachCredentials(context.Background(), second))
	assert.Equal(t, "tok-1", second.Header.Get(TokenHeader))
}

func TestAttachCredentialsWithoutSessionIsUnauthenticated(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/token").Return("", domain.ErrSecretNotFound).Once()

	provider := NewSessionProvider(testProfile(), secrets, mocks.NewMockAuthenticator(t), logging.Discard())

	req := newRequest(t)
	err := provider.AttachCredentials(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, req.Header.Get(TokenHeader))
}

func TestAttachCredentialsIgnoresCorruptStoredSession(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/token").Return("{not json", nil).Once()

	provider := NewSessionProvider(testProfile(), secrets, mocks.NewMockAuthenticator(t), logging.Discard())

	err := provider.AttachCredentials(context.Background(), newRequest(t))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestReauthenticateStoresRenewedSession(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/password").Return("s3cret", nil).Once()
	secrets.EXPECT().Put(mock.Anything, "guacc://lab/token", mock.Anything).
		RunAndReturn(func(_ context.Context, _ string, value string) error {
			session, err := domain.DecodeSession(value)
			require.NoError(t, err)
			assert.Equal(t, "tok-2", session.Token)
			return nil
		}).Once()

	authenticator := mocks.NewMockAuthenticator(t)
	authenticator.EXPECT().Login(mock.Anything, "alice", "s3cret", "mysql").
		Return(domain.Session{Token: "tok-2", Username: "alice", DataSource: "mysql"}, nil).Once()

	provider := NewSessionProvider(testProfile(), secrets, authenticator, logging.Discard())
	require.NoError(t, provider.Reauthenticate(context.Background()))

	req := newRequest(t)
	require.NoError(t, provider.AttachCredentials(context.Background(), req))
	assert.Equal(t, "tok-2", req.Header.Get(TokenHeader))
}

func TestReauthenticateKeepsSessionWhenPersistFails(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/password").Return("s3cret", nil).Once()
	secrets.EXPECT().Put(mock.Anything, "guacc://lab/token", mock.Anything).Return(errors.New("disk full")).Once()

	authenticator := mocks.NewMockAuthenticator(t)
	authenticator.EXPECT().Login(mock.Anything, "alice", "s3cret", "mysql").
		Return(domain.Session{Token: "tok-3"}, nil).Once()

	provider := NewSessionProvider(testProfile(), secrets, authenticator, logging.Discard())
	require.NoError(t, provider.Reauthenticate(context.Background()))

	session, err := provider.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-3", session.Token)
}

func TestReauthenticateWithoutPasswordIsUnauthenticated(t *testing.T) {
	t.Parallel()

	profile := testProfile()
	profile.Credentials.PasswordRef = ""

	provider := NewSessionProvider(profile, mocks.NewMockSecretStore(t), mocks.NewMockAuthenticator(t), logging.Discard())

	err := provider.Reauthenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestReauthenticateRejectedCredentialsIsUnauthenticated(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/password").Return("old", nil).Once()

	authenticator := mocks.NewMockAuthenticator(t)
	authenticator.EXPECT().Login(mock.Anything, "alice", "old", "mysql").
		Return(domain.Session{}, ErrInvalidCredentials).Once()

	provider := NewSessionProvider(testProfile(), secrets, authenticator, logging.Discard())

	err := provider.Reauthenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestReauthenticateUnreachableKeepsCause(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/password").Return("s3cret", nil).Once()

	authenticator := mocks.NewMockAuthenticator(t)
	authenticator.EXPECT().Login(mock.Anything, "alice", "s3cret", "mysql").
		Return(domain.Session{}, domain.ErrUnreachable).Once()

	provider := NewSessionProvider(testProfile(), secrets, authenticator, logging.Discard())

	err := provider.Reauthenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestConcurrentReauthenticateSharesLogin(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/password").Return("s3cret", nil)
	secrets.EXPECT().Put(mock.Anything, "guacc://lab/token", mock.Anything).Return(nil)

	var logins atomic.Int32
	authenticator := mocks.NewMockAuthenticator(t)
	authenticator.EXPECT().Login(mock.Anything, "alice", "s3cret", "mysql").
		RunAndReturn(func(context.Context, string, string, string) (domain.Session, error) {
			logins.Add(1)
			time.Sleep(20 * time.Millisecond)
			return domain.Session{Token: "tok-4"}, nil
		})

	provider := NewSessionProvider(testProfile(), secrets, authenticator, logging.Discard())

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- provider.Reauthenticate(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.GreaterOrEqual(t, logins.Load(), int32(1))
	assert.Less(t, logins.Load(), int32(callers))
}

func TestReauthenticateSurvivesFirstCallerCancel(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mock.Anything, "guacc://lab/password").Return("s3cret", nil)
	secrets.EXPECT().Put(mock.Anything, "guacc://lab/token", mock.Anything).Return(nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var loginErr atomic.Value
	authenticator := mocks.NewMockAuthenticator(t)
	authenticator.EXPECT().Login(mock.Anything, "alice", "s3cret", "mysql").
		RunAndReturn(func(ctx context.Context, _, _, _ string) (domain.Session, error) {
			once.Do(func() {
				close(entered)
				<-release
			})
			loginErr.Store(fmt.Sprint(ctx.Err()))
			return domain.Session{Token: "tok-5"}, nil
		})

	provider := NewSessionProvider(testProfile(), secrets, authenticator, logging.Discard())

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- provider.Reauthenticate(firstCtx) }()

	<-entered
	cancel()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller kept waiting for the shared login")
	}

	second := make(chan error, 1)
	go func() { second <- provider.Reauthenticate(context.Background()) }()
	close(release)

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never finished")
	}
	assert.Equal(t, "<nil>", loginErr.Load())

	session, err := provider.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-5", session.Token)
}

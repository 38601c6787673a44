package application

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bnema/guac-console/internal/adapters/cache/ttl"
	"github.com/bnema/guac-console/internal/adapters/rest"
	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/logging"
	"github.com/bnema/guac-console/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetPoolImageIssuesCachedDescriptor(t *testing.T) {
	t.Parallel()

	requester := mocks.NewMockRequester(t)
	requester.EXPECT().Request(mock.Anything, domain.RequestDescriptor{
		Method:    http.MethodGet,
		Path:      "api/session/data/poolimage",
		Cache:     domain.CacheUsers,
		Partition: "default/alice",
	}).Return(domain.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
		Body:       []byte(`{"identifier":"img-7","attributes":{"readme":"hello","downlaods":"3"},"lastActive":1767225600000,"extra":true}`),
	}, nil).Once()

	svc := NewPoolImageService(requester, mocks.NewMockResponseCache(t), logging.Discard())

	image, err := svc.GetPoolImage(context.Background(), "default", "alice")
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", image.ContentType)
	require.NotNil(t, image.Image)
	assert.Equal(t, "img-7", image.Image.Identifier)
	downloads, ok := image.Image.Attribute(domain.ImageAttributeDownloads)
	assert.True(t, ok)
	assert.Equal(t, "3", downloads)
}

func TestGetPoolImageKeepsOpaquePayload(t *testing.T) {
	t.Parallel()

	requester := mocks.NewMockRequester(t)
	requester.EXPECT().Request(mock.Anything, mock.Anything).Return(domain.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"image/png"}},
		Body:       []byte{0x89, 'P', 'N', 'G'},
	}, nil).Once()

	svc := NewPoolImageService(requester, mocks.NewMockResponseCache(t), logging.Discard())

	image, err := svc.GetPoolImage(context.Background(), "default", "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, image.Data)
	assert.Nil(t, image.Image)
}

func TestGetPoolImagePropagatesFailureKinds(t *testing.T) {
	t.Parallel()

	rejected := &domain.RemoteRejectedError{StatusCode: http.StatusNotFound}
	for _, cause := range []error{domain.ErrUnauthenticated, domain.ErrUnreachable, rejected} {
		requester := mocks.NewMockRequester(t)
		requester.EXPECT().Request(mock.Anything, mock.Anything).Return(domain.Response{}, cause).Once()

		svc := NewPoolImageService(requester, mocks.NewMockResponseCache(t), logging.Discard())

		_, err := svc.GetPoolImage(context.Background(), "default", "alice")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	}
}

func TestUploadPoolImageInvalidatesUsersAfterSuccess(t *testing.T) {
	t.Parallel()

	requester := mocks.NewMockRequester(t)
	cache := mocks.NewMockResponseCache(t)

	requester.EXPECT().Request(mock.Anything, domain.RequestDescriptor{
		Method:      http.MethodPost,
		Path:        "api/session/data/uploadpoolimage",
		Body:        []byte("image-bytes"),
		ContentType: "application/octet-stream",
	}).Return(domain.Response{StatusCode: http.StatusNoContent}, nil).Once()
	cache.EXPECT().InvalidateAll(domain.CacheUsers).Return().Once()

	svc := NewPoolImageService(requester, cache, logging.Discard())

	err := svc.UploadPoolImage(context.Background(), domain.UploadFile{Name: "disk.img", Data: []byte("image-bytes")}, "alice")
	require.NoError(t, err)
}

func TestUploadPoolImageFailureLeavesCache(t *testing.T) {
	t.Parallel()

	requester := mocks.NewMockRequester(t)
	requester.EXPECT().Request(mock.Anything, mock.Anything).
		Return(domain.Response{}, &domain.RemoteRejectedError{StatusCode: http.StatusRequestEntityTooLarge}).Once()

	svc := NewPoolImageService(requester, mocks.NewMockResponseCache(t), logging.Discard())

	err := svc.UploadPoolImage(context.Background(), domain.UploadFile{Data: []byte("x"), ContentType: "image/png"}, "alice")
	require.Error(t, err)
	var rejected *domain.RemoteRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rejected.StatusCode)
}

func TestUploadPoolImageRejectsEmptyFile(t *testing.T) {
	t.Parallel()

	svc := NewPoolImageService(mocks.NewMockRequester(t), mocks.NewMockResponseCache(t), logging.Discard())

	err := svc.UploadPoolImage(context.Background(), domain.UploadFile{Name: "empty"}, "alice")
	require.Error(t, err)
	assert.ErrorContains(t, err, "empty")
}

// fakeConsole serves the pool image endpoints with an optional one-shot token expiry.
// When hold is set, the first GET reads the image, closes held and answers only once
// hold is closed.
type fakeConsole struct {
	mu       sync.Mutex
	image    []byte
	gets     atomic.Int32
	uploads  atomic.Int32
	expireIn atomic.Int32

	hold     chan struct{}
	held     chan struct{}
	holdOnce sync.Once
}

func (f *fakeConsole) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.expireIn.Load() > 0 && f.expireIn.Add(-1) == 0 {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/session/data/poolimage":
		f.gets.Add(1)
		f.mu.Lock()
		body := append([]byte(nil), f.image...)
		f.mu.Unlock()
		if f.hold != nil {
			f.holdOnce.Do(func() {
				close(f.held)
				<-f.hold
			})
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	case r.Method == http.MethodPost && r.URL.Path == "/api/session/data/uploadpoolimage":
		f.uploads.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.image = body
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newPipeline(t *testing.T, console *fakeConsole, creds *mocks.MockCredentialProvider) *PoolImageService {
	t.Helper()

	server := httptest.NewServer(console)
	t.Cleanup(server.Close)

	cache := ttl.New()
	client, err := rest.NewClient(rest.Config{
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
		Credentials: creds,
		Cache:       cache,
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)

	return NewPoolImageService(client, cache, logging.Discard())
}

func attachAnyToken(creds *mocks.MockCredentialProvider) {
	creds.EXPECT().AttachCredentials(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req *http.Request) error {
			req.Header.Set("Guacamole-Token", "tok")
			return nil
		}).Maybe()
}

func TestRepeatedPoolImageReadsHitTheServerOnce(t *testing.T) {
	t.Parallel()

	console := &fakeConsole{image: []byte("v1")}
	creds := mocks.NewMockCredentialProvider(t)
	attachAnyToken(creds)
	svc := newPipeline(t, console, creds)

	for range 5 {
		image, err := svc.GetPoolImage(context.Background(), "default", "alice")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), image.Data)
	}
	assert.Equal(t, int32(1), console.gets.Load())
}

func TestUploadThenGetSeesNewImage(t *testing.T) {
	t.Parallel()

	console := &fakeConsole{image: []byte("v1")}
	creds := mocks.NewMockCredentialProvider(t)
	attachAnyToken(creds)
	svc := newPipeline(t, console, creds)

	first, err := svc.GetPoolImage(context.Background(), "default", "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), first.Data)

	require.NoError(t, svc.UploadPoolImage(context.Background(), domain.UploadFile{Name: "v2.img", Data: []byte("v2")}, "alice"))

	second, err := svc.GetPoolImage(context.Background(), "default", "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), second.Data)
	assert.Equal(t, int32(2), console.gets.Load())
	assert.Equal(t, int32(1), console.uploads.Load())
}

func TestReadInFlightDuringUploadDoesNotRestoreOldImage(t *testing.T) {
	t.Parallel()

	console := &fakeConsole{
		image: []byte("v1"),
		hold:  make(chan struct{}),
		held:  make(chan struct{}),
	}
	creds := mocks.NewMockCredentialProvider(t)
	attachAnyToken(creds)
	svc := newPipeline(t, console, creds)

	slow := make(chan domain.PoolImage, 1)
	go func() {
		image, err := svc.GetPoolImage(context.Background(), "default", "alice")
		assert.NoError(t, err)
		slow <- image
	}()

	<-console.held
	require.NoError(t, svc.UploadPoolImage(context.Background(), domain.UploadFile{Name: "v2.img", Data: []byte("v2")}, "alice"))
	close(console.hold)
	assert.Equal(t, []byte("v1"), (<-slow).Data)

	for range 2 {
		image, err := svc.GetPoolImage(context.Background(), "default", "alice")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), image.Data)
	}
	assert.Equal(t, int32(2), console.gets.Load())
}

func TestPoolImageReadsArePartitionedByIdentity(t *testing.T) {
	t.Parallel()

	console := &fakeConsole{image: []byte("v1")}
	creds := mocks.NewMockCredentialProvider(t)
	attachAnyToken(creds)
	svc := newPipeline(t, console, creds)

	for _, identity := range []string{"alice", "bob", "alice", "bob"} {
		_, err := svc.GetPoolImage(context.Background(), "default", identity)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), console.gets.Load())
}

func TestExpiredTokenIsRenewedOnce(t *testing.T) {
	t.Parallel()

	console := &fakeConsole{image: []byte("v1")}
	console.expireIn.Store(1)

	creds := mocks.NewMockCredentialProvider(t)
	attachAnyToken(creds)
	creds.EXPECT().Reauthenticate(mock.Anything).Return(nil).Once()
	svc := newPipeline(t, console, creds)

	image, err := svc.GetPoolImage(context.Background(), "default", "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), image.Data)
	assert.Equal(t, int32(1), console.gets.Load())
}

func TestMissingCredentialsNeverReachTheServer(t *testing.T) {
	t.Parallel()

	console := &fakeConsole{image: []byte("v1")}
	creds := mocks.NewMockCredentialProvider(t)
	creds.EXPECT().AttachCredentials(mock.Anything, mock.Anything).Return(domain.ErrUnauthenticated).Once()
	svc := newPipeline(t, console, creds)

	_, err := svc.GetPoolImage(context.Background(), "default", "alice")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, int32(0), console.gets.Load())
}

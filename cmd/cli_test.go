package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bnema/guac-console/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fakeUsername = "alice"
	fakePassword = "s3cret"
	fakeImage    = `{"identifier":"ctf-2026","attributes":{"readme":"hello"},"lastActive":1767225600000}`
)

func TestVersionPrintsVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestProfileAddRequiresURLFlag(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "profile", "add", "lab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"url\" not set")
}

func TestProfileAddRejectsInvalidID(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "profile", "add", "lab/one", "--url", "https://lab.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile id must contain only")
}

func TestProfileAddThenList(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home,
		"profile", "add", "lab",
		"--url", "https://lab.example.com/guacamole/",
		"--username", fakeUsername,
		"--name", "Lab",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved profile lab (https://lab.example.com/guacamole)")

	stdout, _, err = executeCLI(t, home, "profile", "list")
	require.NoError(t, err)
	assert.Equal(t, "lab\tLab\thttps://lab.example.com/guacamole\tlogged out\n", stdout)

	stdout, _, err = executeCLI(t, home, "profile", "list", "--json")
	require.NoError(t, err)
	var views []profileView
	require.NoError(t, json.Unmarshal([]byte(stdout), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "lab", views[0].ID)
	assert.Equal(t, fakeUsername, views[0].Username)
	assert.False(t, views[0].LoggedIn)
}

func TestProfileListWithoutProfiles(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No profiles configured")
}

func TestProfileRemove(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)

	stdout, _, err := executeCLI(t, home, "profile", "remove", "lab")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed profile lab")
	assert.NoFileExists(t, filepath.Join(home, ".guacc", "secrets", "guacc", "lab", "token"))
	assert.NoFileExists(t, filepath.Join(home, ".guacc", "secrets", "guacc", "lab", "password"))

	_, _, err = executeCLI(t, home, "profile", "remove", "lab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile not found")
}

func TestUnknownProfileSuggestsAdd(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "--profile", "missing", "poolimage", "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guacc profile add missing")
}

func TestLoginStoresSessionAndPassword(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)

	stdout := loginLab(t, home)
	assert.Contains(t, stdout, "Logged in to lab as alice (data source postgresql)")
	assert.Equal(t, 1, server.count("login"))

	secrets := filepath.Join(home, ".guacc", "secrets", "guacc", "lab")
	assert.FileExists(t, filepath.Join(secrets, "token"))
	password, err := os.ReadFile(filepath.Join(secrets, "password"))
	require.NoError(t, err)
	assert.Equal(t, fakePassword, string(password))

	stdout, _, err = executeCLI(t, home, "--profile", "lab", "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "logged in as alice")
}

func TestLoginWithoutRememberKeepsPasswordOut(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)

	_, _, err := executeCLI(t, home, "--profile", "lab", "login", "--password", fakePassword, "--no-remember")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(home, ".guacc", "secrets", "guacc", "lab", "password"))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)

	_, _, err := executeCLIWithInput(t, home, strings.NewReader("wrong\n"), "--profile", "lab", "login", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.NoFileExists(t, filepath.Join(home, ".guacc", "secrets", "guacc", "lab", "token"))
}

func TestLoginRejectsConflictingPasswordFlags(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)

	_, _, err := executeCLIWithInput(t, home, strings.NewReader(fakePassword), "--profile", "lab", "login", "--password", "x", "--password-stdin")
	require.ErrorIs(t, err, errPasswordFlagsConflict)
	assert.Equal(t, 0, server.count("login"))
}

func TestLogoutRevokesAndForgetsSession(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)

	stdout, _, err := executeCLI(t, home, "--profile", "lab", "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged out of lab")
	assert.Equal(t, 1, server.count("logout"))
	assert.NoFileExists(t, filepath.Join(home, ".guacc", "secrets", "guacc", "lab", "token"))

	stdout, _, err = executeCLI(t, home, "--profile", "lab", "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Profile lab has no stored session")
	assert.Equal(t, 1, server.count("logout"))
}

func TestPoolImageGetWithoutSessionReportsExpiry(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)

	_, _, err := executeCLI(t, home, "--profile", "lab", "poolimage", "get", "--json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired, run `guacc login --profile lab`")
	assert.Equal(t, 0, server.count("get"))
}

func TestPoolImageGetRendersImage(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)

	stdout, stderr, err := executeCLI(t, home, "--profile", "lab", "poolimage", "get")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Identifier: ctf-2026")
	assert.Contains(t, stdout, "Last active: 2026-01-01T00:00:00Z")
	assert.Contains(t, stdout, "  readme: hello")
	assert.Contains(t, stderr, "Fetching pool image...")
	assert.Equal(t, 1, server.count("get"))
}

func TestPoolImageGetJSONOutput(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)

	stdout, stderr, err := executeCLI(t, home, "--profile", "lab", "poolimage", "get", "--json")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Fetching pool image...")

	var view poolImageView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, "application/json", view.ContentType)
	assert.Equal(t, len(fakeImage), view.Bytes)
	assert.Equal(t, "ctf-2026", view.Identifier)
	assert.Equal(t, "hello", view.Attributes["readme"])
}

func TestPoolImageGetWritesOutputFile(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)

	target := filepath.Join(t.TempDir(), "image.json")
	stdout, _, err := executeCLI(t, home, "--profile", "lab", "poolimage", "get", "--output", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, fmt.Sprintf("Wrote %d bytes to %s", len(fakeImage), target))

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, fakeImage, string(written))
}

func TestPoolImageGetRenewsExpiredSession(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)
	server.expireTokens()

	stdout, _, err := executeCLI(t, home, "--profile", "lab", "poolimage", "get")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Identifier: ctf-2026")
	assert.Equal(t, 2, server.count("login"))
	assert.Equal(t, 2, server.count("get"))

	// The renewed session was persisted, so the next run needs no login.
	_, _, err = executeCLI(t, home, "--profile", "lab", "poolimage", "get")
	require.NoError(t, err)
	assert.Equal(t, 2, server.count("login"))
}

func TestPoolImageGetWithoutStoredPasswordCannotRenew(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	_, _, err := executeCLI(t, home, "--profile", "lab", "login", "--password", fakePassword, "--no-remember")
	require.NoError(t, err)
	server.expireTokens()

	_, _, err = executeCLI(t, home, "--profile", "lab", "poolimage", "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")
	assert.Equal(t, 1, server.count("login"))
}

func TestVerboseGetLogsResponseCacheActivity(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)

	_, stderr, err := executeCLI(t, home, "--verbose", "--no-color", "--profile", "lab", "poolimage", "get", "--json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "response cache")
	assert.Contains(t, stderr, "entries=1")
}

func TestPoolImageUploadWithVerify(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)
	loginLab(t, home)

	upload := filepath.Join(t.TempDir(), "next.json")
	require.NoError(t, os.WriteFile(upload, []byte(`{"identifier":"ctf-2027"}`), 0o600))

	stdout, _, err := executeCLI(t, home, "--profile", "lab", "poolimage", "upload", upload, "--verify")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Uploaded next.json (25 bytes)")
	assert.Contains(t, stdout, "Identifier: ctf-2027")
	assert.Equal(t, 1, server.count("upload"))
	assert.Equal(t, 1, server.count("get"))
	assert.Equal(t, "application/json", server.lastUploadType())
}

func TestPoolImageUploadMissingFile(t *testing.T) {
	home := t.TempDir()
	server := newFakeGuacamole(t)
	addLabProfile(t, home, server)

	_, _, err := executeCLI(t, home, "--profile", "lab", "poolimage", "upload", filepath.Join(home, "nope.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read upload file")
	assert.Equal(t, 0, server.count("upload"))
}

func TestStatsShowRendersFile(t *testing.T) {
	stream := filepath.Join(t.TempDir(), "stats.jsonl")
	require.NoError(t, os.WriteFile(stream, []byte(strings.Join([]string{
		`{"desktopFps": 30.2, "serverFps": 29.5}`,
		`not json`,
		`{"desktopFps": 42.6}`,
	}, "\n")), 0o600))

	stdout, _, err := executeCLI(t, t.TempDir(), "stats", "show", "--file", stream)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Desktop framerate")
	assert.Contains(t, stdout, "43 frames/second")
	assert.Contains(t, stdout, "30 frames/second")
	assert.Contains(t, stdout, "no value")
}

func TestStatsShowStrictFailsOnMalformedLine(t *testing.T) {
	_, _, err := executeCLIWithInput(t, t.TempDir(), strings.NewReader("{\"desktopFps\": 1}\nnot json\n"), "stats", "show", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestStatsShowJSONFromStdin(t *testing.T) {
	input := strings.NewReader("{\"desktopFps\": 42.6, \"dropRate\": 2.5}\n")

	stdout, _, err := executeCLIWithInput(t, t.TempDir(), input, "stats", "show", "--json")
	require.NoError(t, err)

	var views []statisticView
	require.NoError(t, json.Unmarshal([]byte(stdout), &views))
	require.Len(t, views, 4)
	assert.Equal(t, "desktop-fps", views[0].Key)
	require.NotNil(t, views[0].Value)
	assert.Equal(t, int64(43), *views[0].Value)
	assert.Nil(t, views[1].Value)
	assert.Nil(t, views[2].Value)
	require.NotNil(t, views[3].Value)
	assert.Equal(t, int64(3), *views[3].Value)
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, home, strings.NewReader(""), args...)
}

func executeCLIWithInput(t *testing.T, home string, input io.Reader, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("GUACC_SECRETS_BACKEND", "file")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetIn(input)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func addLabProfile(t *testing.T, home string, server *fakeGuacamole) {
	t.Helper()

	_, _, err := executeCLI(t, home,
		"profile", "add", "lab",
		"--url", server.URL+"/guacamole",
		"--username", fakeUsername,
	)
	require.NoError(t, err)
}

func loginLab(t *testing.T, home string) string {
	t.Helper()

	stdout, _, err := executeCLIWithInput(t, home, strings.NewReader(fakePassword+"\n"), "--profile", "lab", "login", "--password-stdin")
	require.NoError(t, err)
	return stdout
}

// fakeGuacamole serves the token and pool image endpoints under /guacamole.
type fakeGuacamole struct {
	*httptest.Server

	mu         sync.Mutex
	calls      map[string]int
	tokens     map[string]bool
	issued     int
	image      []byte
	imageType  string
	uploadType string
}

func newFakeGuacamole(t *testing.T) *fakeGuacamole {
	t.Helper()

	fake := &fakeGuacamole{
		calls:     map[string]int{},
		tokens:    map[string]bool{},
		image:     []byte(fakeImage),
		imageType: "application/json",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /guacamole/api/tokens", fake.login)
	mux.HandleFunc("DELETE /guacamole/api/tokens/{token}", fake.logout)
	mux.HandleFunc("GET /guacamole/api/session/data/poolimage", fake.getImage)
	mux.HandleFunc("POST /guacamole/api/session/data/uploadpoolimage", fake.upload)

	fake.Server = httptest.NewServer(mux)
	t.Cleanup(fake.Close)
	return fake
}

func (f *fakeGuacamole) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGuacamole) lastUploadType() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadType
}

// expireTokens invalidates every issued token, as a server-side timeout would.
func (f *fakeGuacamole) expireTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = map[string]bool{}
}

func (f *fakeGuacamole) login(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["login"]++

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != fakeUsername || r.PostForm.Get("password") != fakePassword {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Permission Denied.","type":"INVALID_CREDENTIALS"}`))
		return
	}

	f.issued++
	token := fmt.Sprintf("token-%d", f.issued)
	f.tokens[token] = true

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"authToken":            token,
		"username":             fakeUsername,
		"dataSource":           "postgresql",
		"availableDataSources": []string{"postgresql"},
	})
}

func (f *fakeGuacamole) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["logout"]++

	delete(f.tokens, r.PathValue("token"))
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeGuacamole) authorized(r *http.Request) bool {
	return f.tokens[r.Header.Get("Guacamole-Token")]
}

func (f *fakeGuacamole) getImage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["get"]++

	if !f.authorized(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", f.imageType)
	_, _ = w.Write(f.image)
}

func (f *fakeGuacamole) upload(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["upload"]++

	if !f.authorized(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.image = body
	f.uploadType = r.Header.Get("Content-Type")
	if strings.HasPrefix(f.uploadType, "application/json") {
		f.imageType = "application/json"
	} else {
		f.imageType = f.uploadType
	}
	w.WriteHeader(http.StatusNoContent)
}

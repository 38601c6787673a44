package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestRemoteRejectedErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *RemoteRejectedError
		want string
	}{
		{name: "status only", err: &RemoteRejectedError{StatusCode: 500}, want: "remote rejected request: status 500"},
		{name: "with body", err: &RemoteRejectedError{StatusCode: 404, Body: []byte(" not found\n")}, want: "remote rejected request: status 404: not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRemoteRejectedErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("get pool image: %w", &RemoteRejectedError{StatusCode: 409})

	var rejected *RemoteRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, 409, rejected.StatusCode)
}

func TestResponseCloneIsIndependent(t *testing.T) {
	original := Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"image/png"}},
		Body:       []byte{1, 2, 3},
	}

	clone := original.Clone()
	clone.Body[0] = 9
	clone.Header.Set("Content-Type", "text/plain")

	assert.Equal(t, []byte{1, 2, 3}, original.Body)
	assert.Equal(t, "image/png", original.ContentType())
	assert.Equal(t, "text/plain", clone.ContentType())
}

func TestResponseContentTypeWithoutHeader(t *testing.T) {
	assert.Empty(t, Response{}.ContentType())
}

func TestLiveStatisticsReturnsCopies(t *testing.T) {
	var live LiveStatistics
	live.Update(StatisticsSnapshot{DesktopFPS: floatPtr(30)})

	snapshot := live.Statistics()
	*snapshot.DesktopFPS = 1

	again := live.Statistics()
	require.NotNil(t, again.DesktopFPS)
	assert.Equal(t, 30.0, *again.DesktopFPS)
	assert.Nil(t, again.ServerFPS)
}

func TestLiveStatisticsMergeKeepsUnsetFields(t *testing.T) {
	var live LiveStatistics
	live.Update(StatisticsSnapshot{DesktopFPS: floatPtr(30), DropRate: floatPtr(0.5)})
	live.Merge(StatisticsSnapshot{ServerFPS: floatPtr(24), DropRate: floatPtr(1.5)})

	snapshot := live.Statistics()
	assert.Equal(t, 30.0, *snapshot.DesktopFPS)
	assert.Equal(t, 24.0, *snapshot.ServerFPS)
	assert.Nil(t, snapshot.ClientFPS)
	assert.Equal(t, 1.5, *snapshot.DropRate)
}

func TestLiveStatisticsConcurrentReadersAndWriters(t *testing.T) {
	var live LiveStatistics
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			live.Update(StatisticsSnapshot{ClientFPS: floatPtr(float64(n))})
		}(i)
		go func() {
			defer wg.Done()
			_ = live.Statistics()
		}()
	}
	wg.Wait()

	assert.NotNil(t, live.Statistics().ClientFPS)
}

func TestProfileHelpers(t *testing.T) {
	assert.False(t, Profile{}.HasPassword())
	assert.True(t, Profile{Credentials: Credentials{PasswordRef: "guacc://lab/password"}}.HasPassword())
	assert.False(t, Session{}.Valid())
	assert.True(t, Session{Token: "abc"}.Valid())
	assert.Equal(t, "guacc://lab/password", PasswordRef("lab"))
	assert.Equal(t, "guacc://lab/token", TokenRef("lab"))
}

func TestSessionEncodeRoundTrip(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	encoded, err := Session{
		Token:                "tok",
		Username:             "alice",
		DataSource:           "mysql",
		AvailableDataSources: []string{"mysql"},
		IssuedAt:             issued,
	}.Encode()
	require.NoError(t, err)

	session, err := DecodeSession(encoded)
	require.NoError(t, err)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, []string{"mysql"}, session.AvailableDataSources)
	assert.Equal(t, issued, session.IssuedAt)

	_, err = DecodeSession(`{"username":"alice"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token")

	_, err = DecodeSession("not json")
	require.Error(t, err)
}

func TestImageMetadataAttribute(t *testing.T) {
	meta := ImageMetadata{Attributes: map[string]string{ImageAttributeReadme: "hello"}}

	value, ok := meta.Attribute(ImageAttributeReadme)
	assert.True(t, ok)
	assert.Equal(t, "hello", value)

	_, ok = meta.Attribute(ImageAttributeScoreboard)
	assert.False(t, ok)
}

func TestImageMetadataJSON(t *testing.T) {
	var meta ImageMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"identifier":"img-7","attributes":{"readme":"hi"},"lastActive":1767225600000,"unknown":1}`), &meta))
	assert.Equal(t, "img-7", meta.Identifier)
	require.NotNil(t, meta.LastActive)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *meta.LastActive)

	encoded, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"identifier":"img-7","attributes":{"readme":"hi"},"lastActive":1767225600000}`, string(encoded))

	var bare ImageMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"identifier":"img-8","lastActive":null}`), &bare))
	assert.Nil(t, bare.LastActive)

	encoded, err = json.Marshal(bare)
	require.NoError(t, err)
	assert.JSONEq(t, `{"identifier":"img-8"}`, string(encoded))
}

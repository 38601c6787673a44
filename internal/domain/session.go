package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type storedSession struct {
	Token                string   `json:"token"`
	Username             string   `json:"username,omitempty"`
	DataSource           string   `json:"data_source,omitempty"`
	AvailableDataSources []string `json:"available_data_sources,omitempty"`
	IssuedAt             int64    `json:"issued_at,omitempty"`
}

// Encode serializes the session for a secret store.
func (s Session) Encode() (string, error) {
	stored := storedSession{
		Token:                s.Token,
		Username:             s.Username,
		DataSource:           s.DataSource,
		AvailableDataSources: s.AvailableDataSources,
	}
	if !s.IssuedAt.IsZero() {
		stored.IssuedAt = s.IssuedAt.Unix()
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	return string(payload), nil
}

func DecodeSession(raw string) (Session, error) {
	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if strings.TrimSpace(stored.Token) == "" {
		return Session{}, errors.New("stored session missing token")
	}

	session := Session{
		Token:                stored.Token,
		Username:             stored.Username,
		DataSource:           stored.DataSource,
		AvailableDataSources: stored.AvailableDataSources,
	}
	if stored.IssuedAt > 0 {
		session.IssuedAt = time.Unix(stored.IssuedAt, 0).UTC()
	}
	return session, nil
}

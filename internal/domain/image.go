package domain

import (
	"encoding/json"
	"time"
)

// Standard image attribute names understood by the server.
const (
	ImageAttributeUploadedFilename = "uploaded-filename"
	ImageAttributeFinalFilename    = "final-filename"
	ImageAttributeReadme           = "readme"
	// ImageAttributeDownloads keeps the server's spelling.
	ImageAttributeDownloads        = "downlaods"
	ImageAttributeScoreboard       = "scoreboard"
	ImageAttributeWriteUps         = "write-ups"
)

type PoolImage struct {
	ContentType string
	Data        []byte
	// Image is set when the server described the image as a JSON object.
	Image *ImageMetadata
}

type ImageMetadata struct {
	Identifier string
	Attributes map[string]string
	LastActive *time.Time
}

// imageMetadataWire is the server encoding; lastActive is milliseconds since the epoch.
type imageMetadataWire struct {
	Identifier string            `json:"identifier,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	LastActive *int64            `json:"lastActive,omitempty"`
}

func (m ImageMetadata) MarshalJSON() ([]byte, error) {
	wire := imageMetadataWire{Identifier: m.Identifier, Attributes: m.Attributes}
	if m.LastActive != nil {
		millis := m.LastActive.UnixMilli()
		wire.LastActive = &millis
	}
	return json.Marshal(wire)
}

func (m *ImageMetadata) UnmarshalJSON(data []byte) error {
	var wire imageMetadataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*m = ImageMetadata{Identifier: wire.Identifier, Attributes: wire.Attributes}
	if wire.LastActive != nil {
		lastActive := time.UnixMilli(*wire.LastActive).UTC()
		m.LastActive = &lastActive
	}
	return nil
}

func (m ImageMetadata) Attribute(name string) (string, bool) {
	value, ok := m.Attributes[name]
	return value, ok
}

type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

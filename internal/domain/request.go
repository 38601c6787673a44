package domain

import (
	"net/http"
	"net/url"
)

type CacheNamespace string

// CacheUsers groups user-scoped resources such as the pool image.
const CacheUsers CacheNamespace = "users"

// RequestDescriptor describes one remote call. It is built per invocation and not
// mutated once issued.
type RequestDescriptor struct {
	Method      string
	Path        string
	Params      url.Values
	Body        []byte
	ContentType string
	// Cache enables cache lookups and stores when set.
	Cache CacheNamespace
	// Partition is folded into the cache key and never sent.
	Partition string
}

func (d RequestDescriptor) Cached() bool {
	return d.Cache != ""
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Clone returns a deep copy so cached values cannot be mutated through a caller's copy.
func (r Response) Clone() Response {
	clone := Response{StatusCode: r.StatusCode}
	if r.Header != nil {
		clone.Header = r.Header.Clone()
	}
	if r.Body != nil {
		clone.Body = append([]byte(nil), r.Body...)
	}
	return clone
}

func (r Response) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

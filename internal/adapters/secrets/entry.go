// Package secrets holds the secret-store backends and the mapping from credential
// references to backend entry names.
package secrets

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const refScheme = "guacc://"

// EntryPath turns a credential reference such as "guacc://lab/password" into the
// slash-separated entry "guacc/lab/password". Bare relative keys are accepted as is.
func EntryPath(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", errors.New("secret key is empty")
	}

	if rest, ok := strings.CutPrefix(trimmed, refScheme); ok {
		trimmed = "guacc/" + rest
	} else if strings.Contains(trimmed, "://") {
		return "", fmt.Errorf("invalid secret key %q: unsupported scheme", ref)
	}

	cleaned := path.Clean(trimmed)
	if strings.HasPrefix(cleaned, "/") || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid secret key %q", ref)
	}
	if cleaned == "guacc" {
		return "", fmt.Errorf("invalid secret key %q: missing entry name", ref)
	}

	return cleaned, nil
}

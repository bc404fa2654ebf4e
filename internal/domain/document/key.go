package document

import (
	"strings"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// KeySeparator joins the tenant and the document id in a backend key.
const KeySeparator = ":"

// EncodeKey derives the backend key for a tenant-scoped document.
func EncodeKey(t tenant.ID, docID string) string {
	return string(t) + KeySeparator + docID
}

// DecodeKey recovers the document id from a backend key by splitting at the
// first separator. Keys without a separator are returned unchanged.
func DecodeKey(key string) string {
	_, docID, found := strings.Cut(key, KeySeparator)
	if !found {
		return key
	}
	return docID
}

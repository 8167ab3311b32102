package estimate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewEstimateID builds the cache key for a fresh estimate: a short prefix
// derived from the provider id followed by a new UUID. Concurrent estimates
// for the same provider never share an id.
func NewEstimateID(providerID string) string {
	prefix := providerID
	if i := strings.IndexByte(prefix, '-'); i > 0 {
		prefix = prefix[:i]
	}
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("est-%s-%s", prefix, uuid.NewString())
}

package cache

import (
	"net/url"
	"strings"

	"bingx/pkg/signer"
)

// Key derives the cache identity of a request. The volatile signature and
// timestamp parameters are excluded, as are the empty values the signer drops,
// so repeated calls for the same logical resource share a key:
//
//	METHOD:path[:query][:discriminator]
func Key(method, path string, params signer.Params, discriminator string) string {
	values := url.Values{}
	for name, v := range params {
		if name == signer.SignatureParam || name == signer.TimestampParam {
			continue
		}
		rendered, ok := signer.Render(v)
		if !ok {
			continue
		}
		values.Set(name, rendered)
	}

	parts := []string{strings.ToUpper(method), path}
	if len(values) > 0 {
		// Encode sorts by name.
		parts = append(parts, values.Encode())
	}
	if discriminator != "" {
		parts = append(parts, discriminator)
	}
	return strings.Join(parts, ":")
}

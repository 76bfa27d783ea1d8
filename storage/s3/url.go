package s3

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/blobkit/storage"
)

// objectURL builds the address of an object. A custom endpoint is used as
// given; otherwise the regional AWS endpoint.
func objectURL(ep storage.Endpoint, container, key string) (string, error) {
	address := ep.Address
	if address == "" {
		region := ep.Region
		if region == "" {
			region = storage.DefaultRegion
		}
		address = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}

	base, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("s3: parse endpoint: %w", err)
	}
	if ep.PathStyle {
		return base.JoinPath(container, key).String(), nil
	}

	base.Host = container + "." + base.Host
	return base.JoinPath(key).String(), nil
}

// copySource is the bucket/key reference for CopyObject, URL-escaped per segment.
func copySource(container, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return container + "/" + strings.Join(segments, "/")
}

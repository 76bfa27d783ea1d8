package storage

import (
	"fmt"
	"net/url"
)

// appendQuery adds the parameters encoded in token to rawURL, keeping any
// query rawURL already carries.
func appendQuery(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("storage: parse object url: %w", err)
	}
	extra, err := url.ParseQuery(token)
	if err != nil {
		return "", fmt.Errorf("storage: parse signature: %w", err)
	}
	if len(extra) == 0 {
		return "", fmt.Errorf("storage: empty signature")
	}

	q := u.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

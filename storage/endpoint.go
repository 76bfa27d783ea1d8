package storage

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Provider names for the bundled backends.
const (
	ProviderS3     = "s3"
	ProviderMemory = "memory"
	ProviderLocal  = "local"
)

// Development endpoint defaults, matching a stock MinIO install.
const (
	DevelopmentAddress   = "http://127.0.0.1:9000"
	DevelopmentAccessKey = "minioadmin"
	DevelopmentSecretKey = "minioadmin"
	DefaultRegion        = "us-east-1"
)

// Endpoint is the immutable connection context of a Client.
type Endpoint struct {
	Provider  string
	Address   string
	AccessKey string
	SecretKey string
	Region    string
	PathStyle bool
	BasePath  string
}

// DevelopmentEndpoint is the endpoint used for an empty connection string:
// the in-process emulator, addressed as if it were a local MinIO.
func DevelopmentEndpoint() Endpoint {
	return Endpoint{
		Provider:  ProviderMemory,
		Address:   DevelopmentAddress,
		AccessKey: DevelopmentAccessKey,
		SecretKey: DevelopmentSecretKey,
		Region:    DefaultRegion,
		PathStyle: true,
	}
}

// ParseConnectionString parses "Key=Value;Key=Value" into an Endpoint.
// Keys are case-insensitive. An empty string yields DevelopmentEndpoint.
//
// Recognized keys: Provider, Endpoint, AccessKey, SecretKey, Region,
// PathStyle, BasePath.
func ParseConnectionString(s string) (Endpoint, error) {
	if strings.TrimSpace(s) == "" {
		return DevelopmentEndpoint(), nil
	}

	ep := Endpoint{Provider: ProviderS3, Region: DefaultRegion}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return Endpoint{}, fmt.Errorf("storage: malformed connection string segment %q", part)
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "provider":
			ep.Provider = strings.ToLower(v)
		case "endpoint":
			ep.Address = strings.TrimRight(v, "/")
		case "accesskey":
			ep.AccessKey = v
		case "secretkey":
			ep.SecretKey = v
		case "region":
			ep.Region = v
		case "pathstyle":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return Endpoint{}, fmt.Errorf("storage: invalid PathStyle %q: %w", v, err)
			}
			ep.PathStyle = b
		case "basepath":
			ep.BasePath = v
		default:
			return Endpoint{}, fmt.Errorf("storage: unknown connection string key %q", k)
		}
	}

	if ep.Address != "" {
		u, err := url.Parse(ep.Address)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Endpoint{}, fmt.Errorf("storage: invalid Endpoint %q", ep.Address)
		}
	}
	if ep.Provider == ProviderLocal && ep.BasePath == "" {
		return Endpoint{}, fmt.Errorf("storage: BasePath is required for the local provider")
	}
	return ep, nil
}

// String renders the endpoint as a connection string with the secret redacted.
func (e Endpoint) String() string {
	fields := map[string]string{
		"Provider":  e.Provider,
		"Endpoint":  e.Address,
		"AccessKey": e.AccessKey,
		"Region":    e.Region,
		"BasePath":  e.BasePath,
	}
	if e.SecretKey != "" {
		fields["SecretKey"] = "***"
	}
	if e.PathStyle {
		fields["PathStyle"] = "true"
	}

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + fields[k]
	}
	return strings.Join(parts, ";")
}

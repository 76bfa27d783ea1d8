package s3

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kbukum/blobkit/storage"
)

const policyVersion = "2012-10-17"

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string          `json:"Sid,omitempty"`
	Effect    string          `json:"Effect"`
	Principal json.RawMessage `json:"Principal"`
	Action    stringList      `json:"Action"`
	Resource  stringList      `json:"Resource"`
}

// stringList accepts either a JSON string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func publicReadPolicy(bucket string) (string, error) {
	doc := bucketPolicy{
		Version: policyVersion,
		Statement: []policyStatement{{
			Sid:       "PublicRead",
			Effect:    "Allow",
			Principal: json.RawMessage(`"*"`),
			Action:    stringList{"s3:GetObject"},
			Resource:  stringList{objectsARN(bucket)},
		}},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("s3: encode bucket policy: %w", err)
	}
	return string(data), nil
}

// accessFromPolicy reports public-read when some statement allows anonymous
// s3:GetObject on every object of the bucket.
func accessFromPolicy(bucket, policy string) (storage.Access, error) {
	var doc bucketPolicy
	if err := json.Unmarshal([]byte(policy), &doc); err != nil {
		return "", fmt.Errorf("s3: decode bucket policy: %w", err)
	}
	for _, st := range doc.Statement {
		if st.Effect != "Allow" || !anonymous(st.Principal) {
			continue
		}
		if !slices.Contains(st.Action, "s3:GetObject") && !slices.Contains(st.Action, "s3:*") {
			continue
		}
		if slices.Contains(st.Resource, objectsARN(bucket)) {
			return storage.AccessPublicRead, nil
		}
	}
	return storage.AccessPrivate, nil
}

func anonymous(principal json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(principal, &s); err == nil {
		return s == "*"
	}
	var m map[string]stringList
	if err := json.Unmarshal(principal, &m); err != nil {
		return false
	}
	return slices.Contains(m["AWS"], "*")
}

func objectsARN(bucket string) string {
	return "arn:aws:s3:::" + bucket + "/*"
}

package fragments

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Record is the persisted metadata of a fragment.
type Record struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"ownerId"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Type    string    `json:"type"`
	Size    int64     `json:"size"`
}

// CreateFragment holds the construction parameters of a fragment.
// ID, Created, Updated and Size are optional.
type CreateFragment struct {
	OwnerID string
	Type    string
	ID      string
	Created time.Time
	Updated time.Time
	Size    int64
}

// BlobKey identifies a stored payload.
type BlobKey struct {
	OwnerID string
	ID      string
}

// Listing is the result of Service.ByUser. It serializes as a JSON array of
// ids, or of records when Expanded is set.
type Listing struct {
	Expanded bool
	IDs      []string
	Records  []Record
}

// Len returns the number of fragments in the listing.
func (l Listing) Len() int {
	if l.Expanded {
		return len(l.Records)
	}
	return len(l.IDs)
}

func (l Listing) MarshalJSON() ([]byte, error) {
	if l.Expanded {
		if l.Records == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.Records)
	}
	if l.IDs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.IDs)
}

// ReapResult reports an orphan blob cleanup pass.
type ReapResult struct {
	Scanned int
	Removed int
}

// ListPolicy controls how ByUser treats backend errors.
type ListPolicy string

const (
	// ListPolicySoftFail returns an empty listing when the backend fails.
	ListPolicySoftFail ListPolicy = "soft"
	// ListPolicyStrict propagates backend errors to the caller.
	ListPolicyStrict ListPolicy = "strict"
)

func (p ListPolicy) IsValid() bool {
	switch p {
	case ListPolicySoftFail, ListPolicyStrict:
		return true
	default:
		return false
	}
}

func ParseListPolicy(s string) (ListPolicy, error) {
	policy := ListPolicy(s)
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid list policy: %s (valid policies: soft, strict)", s)
	}
	return policy, nil
}

// Tables holds configurable table names for SQL backends.
type Tables struct {
	MetaData string `mapstructure:"meta_data"`
	Data     string `mapstructure:"data"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that the metadata table name is set and valid, and the data
// table name is valid when set.
func (t Tables) Validate() error {
	if t.MetaData == "" {
		return errors.New("validate tables: metadata table name cannot be empty")
	}

	if !IsValidTableName(t.MetaData) {
		return fmt.Errorf("validate tables: invalid metadata table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.MetaData)
	}

	if t.Data != "" && !IsValidTableName(t.Data) {
		return fmt.Errorf("validate tables: invalid data table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Data)
	}

	if t.Data != "" && t.Data == t.MetaData {
		return errors.New("validate tables: data and metadata tables must differ")
	}

	return nil
}

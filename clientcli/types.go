package clientcli

import (
	"encoding/json"
	"time"
)

// FragmentInfo is the metadata of one fragment as returned by the server.
type FragmentInfo struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"ownerId"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Type    string    `json:"type"`
	Size    int64     `json:"size"`
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	ContentType string // optional, detected per file if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string       `json:"local_path"`
	Location  string       `json:"location,omitempty"`
	Fragment  FragmentInfo `json:"fragment"`
	Err       error        `json:"-"` // nil on success
}

// UpdateOptions configures replacing the data of an existing fragment.
type UpdateOptions struct {
	ID          string
	LocalPath   string
	ContentType string // optional, detected if empty; must match the stored type
}

// GetOptions configures a get operation.
type GetOptions struct {
	// ID is a fragment id, optionally followed by an extension selecting a
	// conversion: "3f1c...", "3f1c....html".
	ID        string
	LocalPath string // empty = use ID as file name, "-" = stdout
}

// GetResult represents the result of fetching fragment data.
type GetResult struct {
	ID          string `json:"id"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	IDs []string
}

// DeleteResult represents the result of deleting a single fragment.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListOptions configures a list operation.
type ListOptions struct {
	Expand bool // return full metadata instead of ids
}

// ListResult holds an owner's fragments: IDs, or Fragments when Expanded.
type ListResult struct {
	Expanded  bool           `json:"expanded"`
	IDs       []string       `json:"ids,omitempty"`
	Fragments []FragmentInfo `json:"fragments,omitempty"`
}

// Len returns the number of fragments listed.
func (r *ListResult) Len() int {
	if r.Expanded {
		return len(r.Fragments)
	}
	return len(r.IDs)
}

// TotalSize calculates the total size of all fragments in bytes. It is zero
// for unexpanded listings.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, f := range r.Fragments {
		total += f.Size
	}
	return total
}

// envelope mirrors every JSON response from the server.
type envelope struct {
	Status    string          `json:"status"`
	Error     *errorBody      `json:"error,omitempty"`
	Fragment  *FragmentInfo   `json:"fragment,omitempty"`
	Fragments json.RawMessage `json:"fragments,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatGet(w io.Writer, result *GetResult) error
	FormatInfo(w io.Writer, info *FragmentInfo) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

const timeLayout = "2006-01-02 15:04:05"

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text. In quiet mode
// only the new ids are printed, one per line.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if f.Quiet {
			_, _ = fmt.Fprintln(w, r.Fragment.ID)
			continue
		}
		_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s, %s)\n", r.LocalPath, r.Fragment.ID, r.Fragment.Type, formatSize(r.Fragment.Size))
		if r.Location != "" {
			_, _ = fmt.Fprintf(w, "  Location: %s\n", r.Location)
		}
	}
	return nil
}

// FormatGet formats a get result as human-readable text.
func (f *HumanFormatter) FormatGet(w io.Writer, result *GetResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Fetched: %s (%s, %s)\n", result.ID, result.ContentType, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Fetched: %s -> %s (%s, %s)\n", result.ID, result.LocalPath, result.ContentType, formatSize(result.Size))
	}
	return nil
}

// FormatInfo formats fragment metadata as human-readable text.
func (f *HumanFormatter) FormatInfo(w io.Writer, info *FragmentInfo) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, info.ID)
		return nil
	}
	_, _ = fmt.Fprintf(w, "ID:      %s\n", info.ID)
	_, _ = fmt.Fprintf(w, "Type:    %s\n", info.Type)
	_, _ = fmt.Fprintf(w, "Size:    %s\n", formatSize(info.Size))
	_, _ = fmt.Fprintf(w, "Created: %s\n", info.Created.Local().Format(timeLayout))
	_, _ = fmt.Fprintf(w, "Updated: %s\n", info.Updated.Local().Format(timeLayout))
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.ID, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.ID)
		}
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if result.Len() == 0 {
		if !f.Quiet {
			_, _ = fmt.Fprintln(w, "No fragments found")
		}
		return nil
	}

	if !result.Expanded || f.Quiet {
		for _, id := range result.IDs {
			_, _ = fmt.Fprintln(w, id)
		}
		for i := range result.Fragments {
			_, _ = fmt.Fprintln(w, result.Fragments[i].ID)
		}
		return nil
	}

	maxTypeLen := 4 // "TYPE"
	for i := range result.Fragments {
		if len(result.Fragments[i].Type) > maxTypeLen {
			maxTypeLen = len(result.Fragments[i].Type)
		}
	}

	_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %s\n", "ID", maxTypeLen, "TYPE", "SIZE", "UPDATED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", 36), strings.Repeat("-", maxTypeLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	for i := range result.Fragments {
		item := &result.Fragments[i]
		_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %s\n",
			item.ID,
			maxTypeLen,
			item.Type,
			formatSize(item.Size),
			item.Updated.Local().Format(timeLayout),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d fragment(s) (%s total)\n", result.Len(), formatSize(result.TotalSize()))
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	type jsonResult struct {
		LocalPath string        `json:"local_path"`
		Location  string        `json:"location,omitempty"`
		Fragment  *FragmentInfo `json:"fragment,omitempty"`
		Error     string        `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{LocalPath: r.LocalPath}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.Location = r.Location
			jr.Fragment = &r.Fragment
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatGet formats a get result as JSON.
func (f *JSONFormatter) FormatGet(w io.Writer, result *GetResult) error {
	return writeJSON(w, result)
}

// FormatInfo formats fragment metadata as JSON.
func (f *JSONFormatter) FormatInfo(w io.Writer, info *FragmentInfo) error {
	return writeJSON(w, info)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{ID: r.ID, Deleted: r.Deleted}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON: an array of ids, or of fragment
// objects when expanded.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	if result.Expanded {
		if result.Fragments == nil {
			return writeJSON(w, []FragmentInfo{})
		}
		return writeJSON(w, result.Fragments)
	}
	if result.IDs == nil {
		return writeJSON(w, []string{})
	}
	return writeJSON(w, result.IDs)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes < 0:
		return "unknown"
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		maxNameLen = max(maxNameLen, len(profiles[i].Name))
		maxEndpointLen = max(maxEndpointLen, len(profiles[i].Endpoint))
	}
	maxNameLen = min(maxNameLen, 20)
	maxEndpointLen = min(maxEndpointLen, 50)

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "USERNAME")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n",
			marker,
			maxNameLen, truncate(p.Name, maxNameLen),
			maxEndpointLen, truncate(p.Endpoint, maxEndpointLen),
			orNotSet(p.Username),
		)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Username: %s\n", orNotSet(profile.Username))
	_, _ = fmt.Fprintf(w, "Password: %s\n", maskSecret(profile.Password, showSecrets))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username,omitempty"`
		Password string `json:"password,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Username: p.Username,
			Password: maskSecret(p.Password, showSecrets),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username"`
		Password string `json:"password"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Username: profile.Username,
		Password: maskSecret(profile.Password, showSecrets),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

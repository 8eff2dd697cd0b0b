package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sagarc03/fragments"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

const fragmentsPath = "/v1/fragments"

// Client performs operations against a fragments server as one user.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Health checks that the server is reachable. It needs no credentials and
// returns the server version.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	body, _, err := c.do(req, http.StatusOK)
	if err != nil {
		return "", err
	}

	var health struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return health.Version, nil
}

// Upload creates one fragment per file. For recursive uploads every regular
// file under the directory is uploaded; per-file failures are reported in
// the results rather than stopping the walk.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, opts.ContentType)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.ContentType)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult

	walkErr := filepath.WalkDir(opts.LocalPath, func(path string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		result, uploadErr := c.uploadSingle(ctx, path, opts.ContentType)
		if uploadErr != nil {
			result = UploadResult{LocalPath: path, Err: uploadErr}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

func (c *Client) uploadSingle(ctx context.Context, localPath, contentType string) (UploadResult, error) {
	data, err := os.ReadFile(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}

	if contentType == "" {
		contentType = detectContentType(localPath, data)
	}

	req, err := c.newRequest(ctx, http.MethodPost, fragmentsPath, data)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", contentType)

	body, header, err := c.do(req, http.StatusCreated)
	if err != nil {
		return UploadResult{}, err
	}

	f, err := decodeFragment(body)
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		LocalPath: localPath,
		Location:  header.Get("Location"),
		Fragment:  *f,
	}, nil
}

// Update replaces the data of an existing fragment with a local file. The
// content type must equal the fragment's stored type.
func (c *Client) Update(ctx context.Context, opts UpdateOptions) (*FragmentInfo, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("update: %w", ErrEmptyID)
	}
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("update: %w", ErrEmptyPath)
	}

	data, err := os.ReadFile(opts.LocalPath) //#nosec G304 -- LocalPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(opts.LocalPath, data)
	}

	req, err := c.newRequest(ctx, http.MethodPut, fragmentPath(opts.ID), data)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	body, _, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	return decodeFragment(body)
}

// Info returns the metadata of one fragment.
func (c *Client) Info(ctx context.Context, id string) (*FragmentInfo, error) {
	if id == "" {
		return nil, fmt.Errorf("info: %w", ErrEmptyID)
	}

	req, err := c.newRequest(ctx, http.MethodGet, fragmentPath(id)+"/info", nil)
	if err != nil {
		return nil, err
	}

	body, _, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	return decodeFragment(body)
}

// Get fetches fragment data, converted when opts.ID carries an extension.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Get(ctx context.Context, opts GetOptions) (*GetResult, io.ReadCloser, error) {
	if opts.ID == "" {
		return nil, nil, fmt.Errorf("get: %w", ErrEmptyID)
	}

	req, err := c.newRequest(ctx, http.MethodGet, fragmentPath(opts.ID), nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &GetResult{
		ID:          opts.ID,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}
	defer func() { _ = resp.Body.Close() }()

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(opts.ID)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Delete deletes one or more fragments.
// Continues on error, collecting results for all ids.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.IDs) == 0 {
		return nil, ErrNoIDs
	}

	results := make([]DeleteResult, 0, len(opts.IDs))

	for _, id := range opts.IDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.deleteSingle(ctx, id))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, id string) DeleteResult {
	req, err := c.newRequest(ctx, http.MethodDelete, fragmentPath(id), nil)
	if err != nil {
		return DeleteResult{ID: id, Err: err}
	}

	if _, _, err := c.do(req, http.StatusOK); err != nil {
		return DeleteResult{ID: id, Err: err}
	}

	return DeleteResult{ID: id, Deleted: true}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List lists the user's fragments.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	path := fragmentsPath
	if opts.Expand {
		path += "?expand=1"
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	body, _, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := &ListResult{Expanded: opts.Expand}
	if len(env.Fragments) == 0 {
		return result, nil
	}

	if opts.Expand {
		err = json.Unmarshal(env.Fragments, &result.Fragments)
	} else {
		err = json.Unmarshal(env.Fragments, &result.IDs)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fragments: %w", err)
	}

	return result, nil
}

// newRequest builds an authenticated request against the endpoint. A nil
// body sends no body.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)
	return req, nil
}

// do executes req and reads the whole response. Any status other than want
// becomes an *APIError.
func (c *Client) do(req *http.Request, want int) ([]byte, http.Header, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	return body, resp.Header, nil
}

func decodeFragment(body []byte) (*FragmentInfo, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if env.Fragment == nil {
		return nil, fmt.Errorf("parse response: missing fragment")
	}
	return env.Fragment, nil
}

func fragmentPath(id string) string {
	return fragmentsPath + "/" + url.PathEscape(id)
}

// detectContentType maps the file extension to a supported type and falls
// back to sniffing the content.
func detectContentType(path string, data []byte) string {
	if t, ok := fragments.TypeForExtension(filepath.Ext(path)); ok {
		return t
	}
	return mimetype.Detect(data).String()
}

// Package upload sends the project archive to the build5 file endpoint and
// returns the public URL it is served from.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// DefaultTimeout bounds a single upload request.
const DefaultTimeout = 5 * time.Minute

// maxResponse caps how much of the response body is read.
const maxResponse = 1 << 20

// ErrUpload matches every upload failure.
var ErrUpload = errors.New("upload failed")

// Error describes a failed upload. Status is the HTTP status, or 0 when the
// request never got a response.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upload failed (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpload) hold for every *Error.
func (e *Error) Is(target error) bool { return target == ErrUpload }

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type uploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Uploader posts files to the endpoint at URL authenticated by Token.
type Uploader struct {
	URL    string
	Token  string
	Client *http.Client
}

// ErrNoURL is returned by Upload when no endpoint is configured.
var ErrNoURL = errors.New("no upload url configured")

// New creates an uploader for the endpoint at url.
func New(url, token string) *Uploader {
	return &Uploader{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: DefaultTimeout},
	}
}

// Upload sends the file at path as multipart form data and returns the URL
// reported by the endpoint.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	if u.URL == "" {
		return "", &Error{Err: ErrNoURL}
	}
	body, contentType, err := u.form(path)
	if err != nil {
		return "", &Error{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, body)
	if err != nil {
		return "", &Error{Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	log.Upload.Info().Str("file", path).Str("url", u.URL).Msg("Uploading archive")

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return "", &Error{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Status: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", bytes.TrimSpace(raw))}
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &Error{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Data.URL == "" {
		return "", &Error{Status: resp.StatusCode, Err: errors.New("response has no url")}
	}

	log.Upload.Info().Str("uri", out.Data.URL).Msg("Archive uploaded")
	return out.Data.URL, nil
}

func (u *Uploader) form(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	fields := [][2]string{
		{"member", uuid.NewString()},
		{"uid", uuid.NewString()},
		{"projectApiKey", u.Token},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

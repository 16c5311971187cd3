package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadedDocument is the result of a document upload.
type UploadedDocument struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// UploadImage posts the file as multipart form data and returns the public
// URL of the stored image.
func (c *Client) UploadImage(ctx context.Context, filename string, file io.Reader) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.doMultipart(ctx, "/upload/image", filename, file, &resp); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return resp.URL, nil
}

// UploadDocument posts the file as multipart form data and returns the public
// URL together with the stored display name.
func (c *Client) UploadDocument(ctx context.Context, filename string, file io.Reader) (UploadedDocument, error) {
	var resp UploadedDocument
	if err := c.doMultipart(ctx, "/upload/document", filename, file, &resp); err != nil {
		return UploadedDocument{}, fmt.Errorf("upload document: %w", err)
	}
	return resp, nil
}

// doMultipart sends a single-file multipart request under the "file" field.
// The whole payload is buffered before sending; uploads in this client are
// profile pictures and course documents, not bulk transfers.
func (c *Client) doMultipart(ctx context.Context, path, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.attachAuth(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeError(res)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

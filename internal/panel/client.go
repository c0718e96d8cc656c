package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/blogdesk/internal/service"
)

// SuccessMessage is the endpoint's reply to a successful revalidation.
const SuccessMessage = "Revalidation successful!"

// RevalidateRequest is the endpoint's JSON body.
type RevalidateRequest struct {
	EditedBlogIDs []uint `json:"editedBlogIds"`
}

// RevalidateResponse is the endpoint's JSON reply.
type RevalidateResponse struct {
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

// EndpointError is a non-200 reply from the endpoint.
type EndpointError struct {
	Status  int
	Message string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("revalidation endpoint returned %d: %s", e.Status, e.Message)
}

// LocalClient calls a Revalidator in the same process.
type LocalClient struct {
	Revalidator *service.Revalidator
}

func (c LocalClient) Revalidate(ctx context.Context, ids []uint) (string, error) {
	if _, err := c.Revalidator.Revalidate(ctx, ids); err != nil {
		return "", err
	}
	return SuccessMessage, nil
}

// HTTPClient posts to a remote revalidation endpoint.
type HTTPClient struct {
	URL  string
	HTTP *http.Client
}

// NewHTTPClient returns an HTTPClient with a bounded request timeout.
func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{URL: url, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (c *HTTPClient) Revalidate(ctx context.Context, ids []uint) (string, error) {
	body, err := json.Marshal(RevalidateRequest{EditedBlogIDs: ids})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload RevalidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		payload.Message = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &EndpointError{Status: resp.StatusCode, Message: payload.Message}
	}
	return payload.Message, nil
}

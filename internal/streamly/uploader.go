package streamly

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streamlyhq/streamly/internal/gateway"
)

// UploaderRequestClient calls the uploader-promotion endpoints available to
// standard users.
type UploaderRequestClient struct {
	gw *gateway.Gateway
}

// NewUploaderRequestClient creates an UploaderRequestClient over the given gateway.
func NewUploaderRequestClient(gw *gateway.Gateway) *UploaderRequestClient {
	return &UploaderRequestClient{gw: gw}
}

// Submit files a new uploader-promotion request with a justification.
func (c *UploaderRequestClient) Submit(ctx context.Context, reason string) (*UploaderRequest, error) {
	body, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.gw.Post(ctx, "/api/v1/uploader-requests", body)
	if err != nil {
		return nil, err
	}

	var request UploaderRequest
	if err := resp.Decode(&request); err != nil {
		return nil, err
	}
	return &request, nil
}

// Mine lists the caller's own promotion requests.
func (c *UploaderRequestClient) Mine(ctx context.Context, page, size int) (*Page[UploaderRequest], error) {
	if size <= 0 {
		size = 10
	}

	resp, err := c.gw.Get(ctx, fmt.Sprintf("/api/v1/uploader-requests/my?page=%d&size=%d", page, size))
	if err != nil {
		return nil, err
	}

	var result Page[UploaderRequest]
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

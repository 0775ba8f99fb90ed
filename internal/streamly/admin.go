package streamly

import (
	"context"
	"fmt"
	"net/url"

	"github.com/streamlyhq/streamly/internal/gateway"
)

// AdminClient calls the administrative back-office endpoints.
//
// The backend enforces role checks; a non-admin caller gets a 403 which the
// gateway surfaces as a generic request failure.
type AdminClient struct {
	gw *gateway.Gateway
}

// NewAdminClient creates an AdminClient over the given gateway.
func NewAdminClient(gw *gateway.Gateway) *AdminClient {
	return &AdminClient{gw: gw}
}

// Videos lists all videos regardless of approval state.
func (c *AdminClient) Videos(ctx context.Context, page, size int) (*Page[Video], error) {
	if size <= 0 {
		size = 20
	}

	resp, err := c.gw.Get(ctx, fmt.Sprintf("/api/v1/admin/videos?page=%d&size=%d", page, size))
	if err != nil {
		return nil, err
	}

	var result Page[Video]
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveVideo approves a pending video for publication.
func (c *AdminClient) ApproveVideo(ctx context.Context, id int64) error {
	_, err := c.gw.Post(ctx, fmt.Sprintf("/api/v1/admin/videos/%d/approve", id), nil)
	return err
}

// RejectVideo rejects a pending video with a reason.
func (c *AdminClient) RejectVideo(ctx context.Context, id int64, reason string) error {
	path := fmt.Sprintf("/api/v1/admin/videos/%d/reject?reason=%s", id, url.QueryEscape(reason))
	_, err := c.gw.Post(ctx, path, nil)
	return err
}

// DeleteVideo removes a video from the platform.
func (c *AdminClient) DeleteVideo(ctx context.Context, id int64) error {
	_, err := c.gw.Delete(ctx, fmt.Sprintf("/api/v1/admin/videos/%d", id))
	return err
}

// Stats retrieves dashboard statistics.
func (c *AdminClient) Stats(ctx context.Context) (*DashboardStats, error) {
	resp, err := c.gw.Get(ctx, "/api/v1/admin/videos/dashboard/stats")
	if err != nil {
		return nil, err
	}

	var stats DashboardStats
	if err := resp.Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Users lists platform accounts.
func (c *AdminClient) Users(ctx context.Context, page, size int) (*Page[User], error) {
	if size <= 0 {
		size = 100
	}

	resp, err := c.gw.Get(ctx, fmt.Sprintf("/api/v1/admin/users?page=%d&size=%d", page, size))
	if err != nil {
		return nil, err
	}

	var result Page[User]
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetUserRole changes an account's role.
func (c *AdminClient) SetUserRole(ctx context.Context, userID int64, role Role) error {
	path := fmt.Sprintf("/api/v1/admin/users/%d/role?role=%s", userID, url.QueryEscape(string(role)))
	_, err := c.gw.Patch(ctx, path, nil)
	return err
}

// SetUserActive enables or disables an account.
func (c *AdminClient) SetUserActive(ctx context.Context, userID int64, active bool) error {
	path := fmt.Sprintf("/api/v1/admin/users/%d/status?active=%t", userID, active)
	_, err := c.gw.Patch(ctx, path, nil)
	return err
}

// UploaderRequests lists uploader-promotion requests for review.
func (c *AdminClient) UploaderRequests(ctx context.Context, page, size int) (*Page[UploaderRequest], error) {
	if size <= 0 {
		size = 100
	}

	resp, err := c.gw.Get(ctx, fmt.Sprintf("/api/v1/admin/uploader-requests?page=%d&size=%d", page, size))
	if err != nil {
		return nil, err
	}

	var result Page[UploaderRequest]
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveUploaderRequest grants uploader status to the requesting user.
func (c *AdminClient) ApproveUploaderRequest(ctx context.Context, id int64) error {
	_, err := c.gw.Post(ctx, fmt.Sprintf("/api/v1/admin/uploader-requests/%d/approve", id), nil)
	return err
}

// RejectUploaderRequest denies an uploader-promotion request.
func (c *AdminClient) RejectUploaderRequest(ctx context.Context, id int64) error {
	_, err := c.gw.Post(ctx, fmt.Sprintf("/api/v1/admin/uploader-requests/%d/reject", id), nil)
	return err
}

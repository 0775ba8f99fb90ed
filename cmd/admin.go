package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/streamlyhq/streamly/internal/formatter"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
	"github.com/urfave/cli/v3"
)

// AdminVideos lists every video on the platform, pending ones included.
func (r *Runner) AdminVideos(ctx context.Context, cmd *cli.Command) error {
	page, err := r.admin.Videos(ctx, cmd.Int("page"), cmd.Int("size"))
	if err != nil {
		return err
	}

	r.writePlain("%s\n", formatter.RenderTable(pageVideos(page)))
	r.writePlain("Page %d of %d (%d videos total)\n", cmd.Int("page")+1, page.TotalPages, page.TotalElements)
	return nil
}

// AdminApprove approves a video for publication.
func (r *Runner) AdminApprove(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	if err := r.admin.ApproveVideo(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Approved video %d\n", id)
	return nil
}

// AdminReject rejects a video with a reason shown to the uploader.
func (r *Runner) AdminReject(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	if err := r.admin.RejectVideo(ctx, id, cmd.String("reason")); err != nil {
		return err
	}

	r.writePlain("✓ Rejected video %d\n", id)
	return nil
}

// AdminDelete removes a video from the platform.
func (r *Runner) AdminDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	if err := r.admin.DeleteVideo(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Deleted video %d\n", id)
	return nil
}

// AdminStats prints the dashboard statistics.
func (r *Runner) AdminStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.admin.Stats(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Platform Statistics")
	r.writePlain("Videos:    %d total (%d pending, %d approved, %d rejected)\n",
		stats.TotalVideos, stats.PendingVideos, stats.ApprovedVideos, stats.RejectedVideos)
	r.writePlain("Users:     %d\n", stats.TotalUsers)
	r.writePlain("Views:     %d\n", stats.TotalViews)
	return nil
}

// AdminUsers lists platform users.
func (r *Runner) AdminUsers(ctx context.Context, cmd *cli.Command) error {
	page, err := r.admin.Users(ctx, cmd.Int("page"), cmd.Int("size"))
	if err != nil {
		return err
	}

	users := make([]*streamly.User, len(page.Content))
	for i := range page.Content {
		users[i] = &page.Content[i]
	}

	r.writePlain("%s\n", formatter.RenderUserTable(users))
	r.writePlain("Page %d of %d (%d users total)\n", cmd.Int("page")+1, page.TotalPages, page.TotalElements)
	return nil
}

// AdminSetRole changes a user's role.
func (r *Runner) AdminSetRole(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	role, err := parseRole(cmd.StringArg("role"))
	if err != nil {
		return err
	}

	if err := r.admin.SetUserRole(ctx, id, role); err != nil {
		return err
	}

	r.writePlain("✓ User %d is now %s\n", id, role)
	return nil
}

// AdminSetActive enables or disables a user account.
func (r *Runner) AdminSetActive(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	active := !cmd.Bool("off")
	if err := r.admin.SetUserActive(ctx, id, active); err != nil {
		return err
	}

	if active {
		r.writePlain("✓ User %d activated\n", id)
	} else {
		r.writePlain("✓ User %d deactivated\n", id)
	}
	return nil
}

// AdminRequests lists pending uploader-promotion requests.
func (r *Runner) AdminRequests(ctx context.Context, cmd *cli.Command) error {
	page, err := r.admin.UploaderRequests(ctx, cmd.Int("page"), cmd.Int("size"))
	if err != nil {
		return err
	}

	if len(page.Content) == 0 {
		r.writePlain("No uploader requests.\n")
		return nil
	}

	r.writePlainHeader("Uploader Requests")
	for _, request := range page.Content {
		r.writePlain("#%d  %s  [%s]\n    %s\n", request.ID, request.UserEmail, request.Status, request.Reason)
	}
	return nil
}

// AdminRequestApprove approves an uploader request, promoting the user.
func (r *Runner) AdminRequestApprove(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	if err := r.admin.ApproveUploaderRequest(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Approved uploader request %d\n", id)
	return nil
}

// AdminRequestReject rejects an uploader request.
func (r *Runner) AdminRequestReject(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	if err := r.admin.RejectUploaderRequest(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Rejected uploader request %d\n", id)
	return nil
}

func parseRole(raw string) (streamly.Role, error) {
	switch strings.ToLower(raw) {
	case "user":
		return streamly.RoleUser, nil
	case "uploader":
		return streamly.RoleUploader, nil
	case "admin":
		return streamly.RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: role must be user, uploader, or admin", shared.ErrInvalidArgument)
	}
}

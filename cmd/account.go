package main

import (
	"context"
	"fmt"

	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/urfave/cli/v3"
)

// AccountMe shows the signed-in profile.
func (r *Runner) AccountMe(ctx context.Context, cmd *cli.Command) error {
	user, err := r.auth.Me(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlainHeader("Profile")
	r.writePlain("Nickname: %s\n", user.Nickname)
	r.writePlain("Email:    %s\n", user.Email)
	r.writePlain("Role:     %s\n", user.Role)
	if user.Provider != "" {
		r.writePlain("Via:      %s\n", user.Provider)
	}
	return nil
}

// AccountUpdate changes the profile nickname.
func (r *Runner) AccountUpdate(ctx context.Context, cmd *cli.Command) error {
	nickname := cmd.StringArg("nickname")
	if nickname == "" {
		return fmt.Errorf("%w: nickname", shared.ErrMissingArgument)
	}

	user, err := r.auth.UpdateProfile(ctx, nickname)
	if err != nil {
		return err
	}

	// Keep the session snapshot in step with the backend.
	if err := r.session.Refresh(ctx); err != nil {
		r.logger.Debug("session refresh after profile update failed", "error", err)
	}

	r.writePlain("✓ Nickname is now %s\n", user.Nickname)
	return nil
}

// AccountPromote submits an uploader-promotion request.
func (r *Runner) AccountPromote(ctx context.Context, cmd *cli.Command) error {
	request, err := r.requests.Submit(ctx, cmd.String("reason"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Uploader request #%d submitted (%s)\n", request.ID, request.Status)
	r.writePlain("Track it with: streamly account requests\n")
	return nil
}

// AccountRequests lists the caller's own uploader requests.
func (r *Runner) AccountRequests(ctx context.Context, cmd *cli.Command) error {
	page, err := r.requests.Mine(ctx, cmd.Int("page"), cmd.Int("size"))
	if err != nil {
		return err
	}

	if len(page.Content) == 0 {
		r.writePlain("No uploader requests. Submit one with: streamly account promote --reason \"...\"\n")
		return nil
	}

	r.writePlainHeader("Your Uploader Requests")
	for _, request := range page.Content {
		r.writePlain("#%d  [%s]  %s\n", request.ID, request.Status, request.Reason)
	}
	return nil
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/streamlyhq/streamly/internal/server"
	"github.com/streamlyhq/streamly/internal/session"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin starts a session with email and password credentials.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	password, err := r.resolvePassword(cmd)
	if err != nil {
		return err
	}

	user, err := r.session.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyLoggedIn) {
			return fmt.Errorf("%w: run 'streamly auth logout' first", err)
		}
		return err
	}

	r.writePlain("✓ Logged in as %s (%s)\n", user.Nickname, user.Role)
	return nil
}

// AuthSocial runs the identity-provider flow: a loopback server captures the
// provider redirect while the browser handles the actual sign-in.
func (r *Runner) AuthSocial(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")

	port := cmd.Int("port")
	if port == 0 {
		port = r.config.Auth.CallbackPort
	}
	if port == 0 {
		port = 8910
	}

	state := shared.GenerateID()
	handler := server.NewCallbackHandler(state)

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("failed to bind callback port %d: %w", port, err)
	}

	srv := &http.Server{Handler: router}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Warn("callback server stopped", "error", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	redirect := fmt.Sprintf("http://127.0.0.1:%d/auth/callback", port)
	authURL := fmt.Sprintf("%s/oauth2/authorization/%s?redirect_uri=%s&state=%s",
		r.gateway.BaseURL(), provider, url.QueryEscape(redirect), state)

	r.logger.Info("opening browser for sign-in", "provider", provider)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}

		user, err := r.session.Adopt(ctx, result.Token)
		if err != nil {
			return err
		}
		r.writePlain("✓ Logged in as %s via %s\n", user.Nickname, provider)
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w: no provider redirect within %v", shared.ErrAuthFailed, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthLogout ends the session and signals every other process on this machine.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// AuthStatus resolves and prints the current session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	state := r.session.Restore(ctx)
	if state != session.StateAuthenticated {
		r.writePlain("Not logged in\n")
		return nil
	}

	snapshot, _ := r.session.Current()
	user := snapshot.User

	r.writePlainHeader("Session")
	r.writePlain("User:    %s <%s>\n", user.Nickname, user.Email)
	r.writePlain("Role:    %s\n", user.Role)
	if user.Provider != "" {
		r.writePlain("Via:     %s\n", user.Provider)
	}
	r.writePlain("Since:   %s\n", snapshot.StartedAt.Format(time.RFC1123))
	return nil
}

// AuthSignup creates an account and prints the backend's confirmation.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	password, err := r.resolvePassword(cmd)
	if err != nil {
		return err
	}

	nickname := cmd.String("nickname")
	if nickname == "" {
		nickname = strings.SplitN(email, "@", 2)[0]
	}

	message, err := r.auth.Signup(ctx, email, password, nickname)
	if err != nil {
		return err
	}

	r.writePlain("✓ %s\n", message)
	r.writePlain("Log in with: streamly auth login %s\n", email)
	return nil
}

// AuthRefresh forces one silent credential renewal.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Renew(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Credentials renewed\n")
	return nil
}

func (r *Runner) resolvePassword(cmd *cli.Command) (string, error) {
	if password := cmd.String("password"); password != "" {
		return password, nil
	}

	r.writePlain("Password: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}

	password := strings.TrimSpace(scanner.Text())
	if password == "" {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return password, nil
}

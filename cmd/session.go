package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/listenlog/internal/models"
	"github.com/desertthunder/listenlog/internal/session"
	"github.com/desertthunder/listenlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// TokenInfo describes the credential inside a session without revealing it.
type TokenInfo struct {
	AccessToken string `json:"access_token"`
	HasRefresh  bool   `json:"has_refresh_token"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	Expired     bool   `json:"expired"`
}

// SessionReport is the output of session inspect.
type SessionReport struct {
	Session session.PublicSession `json:"session"`
	Token   *TokenInfo            `json:"token"`
}

// readSession verifies a raw cookie value against the configured secret.
func (r *Runner) readSession(config *shared.Config, value string) (*session.Session, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: session cookie value", shared.ErrMissingArgument)
	}

	extractor, err := session.NewExtractor([]byte(config.Session.Secret), session.WithCookieName(config.Session.CookieName))
	if err != nil {
		return nil, err
	}

	cookie := (&http.Cookie{Name: config.Session.CookieName, Value: value}).String()
	sess, ok := extractor.Session(session.FromHeader(http.Header{"Cookie": {cookie}}))
	if !ok {
		return nil, shared.ErrInvalidSession
	}
	return sess, nil
}

func (r *Runner) tokenInfo(cred *models.SessionCredential) *TokenInfo {
	if cred == nil {
		return nil
	}
	info := &TokenInfo{
		AccessToken: shared.MaskToken(cred.AccessToken),
		HasRefresh:  cred.RefreshToken != "",
		Expired:     cred.Expired(r.now()),
	}
	if cred.ExpiresAt != nil {
		info.ExpiresAt = time.Unix(*cred.ExpiresAt, 0).UTC().Format(time.RFC3339)
	}
	return info
}

// SessionInspect verifies a session cookie value and prints its public view plus masked token details.
func (r *Runner) SessionInspect(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	sess, err := r.readSession(config, cmd.StringArg("value"))
	if err != nil {
		return err
	}

	report := SessionReport{Session: sess.Public(), Token: r.tokenInfo(sess.Credential)}
	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlainHeader("Session")
	r.writePlain("User:    %s\n", report.Session.User.ID)
	if report.Session.User.Name != "" {
		r.writePlain("Name:    %s\n", report.Session.User.Name)
	}
	r.writePlain("Expires: %s\n", report.Session.Expires)

	if report.Token == nil {
		return r.writePlain("Token:   none (sign in again)\n")
	}
	r.writePlain("Token:   %s\n", report.Token.AccessToken)
	r.writePlain("Refresh: %t\n", report.Token.HasRefresh)
	switch {
	case report.Token.ExpiresAt == "":
		r.writePlain("Token expiry: unknown\n")
	case report.Token.Expired:
		r.writePlain("Token expiry: %s (expired)\n", report.Token.ExpiresAt)
	default:
		r.writePlain("Token expiry: %s\n", report.Token.ExpiresAt)
	}
	return nil
}

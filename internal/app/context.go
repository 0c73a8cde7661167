package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"hindsight/internal/domain"
	"hindsight/internal/engine/auth"
	"hindsight/internal/repo"
)

const defaultLocalEmail = "local@hindsight.local"

// ResolveUser picks the acting journal owner for CLI commands. It prefers the
// override, then a single-user DB. An empty journal gets a local account
// created on the fly so `hs decision add` works without registering first.
// The local account has a random password; remote access still needs a real
// one registered through the API.
func ResolveUser(ctx context.Context, emailOverride string, r repo.Repo) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(emailOverride))
	if email != "" {
		u, err := r.GetUserByEmail(ctx, email)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.User{}, fmt.Errorf("no account for %s; run hs user register", email)
		}
		return u, err
	}
	if u, err := r.SingleUser(ctx); err == nil {
		return u, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, err
	}
	users, err := r.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if len(users) > 1 {
		return domain.User{}, fmt.Errorf("multiple accounts; pick one with --user or hs user use <email>")
	}
	return createLocalUser(ctx, r)
}

func createLocalUser(ctx context.Context, r repo.Repo) (domain.User, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return domain.User{}, err
	}
	identity := auth.NewService(r.DB)
	return identity.Register(ctx, defaultLocalEmail, "Local", hex.EncodeToString(buf))
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/satriahrh/lingua/internal/auth"
)

// TokenCmd mints a signed user token for local testing
type TokenCmd struct {
	UserID string        `short:"u" long:"user" required:"true" description:"user id carried by the token"`
	TTL    time.Duration `long:"ttl" description:"token lifetime, defaults to auth.token_ttl"`
}

func (t *TokenCmd) Execute(_ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ttl := cfg.Auth.TokenTTL
	if t.TTL > 0 {
		ttl = t.TTL
	}
	authenticator, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, ttl)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}
	token, err := authenticator.GenerateUserToken(t.UserID)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	fmt.Fprintln(os.Stdout, token)
	return nil
}

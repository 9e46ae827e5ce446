package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
)

// SignUp creates the auth account and then its profile row. If the profile
// insert fails the account still exists and the error wraps ErrPartialWrite.
func SignUp(ctx context.Context, c *db.Client, req model.SignUpRequest) (*db.AuthResponse, error) {
	resp, err := c.SignUp(ctx, req.Email, req.Password, req.Metadata())
	if err != nil {
		return nil, fmt.Errorf("signing up: %w", err)
	}

	userID := resp.UserID()
	if userID == "" {
		return resp, fmt.Errorf("creating profile: %w: %w", ErrPartialWrite, errors.New("sign-up returned no user id"))
	}

	// Without a session (confirmation pending) the insert runs as anon.
	if _, err := c.Insert(ctx, resp.AccessToken, db.TableProfiles, req.ProfileRow(userID), db.ReturnMinimal); err != nil {
		return resp, fmt.Errorf("creating profile: %w: %w", ErrPartialWrite, err)
	}

	return resp, nil
}

// SignIn exchanges credentials for a session.
func SignIn(ctx context.Context, c *db.Client, req model.SignInRequest) (*db.AuthResponse, error) {
	resp, err := c.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("signing in: %w", err)
	}
	return resp, nil
}

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/stylu/internal/auth"
	"github.com/erazemk/stylu/internal/db"
	"github.com/erazemk/stylu/internal/model"
)

func profileQuery(caller auth.Caller) *db.Query {
	return db.From(db.TableProfiles).Eq("id", caller.UserID)
}

// GetProfile returns the caller's profile with settings defaults applied, or
// nil if no profile row exists.
func GetProfile(ctx context.Context, c *db.Client, caller auth.Caller) (*model.Profile, error) {
	body, err := c.Select(ctx, caller.Token, profileQuery(caller).Select(db.ProfileSelect...))
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	rows, err := model.DecodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	p := model.ProfileFromRow(rows[0])
	return &p, nil
}

// UpdateProfile applies patch to the caller's profile. A non-empty password is
// then sent to the auth service; its outcome is logged, never returned.
func UpdateProfile(ctx context.Context, c *db.Client, caller auth.Caller, patch map[string]any, password string) error {
	if _, err := c.Update(ctx, caller.Token, profileQuery(caller), patch, db.ReturnMinimal); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	if password != "" {
		if err := c.UpdateUser(ctx, caller.Token, map[string]any{"password": password}); err != nil {
			slog.WarnContext(ctx, "password change failed", "user_id", caller.UserID, "error", err)
		}
	}
	return nil
}

// GetSystemSettings returns the caller's app preferences with defaults
// applied, or nil if no profile row exists.
func GetSystemSettings(ctx context.Context, c *db.Client, caller auth.Caller) (*model.SystemSettings, error) {
	body, err := c.Select(ctx, caller.Token, profileQuery(caller).Select(db.SystemSettingsSelect...))
	if err != nil {
		return nil, fmt.Errorf("getting system settings: %w", err)
	}

	rows, err := model.DecodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("getting system settings: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	s := model.SystemSettingsFromRow(rows[0])
	return &s, nil
}

// UpdateSystemSettings replaces the caller's app preferences.
func UpdateSystemSettings(ctx context.Context, c *db.Client, caller auth.Caller, patch map[string]any) error {
	if _, err := c.Update(ctx, caller.Token, profileQuery(caller), patch, db.ReturnMinimal); err != nil {
		return fmt.Errorf("updating system settings: %w", err)
	}
	return nil
}

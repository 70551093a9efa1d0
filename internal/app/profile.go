package app

import (
	"fmt"
	"strings"

	"soloboss/pkg/domain"
)

// Profile returns the caller's user row.
func (a *App) Profile(ownerID string) (domain.User, error) {
	user, ok, err := a.store.GetUser(ownerID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
	}
	return user, nil
}

// UpdateProfile applies the explicitly-present fields of the patch to the
// caller's own user row. Only the profile picture is nullable.
func (a *App) UpdateProfile(ownerID string, patch Patch) (domain.User, error) {
	updates := make(map[string]any, len(patch))
	for key := range patch {
		switch key {
		case "email":
			value, err := patch.requiredString(key)
			if err != nil {
				return domain.User{}, err
			}
			if !strings.Contains(value, "@") {
				return domain.User{}, fmt.Errorf("%w: email is malformed", ErrInvalidInput)
			}
			updates["email"] = value
		case "firstName":
			value, err := patch.requiredString(key)
			if err != nil {
				return domain.User{}, err
			}
			updates["first_name"] = value
		case "lastName":
			value, err := patch.requiredString(key)
			if err != nil {
				return domain.User{}, err
			}
			updates["last_name"] = value
		case "profilePictureUrl":
			value, err := patch.nullableString(key)
			if err != nil {
				return domain.User{}, err
			}
			updates["profile_picture_url"] = value
		}
	}
	user, ok, err := a.store.UpdateUser(ownerID, updates)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
	}
	if err := a.recordActivity(ownerID, "profile_updated", "Updated profile", domain.EntityProfile, ownerID); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

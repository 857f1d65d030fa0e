package core

import (
	"context"

	"plantcore/pkg/domain"
)

// SaveProfile persists the signed-in user's profile and writes it through to
// the local cache when one is configured. A stale cache is worse than a cold
// one, so a cache write failure fails the whole operation.
func (s *Service) SaveProfile(ctx context.Context, profile UserProfile) (res Result, err error) {
	defer s.instrument(ctx, "save_profile", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.PutProfile(profile)
	})
	if err != nil {
		return res, err
	}
	if s.profiles != nil {
		if cacheErr := s.profiles.Save(profile); cacheErr != nil {
			err = cacheErr
			return res, err
		}
	}
	return res, nil
}

// Profile returns the stored profile by ID.
func (s *Service) Profile(id string) (UserProfile, bool) {
	return s.store.GetProfile(id)
}

// CachedProfile returns the locally cached profile, if any.
func (s *Service) CachedProfile() (UserProfile, bool, error) {
	if s.profiles == nil {
		return UserProfile{}, false, nil
	}
	return s.profiles.Load()
}

// ClearProfile removes the stored profile and drops the local cache entry.
func (s *Service) ClearProfile(ctx context.Context, id string) (res Result, err error) {
	defer s.instrument(ctx, "clear_profile", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteProfile(id)
	})
	if err != nil {
		return res, err
	}
	if s.profiles != nil {
		if cacheErr := s.profiles.Clear(); cacheErr != nil {
			err = cacheErr
			return res, err
		}
	}
	return res, nil
}

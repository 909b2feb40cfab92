package storefront

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/profile"
)

const maxBackoff = 30 * time.Second

// calculateBackoff doubles base per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// UpdateProfile merges patch into the in-memory profile at once, marks it
// dirty and queues the remote upsert.
func (a *App) UpdateProfile(patch profile.Patch) error {
	if a.store.Snapshot().AuthStatus == Unauthenticated {
		return apperr.ErrUnauthenticated
	}
	a.store.Update(func(s *State) {
		s.Profile = s.Profile.Apply(patch)
		s.ProfileDirty = true
		s.profileVersion++
	})
	select {
	case a.profileKick <- struct{}{}:
	default:
	}
	return nil
}

// FlushProfile writes a dirty profile synchronously and returns once the
// service confirmed it, or with the upsert error.
func (a *App) FlushProfile(ctx context.Context) error {
	for {
		done, err := a.writeProfile(ctx)
		if err != nil || done {
			return err
		}
	}
}

func (a *App) profileWriter(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.profileKick:
		}
		a.retryProfile(ctx)
	}
}

func (a *App) retryProfile(ctx context.Context) {
	for failures := 0; failures < a.opts.ProfileRetries; {
		done, err := a.writeProfile(ctx)
		if done {
			return
		}
		if err == nil {
			// a newer edit arrived while the last one was in flight
			continue
		}
		if !retryable(err) {
			log.Printf("[session] profile update rejected: %v", err)
			return
		}
		delay := calculateBackoff(failures, a.opts.ProfileBackoff)
		failures++
		log.Printf("[session] profile update failed (attempt %d), retrying in %v: %v", failures, delay, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	log.Printf("[session] profile update gave up after %d attempts; will retry on next edit or flush", a.opts.ProfileRetries)
}

func retryable(err error) bool {
	return !errors.Is(err, apperr.ErrValidationFailed) &&
		!errors.Is(err, apperr.ErrUnauthenticated) &&
		!errors.Is(err, apperr.ErrForbidden)
}

// writeProfile sends the current profile once. done is true when nothing is
// dirty any more. ProfileDirty only clears if no edit happened meanwhile.
func (a *App) writeProfile(ctx context.Context) (done bool, err error) {
	a.profileMu.Lock()
	defer a.profileMu.Unlock()

	snap := a.store.Snapshot()
	if !snap.ProfileDirty || snap.AuthStatus == Unauthenticated {
		return true, nil
	}
	p := snap.Profile
	if _, err := a.remote.UpsertProfile(ctx, fullPatch(p)); err != nil {
		return false, err
	}
	cleared := false
	a.store.Update(func(s *State) {
		if s.profileVersion == snap.profileVersion {
			s.ProfileDirty = false
			cleared = true
		}
	})
	return cleared, nil
}

func fullPatch(p profile.Profile) profile.Patch {
	return profile.Patch{
		FullName:    &p.FullName,
		Phone:       &p.Phone,
		Location:    &p.Location,
		HomeAddress: &p.HomeAddress,
	}
}

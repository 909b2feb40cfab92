package storefront

import (
	"context"
	"errors"
	"log"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/localstore"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/profile"
	"github.com/wichananm65/craftisland/internal/user"
	"golang.org/x/sync/errgroup"
)

// SignIn authenticates and then syncs the profile and orders. AuthLoading is
// set for the whole call.
func (a *App) SignIn(ctx context.Context, email, password string) error {
	a.store.Update(func(s *State) { s.AuthLoading = true })
	sess, err := a.remote.SignIn(ctx, email, password)
	if err != nil {
		a.store.Update(func(s *State) { s.AuthLoading = false })
		log.Printf("[session] sign in failed: %v", err)
		return err
	}
	a.beginSession(ctx, sess)
	return nil
}

// SignUp creates the account, signs in and seeds the profile with fullName.
func (a *App) SignUp(ctx context.Context, email, password, fullName string) error {
	a.store.Update(func(s *State) { s.AuthLoading = true })
	sess, err := a.remote.SignUp(ctx, email, password, fullName)
	if err != nil {
		a.store.Update(func(s *State) { s.AuthLoading = false })
		log.Printf("[session] sign up failed: %v", err)
		return err
	}
	a.beginSession(ctx, sess)
	if fullName != "" && a.store.Snapshot().Profile.FullName == "" {
		return a.UpdateProfile(profile.Patch{FullName: &fullName})
	}
	return nil
}

// SignOut resets identity, profile, orders, cart, wishlist and role before
// the remote call, so the signed-out state is visible immediately.
func (a *App) SignOut(ctx context.Context) error {
	scoped, _ := a.local.LoadScope(ctx, localstore.Guest)
	a.store.Update(func(s *State) {
		*s = resetSession(*s, scoped)
	})
	_ = a.local.Delete(ctx, localstore.KeySession)
	_ = a.local.Delete(ctx, localstore.KeyRole)

	if err := a.remote.SignOut(ctx); err != nil {
		log.Printf("[session] remote sign out failed: %v", err)
		return err
	}
	return nil
}

func resetSession(s State, guest localstore.Scoped) State {
	s.AuthStatus = Unauthenticated
	s.AuthLoading = false
	s.Identity = Identity{}
	s.Scope = localstore.Guest
	s.Profile = profile.Profile{}
	s.ProfileDirty = false
	s.profileVersion++
	s.Orders = nil
	s.Cart = guest.Cart
	s.Wishlist = guest.Wishlist
	s.Role = user.RoleUser
	s.OwnerOrders = nil
	return s
}

type persistedSession struct {
	Token string `json:"token"`
}

func (a *App) restoreSession(ctx context.Context) {
	var saved persistedSession
	found, _ := a.local.GetJSON(ctx, localstore.KeySession, &saved)
	if !found || saved.Token == "" {
		return
	}
	a.store.Update(func(s *State) { s.AuthLoading = true })
	a.remote.SetToken(saved.Token)
	sess, err := a.remote.CurrentSession(ctx)
	if err != nil {
		log.Printf("[session] persisted session rejected: %v", err)
		a.remote.SetToken("")
		if errors.Is(err, apperr.ErrUnauthenticated) {
			_ = a.local.Delete(ctx, localstore.KeySession)
		}
		a.store.Update(func(s *State) { s.AuthLoading = false })
		return
	}
	a.beginSession(ctx, sess)
}

// beginSession swaps to the account's scope and runs the profile sync.
func (a *App) beginSession(ctx context.Context, sess user.Session) {
	if sess.Token != "" {
		_ = a.local.SetJSON(ctx, localstore.KeySession, persistedSession{Token: sess.Token})
	}
	id := Identity{UserID: sess.User.ID.String(), Email: sess.User.Email, AccountRole: sess.Role}
	scope := localstore.Scope(id.Email)

	role := user.RoleUser
	if sess.Role == user.RoleOwner {
		var saved string
		if found, _ := a.local.GetJSON(ctx, localstore.KeyRole, &saved); found && saved == user.RoleOwner {
			role = user.RoleOwner
		}
	}

	changed := a.store.Snapshot().Scope != scope
	var scoped localstore.Scoped
	if changed {
		scoped, _ = a.local.LoadScope(ctx, scope)
	}
	a.store.Update(func(s *State) {
		s.AuthStatus = SyncingProfile
		s.Identity = id
		s.Role = role
		if changed {
			s.Scope = scope
			s.Cart = scoped.Cart
			s.Wishlist = scoped.Wishlist
		}
	})
	log.Printf("[session] signed in as %s", id.Email)
	a.syncSession(ctx, id)
	if role == user.RoleOwner {
		if err := a.RefreshOwnerOrders(ctx); err != nil {
			log.Printf("[owner] order fetch failed: %v", err)
		}
	}
}

// profileDefaults is the profile shown when none is stored yet.
func profileDefaults(id Identity) profile.Profile {
	return profile.Profile{ID: id.UserID, Email: id.Email}
}

// syncSession fetches the profile and the order list concurrently. Either
// failure falls back to defaults; the state always ends Authenticated.
func (a *App) syncSession(ctx context.Context, id Identity) {
	prof := profileDefaults(id)
	orders := []order.Order{}

	var g errgroup.Group
	g.Go(func() error {
		p, err := a.remote.GetProfile(ctx)
		switch {
		case err == nil:
			prof = p
		case errors.Is(err, apperr.ErrNotFound):
		default:
			log.Printf("[session] profile fetch failed: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		list, err := a.remote.ListOrders(ctx)
		if err != nil {
			log.Printf("[session] orders fetch failed: %v", err)
			return nil
		}
		orders = list
		return nil
	})
	_ = g.Wait()

	a.store.Update(func(s *State) {
		if s.Identity.UserID != id.UserID {
			return
		}
		if !s.ProfileDirty {
			s.Profile = prof
		}
		s.Orders = orders
		s.AuthStatus = Authenticated
		s.AuthLoading = false
	})
}

// RefreshOrders refetches the signed-in user's orders. Failures keep the
// current list.
func (a *App) RefreshOrders(ctx context.Context) error {
	if a.store.Snapshot().AuthStatus == Unauthenticated {
		return apperr.ErrUnauthenticated
	}
	list, err := a.remote.ListOrders(ctx)
	if err != nil {
		log.Printf("[session] orders fetch failed: %v", err)
		return err
	}
	a.store.Update(func(s *State) { s.Orders = list })
	return nil
}

func (a *App) loadScope(ctx context.Context, scope string) {
	scoped, _ := a.local.LoadScope(ctx, scope)
	a.store.Update(func(s *State) {
		s.Scope = scope
		s.Cart = scoped.Cart
		s.Wishlist = scoped.Wishlist
	})
}

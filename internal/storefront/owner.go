package storefront

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/localstore"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/owner"
	"github.com/wichananm65/craftisland/internal/settings"
	"github.com/wichananm65/craftisland/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type cachedPasscode struct {
	Hash string `json:"hash"`
}

// EnterOwnerMode switches the view to the owner dashboard. The account must
// carry the owner role; the passcode is a screen lock on top of that. It is
// checked by the service, or against the copy cached on this device when the
// service is unreachable.
func (a *App) EnterOwnerMode(ctx context.Context, passcode string) error {
	snap := a.store.Snapshot()
	if snap.AuthStatus == Unauthenticated {
		return apperr.ErrUnauthenticated
	}
	if snap.Identity.AccountRole != user.RoleOwner {
		return fmt.Errorf("%w: this account is not a shop owner", apperr.ErrForbidden)
	}

	ok, err := a.remote.VerifyOwnerPasscode(ctx, passcode)
	if errors.Is(err, apperr.ErrRemoteUnavailable) {
		log.Printf("[owner] passcode check offline: %v", err)
		ok, err = a.verifyCachedPasscode(ctx, passcode), nil
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: incorrect passcode", apperr.ErrForbidden)
	}

	a.cachePasscode(ctx, passcode)
	_ = a.local.SetJSON(ctx, localstore.KeyRole, user.RoleOwner)
	a.store.Update(func(s *State) { s.Role = user.RoleOwner })
	return a.RefreshOwnerOrders(ctx)
}

func (a *App) ExitOwnerMode(ctx context.Context) {
	_ = a.local.SetJSON(ctx, localstore.KeyRole, user.RoleUser)
	a.store.Update(func(s *State) {
		s.Role = user.RoleUser
		s.OwnerOrders = nil
	})
}

func (a *App) verifyCachedPasscode(ctx context.Context, passcode string) bool {
	var cached cachedPasscode
	if found, _ := a.local.GetJSON(ctx, localstore.KeyOwnerPasscode, &cached); found {
		return bcrypt.CompareHashAndPassword([]byte(cached.Hash), []byte(passcode)) == nil
	}
	return a.opts.DefaultPasscode != "" && passcode == a.opts.DefaultPasscode
}

func (a *App) cachePasscode(ctx context.Context, passcode string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[owner] hash passcode: %v", err)
		return
	}
	_ = a.local.SetJSON(ctx, localstore.KeyOwnerPasscode, cachedPasscode{Hash: string(hash)})
}

// RefreshOwnerOrders loads every customer's orders, newest first.
func (a *App) RefreshOwnerOrders(ctx context.Context) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	list, err := a.remote.ListAllOrders(ctx)
	if err != nil {
		return err
	}
	a.store.Update(func(s *State) { s.OwnerOrders = list })
	return nil
}

// UpdateOrderStatus rejects backward moves, repeats and unknown statuses
// before calling the service.
func (a *App) UpdateOrderStatus(ctx context.Context, id int, raw string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	to, err := order.ParseStatus(raw)
	if err != nil {
		return err
	}
	for _, o := range a.store.Snapshot().OwnerOrders {
		if o.ID == id && !order.CanTransition(o.Status, to) {
			return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, o.Status, to)
		}
	}
	if _, err := a.remote.UpdateOrderStatus(ctx, id, to); err != nil {
		log.Printf("[owner] status update for order %d failed: %v", id, err)
		return err
	}
	a.store.Update(func(s *State) {
		for i := range s.OwnerOrders {
			if s.OwnerOrders[i].ID == id {
				s.OwnerOrders[i].Status = to
			}
		}
	})
	return nil
}

func (a *App) DeleteOrder(ctx context.Context, id int) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if err := a.remote.DeleteOrder(ctx, id); err != nil {
		log.Printf("[owner] delete order %d failed: %v", id, err)
		return err
	}
	a.store.Update(func(s *State) {
		kept := s.OwnerOrders[:0]
		for _, o := range s.OwnerOrders {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		s.OwnerOrders = kept
	})
	return nil
}

// FactoryReset deletes all orders and profiles on the service and then wipes
// this device's local store, session included. A wrong phrase changes
// nothing anywhere.
func (a *App) FactoryReset(ctx context.Context, phrase string) (owner.ResetResult, error) {
	if err := a.requireOwner(); err != nil {
		return owner.ResetResult{}, err
	}
	if phrase != owner.ResetPhrase {
		return owner.ResetResult{}, fmt.Errorf("%w: type %s to confirm", apperr.ErrConfirmationRequired, owner.ResetPhrase)
	}
	res, err := a.remote.FactoryReset(ctx, phrase)
	if err != nil {
		log.Printf("[owner] factory reset failed: %v", err)
		return owner.ResetResult{}, err
	}
	if err := a.local.Clear(ctx); err != nil {
		log.Printf("[owner] clearing local store failed: %v", err)
	}
	a.store.Update(func(s *State) {
		s.Orders = nil
		s.OwnerOrders = nil
		s.Cart = nil
		s.Wishlist = nil
		s.Profile = profileDefaults(s.Identity)
		s.ProfileDirty = false
		s.profileVersion++
	})
	log.Printf("[owner] factory reset complete")
	return res, nil
}

func (a *App) UpdateContactInfo(ctx context.Context, patch settings.ContactPatch) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	info, err := a.remote.UpdateContactInfo(ctx, patch)
	if err != nil {
		return err
	}
	a.store.Update(func(s *State) { s.ContactInfo = info })
	_ = a.local.SetJSON(ctx, localstore.KeyContactInfo, info)
	return nil
}

func (a *App) UpdateOwnerPasscode(ctx context.Context, passcode string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if err := a.remote.UpdateOwnerPasscode(ctx, passcode); err != nil {
		return err
	}
	a.cachePasscode(ctx, passcode)
	return nil
}

func (a *App) Analytics(ctx context.Context) (owner.Analytics, error) {
	if err := a.requireOwner(); err != nil {
		return owner.Analytics{}, err
	}
	return a.remote.Analytics(ctx)
}

// Package storefront is the client synchronization layer: it owns every
// remote call and every local write, and exposes the result as a State held
// in a Store that views read and subscribe to.
package storefront

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wichananm65/craftisland/internal/localstore"
	"github.com/wichananm65/craftisland/internal/realtime"
	"github.com/wichananm65/craftisland/internal/settings"
	"golang.org/x/sync/singleflight"
)

type Options struct {
	// ProfileRetries bounds the background profile upsert attempts per edit.
	ProfileRetries int
	// ProfileBackoff is the delay after the first failed attempt. It doubles
	// per failure up to maxBackoff.
	ProfileBackoff time.Duration
	// DefaultPasscode is accepted for owner mode when the service cannot be
	// reached and no passcode was cached on this device.
	DefaultPasscode string
}

func (o Options) withDefaults() Options {
	if o.ProfileRetries <= 0 {
		o.ProfileRetries = 5
	}
	if o.ProfileBackoff <= 0 {
		o.ProfileBackoff = 500 * time.Millisecond
	}
	return o
}

type App struct {
	remote Remote
	local  *localstore.Store
	store  *Store
	opts   Options

	catalog    singleflight.Group
	catalogGen atomic.Uint64

	// persistMu orders cart and wishlist writes so the stored copy never
	// lags behind an older snapshot.
	persistMu sync.Mutex
	// profileMu serializes profile upserts between the background writer
	// and FlushProfile.
	profileMu   sync.Mutex
	profileKick chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(remote Remote, local *localstore.Store, opts Options) *App {
	return &App{
		remote:      remote,
		local:       local,
		store:       NewStore(initialState(localstore.Guest)),
		opts:        opts.withDefaults(),
		profileKick: make(chan struct{}, 1),
	}
}

func (a *App) Store() *Store { return a.store }

func (a *App) Snapshot() State { return a.store.Snapshot() }

var errStarted = errors.New("storefront already started")

// Start loads the guest scope and cached settings, subscribes to change
// events, refreshes the catalog and restores a persisted session. Remote
// failures are logged and leave the state usable.
func (a *App) Start(ctx context.Context) error {
	if a.cancel != nil {
		return errStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.loadScope(ctx, localstore.Guest)
	var contact settings.ContactInfo
	if found, _ := a.local.GetJSON(ctx, localstore.KeyContactInfo, &contact); found {
		a.store.Update(func(s *State) { s.ContactInfo = contact })
	}

	a.wg.Add(1)
	go a.profileWriter(runCtx)

	events, err := a.remote.Subscribe(runCtx, realtime.TableProducts, realtime.TablePincodes, realtime.TableOrders)
	if err != nil {
		log.Printf("[realtime] subscribe failed: %v", err)
	} else {
		a.wg.Add(1)
		go a.handleEvents(runCtx, events)
	}

	if err := a.RefreshCatalog(ctx); err != nil {
		log.Printf("[catalog] initial refresh failed: %v", err)
	}
	a.refreshContactInfo(ctx)
	a.restoreSession(ctx)
	return nil
}

// Close stops background work. Pending profile writes are abandoned and
// ProfileDirty stays set.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
}

func (a *App) handleEvents(ctx context.Context, events <-chan realtime.Event) {
	defer a.wg.Done()
	for ev := range events {
		switch ev.Table {
		case realtime.TableProducts, realtime.TablePincodes:
			if err := a.RefreshCatalog(ctx); err != nil {
				log.Printf("[catalog] refresh after %s %s failed: %v", ev.Table, ev.Type, err)
			}
		case realtime.TableOrders:
			if a.store.Snapshot().IsOwner() {
				if err := a.RefreshOwnerOrders(ctx); err != nil {
					log.Printf("[owner] refresh after order %s failed: %v", ev.Type, err)
				}
			}
		}
	}
}

func (a *App) refreshContactInfo(ctx context.Context) {
	info, err := a.remote.GetContactInfo(ctx)
	if err != nil {
		log.Printf("[session] contact info fetch failed: %v", err)
		return
	}
	a.store.Update(func(s *State) { s.ContactInfo = info })
	_ = a.local.SetJSON(ctx, localstore.KeyContactInfo, info)
}

// Package owner implements the privileged shop views: every customer's
// orders, status changes, deletions, analytics and the factory reset.
package owner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/realtime"
	"github.com/wichananm65/craftisland/internal/settings"
	"golang.org/x/crypto/bcrypt"
)

// ResetPhrase must be typed exactly to confirm a factory reset.
const ResetPhrase = "RESET"

const minPasscodeLen = 4

// ProfileStore is the part of the profile repository a reset needs.
type ProfileStore interface {
	DeleteAll(ctx context.Context) (int64, error)
}

type Config struct {
	// DefaultPasscode unlocks owner mode until a custom one is saved.
	DefaultPasscode   string
	AllowFactoryReset bool
}

type Analytics struct {
	Revenue    decimal.Decimal      `json:"revenue"`
	ItemsSold  int                  `json:"itemsSold"`
	OrderCount int                  `json:"orderCount"`
	ByStatus   map[order.Status]int `json:"byStatus"`
}

type ResetResult struct {
	Items    int64 `json:"items"`
	Orders   int64 `json:"orders"`
	Profiles int64 `json:"profiles"`
}

type Service struct {
	orders   order.Repository
	profiles ProfileStore
	settings settings.Repository
	events   realtime.Publisher
	cfg      Config
}

func NewService(orders order.Repository, profiles ProfileStore, settingsRepo settings.Repository, events realtime.Publisher, cfg Config) *Service {
	if events == nil {
		events = realtime.Nop{}
	}
	return &Service{orders: orders, profiles: profiles, settings: settingsRepo, events: events, cfg: cfg}
}

func (s *Service) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	return s.orders.ListAll(ctx)
}

// UpdateOrderStatus moves an order forward. Backward moves, repeats and
// unknown statuses fail with ErrInvalidTransition and change nothing.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int, raw string) (order.Order, error) {
	to, err := order.ParseStatus(raw)
	if err != nil {
		return order.Order{}, err
	}
	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return order.Order{}, err
	}
	if !order.CanTransition(current.Status, to) {
		return order.Order{}, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, current.Status, to)
	}
	if err := s.orders.UpdateStatus(ctx, id, current.Status, to); err != nil {
		return order.Order{}, err
	}
	current.Status = to
	log.Printf("[owner] order %d moved to %s", id, to)
	s.publish(ctx, realtime.Update, id)
	return current, nil
}

// DeleteOrder removes the line items first; if that fails the order row is
// left in place.
func (s *Service) DeleteOrder(ctx context.Context, id int) error {
	if _, err := s.orders.Get(ctx, id); err != nil {
		return err
	}
	if err := s.orders.DeleteItems(ctx, id); err != nil {
		return fmt.Errorf("delete items of order %d: %w", id, err)
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	log.Printf("[owner] order %d deleted", id)
	s.publish(ctx, realtime.Delete, id)
	return nil
}

// FactoryReset deletes all line items, then all orders, then all profiles.
// Nothing is touched unless phrase equals ResetPhrase.
func (s *Service) FactoryReset(ctx context.Context, phrase string) (ResetResult, error) {
	if !s.cfg.AllowFactoryReset {
		return ResetResult{}, fmt.Errorf("%w: factory reset is disabled", apperr.ErrForbidden)
	}
	if phrase != ResetPhrase {
		return ResetResult{}, fmt.Errorf("%w: type %s to confirm", apperr.ErrConfirmationRequired, ResetPhrase)
	}

	var res ResetResult
	var err error
	if res.Items, err = s.orders.DeleteAllItems(ctx); err != nil {
		return res, fmt.Errorf("delete order items: %w", err)
	}
	if res.Orders, err = s.orders.DeleteAllOrders(ctx); err != nil {
		return res, fmt.Errorf("delete orders: %w", err)
	}
	if res.Profiles, err = s.profiles.DeleteAll(ctx); err != nil {
		return res, fmt.Errorf("delete profiles: %w", err)
	}
	log.Printf("[owner] factory reset removed %d items, %d orders, %d profiles", res.Items, res.Orders, res.Profiles)
	s.publish(ctx, realtime.Delete, 0)
	return res, nil
}

func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return Analytics{}, err
	}
	a := Analytics{Revenue: decimal.Zero, ByStatus: map[order.Status]int{}}
	for _, o := range orders {
		a.Revenue = a.Revenue.Add(o.Total)
		a.OrderCount++
		a.ByStatus[o.Status]++
		for _, li := range o.Items {
			a.ItemsSold += li.Qty
		}
	}
	return a, nil
}

type passcodeRecord struct {
	Hash string `json:"hash"`
}

// VerifyPasscode checks the owner-mode passcode. It only gates the owner
// screens; the API itself authorizes by the owner role in the token.
func (s *Service) VerifyPasscode(ctx context.Context, code string) (bool, error) {
	raw, err := s.settings.Get(ctx, settings.KeyOwnerPasscode)
	if errors.Is(err, settings.ErrNotFound) {
		return s.cfg.DefaultPasscode != "" && code == s.cfg.DefaultPasscode, nil
	}
	if err != nil {
		return false, err
	}
	var rec passcodeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(code)) == nil, nil
}

func (s *Service) UpdatePasscode(ctx context.Context, code string) error {
	if len(strings.TrimSpace(code)) < minPasscodeLen {
		return apperr.Validation("passcode must be at least %d characters", minPasscodeLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(passcodeRecord{Hash: string(hash)})
	if err != nil {
		return err
	}
	return s.settings.Put(ctx, settings.KeyOwnerPasscode, raw)
}

func (s *Service) publish(ctx context.Context, typ string, id int) {
	ev := realtime.Event{Table: realtime.TableOrders, Type: typ}
	if id > 0 {
		ev.ID = strconv.Itoa(id)
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("[owner] publish %s: %v", typ, err)
	}
}

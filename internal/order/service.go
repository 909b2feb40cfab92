package order

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/product"
	"github.com/wichananm65/craftisland/internal/realtime"
)

// ProductReader resolves live prices at checkout.
type ProductReader interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

// PincodeLister supplies the serviceable allow-list.
type PincodeLister interface {
	List(ctx context.Context) ([]string, error)
}

// Service provides business logic for orders.
type Service struct {
	repo     Repository
	products ProductReader
	pincodes PincodeLister
	events   realtime.Publisher
	now      func() time.Time
}

func NewService(repo Repository, products ProductReader, pincodes PincodeLister, events realtime.Publisher) *Service {
	if events == nil {
		events = realtime.Nop{}
	}
	return &Service{repo: repo, products: products, pincodes: pincodes, events: events, now: time.Now}
}

// Place validates the checkout, freezes each line at the product's current
// effective price and stores everything in one repository call.
func (s *Service) Place(ctx context.Context, userID string, in CheckoutInput) (Order, error) {
	allowed, err := s.pincodes.List(ctx)
	if err != nil {
		return Order{}, err
	}
	if err := ValidateCheckout(userID, in, allowed); err != nil {
		return Order{}, err
	}

	items := make([]LineItem, 0, len(in.Lines))
	total := decimal.Zero
	for _, line := range mergeLines(in.Lines) {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return Order{}, err
		}
		li := LineItem{ProductID: p.ID, Qty: line.Qty, PriceAtPurchase: p.EffectivePrice()}
		total = total.Add(li.LineTotal())
		items = append(items, li)
	}

	placed, err := s.repo.Place(ctx, Order{
		UserID: userID,
		Total:  total,
		Status: Processing,
		Shipping: Shipping{
			Name:        strings.TrimSpace(in.Shipping.Name),
			Phone:       strings.TrimSpace(in.Shipping.Phone),
			Location:    strings.TrimSpace(in.Shipping.Location),
			HomeAddress: strings.TrimSpace(in.Shipping.HomeAddress),
		},
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		CreatedAt:     s.now().UTC(),
		Items:         items,
	})
	if err != nil {
		return Order{}, err
	}
	log.Printf("[checkout] order %d placed by %s total=%s items=%d", placed.ID, userID, placed.Total, len(placed.Items))

	s.publish(ctx, realtime.TableOrders, realtime.Insert, placed.ID)
	for _, li := range placed.Items {
		s.publish(ctx, realtime.TableProducts, realtime.Update, li.ProductID)
	}
	return placed, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) publish(ctx context.Context, table, typ string, id int) {
	ev := realtime.Event{Table: table, Type: typ, ID: strconv.Itoa(id)}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("[checkout] publish %s %s %d: %v", table, typ, id, err)
	}
}

// mergeLines folds repeated product ids into one line, keeping first-seen order.
func mergeLines(lines []LineInput) []LineInput {
	out := make([]LineInput, 0, len(lines))
	pos := map[int]int{}
	for _, l := range lines {
		if i, ok := pos[l.ProductID]; ok {
			out[i].Qty += l.Qty
			continue
		}
		pos[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

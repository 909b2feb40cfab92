package storefront

import (
	"context"
	"fmt"
	"log"

	"github.com/wichananm65/craftisland/internal/order"
)

// PlaceOrder checks every precondition locally, then sends the cart as one
// order request. The service writes the order, its line items and the stock
// decrements in a single transaction. On success the cart is cleared and the
// order list refetched.
func (a *App) PlaceOrder(ctx context.Context, shipping order.Shipping, paymentMethod string) (bool, error) {
	snap := a.store.Snapshot()
	in := order.CheckoutInput{Shipping: shipping, PaymentMethod: paymentMethod}
	for _, it := range snap.Cart {
		in.Lines = append(in.Lines, order.LineInput{ProductID: it.ID, Qty: it.Qty})
	}
	if err := order.ValidateCheckout(snap.Identity.UserID, in, snap.Pincodes); err != nil {
		return false, err
	}

	placed, err := a.remote.PlaceOrder(ctx, in)
	if err != nil {
		log.Printf("[checkout] order failed: %v", err)
		return false, fmt.Errorf("order failed: %w", err)
	}
	log.Printf("[checkout] order %d placed, total %s", placed.ID, placed.Total)

	if err := a.ClearCart(ctx); err != nil {
		log.Printf("[checkout] clearing stored cart failed: %v", err)
	}
	if err := a.RefreshOrders(ctx); err != nil {
		a.store.Update(func(s *State) { s.Orders = append([]order.Order{placed}, s.Orders...) })
	}
	return true, nil
}

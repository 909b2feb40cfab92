package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/pincode"
)

// Status is the order lifecycle: Processing -> Accepted -> Delivered.
type Status string

const (
	Processing Status = "Processing"
	Accepted   Status = "Accepted"
	Delivered  Status = "Delivered"
)

var statusRank = map[Status]int{
	Processing: 0,
	Accepted:   1,
	Delivered:  2,
}

// Statuses lists every status in lifecycle order.
var Statuses = []Status{Processing, Accepted, Delivered}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidTransition, s)
	}
	return st, nil
}

// CanTransition accepts only strictly forward moves between known statuses.
func CanTransition(from, to Status) bool {
	rf, okFrom := statusRank[from]
	rt, okTo := statusRank[to]
	return okFrom && okTo && rt > rf
}

// DeletedProductName is shown for line items whose product no longer exists.
const DeletedProductName = "Product no longer available"

// Shipping is captured when the order is placed and never follows later
// profile edits.
type Shipping struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Location    string `json:"location"`
	HomeAddress string `json:"homeAddress"`
}

type ProductSnapshot struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

type LineItem struct {
	ID              int              `json:"id"`
	OrderID         int              `json:"orderId"`
	ProductID       int              `json:"productId"`
	Qty             int              `json:"qty"`
	PriceAtPurchase decimal.Decimal  `json:"priceAtPurchase"`
	Product         *ProductSnapshot `json:"product,omitempty"`
}

func (li LineItem) DisplayName() string {
	if li.Product == nil || li.Product.Name == "" {
		return DeletedProductName
	}
	return li.Product.Name
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.PriceAtPurchase.Mul(decimal.NewFromInt(int64(li.Qty)))
}

type Order struct {
	ID            int             `json:"id"`
	UserID        string          `json:"userId"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	Shipping      Shipping        `json:"shippingDetails"`
	PaymentMethod string          `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []LineItem      `json:"items"`
}

// Clone copies the item slice so callers can hand orders out safely.
func (o Order) Clone() Order {
	out := o
	out.Items = make([]LineItem, len(o.Items))
	for i, li := range o.Items {
		if li.Product != nil {
			snap := *li.Product
			li.Product = &snap
		}
		out.Items[i] = li
	}
	return out
}

// LineInput is one cart entry sent at checkout.
type LineInput struct {
	ProductID int `json:"productId"`
	Qty       int `json:"qty"`
}

type CheckoutInput struct {
	Shipping      Shipping    `json:"shipping"`
	PaymentMethod string      `json:"paymentMethod"`
	Lines         []LineInput `json:"lines"`
}

// CashOnDelivery is the only payment method the shop offers.
const CashOnDelivery = "Cash on Delivery"

// ValidateCheckout checks everything that must hold before any write:
// identity, a non-empty cart, complete shipping details, a serviceable
// pincode and a payment method.
func ValidateCheckout(identity string, in CheckoutInput, allowedPincodes []string) error {
	if strings.TrimSpace(identity) == "" {
		return fmt.Errorf("%w: please sign in to place an order", apperr.ErrUnauthenticated)
	}
	if len(in.Lines) == 0 {
		return apperr.Validation("cart is empty")
	}
	for _, l := range in.Lines {
		if l.Qty < 1 {
			return apperr.Validation("quantity for product %d must be at least 1", l.ProductID)
		}
	}
	s := in.Shipping
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Phone) == "" ||
		strings.TrimSpace(s.Location) == "" || strings.TrimSpace(s.HomeAddress) == "" {
		return apperr.Validation("please fill in name, phone, pincode and home address")
	}
	if err := pincode.CheckServiceable(allowedPincodes, s.Location); err != nil {
		return err
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return apperr.Validation("please select a payment method")
	}
	return nil
}

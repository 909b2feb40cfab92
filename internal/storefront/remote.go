package storefront

import (
	"context"

	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/owner"
	"github.com/wichananm65/craftisland/internal/product"
	"github.com/wichananm65/craftisland/internal/profile"
	"github.com/wichananm65/craftisland/internal/realtime"
	"github.com/wichananm65/craftisland/internal/settings"
	"github.com/wichananm65/craftisland/internal/user"
)

// Remote is every call the storefront makes to the data service. Errors are
// classified with the apperr sentinels.
type Remote interface {
	SetToken(token string)
	SignIn(ctx context.Context, email, password string) (user.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (user.Session, error)
	// SignOut forgets the session token.
	SignOut(ctx context.Context) error
	// CurrentSession validates the token set with SetToken.
	CurrentSession(ctx context.Context) (user.Session, error)

	ListProducts(ctx context.Context) ([]product.Product, error)
	CreateProduct(ctx context.Context, p product.Product) (product.WriteResult, error)
	UpdateProduct(ctx context.Context, id int, p product.Product) (product.WriteResult, error)
	DeleteProduct(ctx context.Context, id int) error
	SetStock(ctx context.Context, id, stock int) (product.Product, error)

	ListPincodes(ctx context.Context) ([]string, error)
	AddPincode(ctx context.Context, code string) error
	RemovePincode(ctx context.Context, code string) error

	GetProfile(ctx context.Context) (profile.Profile, error)
	UpsertProfile(ctx context.Context, patch profile.Patch) (profile.Profile, error)

	PlaceOrder(ctx context.Context, in order.CheckoutInput) (order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)

	ListAllOrders(ctx context.Context) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, id int, status order.Status) (order.Order, error)
	DeleteOrder(ctx context.Context, id int) error
	FactoryReset(ctx context.Context, phrase string) (owner.ResetResult, error)
	Analytics(ctx context.Context) (owner.Analytics, error)
	VerifyOwnerPasscode(ctx context.Context, passcode string) (bool, error)
	UpdateOwnerPasscode(ctx context.Context, passcode string) error

	GetContactInfo(ctx context.Context) (settings.ContactInfo, error)
	UpdateContactInfo(ctx context.Context, patch settings.ContactPatch) (settings.ContactInfo, error)

	// Subscribe streams change events until ctx is done, then closes the
	// channel.
	Subscribe(ctx context.Context, tables ...string) (<-chan realtime.Event, error)
}

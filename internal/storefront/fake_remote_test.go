package storefront

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/owner"
	"github.com/wichananm65/craftisland/internal/product"
	"github.com/wichananm65/craftisland/internal/profile"
	"github.com/wichananm65/craftisland/internal/realtime"
	"github.com/wichananm65/craftisland/internal/settings"
	"github.com/wichananm65/craftisland/internal/user"
)

// fakeRemote is an in-memory data service with per-call error injection.
type fakeRemote struct {
	mu sync.Mutex

	token    string
	accounts map[string]user.Session
	products []product.Product
	pincodes []string
	profiles map[string]profile.Profile
	orders   []order.Order
	contact  settings.ContactInfo
	passcode string
	degraded bool

	errs      map[string]error
	failTimes map[string]int
	calls     map[string]int

	events    chan realtime.Event
	onSignOut func()
	// afterList runs once ListProducts has read the rows, outside the lock.
	afterList func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		accounts: map[string]user.Session{},
		profiles: map[string]profile.Profile{},
		products: []product.Product{
			{ID: 2, Name: "Bead Kit", Category: "Crafts", Price: decimal.NewFromInt(200), Stock: 10},
			{ID: 1, Name: "Hand Loom", Category: "Tools", Price: decimal.NewFromInt(250), Stock: 3},
		},
		pincodes:  []string{"560001", "560002"},
		passcode:  "@craftisland",
		errs:      map[string]error{},
		failTimes: map[string]int{},
		calls:     map[string]int{},
		events:    make(chan realtime.Event, 8),
	}
}

func (f *fakeRemote) addAccount(email, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = user.Session{
		Token: "tok-" + email,
		User:  user.User{ID: uuid.New(), Email: email},
		Role:  role,
	}
}

func (f *fakeRemote) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) setErr(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

// enter records a call and returns the injected error for it. failTimes
// makes a call fail that many times before it succeeds.
func (f *fakeRemote) enter(name string) error {
	f.calls[name]++
	if n := f.failTimes[name]; n > 0 {
		f.failTimes[name] = n - 1
		return apperr.ErrRemoteUnavailable
	}
	return f.errs[name]
}

func (f *fakeRemote) session() (user.Session, bool) {
	for _, s := range f.accounts {
		if s.Token == f.token && f.token != "" {
			return s, true
		}
	}
	return user.Session{}, false
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeRemote) SignIn(_ context.Context, email, _ string) (user.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SignIn"); err != nil {
		return user.Session{}, err
	}
	s, ok := f.accounts[email]
	if !ok {
		return user.Session{}, apperr.ErrUnauthenticated
	}
	f.token = s.Token
	return s, nil
}

func (f *fakeRemote) SignUp(_ context.Context, email, _, fullName string) (user.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SignUp"); err != nil {
		return user.Session{}, err
	}
	s := user.Session{Token: "tok-" + email, User: user.User{ID: uuid.New(), Email: email, FullName: fullName}, Role: user.RoleUser}
	f.accounts[email] = s
	f.token = s.Token
	return s, nil
}

func (f *fakeRemote) SignOut(context.Context) error {
	if f.onSignOut != nil {
		f.onSignOut()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SignOut"]++
	f.token = ""
	return nil
}

func (f *fakeRemote) CurrentSession(context.Context) (user.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CurrentSession"); err != nil {
		return user.Session{}, err
	}
	s, ok := f.session()
	if !ok {
		return user.Session{}, apperr.ErrUnauthenticated
	}
	return s, nil
}

func (f *fakeRemote) ListProducts(context.Context) ([]product.Product, error) {
	f.mu.Lock()
	if err := f.enter("ListProducts"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	out := make([]product.Product, len(f.products))
	for i, p := range f.products {
		out[i] = p.Clone()
	}
	hook := f.afterList
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeRemote) CreateProduct(_ context.Context, p product.Product) (product.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateProduct"); err != nil {
		return product.WriteResult{}, err
	}
	p.ID = 100 + len(f.products)
	p.Normalize()
	if f.degraded {
		p.Images = []string{p.Image}
	}
	f.products = append(f.products, p)
	return product.WriteResult{Product: p, Degraded: f.degraded}, nil
}

func (f *fakeRemote) UpdateProduct(_ context.Context, id int, p product.Product) (product.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateProduct"); err != nil {
		return product.WriteResult{}, err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			p.ID = id
			f.products[i] = p
			return product.WriteResult{Product: p, Degraded: f.degraded}, nil
		}
	}
	return product.WriteResult{}, product.ErrNotFound
}

func (f *fakeRemote) DeleteProduct(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteProduct"); err != nil {
		return err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return product.ErrNotFound
}

func (f *fakeRemote) SetStock(_ context.Context, id, stock int) (product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetStock"); err != nil {
		return product.Product{}, err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Stock = stock
			return f.products[i], nil
		}
	}
	return product.Product{}, product.ErrNotFound
}

func (f *fakeRemote) ListPincodes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListPincodes"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.pincodes...), nil
}

func (f *fakeRemote) AddPincode(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddPincode"); err != nil {
		return err
	}
	f.pincodes = append(f.pincodes, code)
	sort.Strings(f.pincodes)
	return nil
}

func (f *fakeRemote) RemovePincode(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RemovePincode"); err != nil {
		return err
	}
	for i, c := range f.pincodes {
		if c == code {
			f.pincodes = append(f.pincodes[:i], f.pincodes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRemote) GetProfile(context.Context) (profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetProfile"); err != nil {
		return profile.Profile{}, err
	}
	s, ok := f.session()
	if !ok {
		return profile.Profile{}, apperr.ErrUnauthenticated
	}
	p, ok := f.profiles[s.User.ID.String()]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (f *fakeRemote) UpsertProfile(_ context.Context, patch profile.Patch) (profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertProfile"); err != nil {
		return profile.Profile{}, err
	}
	s, ok := f.session()
	if !ok {
		return profile.Profile{}, apperr.ErrUnauthenticated
	}
	id := s.User.ID.String()
	p := f.profiles[id]
	p.ID, p.Email = id, s.User.Email
	p = p.Apply(patch)
	f.profiles[id] = p
	return p, nil
}

func (f *fakeRemote) PlaceOrder(_ context.Context, in order.CheckoutInput) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("PlaceOrder"); err != nil {
		return order.Order{}, err
	}
	s, _ := f.session()
	o := order.Order{
		ID:            len(f.orders) + 1,
		UserID:        s.User.ID.String(),
		Status:        order.Processing,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		CreatedAt:     time.Now().Add(time.Duration(len(f.orders)) * time.Second),
		Total:         decimal.Zero,
	}
	for _, l := range in.Lines {
		for i := range f.products {
			if f.products[i].ID != l.ProductID {
				continue
			}
			price := f.products[i].EffectivePrice()
			o.Items = append(o.Items, order.LineItem{ProductID: l.ProductID, Qty: l.Qty, PriceAtPurchase: price})
			o.Total = o.Total.Add(price.Mul(decimal.NewFromInt(int64(l.Qty))))
			f.products[i].Stock = max(f.products[i].Stock-l.Qty, 0)
		}
	}
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *fakeRemote) ListOrders(context.Context) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListOrders"); err != nil {
		return nil, err
	}
	s, _ := f.session()
	out := []order.Order{}
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == s.User.ID.String() {
			out = append(out, f.orders[i].Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) ListAllOrders(context.Context) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListAllOrders"); err != nil {
		return nil, err
	}
	out := []order.Order{}
	for i := len(f.orders) - 1; i >= 0; i-- {
		out = append(out, f.orders[i].Clone())
	}
	return out, nil
}

func (f *fakeRemote) UpdateOrderStatus(_ context.Context, id int, status order.Status) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateOrderStatus"); err != nil {
		return order.Order{}, err
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			return f.orders[i], nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

func (f *fakeRemote) DeleteOrder(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteOrder"); err != nil {
		return err
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return nil
		}
	}
	return order.ErrNotFound
}

func (f *fakeRemote) FactoryReset(_ context.Context, phrase string) (owner.ResetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FactoryReset"); err != nil {
		return owner.ResetResult{}, err
	}
	res := owner.ResetResult{Orders: int64(len(f.orders)), Profiles: int64(len(f.profiles))}
	f.orders = nil
	f.profiles = map[string]profile.Profile{}
	return res, nil
}

func (f *fakeRemote) Analytics(context.Context) (owner.Analytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Analytics"); err != nil {
		return owner.Analytics{}, err
	}
	return owner.Analytics{OrderCount: len(f.orders)}, nil
}

func (f *fakeRemote) VerifyOwnerPasscode(_ context.Context, passcode string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("VerifyOwnerPasscode"); err != nil {
		return false, err
	}
	return passcode == f.passcode, nil
}

func (f *fakeRemote) UpdateOwnerPasscode(_ context.Context, passcode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateOwnerPasscode"); err != nil {
		return err
	}
	f.passcode = passcode
	return nil
}

func (f *fakeRemote) GetContactInfo(context.Context) (settings.ContactInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetContactInfo"); err != nil {
		return settings.ContactInfo{}, err
	}
	return f.contact, nil
}

func (f *fakeRemote) UpdateContactInfo(_ context.Context, patch settings.ContactPatch) (settings.ContactInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateContactInfo"); err != nil {
		return settings.ContactInfo{}, err
	}
	f.contact = f.contact.Apply(patch)
	return f.contact, nil
}

func (f *fakeRemote) Subscribe(ctx context.Context, _ ...string) (<-chan realtime.Event, error) {
	out := make(chan realtime.Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-f.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

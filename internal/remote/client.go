// Package remote is the HTTP client for the storefront data service.
package remote

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wichananm65/craftisland/internal/apperr"
	"github.com/wichananm65/craftisland/internal/order"
	"github.com/wichananm65/craftisland/internal/owner"
	"github.com/wichananm65/craftisland/internal/product"
	"github.com/wichananm65/craftisland/internal/profile"
	"github.com/wichananm65/craftisland/internal/realtime"
	"github.com/wichananm65/craftisland/internal/settings"
	"github.com/wichananm65/craftisland/internal/storefront"
	"github.com/wichananm65/craftisland/internal/user"
)

var _ storefront.Remote = (*Client)(nil)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 10 * time.Second
	reconnectDelay = 2 * time.Second
)

// Client talks to the storefront API. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	// stream has no timeout; the realtime feed is bounded by its context.
	stream *http.Client

	mu    sync.RWMutex
	token string

	// ReconnectDelay is the pause between realtime reconnect attempts.
	ReconnectDelay time.Duration
}

func NewClient(serviceURL, apiKey string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(serviceURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("service url %q must include scheme and host", serviceURL)
	}
	return &Client{
		baseURL:        base,
		apiKey:         apiKey,
		http:           &http.Client{Timeout: requestTimeout},
		stream:         &http.Client{},
		ReconnectDelay: reconnectDelay,
	}, nil
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type errorBody struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	rel := &url.URL{Path: c.baseURL.Path + apiPrefix + path}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperr.ErrRemoteUnavailable, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperr.ErrRemoteUnavailable, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil {
		body.Message = strings.TrimSpace(string(raw))
	}
	return apperr.FromResponse(resp.StatusCode, body.Kind, body.Message)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (user.Session, error) {
	var sess user.Session
	err := c.do(ctx, http.MethodPost, "/sign-in", map[string]string{"email": email, "password": password}, &sess)
	if err != nil {
		return user.Session{}, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (user.Session, error) {
	var sess user.Session
	body := map[string]string{"email": email, "password": password, "fullName": fullName}
	if err := c.do(ctx, http.MethodPost, "/sign-up", body, &sess); err != nil {
		return user.Session{}, err
	}
	c.SetToken(sess.Token)
	return sess, nil
}

// SignOut drops the token. Sessions are stateless tokens, so there is no
// server call to make.
func (c *Client) SignOut(context.Context) error {
	c.SetToken("")
	return nil
}

func (c *Client) CurrentSession(ctx context.Context) (user.Session, error) {
	token := c.currentToken()
	if token == "" {
		return user.Session{}, apperr.ErrUnauthenticated
	}
	var sess user.Session
	if err := c.do(ctx, http.MethodGet, "/session", nil, &sess); err != nil {
		return user.Session{}, err
	}
	sess.Token = token
	return sess, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, p product.Product) (product.WriteResult, error) {
	var res product.WriteResult
	if err := c.do(ctx, http.MethodPost, "/products", p, &res); err != nil {
		return product.WriteResult{}, err
	}
	return res, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int, p product.Product) (product.WriteResult, error) {
	var res product.WriteResult
	if err := c.do(ctx, http.MethodPut, "/products/"+strconv.Itoa(id), p, &res); err != nil {
		return product.WriteResult{}, err
	}
	return res, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/products/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) SetStock(ctx context.Context, id, stock int) (product.Product, error) {
	var p product.Product
	if err := c.do(ctx, http.MethodPatch, "/products/"+strconv.Itoa(id)+"/stock", map[string]int{"stock": stock}, &p); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (c *Client) ListPincodes(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/pincodes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddPincode(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/pincodes", map[string]string{"code": code}, nil)
}

func (c *Client) RemovePincode(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodDelete, "/pincodes/"+url.PathEscape(code), nil, nil)
}

func (c *Client) GetProfile(ctx context.Context) (profile.Profile, error) {
	var p profile.Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (c *Client) UpsertProfile(ctx context.Context, patch profile.Patch) (profile.Profile, error) {
	var p profile.Profile
	if err := c.do(ctx, http.MethodPut, "/profile", patch, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (c *Client) PlaceOrder(ctx context.Context, in order.CheckoutInput) (order.Order, error) {
	var o order.Order
	if err := c.do(ctx, http.MethodPost, "/orders", in, &o); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	if err := c.do(ctx, http.MethodGet, "/owner/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int, status order.Status) (order.Order, error) {
	var o order.Order
	path := "/owner/orders/" + strconv.Itoa(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, map[string]order.Status{"status": status}, &o); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/owner/orders/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) FactoryReset(ctx context.Context, phrase string) (owner.ResetResult, error) {
	var res owner.ResetResult
	if err := c.do(ctx, http.MethodPost, "/owner/factory-reset", map[string]string{"confirm": phrase}, &res); err != nil {
		return owner.ResetResult{}, err
	}
	return res, nil
}

func (c *Client) Analytics(ctx context.Context) (owner.Analytics, error) {
	var a owner.Analytics
	if err := c.do(ctx, http.MethodGet, "/owner/analytics", nil, &a); err != nil {
		return owner.Analytics{}, err
	}
	return a, nil
}

func (c *Client) VerifyOwnerPasscode(ctx context.Context, passcode string) (bool, error) {
	var res struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, http.MethodPost, "/owner/passcode/verify", map[string]string{"passcode": passcode}, &res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

func (c *Client) UpdateOwnerPasscode(ctx context.Context, passcode string) error {
	return c.do(ctx, http.MethodPut, "/owner/passcode", map[string]string{"passcode": passcode}, nil)
}

func (c *Client) GetContactInfo(ctx context.Context) (settings.ContactInfo, error) {
	var info settings.ContactInfo
	if err := c.do(ctx, http.MethodGet, "/settings/contact", nil, &info); err != nil {
		return settings.ContactInfo{}, err
	}
	return info, nil
}

func (c *Client) UpdateContactInfo(ctx context.Context, patch settings.ContactPatch) (settings.ContactInfo, error) {
	var info settings.ContactInfo
	if err := c.do(ctx, http.MethodPut, "/settings/contact", patch, &info); err != nil {
		return settings.ContactInfo{}, err
	}
	return info, nil
}

// Subscribe opens the realtime feed and keeps it open, reconnecting after
// ReconnectDelay whenever the stream ends, until ctx is done.
func (c *Client) Subscribe(ctx context.Context, tables ...string) (<-chan realtime.Event, error) {
	query := url.Values{}
	if len(tables) > 0 {
		query.Set("tables", strings.Join(tables, ","))
	}
	out := make(chan realtime.Event, 16)
	go func() {
		defer close(out)
		for {
			err := c.readStream(ctx, query, out)
			if ctx.Err() != nil {
				return
			}
			log.Printf("[realtime] feed disconnected: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.ReconnectDelay):
			}
		}
	}()
	return out, nil
}

// readStream reads one connection of the feed until it ends.
func (c *Client) readStream(ctx context.Context, query url.Values, out chan<- realtime.Event) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/realtime", query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return readEvents(ctx, resp.Body, out)
}

// readEvents decodes a server-sent event stream. Comment lines and events
// other than "change" are skipped.
func readEvents(ctx context.Context, r io.Reader, out chan<- realtime.Event) error {
	scanner := bufio.NewScanner(r)
	name, data := "", ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name == "change" && data != "" {
				var ev realtime.Event
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					log.Printf("[realtime] bad event %q: %v", data, err)
				} else {
					select {
					case out <- ev:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			name, data = "", ""
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed")
}

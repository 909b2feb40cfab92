package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/wichananm65/craftisland/internal/cart"
	"github.com/wichananm65/craftisland/internal/config"
	"github.com/wichananm65/craftisland/internal/localstore"
	"github.com/wichananm65/craftisland/internal/remote"
	"github.com/wichananm65/craftisland/internal/storefront"
)

func main() {
	os.Exit(run())
}

func run() int {
	email := flag.String("email", "", "sign in as this account (optional)")
	password := flag.String("password", "", "password for -email")
	watch := flag.Bool("watch", false, "keep running and print catalog changes")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := serve(ctx, *email, *password, *watch); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, email, password string, watch bool) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	kv, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	client, err := remote.NewClient(cfg.ServiceURL, cfg.APIKey)
	if err != nil {
		return err
	}

	app := storefront.New(client, localstore.New(kv), storefront.Options{})
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Close()

	if email != "" {
		if err := app.SignIn(ctx, email, password); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
	}
	printState(os.Stdout, app.Snapshot())
	if !watch {
		return nil
	}

	var lastProducts atomic.Int64
	lastProducts.Store(int64(len(app.Snapshot().Products)))
	unsubscribe := app.Store().Subscribe(func(s storefront.State) {
		n := int64(len(s.Products))
		if s.Loading || lastProducts.Swap(n) == n {
			return
		}
		printState(os.Stdout, s)
	})
	defer unsubscribe()
	<-ctx.Done()
	return nil
}

func openKV(ctx context.Context, cfg config.ClientConfig) (localstore.KV, error) {
	switch cfg.KVBackend {
	case "file":
		return localstore.NewFileKV(cfg.KVPath), nil
	case "dynamodb":
		return localstore.OpenDynamoKV(ctx, cfg.AWSRegion, cfg.DynamoTable, "craftisland")
	default:
		return localstore.NewMemoryKV(), nil
	}
}

func printState(w io.Writer, s storefront.State) {
	fmt.Fprintf(w, "%d products, delivering to %d pincodes\n", len(s.Products), len(s.Pincodes))
	for _, p := range s.Products {
		fmt.Fprintf(w, "  #%-4d %-30s %10s  stock %d\n", p.ID, p.Name, p.EffectivePrice().StringFixed(2), p.Stock)
	}
	if s.AuthStatus == storefront.Authenticated {
		fmt.Fprintf(w, "signed in as %s: %d orders, %d items in cart (%s)\n",
			s.Identity.Email, len(s.Orders), cart.Count(s.Cart), cart.Total(s.Cart).StringFixed(2))
	}
}

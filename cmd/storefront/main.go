package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/yathiraju/smartsale/internal/alert"
	"github.com/yathiraju/smartsale/internal/api"
	"github.com/yathiraju/smartsale/internal/cart"
	"github.com/yathiraju/smartsale/internal/catalog"
	"github.com/yathiraju/smartsale/internal/checkout"
	"github.com/yathiraju/smartsale/internal/config"
	"github.com/yathiraju/smartsale/internal/domain"
	"github.com/yathiraju/smartsale/internal/localstore"
	"github.com/yathiraju/smartsale/internal/orders"
	"github.com/yathiraju/smartsale/internal/payment"
	"github.com/yathiraju/smartsale/internal/session"
	"github.com/yathiraju/smartsale/internal/shipping"
	"github.com/yathiraju/smartsale/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("storefront exited with error")
		os.Exit(1)
	}
}

// app bundles the wired client stack for command handlers.
type app struct {
	cfg      *config.Config
	store    localstore.Store
	session  *session.Store
	client   *api.Client
	cart     *cart.Store
	catalog  *catalog.Accessor
	shipping *shipping.Resolver
	orders   *orders.Service
	notify   alert.Notifier
}

func run(ctx context.Context, args []string) error {
	// missing .env is fine, the environment may carry everything
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.Environment)

	a, cleanup, err := setupApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	cliApp := &cli.App{
		Name:  "storefront",
		Usage: "Shop At Smart Sale from the terminal",
		Commands: []*cli.Command{
			a.loginCommand(),
			a.logoutCommand(),
			a.signupCommand(),
			a.browseCommand(),
			a.searchCommand(),
			a.cartCommand(),
			a.addressCommand(),
			a.checkoutCommand(),
			a.ordersCommand(),
			a.hostCommand(),
		},
	}
	return cliApp.RunContext(ctx, args)
}

func setupApp(cfg *config.Config) (*app, func(), error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if e2 := store.Close(); e2 != nil {
			logger.Warn().Err(e2).Msg("failed to close local store")
		}
	}

	notify := alert.NewConsole()
	sess := session.NewStore(store)
	client := api.NewClient(cfg.APIHost, sess, api.WithHostOverride(sess))
	cartStore := cart.NewStore(store)

	a := &app{
		cfg:      cfg,
		store:    store,
		session:  sess,
		client:   client,
		cart:     cartStore,
		catalog:  catalog.NewAccessor(client, notify),
		shipping: shipping.NewResolver(client, cartStore, notify),
		orders:   orders.NewService(client, notify),
		notify:   notify,
	}
	return a, cleanup, nil
}

// openStore picks the durable backend: redis when a URL is configured,
// the embedded sqlite file otherwise.
func openStore(cfg *config.Config) (localstore.Store, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return localstore.NewRedisStore(redis.NewClient(opts)), nil
	}
	return localstore.NewSqliteStore(cfg.StorePath)
}

func (a *app) loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "log in and store the session token",
		ArgsUsage: "<username> <password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: storefront login <username> <password>", 2)
			}
			username, password := c.Args().Get(0), c.Args().Get(1)

			token, err := a.client.Login(c.Context, username, password)
			if err != nil {
				a.notify.Notify("Login failed")
				return err
			}
			if e2 := a.session.SetCredentials(c.Context, token, username); e2 != nil {
				return e2
			}
			fmt.Printf("Logged in as %s\n", username)
			return nil
		},
	}
}

func (a *app) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "drop the stored token and any resolved shipping quote",
		Action: func(c *cli.Context) error {
			a.session.Logout(c.Context)
			a.cart.InvalidateShipping()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func (a *app) signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "create an account with a default delivery address",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "phone", Required: true},
			&cli.StringFlag{Name: "line1", Required: true},
			&cli.StringFlag{Name: "line2"},
			&cli.StringFlag{Name: "city", Required: true},
			&cli.StringFlag{Name: "state", Required: true},
			&cli.StringFlag{Name: "pincode", Required: true},
			&cli.StringFlag{Name: "country", Value: "India"},
		},
		Action: func(c *cli.Context) error {
			if !domain.ValidPhone(c.String("phone")) {
				return cli.Exit("phone must be exactly 10 digits", 2)
			}
			if !domain.ValidPincode(c.String("pincode")) {
				return cli.Exit("pincode must be 6 digits and not start with 0", 2)
			}

			res, err := a.client.Signup(c.Context, api.SignupRequest{
				Users: api.SignupUser{
					Username: c.String("username"),
					Password: c.String("password"),
					Email:    c.String("email"),
					Role:     "USER",
				},
				Name:    c.String("name"),
				Phone:   c.String("phone"),
				Line1:   c.String("line1"),
				Line2:   c.String("line2"),
				City:    c.String("city"),
				State:   c.String("state"),
				Pincode: c.String("pincode"),
				Country: c.String("country"),
			})
			if err != nil {
				a.notify.Notify("Signup failed")
				return err
			}

			// a signup that returns a token doubles as a login
			if token := res.EffectiveToken(); token != "" {
				if e2 := a.session.SetCredentials(c.Context, token, c.String("username")); e2 != nil {
					return e2
				}
				fmt.Printf("Account created, logged in as %s\n", c.String("username"))
				return nil
			}
			fmt.Println("Account created. Log in to continue.")
			return nil
		},
	}
}

func (a *app) browseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "list a page of products, optionally filtered by a search query",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}},
			&cli.IntFlag{Name: "page", Value: 0},
			&cli.IntFlag{Name: "size", Value: a.cfg.PageSize},
			&cli.StringFlag{Name: "sort", Value: a.cfg.Sort},
		},
		Action: func(c *cli.Context) error {
			page, err := a.catalog.FetchPage(c.Context, c.String("query"), c.Int("page"), c.Int("size"), c.String("sort"))
			if err != nil {
				return err
			}

			for _, p := range page.Products {
				line := fmt.Sprintf("%6d  %-30s  ₹%.2f", p.ID, p.Name, p.UnitPrice())
				if p.SalePrice != nil {
					line += fmt.Sprintf("  (was ₹%.2f)", p.Price)
				}
				fmt.Println(line)
			}
			fmt.Printf("page %d of %d (%d products)\n", page.Number+1, page.TotalPages, page.TotalElements)
			return nil
		},
	}
}

// searchCommand is the interactive flavor of browse: every input line
// refines the query, debounced so only the settled one hits the backend, and
// a superseded fetch never overwrites a newer result.
func (a *app) searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "interactive product search (one query per line, ctrl-d to quit)",
		Action: func(c *cli.Context) error {
			debouncer := catalog.NewDebouncer(catalog.DefaultSearchDelay)
			defer debouncer.Stop()

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Println("Type to search:")
			for scanner.Scan() {
				query := scanner.Text()
				debouncer.Trigger(func() {
					page, err := a.catalog.FetchPage(c.Context, query, 0, a.cfg.PageSize, a.cfg.Sort)
					if err != nil {
						if !errors.Is(err, catalog.ErrSuperseded) {
							logger.Warn().Err(err).Str("query", query).Msg("search failed")
						}
						return
					}
					for _, p := range page.Products {
						fmt.Printf("%6d  %-30s  ₹%.2f\n", p.ID, p.Name, p.UnitPrice())
					}
					fmt.Printf("%d matches for %q\n", page.TotalElements, query)
				})
			}
			return scanner.Err()
		},
	}
}

func (a *app) cartCommand() *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "inspect and mutate the cart",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "add a product by id, searching the catalog for it",
				ArgsUsage: "<productID>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "narrow the catalog search"},
				},
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					product, err := a.findProduct(c.Context, id, c.String("query"))
					if err != nil {
						return err
					}
					a.cart.Add(*product)
					fmt.Printf("Added %s (₹%.2f)\n", product.Name, product.UnitPrice())
					return nil
				},
			},
			{
				Name:      "inc",
				ArgsUsage: "<productID>",
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					a.cart.Increment(id)
					return a.printCart()
				},
			},
			{
				Name:      "dec",
				ArgsUsage: "<productID>",
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					a.cart.Decrement(id)
					return a.printCart()
				},
			},
			{
				Name:      "rm",
				ArgsUsage: "<productID>",
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					a.cart.Remove(id)
					return a.printCart()
				},
			},
			{
				Name: "clear",
				Action: func(c *cli.Context) error {
					a.cart.Clear()
					fmt.Println("Cart cleared")
					return nil
				},
			},
			{
				Name: "show",
				Action: func(c *cli.Context) error {
					return a.printCart()
				},
			},
			{
				Name:  "restore",
				Usage: "pull the server-side active cart for this session",
				Action: func(c *cli.Context) error {
					active, err := a.client.ActiveCart(c.Context, a.session.SessionID(c.Context))
					if err != nil {
						a.notify.Notify("No active cart on the server")
						return err
					}
					restored := 0
					for _, item := range active.Items {
						product, e2 := a.findProduct(c.Context, item.ProductID, "")
						if e2 != nil {
							logger.Warn().Int64("productId", item.ProductID).Msg("server cart references unknown product")
							continue
						}
						for n := 0; n < item.Quantity; n++ {
							a.cart.Add(*product)
						}
						restored++
					}
					fmt.Printf("Restored %d of %d products\n", restored, len(active.Items))
					return a.printCart()
				},
			},
		},
	}
}

// findProduct pages through the catalog until the product shows up. The
// backend has no fetch-by-id endpoint for the storefront.
func (a *app) findProduct(ctx context.Context, id int64, query string) (*domain.Product, error) {
	const maxPages = 50
	for pageNo := 0; pageNo < maxPages; pageNo++ {
		page, err := a.catalog.FetchPage(ctx, query, pageNo, a.cfg.PageSize, a.cfg.Sort)
		if err != nil {
			return nil, err
		}
		for _, p := range page.Products {
			if p.ID == id {
				return &p, nil
			}
		}
		if pageNo+1 >= page.TotalPages {
			break
		}
	}
	return nil, fmt.Errorf("product %d not found in catalog", id)
}

func (a *app) printCart() error {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("Cart is empty")
		return nil
	}
	for _, l := range lines {
		fmt.Printf("%6d  %-30s  x%d @ ₹%.2f\n", l.Product.ID, l.Product.Name, l.Quantity, l.PriceAtAdd)
	}
	totals := domain.ComputeTotals(lines, a.cart.DeliveryFee())
	fmt.Printf("subtotal ₹%.2f  tax ₹%.2f", totals.Subtotal, totals.Tax)
	if a.cart.ShippingChecked() {
		fmt.Printf("  delivery ₹%.2f", totals.DeliveryFee)
	}
	fmt.Printf("  total ₹%.2f\n", totals.Grand)
	return nil
}

func (a *app) addressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "choose a saved delivery address or enter one manually",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "pick", Value: -1, Usage: "index of a saved address to confirm"},
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "phone"},
			&cli.StringFlag{Name: "line1"},
			&cli.StringFlag{Name: "line2"},
			&cli.StringFlag{Name: "city"},
			&cli.StringFlag{Name: "state"},
			&cli.StringFlag{Name: "pincode"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("pincode") {
				return a.confirmAddress(c.Context, domain.Address{
					Name:    c.String("name"),
					Phone:   c.String("phone"),
					Line1:   c.String("line1"),
					Line2:   c.String("line2"),
					City:    c.String("city"),
					State:   c.String("state"),
					Pincode: c.String("pincode"),
				})
			}

			choices, err := a.shipping.RequestDeliveryAddress(c.Context, a.session.Username(c.Context))
			if err != nil {
				return err
			}
			if len(choices) == 0 {
				fmt.Println("No saved addresses. Re-run with --line1/--city/--pincode flags.")
				return nil
			}
			if pick := c.Int("pick"); pick >= 0 {
				if pick >= len(choices) {
					return cli.Exit("--pick is out of range", 2)
				}
				return a.confirmAddress(c.Context, choices[pick])
			}
			for i, addr := range choices {
				fmt.Printf("[%d] %s, %s, %s %s\n", i, addr.Line1, addr.City, addr.State, addr.Pincode)
			}
			fmt.Println("Re-run with --pick <index> to confirm one.")
			return nil
		},
	}
}

func (a *app) confirmAddress(ctx context.Context, addr domain.Address) error {
	quote, err := a.shipping.ConfirmAddress(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Printf("Delivering to %s. Fee ₹%.2f for %.1f kg.\n", quote.Pincode, quote.DeliveryFee, quote.Weight)
	return nil
}

func (a *app) checkoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "checkout",
		Usage: "pay for the cart via the hosted payment page",
		Action: func(c *cli.Context) error {
			gateway := payment.NewCallbackGateway(a.cfg.CallbackAddr, a.cfg.PaymentKey, a.notify)
			defer gateway.Close()

			orch := checkout.NewOrchestrator(a.client, gateway, a.cart, a.session, a.notify, a.cfg.Currency)
			return orch.Pay(c.Context)
		},
	}
}

func (a *app) ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "order history and cancellation",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					username := a.session.Username(c.Context)
					if username == "" {
						return cli.Exit("log in to see your orders", 2)
					}
					list, err := a.orders.List(c.Context, username)
					if err != nil {
						return err
					}
					for _, o := range list {
						refundable := ""
						if a.orders.RefundAllowed(o) {
							refundable = "  (cancellable)"
						}
						fmt.Printf("%6d  %-10s  ₹%.2f  %s%s\n",
							o.ID, o.Status, o.GrandTotal, o.CreatedAt.Format("2006-01-02 15:04"), refundable)
					}
					return nil
				},
			},
			{
				Name:      "cancel",
				Usage:     "cancel an order and refund its payment",
				ArgsUsage: "<orderID>",
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					username := a.session.Username(c.Context)
					if username == "" {
						return cli.Exit("log in to cancel an order", 2)
					}
					list, err := a.orders.List(c.Context, username)
					if err != nil {
						return err
					}
					for _, o := range list {
						if o.ID != id {
							continue
						}
						if !a.orders.RefundAllowed(o) {
							return cli.Exit("order is outside the 48h cancellation window", 2)
						}
						return a.orders.CancelAndRefund(c.Context, o)
					}
					return fmt.Errorf("order %d not found for %s", id, username)
				},
			},
		},
	}
}

func (a *app) hostCommand() *cli.Command {
	return &cli.Command{
		Name:  "host",
		Usage: "show or override the backend host",
		Subcommands: []*cli.Command{
			{
				Name: "show",
				Action: func(c *cli.Context) error {
					if h := a.session.APIHost(c.Context); h != "" {
						fmt.Printf("%s (override)\n", h)
						return nil
					}
					fmt.Println(a.cfg.APIHost)
					return nil
				},
			},
			{
				Name:      "set",
				ArgsUsage: "<url>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: storefront host set <url>", 2)
					}
					return a.session.SetAPIHost(c.Context, c.Args().First())
				},
			},
			{
				Name: "clear",
				Action: func(c *cli.Context) error {
					return a.session.SetAPIHost(c.Context, "")
				},
			},
		},
	}
}

func argID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, cli.Exit("expected exactly one product/order id argument", 2)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, cli.Exit("id must be a number", 2)
	}
	return id, nil
}

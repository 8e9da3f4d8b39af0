// Command storefront is a terminal shopper: it keeps a cart in a local file
// and checks it out against the storefront API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/client"
	"github.com/joao-fontenele/storefront/internal/domain"
)

const usage = `usage: storefront [flags] <command>

commands:
  add <id> <name> <price>   add a product, or one more of it
  remove <id>               remove a product
  show                      list the cart and its total
  token                     print a payment client token
  checkout <nonce>          pay for the cart and empty it
  orders                    list your orders

flags:
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, logger); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, logger *zap.Logger) error {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cartPath := fs.String("cart", defaultCartPath(), "file holding the local cart")
	apiURL := fs.String("api", envOr("STOREFRONT_API", "http://localhost:8080"), "storefront API base URL")
	token := fs.String("token", os.Getenv("STOREFRONT_TOKEN"), "sign-in token sent as Authorization")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	c := cart.Load(ctx, cart.NewFileStorage(*cartPath), logger)
	api := client.New(*apiURL, *token, nil)
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "add":
		if len(rest) != 3 {
			fs.Usage()
			return errUsage
		}
		price, err := decimal.NewFromString(rest[2])
		if err != nil || price.IsNegative() {
			return fmt.Errorf("invalid price %q", rest[2])
		}
		c.Add(ctx, domain.CartItem{ID: rest[0], Name: rest[1], Price: price.InexactFloat64()})
		fmt.Fprintf(stdout, "Item added to cart (%d items, %s)\n", c.Len(), c.FormatTotal())

	case "remove":
		if len(rest) != 1 {
			fs.Usage()
			return errUsage
		}
		c.Remove(ctx, rest[0])
		fmt.Fprintf(stdout, "%d items in cart, total %s\n", c.Len(), c.FormatTotal())

	case "show":
		printCart(stdout, c)

	case "token":
		tok, err := api.ClientToken(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, tok)

	case "checkout":
		if len(rest) != 1 {
			fs.Usage()
			return errUsage
		}
		if err := api.SubmitPayment(ctx, rest[0], c.Items()); err != nil {
			return err
		}
		c.Clear(ctx)
		fmt.Fprintln(stdout, "Payment Completed Successfully")

	case "orders":
		orders, err := api.Orders(ctx)
		if err != nil {
			return err
		}
		printOrders(stdout, orders)

	default:
		fs.Usage()
		return errUsage
	}
	return nil
}

func printCart(w io.Writer, c *cart.Container) {
	items := c.Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", item.ID, item.Name,
			cart.FormatUSD(decimal.NewFromFloat(item.Price)), item.Units())
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Total: %s\n", c.FormatTotal())
}

func printOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders yet")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tSTATUS\tPAYMENT\tPRODUCTS\tDATE")
	for _, o := range orders {
		payment := "Failed"
		if o.Payment.Success {
			payment = "Success"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Status, payment,
			strconv.Itoa(len(o.Products)), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func defaultCartPath() string {
	if p := os.Getenv("STOREFRONT_CART"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storefront-cart.json"
	}
	return filepath.Join(dir, "storefront", "cart.json")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

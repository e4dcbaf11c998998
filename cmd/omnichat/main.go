package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/orchestrator"
	"github.com/antoniostano/omnicart/internal/session"
)

type options struct {
	CustomerID  string
	Channel     string
	CatalogPath string
	FailureRate float64
	Verbose     bool
}

func main() {
	opts := parseFlags()
	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "omnichat: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.CustomerID, "customer", "", "Customer ID to attach at start (e.g. C001)")
	flag.StringVar(&opts.Channel, "channel", string(session.ChannelWeb), "Channel: web|mobile|whatsapp|kiosk")
	flag.StringVar(&opts.CatalogPath, "catalog", "", "Optional YAML catalog path (defaults to the built-in seed)")
	flag.Float64Var(&opts.FailureRate, "failure-rate", 0.1, "Simulated payment decline probability")
	flag.BoolVar(&opts.Verbose, "v", false, "Log orchestrator activity to stderr")
	flag.Parse()
	return opts
}

// chat owns one session and runs turns against it in-process.
type chat struct {
	orch     *orchestrator.Orchestrator
	sessions *session.Manager
	id       string
	out      io.Writer
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	channel := session.Channel(strings.ToLower(strings.TrimSpace(opts.Channel)))
	if !channel.Valid() {
		return fmt.Errorf("invalid channel %q (expected web|mobile|whatsapp|kiosk)", opts.Channel)
	}

	cat, err := catalog.Open(opts.CatalogPath)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if opts.Verbose {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
	}

	orch := orchestrator.New(orchestrator.Deps{
		Catalog:     cat,
		Log:         logger,
		FailureRate: opts.FailureRate,
	})
	sessions := session.NewManager(time.Hour, session.WithLogger(logger))

	c := &chat{orch: orch, sessions: sessions, out: out}
	var customer *catalog.Customer
	if id := strings.TrimSpace(opts.CustomerID); id != "" {
		customer, err = orch.ResolveCustomer(ctx, id)
		if err != nil {
			return fmt.Errorf("customer %q: %w", id, err)
		}
	}
	st := sessions.Create(ctx, channel, customer)
	c.id = st.ID
	c.banner(st)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := c.command(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				break
			}
			continue
		}
		if err := c.turn(ctx, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	final, err := sessions.End(ctx, c.id)
	if err != nil {
		return err
	}
	a := final.Analytics()
	fmt.Fprintf(out, "session %s ended after %d steps, cart value %s\n", final.ID, a.Steps, formatRupees(a.CartValue))
	return nil
}

func (c *chat) banner(st *session.State) {
	who := "guest"
	if st.Customer != nil {
		who = fmt.Sprintf("%s (%s)", st.Customer.Name, st.Customer.Tier)
	}
	fmt.Fprintf(c.out, "session %s on %s as %s\n", st.ID, st.Channel, who)
	fmt.Fprintln(c.out, "commands: /reset /channel <name> /customer <id> /cart /quit")
}

func (c *chat) turn(ctx context.Context, text string) error {
	var res orchestrator.TurnResult
	st, err := c.sessions.Do(ctx, c.id, func(s *session.State) error {
		res = c.orch.ProcessTurn(ctx, text, s)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "[%s] %s\n", res.AgentUsed, res.Response)
	if n := st.CartItemCount(); n > 0 {
		fmt.Fprintf(c.out, "  cart: %d item(s), %s\n", n, formatRupees(st.CartTotal()))
	}
	return nil
}

// command handles a slash command and reports whether the loop should stop.
func (c *chat) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/reset":
		_, err := c.sessions.Do(ctx, c.id, func(s *session.State) error {
			s.Reset()
			return nil
		})
		if err == nil {
			fmt.Fprintln(c.out, "cart and conversation cleared")
		}
		return false, err
	case "/channel":
		ch := session.Channel(strings.ToLower(arg))
		if !ch.Valid() {
			return false, fmt.Errorf("invalid channel %q", arg)
		}
		_, err := c.sessions.Do(ctx, c.id, func(s *session.State) error {
			s.Channel = ch
			return nil
		})
		if err == nil {
			fmt.Fprintf(c.out, "channel set to %s\n", ch)
		}
		return false, err
	case "/customer":
		if arg == "" {
			return false, fmt.Errorf("usage: /customer <id>")
		}
		st, err := c.sessions.Do(ctx, c.id, func(s *session.State) error {
			return c.orch.AttachCustomer(ctx, s, arg)
		})
		if err == nil {
			fmt.Fprintf(c.out, "welcome %s (%s tier, %d points)\n", st.Customer.Name, st.Customer.Tier, st.Customer.LoyaltyPoints)
		}
		return false, err
	case "/cart":
		st, err := c.sessions.Get(ctx, c.id)
		if err != nil {
			return false, err
		}
		if len(st.Cart) == 0 {
			fmt.Fprintln(c.out, "cart is empty")
			return false, nil
		}
		for _, l := range st.Cart {
			fmt.Fprintf(c.out, "  %s %s x%d %s\n", l.SKU, l.Name, l.Quantity, formatRupees(l.Subtotal()))
		}
		fmt.Fprintf(c.out, "  total %s\n", formatRupees(st.CartTotal()))
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
}

var printer = message.NewPrinter(language.English)

func formatRupees(v int) string {
	return printer.Sprintf("₹%d", v)
}

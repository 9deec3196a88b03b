// Command storectl drives the cart and admin stores against the configured
// kv backend and prints the resulting state as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/common/expfmt"

	"storefront/internal/admin"
	"storefront/internal/app"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/persist"
)

var exitFunc = os.Exit

const usage = `usage: storectl [-config file] <command> [flags]

commands:
  cart show|add|remove|set|clear
  admin list|add|status|archive|delete
  metrics
`

func main() {
	code := cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("storectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config (optional)")
	fs.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "storectl: %v\n", err)
		return 1
	}
	a, err := app.New(ctx, cfg, app.WithLogOutput(stderr))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "storectl: %v\n", err)
		return 1
	}
	defer func() { _ = a.Close() }()

	switch rest[0] {
	case "cart":
		err = runCart(ctx, a.Cart, rest[1:], stdout, stderr)
	case "admin":
		err = runAdmin(ctx, a.Admin, rest[1:], stdout, stderr)
	case "metrics":
		err = writeMetrics(a, stdout)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}
	return exitCode(err, stderr)
}

var errUsage = errors.New("usage")

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "storectl: %v\n", err)
	if errors.Is(err, errUsage) || errors.Is(err, persist.ErrInvalidInput) || errors.Is(err, flag.ErrHelp) {
		return 2
	}
	return 1
}

type resultView struct {
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// emit prints res (and data) and returns the result error so the exit code
// reflects rejected input and persistence failures.
func emit(w io.Writer, res persist.Result, data any) error {
	v := resultView{Changed: res.Changed, Data: data}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	if err := writeJSON(w, v); err != nil {
		return err
	}
	return res.Err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseSub(name string, args []string, stderr io.Writer, define func(*flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	define(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runCart(ctx context.Context, s *cart.Store, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: cart needs a subcommand", errUsage)
	}
	var (
		id, title, image, tags string
		price                  float64
		qty                    int
		res                    persist.Result
	)
	switch args[0] {
	case "show":
		return writeJSON(stdout, s.Snapshot())
	case "add":
		if err := parseSub("cart add", args[1:], stderr, func(fs *flag.FlagSet) {
			fs.StringVar(&id, "id", "", "product id")
			fs.StringVar(&title, "title", "", "product title")
			fs.Float64Var(&price, "price", 0, "unit price")
			fs.IntVar(&qty, "qty", 1, "quantity to add")
			fs.StringVar(&image, "image", "", "image reference")
			fs.StringVar(&tags, "tags", "", "comma separated tags")
		}); err != nil {
			return err
		}
		res = s.AddItem(ctx, cart.Item{ID: id, Title: title, UnitPrice: price, ImageRef: image, Tags: splitList(tags)}, qty)
	case "remove":
		if err := parseSub("cart remove", args[1:], stderr, func(fs *flag.FlagSet) {
			fs.StringVar(&id, "id", "", "product id")
		}); err != nil {
			return err
		}
		res = s.RemoveItem(ctx, id)
	case "set":
		if err := parseSub("cart set", args[1:], stderr, func(fs *flag.FlagSet) {
			fs.StringVar(&id, "id", "", "product id")
			fs.IntVar(&qty, "qty", 0, "exact quantity (<1 removes)")
		}); err != nil {
			return err
		}
		res = s.SetQty(ctx, id, qty)
	case "clear":
		res = s.Clear(ctx)
	default:
		return fmt.Errorf("%w: unknown cart subcommand %q", errUsage, args[0])
	}
	return emit(stdout, res, s.Snapshot())
}

type adminFlags struct {
	collection, id, status, archived string
	name, email, phone, message      string
	budget, space, region, company   string
	crafts, projectType, deadline    string
}

func (f *adminFlags) define(fs *flag.FlagSet, withPayload bool) {
	fs.StringVar(&f.collection, "collection", string(admin.CollectionInteriors), "interiors|stolar|web")
	fs.StringVar(&f.id, "id", "", "record id")
	fs.StringVar(&f.status, "status", "", "workflow status")
	fs.StringVar(&f.archived, "archived", "", "active|archived|all")
	if !withPayload {
		return
	}
	fs.StringVar(&f.name, "name", "", "client or partner name")
	fs.StringVar(&f.email, "email", "", "contact email")
	fs.StringVar(&f.phone, "phone", "", "contact phone")
	fs.StringVar(&f.message, "message", "", "free text")
	fs.StringVar(&f.budget, "budget", "", "budget range")
	fs.StringVar(&f.space, "space", "", "space type (interiors)")
	fs.StringVar(&f.region, "region", "", "region (stolar)")
	fs.StringVar(&f.crafts, "crafts", "", "comma separated crafts (stolar)")
	fs.StringVar(&f.company, "company", "", "company (web)")
	fs.StringVar(&f.projectType, "project-type", "", "project type (web)")
	fs.StringVar(&f.deadline, "deadline", "", "deadline (web)")
}

func runAdmin(ctx context.Context, s *admin.Store, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: admin needs a subcommand", errUsage)
	}
	var f adminFlags
	if err := parseSub("admin "+args[0], args[1:], stderr, func(fs *flag.FlagSet) {
		f.define(fs, args[0] == "add")
	}); err != nil {
		return err
	}
	c, err := admin.ParseCollection(f.collection)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	switch args[0] {
	case "list":
		filter, err := parseFilter(f.status, f.archived)
		if err != nil {
			return err
		}
		return writeJSON(stdout, list(s.Snapshot(), c, filter))
	case "add":
		return addRecord(ctx, s, c, f, stdout)
	case "status":
		st, err := admin.ParseStatus(f.status)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return emitEnvelope(stdout, s, c, f.id, s.UpdateStatus(ctx, c, f.id, st))
	case "archive":
		return emitEnvelope(stdout, s, c, f.id, s.ToggleArchive(ctx, c, f.id))
	case "delete":
		return emit(stdout, s.Delete(ctx, c, f.id), nil)
	default:
		return fmt.Errorf("%w: unknown admin subcommand %q", errUsage, args[0])
	}
}

func parseFilter(status, archived string) (admin.Filter, error) {
	var filter admin.Filter
	if status != "" {
		st, err := admin.ParseStatus(status)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", errUsage, err)
		}
		filter.Status = st
	}
	af, err := admin.ParseArchiveFilter(archived)
	if err != nil {
		return filter, fmt.Errorf("%w: %v", errUsage, err)
	}
	filter.Archived = af
	return filter, nil
}

func list(snap *admin.Snapshot, c admin.Collection, filter admin.Filter) any {
	switch c {
	case admin.CollectionStolar:
		return admin.Apply(snap.Stolar, filter)
	case admin.CollectionWeb:
		return admin.Apply(snap.Web, filter)
	default:
		return admin.Apply(snap.Interiors, filter)
	}
}

func addRecord(ctx context.Context, s *admin.Store, c admin.Collection, f adminFlags, stdout io.Writer) error {
	switch c {
	case admin.CollectionStolar:
		rec, res := s.AddStolarProfile(ctx, admin.PartnerProfile{
			Name: f.name, Email: f.email, Phone: f.phone, Crafts: splitList(f.crafts), Region: f.region, Message: f.message,
		})
		return emit(stdout, res, rec)
	case admin.CollectionWeb:
		rec, res := s.AddWebProjectRequest(ctx, admin.WebProjectRequest{
			ClientName: f.name, Email: f.email, Company: f.company, ProjectType: f.projectType,
			BudgetRange: f.budget, Deadline: f.deadline, Message: f.message,
		})
		return emit(stdout, res, rec)
	default:
		rec, res := s.AddInteriorsRequest(ctx, admin.InteriorsRequest{
			ClientName: f.name, Email: f.email, Phone: f.phone, SpaceType: f.space, BudgetRange: f.budget, Message: f.message,
		})
		return emit(stdout, res, rec)
	}
}

func emitEnvelope(stdout io.Writer, s *admin.Store, c admin.Collection, id string, res persist.Result) error {
	env, err := s.Find(c, id)
	if err != nil {
		return emit(stdout, res, nil)
	}
	return emit(stdout, res, env)
}

func writeMetrics(a *app.App, w io.Writer) error {
	families, err := a.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

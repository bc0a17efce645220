package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/blizzapi/blizzard"
	"github.com/s0up4200/blizzapi/namespace"
)

const (
	// DefaultConcurrency bounds parallel requests of a multi-path get
	DefaultConcurrency = 4
	// MaxConcurrency caps --concurrency
	MaxConcurrency = 16
)

var (
	getScope       string
	getNamespace   string
	getRegion      string
	getLocale      string
	getFormat      string
	getTTL         string
	getSince       string
	getToken       string
	getQuery       string
	getPreset      string
	getHeaders     []string
	getParams      []string
	getClassic     bool
	getIgnoreCache bool
	getExtended    bool
	getConcurrency int
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <path>...",
	Short: "Fetch one or more API resources",
	Long: `Fetch API resources by path relative to an API scope, or by a full URL
template. A {region} placeholder in a URL template is replaced with the
request region.

Examples:
  blizzapi get --namespace static /realm/index
  blizzapi get --scope profile --namespace profile /character/silvermoon/thrall
  blizzapi get --namespace dynamic --query 'map(data.realms, .name)' /realm/index
  blizzapi get --namespace static /item/19019 /item/25 --concurrency 2`,
	Args:     cobra.MinimumNArgs(1),
	PreRunE:  initializeApp,
	RunE:     runGet,
	PostRunE: shutdownApp,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVar(&getScope, "scope", string(namespace.APIGameData), "API scope (game-data, community, profile, media, user-profile, search)")
	getCmd.Flags().StringVarP(&getNamespace, "namespace", "n", "", "namespace scope (dynamic, static, profile)")
	getCmd.Flags().StringVarP(&getRegion, "region", "r", "", "override the configured region")
	getCmd.Flags().StringVarP(&getLocale, "locale", "l", "", "override the configured locale")
	getCmd.Flags().StringVar(&getFormat, "format", "", "response format (structured, generic, raw)")
	getCmd.Flags().StringVar(&getTTL, "ttl", "", "cache TTL for the response, e.g. 10m or 600")
	getCmd.Flags().StringVar(&getSince, "since", "", "send If-Modified-Since (RFC 3339 or HTTP date)")
	getCmd.Flags().StringVar(&getToken, "access-token", "", "use this access token instead of the managed one")
	getCmd.Flags().StringVarP(&getQuery, "query", "q", "", "expression evaluated against each payload")
	getCmd.Flags().StringVarP(&getPreset, "preset", "p", "", "use a query from the queries section of the config")
	getCmd.Flags().StringArrayVarP(&getHeaders, "header", "H", nil, "extra request header (Name: value)")
	getCmd.Flags().StringArrayVarP(&getParams, "param", "P", nil, "API query field (key=value), repeatable")
	getCmd.Flags().BoolVar(&getClassic, "classic", false, "use the classic namespace variant")
	getCmd.Flags().BoolVar(&getIgnoreCache, "ignore-cache", false, "bypass the response cache")
	getCmd.Flags().BoolVar(&getExtended, "extended", false, "print the status line and headers with the payload")
	getCmd.Flags().IntVarP(&getConcurrency, "concurrency", "c", DefaultConcurrency, "parallel requests when several paths are given")
}

// getResult is the outcome of one path
type getResult struct {
	target  string
	resp    *http.Response
	payload any
	err     error
}

func runGet(cmd *cobra.Command, args []string) error {
	opts, err := buildRequestOptions()
	if err != nil {
		return err
	}

	expression, err := queryExpression(getQuery, getPreset, cfg.Queries)
	if err != nil {
		return err
	}
	if expression != "" {
		// Fail fast on a bad expression before any request is sent
		if _, err := compiler.Compile(expression); err != nil {
			return err
		}
	}

	targets := make([]string, len(args))
	for i, arg := range args {
		targets[i], err = requestTarget(client, namespace.APIScope(getScope), arg)
		if err != nil {
			return err
		}
	}

	results := fetchAll(cmd.Context(), client, targets, opts, getExtended, getConcurrency)

	var failed int
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.err != nil {
			failed++
			logger.Error().Err(r.err).Str("target", r.target).Msg("Request failed")
			continue
		}
		if err := printResult(out, r, expression, len(results) > 1); err != nil {
			failed++
			logger.Error().Err(err).Str("target", r.target).Msg("Failed to render result")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}

// buildRequestOptions maps the get flags onto request options. Flags and
// --param pairs go through the same parser as programmatic option maps.
func buildRequestOptions() (blizzard.RequestOptions, error) {
	raw := make(map[string]any)
	fields := make(map[string]any)

	for _, p := range getParams {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return blizzard.RequestOptions{}, fmt.Errorf("invalid --param %q: expected key=value", p)
		}
		// Repeated keys become repeated query values
		switch existing := fields[key].(type) {
		case nil:
			fields[key] = value
		case string:
			fields[key] = []any{existing, value}
		case []any:
			fields[key] = append(existing, value)
		}
	}
	if len(fields) > 0 {
		raw["fields"] = fields
	}

	if len(getHeaders) > 0 {
		headers := make(map[string]string, len(getHeaders))
		for _, h := range getHeaders {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return blizzard.RequestOptions{}, fmt.Errorf("invalid --header %q: expected Name: value", h)
			}
			headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
		raw["headers"] = headers
	}

	setIf := func(key, value string) {
		if value != "" {
			raw[key] = value
		}
	}
	setIf("namespace", getNamespace)
	setIf("region", getRegion)
	setIf("locale", getLocale)
	setIf("format", getFormat)
	setIf("ttl", getTTL)
	setIf("since", getSince)
	setIf("accessToken", getToken)
	if getClassic {
		raw["classic"] = true
	}
	if getIgnoreCache {
		raw["ignoreCache"] = true
	}

	return blizzard.ParseOptions(raw)
}

// queryExpression picks the expression to evaluate.
// Priority: command line query > preset > none
func queryExpression(expression, preset string, presets map[string]string) (string, error) {
	if expression != "" {
		return expression, nil
	}
	if preset != "" {
		if q, ok := presets[preset]; ok {
			return q, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}
	return "", nil
}

// requestTarget turns a path argument into a URL template. Absolute URLs
// are used as given.
func requestTarget(c *blizzard.Client, scope namespace.APIScope, arg string) (string, error) {
	if strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "http://") {
		return arg, nil
	}
	return c.URL(scope, arg)
}

// fetchAll runs the requests with bounded concurrency. A failed request
// does not cancel the others; results keep the order of targets.
func fetchAll(ctx context.Context, c *blizzard.Client, targets []string, opts blizzard.RequestOptions, extended bool, concurrency int) []getResult {
	if concurrency < 1 {
		concurrency = 1
	}
	concurrency = min(concurrency, MaxConcurrency)

	results := make([]getResult, len(targets))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, target := range targets {
		g.Go(func() error {
			r := getResult{target: target}
			if extended {
				r.resp, r.payload, r.err = c.GetExtended(ctx, target, opts)
			} else {
				r.payload, r.err = c.Get(ctx, target, opts)
			}
			// Each goroutine owns its slot
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// printResult writes one payload, optionally reduced by the query expression
func printResult(w io.Writer, r getResult, expression string, labelled bool) error {
	if labelled {
		fmt.Fprintf(w, "# %s\n", r.target)
	}

	if r.resp != nil {
		fmt.Fprintf(w, "%s %s\n", r.resp.Proto, r.resp.Status)
		for name, values := range r.resp.Header {
			fmt.Fprintf(w, "%s: %s\n", name, strings.Join(values, ", "))
		}
		fmt.Fprintln(w)
		if r.resp.StatusCode != http.StatusOK {
			body, err := io.ReadAll(r.resp.Body)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(body))
			return err
		}
	}

	if r.payload == nil {
		_, err := fmt.Fprintln(w, "(not modified)")
		return err
	}

	value := r.payload
	if expression != "" {
		v, err := compiler.Run(expression, r.payload)
		if err != nil {
			return err
		}
		value = v
	}

	return writeValue(w, value)
}

// writeValue prints a payload or query result as indented JSON
func writeValue(w io.Writer, value any) error {
	switch v := value.(type) {
	case gjson.Result:
		if !v.Exists() {
			value = nil
			break
		}
		value = json.RawMessage(v.Raw)
	case string:
		if gjson.Valid(v) {
			value = json.RawMessage(v)
		}
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

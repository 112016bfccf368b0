// kioskctl is a CLI tool for testing kiosk shopping flows.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	kioskctl products -kiosk URL [-search TERM] [-limit N]
//	kioskctl cart -kiosk URL
//	kioskctl add -kiosk URL -product ID [-qty N]
//	kioskctl update -kiosk URL -item ID -qty N
//	kioskctl remove -kiosk URL -item ID
//	kioskctl order -kiosk URL
//	kioskctl login -kiosk URL -email EMAIL -password PASS
//	kioskctl recommend -kiosk URL [-limit N]
//	kioskctl replay -shopware URL -access-key KEY -items ID:QTY[,ID:QTY...]
//
// The context token is persisted in a token file between invocations,
// so consecutive commands act on the same shopping session.
//
// Examples:
//
//	kioskctl products -kiosk http://localhost:8080 -search brezel
//	kioskctl add -kiosk http://localhost:8080 -product 0195... -qty 2
//	kioskctl cart -kiosk http://localhost:8080
//	kioskctl order -kiosk http://localhost:8080
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/winni-bit/sw-demo-kiosk/internal/cart"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/session"
	"github.com/winni-bit/sw-demo-kiosk/internal/shopware"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	kioskURL  string
	tokenFile string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorBlue, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "products":
		runProducts(args)
	case "cart":
		runCart(args)
	case "add":
		runAdd(args)
	case "update":
		runUpdate(args)
	case "remove":
		runRemove(args)
	case "order":
		runOrder(args)
	case "login":
		runLogin(args)
	case "recommend":
		runRecommend(args)
	case "replay":
		runReplay(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `kioskctl - kiosk shopping flow test tool

Usage:
  kioskctl <command> [options]

Commands:
  products   Search the product catalog
  cart       Show the current cart
  add        Add a product to the cart
  update     Change the quantity of a cart position
  remove     Remove a cart position
  order      Place the order for the current cart
  login      Log in a customer account
  recommend  Show cross-selling recommendations
  replay     Reconcile the backend cart to a saved item list (direct Store API)

Examples:
  # Search products
  kioskctl products -kiosk http://localhost:8080 -search brezel

  # Add to cart (token file keeps the session between calls)
  kioskctl add -kiosk http://localhost:8080 -product 0195abc -qty 2

  # Show the cart, then order
  kioskctl cart -kiosk http://localhost:8080
  kioskctl order -kiosk http://localhost:8080

  # Replay a saved cart against the Store API directly
  kioskctl replay -shopware https://shop.example.com -access-key SWSC... -items 0195abc:2,0195def:1

Run 'kioskctl <command> -h' for command-specific options.
`)
}

// addCommonFlags registers the flags every command shares.
func addCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&kioskURL, "kiosk", "http://localhost:8080", "Kiosk backend base URL")
	fs.StringVar(&tokenFile, "token-file", defaultTokenFile(), "File persisting the context token between calls")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

func defaultTokenFile() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/kioskctl-token"
	}
	return ".kioskctl-token"
}

// =============================================================================
// TOKEN FILE
// =============================================================================

func loadToken() string {
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) {
	if token == "" {
		return
	}
	if err := os.WriteFile(tokenFile, []byte(token), 0600); err != nil {
		printWarning("Could not persist token: %v", err)
	}
}

// =============================================================================
// PRODUCTS COMMAND
// =============================================================================

func runProducts(args []string) {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	addCommonFlags(fs)
	var search string
	var limit int
	fs.StringVar(&search, "search", "", "Full text search term")
	fs.IntVar(&limit, "limit", 10, "Maximum number of results")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	q.Set("limit", strconv.Itoa(limit))

	resp, err := doRequest("GET", "/api/products?"+q.Encode(), nil)
	if err != nil {
		fatal("Failed to fetch products: %v", err)
	}

	items, _ := resp["items"].([]interface{})
	if quiet {
		for _, item := range items {
			if m, ok := item.(map[string]interface{}); ok {
				fmt.Println(m["key"])
			}
		}
		return
	}

	printSuccess("%d products", len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Printf("  %s%v%s  %v%s\n", colorCyan, m["key"], colorReset, m["name"], formatCardPrice(m))
	}
}

// formatCardPrice renders the minor-unit price block of a product card,
// or "" when the card has none.
func formatCardPrice(card map[string]interface{}) string {
	price, ok := card["price"].(map[string]interface{})
	if !ok {
		return ""
	}
	amount, ok := price["amount"].(float64)
	if !ok {
		return ""
	}
	precision, _ := price["precision"].(float64)
	currency, _ := price["currency"].(string)
	if currency == "" {
		currency = "EUR"
	}
	return "  " + model.FormatMinorUnits(int64(amount), int(precision), currency, "de")
}

// =============================================================================
// CART COMMANDS
// =============================================================================

func runCart(args []string) {
	fs := flag.NewFlagSet("cart", flag.ExitOnError)
	addCommonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	resp, err := doRequest("GET", "/api/cart", nil)
	if err != nil {
		fatal("Failed to fetch cart: %v", err)
	}
	printCart(resp)
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	addCommonFlags(fs)
	var productID string
	var qty int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&qty, "qty", 1, "Quantity")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/cart/items", map[string]interface{}{
		"productId": productID,
		"quantity":  qty,
	})
	if err != nil {
		fatal("Failed to add item: %v", err)
	}
	printCart(resp)
}

func runUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	addCommonFlags(fs)
	var itemID string
	var qty int
	fs.StringVar(&itemID, "item", "", "Line item ID (required)")
	fs.IntVar(&qty, "qty", 1, "New quantity (0 removes the position)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	if itemID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("PATCH", "/api/cart/items/"+url.PathEscape(itemID), map[string]interface{}{
		"quantity": qty,
	})
	if err != nil {
		fatal("Failed to update item: %v", err)
	}
	printCart(resp)
}

func runRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	addCommonFlags(fs)
	var itemID string
	fs.StringVar(&itemID, "item", "", "Line item ID (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	if itemID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("DELETE", "/api/cart/items/"+url.PathEscape(itemID), nil)
	if err != nil {
		fatal("Failed to remove item: %v", err)
	}
	printCart(resp)
}

// =============================================================================
// ORDER COMMAND
// =============================================================================

func runOrder(args []string) {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	addCommonFlags(fs)
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	resp, err := doRequest("POST", "/api/checkout/order", nil)
	if err != nil {
		fatal("Failed to place order: %v", err)
	}

	orderNumber, _ := resp["orderNumber"].(string)
	if quiet {
		fmt.Println(orderNumber)
		return
	}
	printSuccess("Order placed")
	fmt.Printf("  Number: %s%s%s\n", colorGreen, orderNumber, colorReset)
	if total, ok := resp["amountTotal"].(float64); ok {
		fmt.Printf("  Total:  %s%s%s\n", colorGreen, model.FormatPrice(total, "EUR", "de"), colorReset)
	}
}

// =============================================================================
// LOGIN COMMAND
// =============================================================================

func runLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	addCommonFlags(fs)
	var email, password string
	fs.StringVar(&email, "email", "", "Customer email (required)")
	fs.StringVar(&password, "password", "", "Customer password (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	if email == "" || password == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/account/login", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	if err != nil {
		fatal("Login failed: %v", err)
	}

	if quiet {
		fmt.Println(resp["email"])
		return
	}
	printSuccess("Logged in")
	fmt.Printf("  %v %v <%v>\n", resp["firstName"], resp["lastName"], resp["email"])
}

// =============================================================================
// RECOMMEND COMMAND
// =============================================================================

func runRecommend(args []string) {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	addCommonFlags(fs)
	var limit int
	fs.IntVar(&limit, "limit", 2, "Maximum number of recommendations")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	resp, err := doRequest("GET", "/api/recommendations?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		fatal("Failed to fetch recommendations: %v", err)
	}

	items, _ := resp["items"].([]interface{})
	printSuccess("%d recommendations", len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			fmt.Printf("  %s%v%s  %v\n", colorCyan, m["key"], colorReset, m["name"])
		}
	}
}

// =============================================================================
// REPLAY COMMAND
// =============================================================================

// runReplay reconciles the backend cart to a desired item list with
// the minimal set of mutations. It talks to the Store API directly,
// bypassing the kiosk backend, so it also works against a bare shop.
func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	addCommonFlags(fs)
	var shopwareURL, accessKey, items string
	fs.StringVar(&shopwareURL, "shopware", "", "Shopware base URL (required)")
	fs.StringVar(&accessKey, "access-key", os.Getenv("SW_ACCESS_KEY"), "Sales channel access key (or SW_ACCESS_KEY)")
	fs.StringVar(&items, "items", "", "Desired cart as ID:QTY[,ID:QTY...] (required, empty QTY defaults to 1)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	if shopwareURL == "" || accessKey == "" || items == "" {
		fs.Usage()
		os.Exit(1)
	}

	desired, err := parseDesiredItems(items)
	if err != nil {
		fatal("Invalid -items: %v", err)
	}

	store := session.New(loadToken())
	swClient, err := shopware.New(shopware.Config{
		BaseURL:   shopwareURL,
		AccessKey: accessKey,
		Session:   store,
	})
	if err != nil {
		fatal("Creating Store API client: %v", err)
	}

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	cartSvc := cart.New(swClient, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if !cartSvc.Reconcile(ctx, desired) {
		fatal("Reconcile failed: %s", cartSvc.Err())
	}
	saveToken(store.Get())

	snapshot := cartSvc.Cart()
	if quiet {
		fmt.Println(store.Get())
		return
	}
	printSuccess("Cart reconciled (%d positions)", len(snapshot.LineItems))
	for _, li := range snapshot.LineItems {
		fmt.Printf("  %dx %s%s%s\n", li.Quantity, colorCyan, li.Label, colorReset)
	}
}

// parseDesiredItems parses "id:qty,id:qty" into a desired cart state.
func parseDesiredItems(spec string) ([]cart.DesiredItem, error) {
	var desired []cart.DesiredItem
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, qtyStr, found := strings.Cut(part, ":")
		qty := 1
		if found {
			n, err := strconv.Atoi(qtyStr)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad quantity in %q", part)
			}
			qty = n
		}
		desired = append(desired, cart.DesiredItem{ProductID: id, Quantity: qty})
	}
	if len(desired) == 0 {
		return nil, fmt.Errorf("no items given")
	}
	return desired, nil
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	reqURL := kioskURL + path
	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Continue the previous shopping session
	if token := loadToken(); token != "" {
		req.Header.Set(session.TokenHeader, token)
	}

	if !quiet {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	// The backend rotates the token on login and order placement
	if token := resp.Header.Get(session.TokenHeader); token != "" {
		saveToken(token)
	}

	if !quiet {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printCart(resp map[string]interface{}) {
	itemCount, _ := resp["itemCount"].(float64)
	if quiet {
		fmt.Println(int(itemCount))
		return
	}

	printSuccess("Cart (%d items)", int(itemCount))
	cartObj, ok := resp["cart"].(map[string]interface{})
	if !ok {
		return
	}
	if lineItems, ok := cartObj["lineItems"].([]interface{}); ok {
		for _, item := range lineItems {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			qty, _ := m["quantity"].(float64)
			fmt.Printf("  %dx %s%v%s  (%v)\n", int(qty), colorCyan, m["label"], colorReset, m["id"])
		}
	}
	if price, ok := cartObj["price"].(map[string]interface{}); ok {
		if total, ok := price["totalPrice"].(float64); ok {
			fmt.Printf("  Total: %s%s%s\n", colorGreen, model.FormatPrice(total, "EUR", "de"), colorReset)
		}
	}
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}

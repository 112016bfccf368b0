// MCP transport handler for the kiosk backend using the official MCP
// Go SDK. Exposes cart, checkout and catalog operations as MCP tools
// so conversational agents can drive a shopping session.
//
// MCP has no per-session headers, so the Shopware context token moves
// through the tool payloads: every input takes an optional
// session_token, every output returns the (possibly rotated) token the
// caller must send on the next call.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/winni-bit/sw-demo-kiosk/internal/frontstack"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/storefront"
)

// === Tool Input/Output Types ===

// SessionInput is embedded in every tool input.
type SessionInput struct {
	SessionToken string `json:"session_token,omitempty" jsonschema:"context token of the shopping session; omit to start a new one"`
}

// CartResult is the output of every cart-mutating tool.
type CartResult struct {
	SessionToken string      `json:"session_token" jsonschema:"context token to use on the next call"`
	Cart         *model.Cart `json:"cart" jsonschema:"current cart state"`
	ItemCount    int         `json:"item_count" jsonschema:"summed quantity of goods in the cart"`
}

// GetCartInput is the input schema for the get_cart tool.
type GetCartInput struct {
	SessionInput
}

// AddToCartInput is the input schema for the add_to_cart tool.
type AddToCartInput struct {
	SessionInput
	ProductID string `json:"product_id" jsonschema:"catalog product id,required"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"quantity to add, defaults to 1"`
}

// UpdateLineItemInput is the input schema for the update_line_item tool.
type UpdateLineItemInput struct {
	SessionInput
	LineItemID string `json:"line_item_id" jsonschema:"cart line item id,required"`
	Quantity   int    `json:"quantity" jsonschema:"new quantity; zero removes the position,required"`
}

// RemoveLineItemInput is the input schema for the remove_line_item tool.
type RemoveLineItemInput struct {
	SessionInput
	LineItemID string `json:"line_item_id" jsonschema:"cart line item id,required"`
}

// PlaceOrderInput is the input schema for the place_order tool.
type PlaceOrderInput struct {
	SessionInput
}

// OrderResult is the output of the place_order tool.
type OrderResult struct {
	SessionToken string       `json:"session_token" jsonschema:"context token to use on the next call"`
	Order        *model.Order `json:"order" jsonschema:"the placed order"`
}

// RecommendationsInput is the input schema for the get_recommendations tool.
type RecommendationsInput struct {
	SessionInput
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of recommendations, defaults to 2"`
}

// RecommendationsResult is the output of the get_recommendations tool.
type RecommendationsResult struct {
	SessionToken string                   `json:"session_token" jsonschema:"context token to use on the next call"`
	Items        []frontstack.ProductCard `json:"items" jsonschema:"recommended products"`
}

// SearchProductsInput is the input schema for the search_products tool.
type SearchProductsInput struct {
	Search string `json:"search,omitempty" jsonschema:"full text search term"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

// SearchProductsResult is the output of the search_products tool.
type SearchProductsResult struct {
	Items []frontstack.ProductCard `json:"items" jsonschema:"matching products"`
	Total int                      `json:"total" jsonschema:"total number of matches"`
}

// NewMCPServer creates an MCP server with the kiosk tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "sw-demo-kiosk",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Shopware kiosk storefront. Use these tools to browse the catalog, " +
				"manage a cart and place orders. Pass the session_token returned by each " +
				"call into the next one to stay in the same shopping session.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the current cart of a shopping session.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart. Starts a new session when no session_token is given.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_line_item",
		Description: "Change the quantity of a cart position. Quantity zero removes it.",
	}, h.mcpUpdateLineItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_line_item",
		Description: "Remove a position from the cart.",
	}, h.mcpRemoveLineItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "place_order",
		Description: "Place the order for the current cart. Requires a logged-in or guest customer session.",
	}, h.mcpPlaceOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recommendations",
		Description: "Get cross-selling product recommendations for the current cart.",
	}, h.mcpRecommendations)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search the product catalog.",
	}, h.mcpSearchProducts)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetCartInput,
) (*mcp.CallToolResult, *CartResult, error) {
	sf, err := h.factory.Session(input.SessionToken)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	cart := sf.Cart.Fetch(ctx)
	if cart == nil {
		return nil, nil, fmt.Errorf("%s", sf.Cart.Err())
	}
	return nil, h.cartResult(sf, cart), nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *CartResult, error) {
	if input.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}

	sf, err := h.factory.Session(input.SessionToken)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	if !sf.Cart.Add(ctx, input.ProductID, input.Quantity) {
		return nil, nil, fmt.Errorf("%s", sf.Cart.Err())
	}
	return nil, h.cartResult(sf, sf.Cart.Cart()), nil
}

func (h *Handler) mcpUpdateLineItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateLineItemInput,
) (*mcp.CallToolResult, *CartResult, error) {
	if input.LineItemID == "" {
		return nil, nil, fmt.Errorf("line_item_id is required")
	}

	sf, err := h.factory.Session(input.SessionToken)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	// The snapshot must know the position before an update.
	sf.Cart.Fetch(ctx)
	if !sf.Cart.UpdateQuantity(ctx, input.LineItemID, input.Quantity) {
		return nil, nil, fmt.Errorf("%s", sf.Cart.Err())
	}
	return nil, h.cartResult(sf, sf.Cart.Cart()), nil
}

func (h *Handler) mcpRemoveLineItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveLineItemInput,
) (*mcp.CallToolResult, *CartResult, error) {
	if input.LineItemID == "" {
		return nil, nil, fmt.Errorf("line_item_id is required")
	}

	sf, err := h.factory.Session(input.SessionToken)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	if !sf.Cart.Remove(ctx, input.LineItemID) {
		return nil, nil, fmt.Errorf("%s", sf.Cart.Err())
	}
	return nil, h.cartResult(sf, sf.Cart.Cart()), nil
}

func (h *Handler) mcpPlaceOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PlaceOrderInput,
) (*mcp.CallToolResult, *OrderResult, error) {
	if input.SessionToken == "" {
		return nil, nil, fmt.Errorf("session_token is required to place an order")
	}

	sf, err := h.factory.Session(input.SessionToken)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	order := sf.Checkout.PlaceOrder(ctx)
	if order == nil {
		return nil, nil, fmt.Errorf("%s", sf.Checkout.Err())
	}
	return nil, &OrderResult{SessionToken: sf.Session.Get(), Order: order}, nil
}

func (h *Handler) mcpRecommendations(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RecommendationsInput,
) (*mcp.CallToolResult, *RecommendationsResult, error) {
	sf, err := h.factory.Session(input.SessionToken)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	var keys []string
	var products []frontstack.ProductCard
	if cart := sf.Cart.Fetch(ctx); cart != nil {
		for _, li := range cart.LineItems {
			if !li.Good || li.ReferencedID == "" {
				continue
			}
			keys = append(keys, li.ReferencedID)
			if card, err := sf.Content.ProductCard(ctx, sf.Locale.ContextKey(), li.ReferencedID); err == nil {
				products = append(products, *card)
			}
		}
	}

	items := sf.Recommend.Recommendations(ctx, keys, products, input.Limit)
	if items == nil {
		items = []frontstack.ProductCard{}
	}
	return nil, &RecommendationsResult{SessionToken: sf.Session.Get(), Items: items}, nil
}

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchProductsInput,
) (*mcp.CallToolResult, *SearchProductsResult, error) {
	q := &frontstack.Query{Search: input.Search, Limit: input.Limit}
	listing, err := h.factory.Content().AllProducts(ctx, h.factory.Locale().ContextKey(), q)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	items := listing.Items
	if items == nil {
		items = []frontstack.ProductCard{}
	}
	return nil, &SearchProductsResult{Items: items, Total: listing.Total}, nil
}

func (h *Handler) cartResult(sf *storefront.Storefront, cart *model.Cart) *CartResult {
	return &CartResult{
		SessionToken: sf.Session.Get(),
		Cart:         cart,
		ItemCount:    cart.ItemCount(),
	}
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

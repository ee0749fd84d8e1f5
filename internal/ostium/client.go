// internal/ostium/client.go
package ostium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultSubgraphURL is the Ormi-hosted production subgraph.
	DefaultSubgraphURL = "https://api.subgraph.ormilabs.com/api/public/67a599d5-c8d2-4cc4-9c4d-2975a97bc5d8/subgraphs/ost-prod/live/gn"

	requestTimeout = 60 * time.Second
)

const openTradesQuery = `query openTrades($trader: String!) {
  trades(where: {trader: $trader, isOpen: true}, orderBy: index) {
    index
    isBuy
    collateral
    notional
    openPrice
    leverage
    pair { id from to }
  }
}`

const recentOrdersQuery = `query recentOrders($trader: String!, $limit: Int!) {
  orders(where: {trader: $trader}, orderBy: executedAt, orderDirection: desc, first: $limit) {
    id
    orderAction
    collateral
    price
    amountSentToTrader
    rolloverFee
    fundingFee
    pair { id from to }
  }
}`

const pairMidQuery = `query pairMid($id: ID!) {
  pair(id: $id) { id mid }
}`

// Client talks to the Ostium subgraph over HTTP GraphQL.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a subgraph client. An empty url selects the default
// production endpoint.
func NewClient(url string, logger *zap.Logger) *Client {
	if url == "" {
		url = DefaultSubgraphURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger.Named("ostium"),
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("subgraph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("subgraph returned status %d: %s", resp.StatusCode, string(raw))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode subgraph response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("subgraph error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode subgraph data: %w", err)
	}
	return nil
}

// OpenPositions implements Source.
func (c *Client) OpenPositions(ctx context.Context, wallet string) ([]Position, error) {
	var data struct {
		Trades []Position `json:"trades"`
	}
	if err := c.query(ctx, openTradesQuery, map[string]any{"trader": wallet}, &data); err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched open positions",
		zap.String("wallet", wallet),
		zap.Int("count", len(data.Trades)))
	return data.Trades, nil
}

// RecentHistory implements Source.
func (c *Client) RecentHistory(ctx context.Context, wallet string, limit int) ([]ClosureRecord, error) {
	var data struct {
		Orders []ClosureRecord `json:"orders"`
	}
	vars := map[string]any{"trader": wallet, "limit": limit}
	if err := c.query(ctx, recentOrdersQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Orders, nil
}

// PairMidPrice implements Source.
func (c *Client) PairMidPrice(ctx context.Context, pairID string) (decimal.Decimal, error) {
	var data struct {
		Pair *struct {
			Mid decimal.Decimal `json:"mid"`
		} `json:"pair"`
	}
	if err := c.query(ctx, pairMidQuery, map[string]any{"id": pairID}, &data); err != nil {
		return decimal.Zero, err
	}
	if data.Pair == nil {
		return decimal.Zero, fmt.Errorf("pair %s not found", pairID)
	}
	return data.Pair.Mid, nil
}

// Package main provides a CLI client for the exchange-sim kernel.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080/v1", "Server base URL")

	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	submitSymbol := submitCmd.String("symbol", "BTC-USD", "Trading pair symbol")
	submitSide := submitCmd.String("side", "buy", "Order side (buy/sell)")
	submitType := submitCmd.String("type", "limit", "Order type (market/limit/limit_maker/stop_loss/stop_loss_limit/take_profit/take_profit_limit)")
	submitTIF := submitCmd.String("tif", "gtc", "Time in force (gtc/ioc/fok/gtd)")
	submitPrice := submitCmd.String("price", "", "Limit price")
	submitStopPrice := submitCmd.String("stop-price", "", "Stop trigger price (stop/take-profit family)")
	submitQty := submitCmd.String("qty", "1", "Order quantity")
	submitAccount := submitCmd.String("account", "TRADER1", "Account ID")
	submitClientOrderID := submitCmd.String("client-order-id", "", "Client order ID")

	cancelCmd := flag.NewFlagSet("cancel", flag.ExitOnError)
	cancelSymbol := cancelCmd.String("symbol", "", "Trading pair symbol")
	cancelOrderID := cancelCmd.String("order-id", "", "Order ID to cancel")

	orderCmd := flag.NewFlagSet("order", flag.ExitOnError)
	orderSymbol := orderCmd.String("symbol", "", "Trading pair symbol")
	orderOrderID := orderCmd.String("order-id", "", "Order ID to look up")

	bookCmd := flag.NewFlagSet("book", flag.ExitOnError)
	bookSymbol := bookCmd.String("symbol", "BTC-USD", "Trading pair symbol")
	bookLimit := bookCmd.Int("limit", 10, "Number of levels to show")

	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)

	pairCmd := flag.NewFlagSet("pair", flag.ExitOnError)
	pairAction := pairCmd.String("action", "list", "list|add|status")
	pairSymbol := pairCmd.String("symbol", "", "Trading pair symbol")
	pairBase := pairCmd.String("base", "", "Base asset")
	pairQuote := pairCmd.String("quote", "", "Quote asset")
	pairTick := pairCmd.String("tick-size", "", "Tick size")
	pairLot := pairCmd.String("lot-size", "", "Lot size")
	pairMinNotional := pairCmd.String("min-notional", "", "Minimum notional")
	pairStatus := pairCmd.String("status", "", "TRADING|HALTED|DELISTED (action=status)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	flag.Parse()

	switch os.Args[1] {
	case "submit":
		submitCmd.Parse(os.Args[2:])
		submitOrder(*serverURL, submitOrderArgs{
			symbol: *submitSymbol, side: *submitSide, orderType: *submitType, tif: *submitTIF,
			price: *submitPrice, stopPrice: *submitStopPrice, qty: *submitQty,
			account: *submitAccount, clientOrderID: *submitClientOrderID,
		})

	case "cancel":
		cancelCmd.Parse(os.Args[2:])
		cancelOrder(*serverURL, *cancelSymbol, *cancelOrderID)

	case "order":
		orderCmd.Parse(os.Args[2:])
		getOrder(*serverURL, *orderSymbol, *orderOrderID)

	case "book":
		bookCmd.Parse(os.Args[2:])
		getBook(*serverURL, *bookSymbol, *bookLimit)

	case "stats":
		statsCmd.Parse(os.Args[2:])
		getStats(*serverURL)

	case "pair":
		pairCmd.Parse(os.Args[2:])
		runPair(*serverURL, *pairAction, *pairSymbol, *pairBase, *pairQuote, *pairTick, *pairLot, *pairMinNotional, *pairStatus)

	case "demo":
		runDemo(*serverURL)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Exchange-Sim Kernel Client

Usage:
  client <command> [options]

Commands:
  submit    Submit a new order
  cancel    Cancel an existing order
  order     Look up a single order
  book      View order book depth
  stats     View per-shard statistics
  pair      List, add, or change the status of a trading pair
  demo      Run a demonstration

Examples:
  client submit -symbol BTC-USD -side buy -type limit -price 50000.00 -qty 0.01 -account TRADER1
  client cancel -symbol BTC-USD -order-id <uuid>
  client book -symbol BTC-USD -limit 10
  client pair -action list
  client stats
  client demo`)
}

type submitOrderArgs struct {
	symbol, side, orderType, tif, price, stopPrice, qty, account, clientOrderID string
}

func submitOrder(serverURL string, a submitOrderArgs) {
	req := map[string]any{
		"symbol":          a.symbol,
		"side":            a.side,
		"type":            a.orderType,
		"time_in_force":   a.tif,
		"quantity":        a.qty,
		"account_id":      a.account,
		"client_order_id": a.clientOrderID,
	}
	if a.price != "" {
		req["price"] = a.price
	}
	if a.stopPrice != "" {
		req["stop_price"] = a.stopPrice
	}

	resp, err := postJSON(serverURL+"/orders", req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Order Response:")
	printJSON(resp)
}

func cancelOrder(serverURL, symbol, orderID string) {
	url := fmt.Sprintf("%s/orders/%s/%s", serverURL, symbol, orderID)
	doRequest(http.MethodDelete, url, "Cancel Response:")
}

func getOrder(serverURL, symbol, orderID string) {
	url := fmt.Sprintf("%s/orders/%s/%s", serverURL, symbol, orderID)
	doRequest(http.MethodGet, url, "Order:")
}

func getBook(serverURL, symbol string, limit int) {
	url := fmt.Sprintf("%s/books/%s?limit=%d", serverURL, symbol, limit)

	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var data map[string]any
	json.Unmarshal(body, &data)

	fmt.Printf("\n=== %s Order Book ===\n\n", symbol)

	if asks, ok := data["asks"].([]any); ok {
		fmt.Println("ASKS:")
		for i := len(asks) - 1; i >= 0; i-- {
			if ask, ok := asks[i].(map[string]any); ok {
				fmt.Printf("  %v @ %v\n", ask["quantity"], ask["price"])
			}
		}
	}

	if bids, ok := data["bids"].([]any); ok {
		fmt.Println("BIDS:")
		for _, bid := range bids {
			if b, ok := bid.(map[string]any); ok {
				fmt.Printf("  %v @ %v\n", b["quantity"], b["price"])
			}
		}
	}

	fmt.Printf("\nsequence: %v\n", data["sequence"])
}

func getStats(serverURL string) {
	doRequest(http.MethodGet, serverURL+"/stats", "Shard Statistics:")
}

func runPair(serverURL, action, symbol, base, quote, tick, lot, minNotional, status string) {
	switch action {
	case "list":
		doRequest(http.MethodGet, serverURL+"/admin/pairs", "Trading Pairs:")
	case "add":
		req := map[string]string{
			"symbol": symbol, "base_asset": base, "quote_asset": quote,
			"tick_size": tick, "lot_size": lot, "min_notional": minNotional,
		}
		resp, err := postJSON(serverURL+"/admin/pairs", req)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println("Pair Added:")
		printJSON(resp)
	case "status":
		url := fmt.Sprintf("%s/admin/pairs/%s/status", serverURL, symbol)
		body, _ := json.Marshal(map[string]string{"status": status})
		req, _ := http.NewRequest(http.MethodPatch, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Println("Pair Status Updated:")
		printJSONBytes(respBody)
	default:
		fmt.Printf("unknown pair action: %s\n", action)
	}
}

func runDemo(serverURL string) {
	fmt.Println("=== Exchange-Sim Kernel Demo ===")

	fmt.Println("1. Initial order book (empty):")
	getBook(serverURL, "BTC-USD", 5)

	fmt.Println("\n2. Market maker (MM1) posts buy orders:")
	submitOrder(serverURL, submitOrderArgs{symbol: "BTC-USD", side: "buy", orderType: "limit", tif: "gtc", price: "49900.00", qty: "0.10", account: "MM1"})
	submitOrder(serverURL, submitOrderArgs{symbol: "BTC-USD", side: "buy", orderType: "limit", tif: "gtc", price: "49850.00", qty: "0.20", account: "MM1"})

	fmt.Println("\n3. Market maker (MM1) posts sell orders:")
	submitOrder(serverURL, submitOrderArgs{symbol: "BTC-USD", side: "sell", orderType: "limit", tif: "gtc", price: "50100.00", qty: "0.10", account: "MM1"})
	submitOrder(serverURL, submitOrderArgs{symbol: "BTC-USD", side: "sell", orderType: "limit", tif: "gtc", price: "50150.00", qty: "0.20", account: "MM1"})

	fmt.Println("\n4. Order book with liquidity:")
	getBook(serverURL, "BTC-USD", 5)

	fmt.Println("\n5. Trader (TRADER1) buys 0.05 BTC with a market order:")
	submitOrder(serverURL, submitOrderArgs{symbol: "BTC-USD", side: "buy", orderType: "market", tif: "ioc", qty: "0.05", account: "TRADER1"})

	fmt.Println("\n6. Order book after trade:")
	getBook(serverURL, "BTC-USD", 5)

	fmt.Println("\n7. Shard statistics:")
	getStats(serverURL)

	fmt.Println("\n=== Demo Complete ===")
}

func doRequest(method, url, label string) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println(label)
	printJSONBytes(body)
}

func postJSON(url string, data any) (map[string]any, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	err = json.Unmarshal(body, &result)
	return result, err
}

func printJSON(data any) {
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println(string(jsonBytes))
}

func printJSONBytes(data []byte) {
	var obj any
	json.Unmarshal(data, &obj)
	printJSON(obj)
}

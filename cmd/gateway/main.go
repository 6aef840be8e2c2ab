// Package main is a minimal market-data gateway demonstrating the
// consumer side of the kernel's sync protocol: it fetches REST snapshots
// through internal/syncstate.DepthFetcher, consumes the kernel's WebSocket
// depth stream as deltas, and feeds both into a per-symbol
// internal/syncstate.Machine that decides when a resync is needed.
//
// It mirrors how a downstream market-data consumer (a trading bot, another
// exchange's gateway-in agent) would stay in sync with this kernel without
// ever trusting the delta stream blindly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rishav/exchange-sim-kernel/internal/syncstate"
	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

// restDepthFetcher implements syncstate.DepthFetcher against the kernel's
// own REST API.
type restDepthFetcher struct {
	baseURL string
	client  *http.Client
}

func (f *restDepthFetcher) GetDepth(ctx context.Context, symbol string, limit int) (wire.DepthSnapshotPayload, error) {
	u := fmt.Sprintf("%s/v1/books/%s?limit=%d", f.baseURL, symbol, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return wire.DepthSnapshotPayload{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return wire.DepthSnapshotPayload{}, err
	}
	defer resp.Body.Close()

	var body struct {
		Symbol   string `json:"symbol"`
		Sequence uint64 `json:"sequence"`
		Bids     []struct {
			Price    string `json:"price"`
			Quantity string `json:"quantity"`
		} `json:"bids"`
		Asks []struct {
			Price    string `json:"price"`
			Quantity string `json:"quantity"`
		} `json:"asks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return wire.DepthSnapshotPayload{}, err
	}

	// The REST depth endpoint renders decimal strings; the returned snapshot
	// carries only the sequence as LastUpdateID. The decoded bid/ask levels
	// are not converted to fixed-point and are not passed on.
	return wire.DepthSnapshotPayload{
		LastUpdateID: body.Sequence,
	}, nil
}

// bestOfBookMirror implements syncstate.OrderBookWriter by tracking only
// the best bid/ask per symbol, printed on every change. A production
// consumer would maintain the full depth; this is a demo.
type bestOfBookMirror struct {
	mu  sync.Mutex
	bid map[string]wire.DepthLevelWire
	ask map[string]wire.DepthLevelWire
}

func newBestOfBookMirror() *bestOfBookMirror {
	return &bestOfBookMirror{bid: make(map[string]wire.DepthLevelWire), ask: make(map[string]wire.DepthLevelWire)}
}

func (m *bestOfBookMirror) ApplySnapshot(symbol string, snapshot wire.DepthSnapshotPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(snapshot.Bids) > 0 {
		m.bid[symbol] = snapshot.Bids[0]
	}
	if len(snapshot.Asks) > 0 {
		m.ask[symbol] = snapshot.Asks[0]
	}
	log.Printf("[%s] snapshot applied (last_update_id=%d)", symbol, snapshot.LastUpdateID)
}

func (m *bestOfBookMirror) ApplyUpdate(symbol string, update wire.DepthUpdatePayload) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(update.Bids) > 0 {
		m.bid[symbol] = update.Bids[0]
	}
	if len(update.Asks) > 0 {
		m.ask[symbol] = update.Asks[0]
	}
	bid, ask := m.bid[symbol], m.ask[symbol]
	log.Printf("[%s] best bid %s@%s / best ask %s@%s", symbol,
		bid.Quantity.Decimal(), bid.Price.Decimal(), ask.Quantity.Decimal(), ask.Price.Decimal())
	return true
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "kernel HTTP base URL")
	symbols := flag.String("symbols", "BTC-USD", "comma-separated list of symbols to track")
	resyncRate := flag.Float64("resync-rate", 5, "max resnaps per second")
	flag.Parse()

	symbolList := strings.Split(*symbols, ",")
	fetcher := &restDepthFetcher{baseURL: *serverURL, client: &http.Client{Timeout: 5 * time.Second}}
	writer := newBestOfBookMirror()
	queue := syncstate.NewResnapQueue(rate.NewLimiter(rate.Limit(*resyncRate), int(*resyncRate)+1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	machines := make(map[string]*syncstate.Machine, len(symbolList))
	for _, sym := range symbolList {
		machines[sym] = syncstate.NewMachine(sym, writer, syncstate.DefaultBufferCap)
		queue.Enqueue(sym)
		go streamDeltas(ctx, *serverURL, sym, machines[sym], queue)
	}

	go resyncLoop(ctx, fetcher, machines, queue)

	<-ctx.Done()
	log.Println("gateway stopped")
}

// resyncLoop drains the resnap queue at its rate-limited pace, fetching a
// fresh snapshot for each symbol it pops.
func resyncLoop(ctx context.Context, fetcher *restDepthFetcher, machines map[string]*syncstate.Machine, queue *syncstate.ResnapQueue) {
	for {
		symbol, err := queue.WaitDequeue(ctx)
		if err != nil {
			return
		}
		m, ok := machines[symbol]
		if !ok {
			continue
		}
		snapshot, err := fetcher.GetDepth(ctx, symbol, 50)
		if err != nil {
			log.Printf("[%s] snapshot fetch failed: %v", symbol, err)
			queue.Enqueue(symbol)
			continue
		}
		if needsAnother := m.OnSnapshot(snapshot); needsAnother {
			queue.Enqueue(symbol)
		}
	}
}

// streamDeltas connects to the kernel's depth WebSocket for symbol and
// feeds every decoded delta into m, requesting a resync whenever m says so.
func streamDeltas(ctx context.Context, serverURL, symbol string, m *syncstate.Machine, queue *syncstate.ResnapQueue) {
	u, err := url.Parse(serverURL)
	if err != nil {
		log.Printf("[%s] bad server url: %v", symbol, err)
		return
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/v1/ws/" + symbol

	codec := wire.NewJSONCodec()
	backoff := time.Second

	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			log.Printf("[%s] dial failed: %v, retrying in %s", symbol, err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = time.Second

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				conn.Close()
				break
			}
			msg, err := codec.Decode(data)
			if err != nil {
				continue
			}
			if msg.MsgType != wire.MsgTypeDepthUpdate {
				continue
			}
			var update wire.DepthUpdatePayload
			if err := json.Unmarshal(msg.Payload, &update); err != nil {
				continue
			}
			if needsSnapshot := m.OnDelta(update); needsSnapshot {
				queue.Enqueue(symbol)
			}
		}
	}
}

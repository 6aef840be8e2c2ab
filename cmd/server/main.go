// Package main provides the exchange-sim kernel server.
//
// Architecture Overview:
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Client    │────▶│  HTTP/WS    │────▶│  Validator  │
//	│  (HTTP/WS)  │     │   Router    │     │  (registry) │
//	└─────────────┘     └─────────────┘     └──────┬──────┘
//	                                               │
//	                                               ▼
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│  Market     │◀────│  Matching   │◀────│   Shard     │
//	│  Data Pub   │     │   Engine    │     │  (Ring Buf) │
//	└──────┬──────┘     └──────┬──────┘     └─────────────┘
//	       │                   │
//	       ▼                   ▼
//	┌─────────────┐     ┌─────────────┐
//	│  Wire        │    │  Audit Sink │
//	│  Encoder     │    │  (optional) │
//	└─────────────┘     └─────────────┘
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rishav/exchange-sim-kernel/internal/config"
	"github.com/rishav/exchange-sim-kernel/internal/disruptor"
	"github.com/rishav/exchange-sim-kernel/internal/errcodes"
	"github.com/rishav/exchange-sim-kernel/internal/events"
	"github.com/rishav/exchange-sim-kernel/internal/marketdata"
	"github.com/rishav/exchange-sim-kernel/internal/matching"
	"github.com/rishav/exchange-sim-kernel/internal/metrics"
	"github.com/rishav/exchange-sim-kernel/internal/orders"
	"github.com/rishav/exchange-sim-kernel/internal/registry"
	"github.com/rishav/exchange-sim-kernel/internal/shard"
	"github.com/rishav/exchange-sim-kernel/internal/validator"
	"github.com/rishav/exchange-sim-kernel/internal/values"
	"github.com/rishav/exchange-sim-kernel/internal/wire"
)

// Server wires the kernel's components together and exposes them over
// HTTP/WebSocket. Order submission flows through internal/shard.Manager,
// which fans it out to a dedicated goroutine per symbol partition; this
// struct only holds the pieces the HTTP layer needs directly.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *registry.Registry
	shards   *shard.Manager
	pub      *marketdata.Publisher
	sink     *wire.AuditSink
	ids      values.IDGenerator

	router     *mux.Router
	httpServer *http.Server
}

// NewServer builds a Server from cfg. It registers every configured
// trading pair with both the registry and the shard manager before
// returning.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	ids := values.NewUUIDGenerator()

	var algo matching.MatchingAlgorithm
	switch cfg.Shards.Algorithm {
	case "pro-rata":
		lot, err := values.ParseQuantity(cfg.Shards.ProRataLot)
		if err != nil || lot <= 0 {
			lot = values.Quantity(1)
		}
		algo = matching.NewProRataAlgorithm(lot)
	default:
		algo = matching.NewPriceTimeAlgorithm()
	}

	var sink *wire.AuditSink
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit sink: %w", err)
		}
		sink = wire.NewAuditSink(f)
	}

	pub := marketdata.NewPublisher(1000)
	reg := registry.NewRegistry()

	shardCfg := shard.Config{NumShards: cfg.Shards.NumShards, BufferSize: cfg.Shards.BufferSize}
	manager := shard.NewManager(shardCfg, ids, algo, pub, sink)

	s := &Server{
		cfg:      cfg,
		log:      log,
		registry: reg,
		shards:   manager,
		pub:      pub,
		sink:     sink,
		ids:      ids,
		router:   mux.NewRouter(),
	}

	ctx := context.Background()
	for _, p := range cfg.Pairs {
		if err := s.registerPair(ctx, p); err != nil {
			return nil, fmt.Errorf("register pair %s: %w", p.Symbol, err)
		}
	}

	s.setupRoutes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPatch},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(s.router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) registerPair(ctx context.Context, p config.PairEntry) error {
	tick, err := values.ParsePrice(p.TickSize)
	if err != nil {
		return fmt.Errorf("tick_size: %w", err)
	}
	lot, err := values.ParseQuantity(p.LotSize)
	if err != nil {
		return fmt.Errorf("lot_size: %w", err)
	}
	minNotional, err := values.ParsePrice(p.MinNotional)
	if err != nil {
		return fmt.Errorf("min_notional: %w", err)
	}

	symbol := values.Symbol(p.Symbol)
	s.registry.Add(registry.PairConfig{
		Symbol:      symbol,
		BaseAsset:   p.BaseAsset,
		QuoteAsset:  p.QuoteAsset,
		TickSize:    tick,
		LotSize:     lot,
		MinNotional: minNotional,
		Status:      registry.StatusTrading,
	})
	return s.shards.AddSymbol(ctx, symbol)
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	v1.HandleFunc("/orders/{symbol}/{orderID}", s.handleGetOrder).Methods(http.MethodGet)
	v1.HandleFunc("/orders/{symbol}/{orderID}", s.handleCancelOrder).Methods(http.MethodDelete)
	v1.HandleFunc("/books/{symbol}", s.handleGetBook).Methods(http.MethodGet)

	v1.HandleFunc("/admin/pairs", s.handleListPairs).Methods(http.MethodGet)
	v1.HandleFunc("/admin/pairs", s.handleAddPair).Methods(http.MethodPost)
	v1.HandleFunc("/admin/pairs/{symbol}/status", s.handleSetPairStatus).Methods(http.MethodPatch)

	v1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	v1.HandleFunc("/ws/{symbol}", s.handleDepthStream)

	s.router.Handle("/metrics", promhttp.Handler())
}

// ---- DTOs ----

type submitOrderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force,omitempty"`
	Price         string `json:"price,omitempty"`
	StopPrice     string `json:"stop_price,omitempty"`
	Quantity      string `json:"quantity"`
	AccountID     string `json:"account_id"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	ExpireTime    int64  `json:"expire_time,omitempty"`
}

type fillDTO struct {
	TradeID  uint64 `json:"trade_id"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

type orderResponseDTO struct {
	Success      bool      `json:"success"`
	OrderID      string    `json:"order_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	FilledQty    string    `json:"filled_qty,omitempty"`
	RemainingQty string    `json:"remaining_qty,omitempty"`
	Fills        []fillDTO `json:"fills,omitempty"`
	RejectReason string    `json:"reject_reason,omitempty"`
	Error        string    `json:"error,omitempty"`
}

func parseSide(s string) (orders.Side, bool) {
	switch s {
	case "buy", "BUY":
		return orders.SideBuy, true
	case "sell", "SELL":
		return orders.SideSell, true
	default:
		return 0, false
	}
}

func parseOrderType(s string) (orders.OrderType, bool) {
	switch s {
	case "market", "MARKET":
		return orders.OrderTypeMarket, true
	case "limit", "LIMIT":
		return orders.OrderTypeLimit, true
	case "limit_maker", "LIMIT_MAKER":
		return orders.OrderTypeLimitMaker, true
	case "stop_loss", "STOP_LOSS":
		return orders.OrderTypeStopLoss, true
	case "stop_loss_limit", "STOP_LOSS_LIMIT":
		return orders.OrderTypeStopLossLimit, true
	case "take_profit", "TAKE_PROFIT":
		return orders.OrderTypeTakeProfit, true
	case "take_profit_limit", "TAKE_PROFIT_LIMIT":
		return orders.OrderTypeTakeProfitLimit, true
	default:
		return 0, false
	}
}

func parseTIF(s string) (orders.TimeInForce, bool) {
	switch s {
	case "", "gtc", "GTC":
		return orders.TimeInForceGtc, true
	case "ioc", "IOC":
		return orders.TimeInForceIoc, true
	case "fok", "FOK":
		return orders.TimeInForceFok, true
	case "gtd", "GTD":
		return orders.TimeInForceGtd, true
	default:
		return 0, false
	}
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.SubmitLatencySeconds.Observe(time.Since(start).Seconds()) }()

	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	side, ok := parseSide(req.Side)
	if !ok {
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: "side must be 'buy' or 'sell'"})
		return
	}
	orderType, ok := parseOrderType(req.Type)
	if !ok {
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: "unrecognized order type"})
		return
	}
	tif, ok := parseTIF(req.TimeInForce)
	if !ok {
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: "unrecognized time_in_force"})
		return
	}

	qty, err := values.ParseQuantity(req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: fmt.Sprintf("invalid quantity: %v", err)})
		return
	}
	var price values.Price
	if req.Price != "" {
		price, err = values.ParsePrice(req.Price)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: fmt.Sprintf("invalid price: %v", err)})
			return
		}
	}
	var stopPrice values.Price
	if req.StopPrice != "" {
		stopPrice, err = values.ParsePrice(req.StopPrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: fmt.Sprintf("invalid stop_price: %v", err)})
			return
		}
	}

	symbol := values.Symbol(req.Symbol)
	pair, ok := s.registry.Get(symbol)
	if !ok {
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{Error: "unknown symbol"})
		return
	}

	now := orders.Now()
	order := &orders.Order{
		ID:            s.ids.NextOrderID(),
		ClientOrderID: req.ClientOrderID,
		Symbol:        symbol,
		Side:          side,
		Type:          orderType,
		TimeInForce:   tif,
		Price:         price,
		StopPrice:     stopPrice,
		Quantity:      qty,
		AccountID:     req.AccountID,
		ExpireTime:    req.ExpireTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// The live order book lives inside the owning shard's goroutine and
	// isn't exposed across that boundary; the validator's LimitMaker
	// crossing check is skipped here and instead enforced by the book
	// itself when the order reaches Submit.
	if verr := validator.Validate(order, pair, nil); verr != nil {
		metrics.RejectionsByCode.WithLabelValues(strconv.Itoa(verr.Code)).Inc()
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{RejectReason: verr.Message, Error: verr.Message})
		return
	}

	resp, err := s.shards.SubmitOrder(r.Context(), order)
	metrics.OrdersProcessed.Inc()
	if err != nil {
		reason := err.Error()
		code := reason
		if errors.Is(err, shard.ErrShardFull) {
			code = strconv.Itoa(errcodes.ShardFull)
		}
		if resp != nil {
			for _, evt := range resp.Events {
				if rej, ok := evt.(*events.OrderRejected); ok {
					code = strconv.Itoa(rej.RejectCode)
				}
			}
		}
		metrics.RejectionsByCode.WithLabelValues(code).Inc()
		writeJSON(w, http.StatusBadRequest, orderResponseDTO{RejectReason: reason, Error: reason})
		return
	}

	fills := make([]fillDTO, len(resp.Fills))
	for i, f := range resp.Fills {
		fills[i] = fillDTO{TradeID: f.TradeID, Price: f.Price.Decimal(), Quantity: f.Quantity.Decimal()}
	}
	metrics.TradesExecuted.Add(float64(len(fills)))

	writeJSON(w, http.StatusOK, orderResponseDTO{
		Success:      true,
		OrderID:      order.ID.String(),
		Status:       resp.Order.Status.String(),
		FilledQty:    resp.Order.FilledQty.Decimal(),
		RemainingQty: resp.Order.RemainingQty().Decimal(),
		Fills:        fills,
	})
}

func (s *Server) parsePathOrder(r *http.Request) (values.Symbol, values.OrderID, error) {
	vars := mux.Vars(r)
	symbol := values.Symbol(vars["symbol"])
	var id values.OrderID
	if err := json.Unmarshal([]byte(`"`+vars["orderID"]+`"`), &id); err != nil {
		return symbol, id, fmt.Errorf("invalid order id: %w", err)
	}
	return symbol, id, nil
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	symbol, orderID, err := s.parsePathOrder(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	resp, err := s.shards.CancelOrder(r.Context(), symbol, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"order_id": resp.Order.ID.String(),
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	symbol, orderID, err := s.parsePathOrder(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	resp, err := s.shards.GetOrder(r.Context(), symbol, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	o := resp.Order
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":      o.ID.String(),
		"symbol":        string(o.Symbol),
		"side":          o.Side.String(),
		"type":          o.Type.String(),
		"status":        o.Status.String(),
		"price":         o.Price.Decimal(),
		"quantity":      o.Quantity.Decimal(),
		"filled_qty":    o.FilledQty.Decimal(),
		"remaining_qty": o.RemainingQty().Decimal(),
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	symbol := values.Symbol(mux.Vars(r)["symbol"])
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	resp, err := s.shards.GetDepth(r.Context(), symbol, limit)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":   string(symbol),
		"bids":     depthLevelsDTO(resp.Bids),
		"asks":     depthLevelsDTO(resp.Asks),
		"sequence": resp.Sequence,
	})
}

func depthLevelsDTO(levels []disruptor.DepthLevel) []map[string]string {
	out := make([]map[string]string, len(levels))
	for i, l := range levels {
		out[i] = map[string]string{"price": l.Price.Decimal(), "quantity": l.Quantity.Decimal()}
	}
	return out
}

// toDepthLevels converts a shard GetDepth response's levels (kept free of an
// events import, see internal/disruptor.DepthLevel) into the events package's
// DepthLevel, for seeding a WebSocket depth stream with a DepthSnapshot.
func toDepthLevels(levels []disruptor.DepthLevel) []events.DepthLevel {
	out := make([]events.DepthLevel, len(levels))
	for i, l := range levels {
		out[i] = events.DepthLevel{Price: l.Price, Quantity: l.Quantity}
	}
	return out
}

func (s *Server) handleListPairs(w http.ResponseWriter, r *http.Request) {
	pairs := s.registry.List()
	out := make([]map[string]any, len(pairs))
	for i, p := range pairs {
		out[i] = map[string]any{
			"symbol":       string(p.Symbol),
			"base_asset":   p.BaseAsset,
			"quote_asset":  p.QuoteAsset,
			"tick_size":    p.TickSize.Decimal(),
			"lot_size":     p.LotSize.Decimal(),
			"min_notional": p.MinNotional.Decimal(),
			"status":       p.Status.String(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddPair(w http.ResponseWriter, r *http.Request) {
	var entry config.PairEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.registerPair(r.Context(), entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"symbol": entry.Symbol})
}

func (s *Server) handleSetPairStatus(w http.ResponseWriter, r *http.Request) {
	symbol := values.Symbol(mux.Vars(r)["symbol"])
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var status registry.PairStatus
	switch body.Status {
	case "TRADING":
		status = registry.StatusTrading
	case "HALTED":
		status = registry.StatusHalted
	case "DELISTED":
		status = registry.StatusDelisted
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be TRADING, HALTED, or DELISTED"})
		return
	}
	if err := s.registry.SetStatus(symbol, status); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"symbol": string(symbol), "status": status.String()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.shards.Stats()
	out := make([]map[string]any, len(stats))
	for i, st := range stats {
		metrics.ShardQueueDepth.WithLabelValues(strconv.Itoa(st.ShardID)).Set(float64(st.CommandsInQueue))
		out[i] = map[string]any{
			"shard_id":               st.ShardID,
			"num_symbols":            st.NumSymbols,
			"total_orders_processed": st.TotalOrdersProcessed,
			"total_trades_executed":  st.TotalTradesExecuted,
			"commands_in_queue":      st.CommandsInQueue,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

var depthUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleDepthStream upgrades to a WebSocket and pushes every depth
// snapshot/update for symbol as it is published, via its own
// internal/wire.Encoder instance scoped to the connection's lifetime.
func (s *Server) handleDepthStream(w http.ResponseWriter, r *http.Request) {
	symbol := values.Symbol(mux.Vars(r)["symbol"])
	conn, err := depthUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	enc := wire.NewEncoder(s.pub, wire.NewJSONCodec(), 256)

	if resp, err := s.shards.GetDepth(ctx, symbol, 0); err == nil {
		snap := &events.DepthSnapshot{
			Base:         events.Base{Type: events.EventTypeDepthSnapshot, SequenceNum: resp.Sequence, Timestamp: orders.Now()},
			Symbol:       symbol,
			LastUpdateID: resp.Sequence,
			Bids:         toDepthLevels(resp.Bids),
			Asks:         toDepthLevels(resp.Asks),
		}
		if msg, err := enc.EncodeSnapshot(symbol, snap); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, msg)
		}
	}

	go func() {
		if err := enc.Run(ctx, symbol); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("wire encoder stopped", zap.Error(err), zap.String("symbol", string(symbol)))
		}
	}()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-enc.Out:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start begins serving HTTP traffic. It blocks until Shutdown is called or
// the listener errors.
func (s *Server) Start() error {
	s.log.Info("starting exchange-sim kernel", zap.String("addr", s.cfg.Server.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting new HTTP requests, drains every shard, and
// flushes the audit sink if one is configured.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if err := s.shards.Shutdown(ctx); err != nil {
		return err
	}
	s.pub.Close()
	if s.sink != nil {
		return s.sink.Close()
	}
	return nil
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Dev {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err == nil {
		zcfg.Level = level
	}
	return zcfg.Build()
}

func main() {
	configPath := flag.String("config", "configs/kernel.yaml", "path to the kernel's YAML config file")
	addr := flag.String("addr", "", "override server.addr from the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	server, err := NewServer(cfg, log)
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", zap.Error(err))
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server stopped")
}

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"ForexPilot/internal/models"
)

// DefaultRequestTimeout bounds every request/response round trip on the
// socket; a pending call fails after this rather than hanging forever.
const DefaultRequestTimeout = 30 * time.Second

// WSClient is the live broker connection. All outbound requests are tagged
// with a req_id and matched to their response; ticks, candles and errors
// arrive as unsolicited messages and flow out through Events.
type WSClient struct {
	endpoint       string
	appID          string
	requestTimeout time.Duration
	limiter        *rate.Limiter

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[int64]chan *serverMessage
	nextID  int64

	writeMu sync.Mutex

	events chan Event
	done   chan struct{}
}

type WSConfig struct {
	Endpoint       string
	AppID          string
	RequestTimeout time.Duration
}

// wire format

type clientMessage struct {
	ReqID       int64   `json:"req_id"`
	Ticks       string  `json:"ticks,omitempty"`
	Candles     string  `json:"candles,omitempty"`
	Granularity int     `json:"granularity,omitempty"`
	Subscribe   int     `json:"subscribe,omitempty"`
	Buy         string  `json:"buy,omitempty"`
	Sell        string  `json:"sell,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

type serverMessage struct {
	ReqID int64 `json:"req_id"`
	Tick  *struct {
		Symbol string  `json:"symbol"`
		Quote  float64 `json:"quote"`
		Bid    float64 `json:"bid"`
		Ask    float64 `json:"ask"`
		Epoch  int64   `json:"epoch"`
	} `json:"tick,omitempty"`
	OHLC *struct {
		Symbol      string  `json:"symbol"`
		Open        float64 `json:"open"`
		High        float64 `json:"high"`
		Low         float64 `json:"low"`
		Close       float64 `json:"close"`
		Volume      float64 `json:"volume"`
		Granularity int     `json:"granularity"`
		Epoch       int64   `json:"epoch"`
	} `json:"ohlc,omitempty"`
	Order *struct {
		OrderID string `json:"order_id"`
	} `json:"order,omitempty"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewWSClient(cfg WSConfig) *WSClient {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	return &WSClient{
		endpoint:       cfg.Endpoint,
		appID:          cfg.AppID,
		requestTimeout: cfg.RequestTimeout,
		// 10 requests per second with burst of 20, matching broker limits
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		pending: make(map[int64]chan *serverMessage),
		events:  make(chan Event, 1024),
	}
}

func (c *WSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	url := fmt.Sprintf("%s?app_id=%s", c.endpoint, c.appID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial feed at %s: %w", c.endpoint, err)
	}

	c.conn = conn
	c.done = make(chan struct{})
	go c.readLoop(conn, c.done)

	c.emit(ConnectivityEvent{Connected: true})
	return nil
}

func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *WSClient) Events() <-chan Event {
	return c.events
}

func (c *WSClient) SubscribeTicks(ctx context.Context, symbol string) error {
	mapped, err := BrokerSymbol(symbol)
	if err != nil {
		return err
	}

	_, err = c.request(ctx, &clientMessage{Ticks: mapped, Subscribe: 1})
	if err != nil {
		return fmt.Errorf("tick subscription for %s failed: %w", symbol, err)
	}
	return nil
}

func (c *WSClient) SubscribeCandles(ctx context.Context, symbol string, granularity time.Duration) error {
	mapped, err := BrokerSymbol(symbol)
	if err != nil {
		return err
	}

	_, err = c.request(ctx, &clientMessage{
		Candles:     mapped,
		Granularity: int(granularity.Seconds()),
		Subscribe:   1,
	})
	if err != nil {
		return fmt.Errorf("candle subscription for %s failed: %w", symbol, err)
	}
	return nil
}

func (c *WSClient) Buy(ctx context.Context, req OrderRequest) (string, error) {
	return c.placeOrder(ctx, req, true)
}

func (c *WSClient) Sell(ctx context.Context, req OrderRequest) (string, error) {
	return c.placeOrder(ctx, req, false)
}

func (c *WSClient) placeOrder(ctx context.Context, req OrderRequest, buy bool) (string, error) {
	mapped, err := BrokerSymbol(req.Symbol)
	if err != nil {
		return "", err
	}

	msg := &clientMessage{Amount: req.Amount, Price: req.Price}
	if buy {
		msg.Buy = mapped
	} else {
		msg.Sell = mapped
	}

	resp, err := c.request(ctx, msg)
	if err != nil {
		return "", err
	}
	if resp.Order == nil || resp.Order.OrderID == "" {
		return "", &OrderError{Code: "no_order_id", Message: "broker response missing order id"}
	}
	return resp.Order.OrderID, nil
}

// request sends one message and waits for the response carrying the same
// req_id, bounded by the request timeout.
func (c *WSClient) request(ctx context.Context, msg *clientMessage) (*serverMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	conn := c.conn
	c.nextID++
	msg.ReqID = c.nextID
	ch := make(chan *serverMessage, 1)
	c.pending[msg.ReqID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ReqID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("feed write failed: %w", err)
	}

	timer := time.NewTimer(c.requestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, &OrderError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("feed request %d timed out after %s", msg.ReqID, c.requestTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *WSClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			c.emit(ConnectivityEvent{Connected: false, Err: err})
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[feed] dropping malformed message: %v", err)
			continue
		}

		// Responses to pending requests are routed by req_id; everything
		// else is stream data.
		if msg.ReqID != 0 {
			c.mu.Lock()
			ch, ok := c.pending[msg.ReqID]
			c.mu.Unlock()
			if ok {
				ch <- &msg
				continue
			}
		}

		c.dispatch(&msg)
	}
}

func (c *WSClient) dispatch(msg *serverMessage) {
	switch {
	case msg.Tick != nil:
		c.emit(TickEvent{Tick: models.PriceTick{
			Symbol:    platformSymbol(msg.Tick.Symbol),
			Price:     msg.Tick.Quote,
			Bid:       msg.Tick.Bid,
			Ask:       msg.Tick.Ask,
			Timestamp: time.Unix(msg.Tick.Epoch, 0),
		}})
	case msg.OHLC != nil:
		granularity := time.Duration(msg.OHLC.Granularity) * time.Second
		c.emit(CandleEvent{
			Symbol:    platformSymbol(msg.OHLC.Symbol),
			TimeFrame: GranularityTimeFrame(granularity),
			Timestamp: time.Unix(msg.OHLC.Epoch, 0),
			Open:      msg.OHLC.Open,
			High:      msg.OHLC.High,
			Low:       msg.OHLC.Low,
			Close:     msg.OHLC.Close,
			Volume:    msg.OHLC.Volume,
		})
	}
}

// emit never blocks the read loop; a full event buffer drops the oldest
// pending event consumers haven't kept up with.
func (c *WSClient) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		select {
		case <-c.events:
		default:
		}
		c.events <- ev
	}
}

// platformSymbol reverses the broker symbol mapping.
func platformSymbol(brokerSymbol string) string {
	for platform, mapped := range symbolMap {
		if mapped == brokerSymbol {
			return platform
		}
	}
	return brokerSymbol
}

// gaze-replay - drive a focusd session without a browser
// Connects like a reading page, calibrates, then replays a gaze trace
// (synthetic or recorded JSON) and prints what focusd sends back.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-gazereader/internal/httpc"
	"github.com/teslashibe/go-gazereader/pkg/calibration"
	"github.com/teslashibe/go-gazereader/pkg/protocol"
	"github.com/teslashibe/go-gazereader/pkg/tracking"
)

// TracePoint is one recorded sample. T is milliseconds from the start of
// the trace; a null coordinate simulates a lost face.
type TracePoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	T int64    `json:"t"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // guards writes

	countsMu sync.Mutex
	counts   map[protocol.MessageType]int
	running  chan struct{}
	once     sync.Once
}

func (c *client) send(msgType protocol.MessageType, data interface{}) error {
	msg, err := protocol.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	b, err := msg.Bytes()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// readLoop plays the page side of the oracle handshake and tallies replies.
func (c *client) readLoop(verbose bool) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			continue
		}

		c.countsMu.Lock()
		c.counts[msg.Type]++
		c.countsMu.Unlock()

		switch msg.Type {
		case protocol.TypeSession:
			fmt.Printf("🔗 Session: %s\n", msg.Data)
		case protocol.TypeBegin:
			if err := c.send(protocol.TypeOracle, protocol.OracleData{Ready: true}); err != nil {
				fmt.Printf("⚠️  Oracle reply failed: %v\n", err)
			}
			c.once.Do(func() { close(c.running) })
		case protocol.TypeError:
			var e protocol.ErrorData
			msg.ParseData(&e)
			fmt.Printf("❌ %s: %s\n", e.Command, e.Message)
		case protocol.TypeFocus, protocol.TypeReading, protocol.TypeCalibrated, protocol.TypeLooking:
			fmt.Printf("📨 %s %s\n", msg.Type, msg.Data)
		default:
			if verbose {
				fmt.Printf("📨 %s %s\n", msg.Type, msg.Data)
			}
		}
	}
}

func main() {
	url := flag.String("url", "ws://localhost:8090/ws/session", "focusd session websocket URL")
	tracePath := flag.String("trace", "", "JSON trace file (array of {x, y, t}); synthetic sweep if empty")
	width := flag.Float64("width", 1280, "Viewport width")
	height := flag.Float64("height", 800, "Viewport height")
	rate := flag.Int("rate", 30, "Synthetic sample rate (Hz)")
	lines := flag.Int("lines", 12, "Synthetic lines to read")
	verbose := flag.Bool("v", false, "Print every message from focusd")
	api := flag.String("api", "http://localhost:8090", "focusd API base URL")
	radius := flag.Float64("radius", 0, "Set the spotlight radius before replaying (0 keeps the current one)")
	flag.Parse()

	trace, err := loadTrace(*tracePath, *width, *height, *rate, *lines)
	if err != nil {
		log.Fatalf("❌ Failed to load trace: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *radius > 0 {
		var settings tracking.Settings
		if err := httpc.GetJSON(ctx, *api+"/api/settings", &settings); err != nil {
			log.Fatalf("❌ Failed to read settings: %v", err)
		}
		settings.FocusRadius = *radius
		if err := httpc.PutJSON(ctx, *api+"/api/settings", settings, nil); err != nil {
			log.Fatalf("❌ Failed to apply settings: %v", err)
		}
		fmt.Printf("⚙️  Spotlight radius: %.0fpx\n", *radius)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *url, nil)
	if err != nil {
		log.Fatalf("❌ Failed to connect to %s: %v", *url, err)
	}
	defer conn.Close()
	fmt.Printf("🔌 Connected to %s\n", *url)

	c := &client{
		conn:    conn,
		counts:  make(map[protocol.MessageType]int),
		running: make(chan struct{}),
	}
	go c.readLoop(*verbose)

	must := func(err error) {
		if err != nil {
			log.Fatalf("❌ Send failed: %v", err)
		}
	}

	must(c.send(protocol.TypeLayout, protocol.LayoutData{Width: *width, Height: *height}))
	must(c.send(protocol.TypeRegions, protocol.RegionsData{Regions: syntheticRegions(*width, *height)}))
	must(c.send(protocol.TypeStart, nil))

	select {
	case <-c.running:
	case <-time.After(5 * time.Second):
		log.Fatalf("❌ focusd never asked for the oracle")
	case <-ctx.Done():
		return
	}
	// Start completes after the oracle reply is processed.
	time.Sleep(100 * time.Millisecond)

	fmt.Printf("🎯 Calibrating (%d confirmations)\n", calibration.TotalConfirmations())
	must(c.send(protocol.TypeCalibrate, nil))
	for i := 0; i < calibration.TotalConfirmations(); i++ {
		must(c.send(protocol.TypeConfirm, nil))
	}

	fmt.Printf("▶️  Replaying %d samples\n", len(trace))
	start := time.Now()
	for _, p := range trace {
		wait := time.Until(start.Add(time.Duration(p.T) * time.Millisecond))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		must(c.send(protocol.TypeGaze, protocol.GazeData{X: p.X, Y: p.Y, T: time.Now().UnixMilli()}))
	}

	// Live status shows this session's counters before it is stopped.
	var status struct {
		Sessions []tracking.Status `json:"sessions"`
	}
	if err := httpc.GetJSON(ctx, *api+"/api/status", &status); err != nil {
		fmt.Printf("⚠️  Status unavailable: %v\n", err)
	}

	must(c.send(protocol.TypeStop, nil))
	time.Sleep(200 * time.Millisecond)
	c.summary()
	for _, st := range status.Sessions {
		fmt.Printf("   session %s: accepted %d, dropped %d, overflow %d, focus %q\n",
			st.Session, st.Accepted, st.Dropped, st.Overflow, st.Focus.Current)
	}
}

func (c *client) summary() {
	c.countsMu.Lock()
	defer c.countsMu.Unlock()

	types := make([]string, 0, len(c.counts))
	for t := range c.counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	fmt.Println("\n📊 Messages received:")
	for _, t := range types {
		fmt.Printf("   %-15s %d\n", t, c.counts[protocol.MessageType(t)])
	}
}

// syntheticRegions lays out four paragraphs down the viewport.
func syntheticRegions(width, height float64) []protocol.RegionData {
	const n = 4
	h := height / n
	regions := make([]protocol.RegionData, n)
	for i := range regions {
		top := float64(i)*h + 10
		regions[i] = protocol.RegionData{
			ID:         fmt.Sprintf("p%d", i+1),
			Left:       width * 0.1,
			Top:        top,
			Right:      width * 0.9,
			Bottom:     top + h - 20,
			TextLength: 400,
		}
	}
	return regions
}

func loadTrace(path string, width, height float64, rate, lines int) ([]TracePoint, error) {
	if path == "" {
		return sweep(width, height, rate, lines), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var trace []TracePoint
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return trace, nil
}

// sweep reads lines top to bottom, each line a one-second left-to-right pass.
func sweep(width, height float64, rate, lines int) []TracePoint {
	if rate < 1 {
		rate = 1
	}
	perLine := rate
	step := time.Second / time.Duration(rate)
	left, right := width*0.1, width*0.9
	lineHeight := height * 0.8 / float64(max(lines, 1))

	var out []TracePoint
	var t time.Duration
	for l := 0; l < lines; l++ {
		y := height*0.1 + float64(l)*lineHeight
		for i := 0; i < perLine; i++ {
			x := left + (right-left)*float64(i)/float64(perLine)
			yy := y
			out = append(out, TracePoint{X: &x, Y: &yy, T: t.Milliseconds()})
			t += step
		}
	}
	return out
}

// Analysis Monitor - live view of speech analysis outcomes.
// Consumes the completed and failed analysis topics from Kafka and pushes
// each event to connected browsers over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// AnalysisEvent is the union of analysis.completed and analysis.failed payloads.
type AnalysisEvent struct {
	EventType       string  `json:"eventType"`
	AnalysisID      string  `json:"analysisId"`
	Purpose         string  `json:"purpose"`
	Timestamp       int64   `json:"timestamp"`
	WordCount       int     `json:"wordCount,omitempty"`
	DurationMinutes float64 `json:"durationMinutes,omitempty"`
	WPM             int     `json:"wpm,omitempty"`
	Pace            string  `json:"pace,omitempty"`
	Stage           string  `json:"stage,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// Failed reports whether the event describes a failed analysis.
func (e AnalysisEvent) Failed() bool {
	return e.EventType == "analysis.failed"
}

func decodeEvent(msg kafka.Message) (AnalysisEvent, error) {
	var event AnalysisEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return AnalysisEvent{}, err
	}
	if event.EventType == "" {
		for _, h := range msg.Headers {
			if h.Key == "eventType" {
				event.EventType = string(h.Value)
			}
		}
	}
	return event, nil
}

// client is one browser connection. Writes are serialized by the hub.
type client struct {
	conn *websocket.Conn
	send chan AnalysisEvent
}

// Hub fans events out to all connected browsers.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	recent  []AnalysisEvent
	keep    int
}

func newHub(keep int) *Hub {
	return &Hub{clients: make(map[*client]struct{}), keep: keep}
}

// add registers c and replays the most recent events to it.
func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	for _, e := range h.recent {
		select {
		case c.send <- e:
		default:
		}
	}
	log.Info().Int("clients", len(h.clients)).Msg("Client connected")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	log.Info().Int("clients", len(h.clients)).Msg("Client disconnected")
}

// Broadcast queues e for every client. Slow clients drop events.
func (h *Hub) Broadcast(e AnalysisEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, e)
	if len(h.recent) > h.keep {
		h.recent = h.recent[len(h.recent)-h.keep:]
	}
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			log.Warn().Str("analysisId", e.AnalysisID).Msg("Client too slow, dropping event")
		}
	}
}

// Recent returns a copy of the replay buffer.
func (h *Hub) Recent() []AnalysisEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]AnalysisEvent(nil), h.recent...)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dev tool
	},
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		c := &client{conn: conn, send: make(chan AnalysisEvent, 64)}
		hub.add(c)

		go func() {
			defer conn.Close()
			for e := range c.send {
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(e); err != nil {
					return
				}
			}
		}()

		// Reads only detect disconnects.
		go func() {
			defer hub.remove(c)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func consumeKafka(ctx context.Context, hub *Hub, brokers []string, topic string, since time.Duration) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-since)); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Could not rewind offset")
	}
	log.Info().Str("topic", topic).Dur("since", since).Msg("Consuming analysis events")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("topic", topic).Msg("Kafka read error")
			time.Sleep(time.Second)
			continue
		}

		event, err := decodeEvent(msg)
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Invalid event payload")
			continue
		}

		evt := log.Info()
		if event.Failed() {
			evt = log.Warn().Str("stage", event.Stage).Str("reason", event.Reason)
		}
		evt.Str("analysisId", event.AnalysisID).
			Str("purpose", event.Purpose).
			Int("wpm", event.WPM).
			Msg(event.EventType)
		hub.Broadcast(event)
	}
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicCompleted := flag.String("topic-completed", "speech.analysis.completed", "Completed analysis topic")
	topicFailed := flag.String("topic-failed", "speech.analysis.failed", "Failed analysis topic")
	since := flag.Duration("since", time.Hour, "Replay events newer than this")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	hub := newHub(50)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brokerList := strings.Split(*brokers, ",")
	go consumeKafka(ctx, hub, brokerList, *topicCompleted, *since)
	go consumeKafka(ctx, hub, brokerList, *topicFailed, *since)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("/ws", wsHandler(hub))

	srv := &http.Server{Addr: ":" + *port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("url", "http://localhost:"+*port).
		Strs("brokers", brokerList).
		Msg("Analysis Monitor starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Analysis Monitor</title>
<style>
body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse;width:100%}
td,th{border-bottom:1px solid #ddd;padding:.4em;text-align:left}
.failed{color:#b00}
</style></head>
<body>
<h1>Speech analyses</h1>
<table><thead><tr><th>Time</th><th>ID</th><th>Purpose</th><th>Outcome</th><th>WPM</th><th>Pace</th></tr></thead>
<tbody id="rows"></tbody></table>
<script>
const rows = document.getElementById("rows");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (m) => {
  const e = JSON.parse(m.data);
  const tr = document.createElement("tr");
  const failed = e.eventType === "analysis.failed";
  if (failed) tr.className = "failed";
  const outcome = failed ? "failed at " + e.stage + " (" + e.reason + ")" : "completed";
  [new Date(e.timestamp).toLocaleTimeString(), e.analysisId, e.purpose, outcome,
   failed ? "" : e.wpm, failed ? "" : e.pace].forEach((v) => {
    const td = document.createElement("td");
    td.textContent = v;
    tr.appendChild(td);
  });
  rows.prepend(tr);
};
</script>
</body>
</html>
`

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/accel_streamer/internal/accel"
	"github.com/relabs-tech/accel_streamer/internal/config"
	"github.com/relabs-tech/accel_streamer/internal/orientation"
)

var upgrader = websocket.Upgrader{
	// Dashboard is served from the same host; skip origin checks.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func RunWeb() error {
	cfg := config.Get()

	var (
		mu        sync.RWMutex
		lastBatch accel.Batch
		lastTilt  orientation.Tilt
		haveBatch bool
		haveTilt  bool
	)

	// Live stream subscribers. Each websocket client gets every batch
	// payload as it arrives from MQTT.
	var (
		clientsMu sync.Mutex
		clients   = make(map[*websocket.Conn]bool)
	)

	broadcast := func(payload []byte) {
		clientsMu.Lock()
		defer clientsMu.Unlock()
		for conn := range clients {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(clients, conn)
			}
		}
	}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to sample batches, keep the latest and fan out
	token := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var b accel.Batch
		if err := json.Unmarshal(msg.Payload(), &b); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastBatch = b
		haveBatch = true
		mu.Unlock()

		broadcast(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicSamples)

	tiltToken := client.Subscribe(cfg.TopicTilt, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var t orientation.Tilt
		if err := json.Unmarshal(msg.Payload(), &t); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastTilt = t
		haveTilt = true
		mu.Unlock()
	})
	tiltToken.Wait()
	if tiltToken.Error() != nil {
		return tiltToken.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicTilt)

	// 3) JSON API endpoints: latest batch and tilt
	http.HandleFunc("/api/samples", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveBatch {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastBatch); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/tilt", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveTilt {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastTilt); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 4) Websocket live stream of sample batches
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}

		clientsMu.Lock()
		clients[conn] = true
		clientsMu.Unlock()
		log.Printf("websocket client connected from %s", conn.RemoteAddr())

		// The client never sends application data; reading serves to
		// detect disconnects.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					clientsMu.Lock()
					delete(clients, conn)
					clientsMu.Unlock()
					conn.Close()
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is one connected reviewer. Verifiers receive events for their own
// department; admins receive everything.
type Client struct {
	UserID     uuid.UUID
	Role       string
	Department string
	Conn       *websocket.Conn
}

// PaperEvent is pushed whenever a paper is submitted or decided, so open
// review queues refresh without polling.
type PaperEvent struct {
	Type        string `json:"type"`
	SubjectCode string `json:"subject_code"`
	Semester    int    `json:"semester"`
	Department  string `json:"department"`
}

var clients = make(map[uuid.UUID]*Client)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var events = make(chan *PaperEvent, 64)

// NotifyPaperEvent never blocks the request path; if the hub is saturated
// the event is dropped and clients fall back to their next manual refresh.
func NotifyPaperEvent(ev *PaperEvent) {
	select {
	case events <- ev:
	default:
		log.Printf("Paper event dropped, hub saturated: %s %s/%d", ev.Type, ev.SubjectCode, ev.Semester)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Review feed client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Review feed client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if existing, ok := clients[client.UserID]; ok && existing.Conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case ev := <-events:
			broadcast(ev)
		}
	}
}

func broadcast(ev *PaperEvent) {
	clientsMu.RLock()
	var stale []uuid.UUID
	for id, client := range clients {
		if client.Role == "verifier" && client.Department != ev.Department {
			continue
		}
		if err := client.Conn.WriteJSON(ev); err != nil {
			log.Printf("Error sending paper event to client %s: %v", id, err)
			client.Conn.Close()
			stale = append(stale, id)
		}
	}
	clientsMu.RUnlock()

	if len(stale) > 0 {
		clientsMu.Lock()
		for _, id := range stale {
			delete(clients, id)
		}
		clientsMu.Unlock()
	}
}

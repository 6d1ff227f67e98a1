// Package sse provides Server-Sent Events client management for real-time communication.
package sse

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/rs/zerolog"
)

var sseLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	sseLogger = l
}

// Topics clients subscribe to.
const (
	// TopicSite carries reload requests for public pages.
	TopicSite = "site"
	// MsgReload asks the page to fetch itself again.
	MsgReload = "reload"
)

// AdminTopic is the topic of one admin session.
func AdminTopic(sessionID string) string {
	return "admin:" + sessionID
}

// Message is one event. Data must not contain newlines.
type Message struct {
	Event string
	Data  string
}

type Client struct {
	Msg   chan Message
	Topic string
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends msg to every client of topic. Clients that are not ready
// miss it.
func (s *SSEClients) Broadcast(topic string, msg Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Topic == topic {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}

// Serve streams the messages of topic to w until the request ends.
func (s *SSEClients) Serve(w http.ResponseWriter, r *http.Request, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	client := &Client{
		Msg:   make(chan Message, 4),
		Topic: topic,
	}
	s.Add(client)
	defer func() {
		s.Delete(client)
		sseLogger.Debug().Str("topic", topic).Msg("SSE client disconnected")
	}()
	sseLogger.Debug().Str("topic", topic).Msg("New SSE client connected")

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case msg, ok := <-client.Msg:
			if !ok {
				return
			}
			if msg.Event != "" {
				fmt.Fprintf(w, "event: %s\n", msg.Event)
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Data)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

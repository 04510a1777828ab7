// Package realtime pushes change events to browsers over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/olahol/melody"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/opsboard/internal/models"
)

const subscriptionKey = "collections"

// Hub tracks websocket listeners and the collections each one follows.
type Hub struct {
	m *melody.Melody
}

// subscribeMessage is what clients send to change their collection set.
type subscribeMessage struct {
	Subscribe []string `json:"subscribe"`
}

type subscribedReply struct {
	Subscribed []string `json:"subscribed"`
}

func NewHub() *Hub {
	h := &Hub{m: melody.New()}
	h.m.HandleConnect(func(s *melody.Session) {
		log.WithFields(log.Fields{
			"remote":      s.Request.RemoteAddr,
			"collections": subscriptions(s),
		}).Debug("stream listener connected")
	})
	h.m.HandleDisconnect(func(s *melody.Session) {
		log.WithField("remote", s.Request.RemoteAddr).Debug("stream listener disconnected")
	})
	h.m.HandleMessage(h.handleMessage)
	return h
}

// ServeHTTP upgrades the request. ?collections=a,b limits the listener to
// those collections; none means everything.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	keys := map[string]interface{}{
		subscriptionKey: parseCollections(strings.Split(r.URL.Query().Get("collections"), ",")),
	}
	if err := h.m.HandleRequestWithKeys(w, r, keys); err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
	}
}

func (h *Hub) handleMessage(s *melody.Session, msg []byte) {
	var req subscribeMessage
	if err := json.Unmarshal(msg, &req); err != nil {
		log.WithError(err).Debug("ignoring malformed stream message")
		return
	}
	set := parseCollections(req.Subscribe)
	s.Set(subscriptionKey, set)

	reply, _ := json.Marshal(subscribedReply{Subscribed: sortedKeys(set)})
	if err := s.Write(reply); err != nil {
		log.WithError(err).Debug("stream reply failed")
	}
}

// Publish sends ev to every listener following its collection.
func (h *Hub) Publish(_ context.Context, ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return h.m.BroadcastFilter(data, func(s *melody.Session) bool {
		set := subscriptions(s)
		return len(set) == 0 || set[ev.Collection]
	})
}

// Len is the number of connected listeners.
func (h *Hub) Len() int { return h.m.Len() }

// Close disconnects every listener.
func (h *Hub) Close() error { return h.m.Close() }

func subscriptions(s *melody.Session) map[string]bool {
	v, ok := s.Get(subscriptionKey)
	if !ok {
		return nil
	}
	set, _ := v.(map[string]bool)
	return set
}

func parseCollections(names []string) map[string]bool {
	set := make(map[string]bool)
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = true
		}
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/websocket"

	"github.com/havenchat/warden/event"
)

// RunConsumer subscribes to the gateway's event stream and feeds each
// context through the engine. The connection is re-dialed with backoff
// on failure; the cursor query parameter lets the gateway replay events
// we missed while disconnected.
func (s *Server) RunConsumer(ctx context.Context) error {
	backoff := time.Second
	for {
		err := s.consumeOnce(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("event stream disconnected, reconnecting", "err", err, "backoff", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > time.Minute {
			backoff = time.Minute
		}
	}
}

func (s *Server) consumeOnce(ctx context.Context) error {
	cur, err := s.ReadLastCursor(ctx)
	if err != nil {
		return err
	}

	u, err := url.Parse(s.gatewayURL)
	if err != nil {
		return fmt.Errorf("invalid gateway URI: %w", err)
	}
	u.Path = "/events"
	if cur != 0 {
		u.RawQuery = fmt.Sprintf("cursor=%d", cur)
	}
	s.logger.Info("subscribing to gateway event stream", "upstream", s.gatewayURL, "cursor", cur)
	con, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), http.Header{
		"User-Agent": []string{fmt.Sprintf("wardend/%s", versioninfo.Short())},
	})
	if err != nil {
		return fmt.Errorf("subscribing to event stream (dialing): %w", err)
	}
	defer func() { _ = con.Close() }()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := con.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading event stream: %w", err)
		}
		eventsReceived.Inc()

		var mc event.MatchContext
		if err := json.Unmarshal(raw, &mc); err != nil {
			// a malformed frame is the gateway's bug, not a reason to drop the stream
			s.logger.Error("malformed event frame", "err", err)
			eventsFailed.Inc()
			continue
		}

		if err := s.engine.ProcessEvent(ctx, &mc); err != nil {
			s.logger.Error("processing event failed", "event", mc.Key(), "err", err)
			eventsFailed.Inc()
			continue
		}
		ms := mc.At.UnixMilli()
		atomic.StoreInt64(&s.lastEventMS, ms)
		currentCursor.Set(float64(ms))
	}
}

package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/dkeye/relay/internal/metrics"
	"github.com/dkeye/relay/internal/protocol"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.ConnectionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := ctl.write(c, websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := ctl.write(c, websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) write(c *WsSignalConn, messageType int, data core.Frame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.ConnectionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Broker.Registry.OnDisconnect(sid)
		c.Close()
		ctl.active.Add(-1)
	}()

	ctl.prepareRead(c.conn)
	limiter := NewEventLimiter(ctl.opts.EventsPerSecond, ctl.opts.EventBurst)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			messageType, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			if messageType != websocket.TextMessage {
				ctl.drop(sid, metrics.ReasonMalformed, errors.New("non-text frame"))
				continue
			}
			if !limiter.Allow() {
				ctl.drop(sid, metrics.ReasonRateLimited, nil)
				continue
			}
			ctl.handleSignal(sid, data)
		}
	}
}

// handleSignal decodes one frame and hands it to the broker. Malformed frames
// stop here and never reach registry state.
func (ctl *SignalWSController) handleSignal(sid domain.ConnectionID, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		reason := metrics.ReasonMalformed
		if errors.Is(err, protocol.ErrUnknownEvent) {
			reason = metrics.ReasonUnknownEvent
		}
		ctl.drop(sid, reason, err)
		return
	}
	ctl.Broker.Dispatch(sid, msg)
}

func (ctl *SignalWSController) drop(sid domain.ConnectionID, reason string, err error) {
	ctl.Metrics.FrameDropped(reason)
	log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("reason", reason).Msg("frame dropped")
}

package signal

import (
	"time"

	"github.com/gorilla/websocket"
)

// prepareRead arms the read limit and the pong-driven read deadline. A peer
// that stops answering pings fails its next read and is disconnected.
func (ctl *SignalWSController) prepareRead(ws *websocket.Conn) {
	ws.SetReadLimit(ctl.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})
}

package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/html"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/render"
	"github.com/vango-dev/vbind/pkg/session"
)

// conn is one browser connection. Only the read loop touches the engine.
type conn struct {
	srv    *Server
	ws     *websocket.Conn
	logger *slog.Logger

	id     string
	engine *vbind.Engine
	mount  *html.Node

	writeMu  sync.Mutex
	closeMu  sync.Mutex
	closed   bool
	done     chan struct{}
	lastHTML string
	reported int
}

func newConn(s *Server, ws *websocket.Conn) *conn {
	return &conn{
		srv:    s,
		ws:     ws,
		logger: s.logger,
		done:   make(chan struct{}),
	}
}

// run sends the initial frames, then reads until the connection drops. The
// session is detached with a snapshot of the model on the way out.
func (c *conn) run() {
	c.logger = c.logger.With("session_id", c.id)
	defer c.finish()

	cfg := c.srv.config
	c.ws.SetReadLimit(cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})
	go c.heartbeat()

	c.reported = c.engine.ErrorCount()
	if err := c.send(Outbound{Type: FrameSession, Session: c.id}); err != nil {
		return
	}
	if err := c.render(true); err != nil {
		return
	}

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		c.srv.manager.Touch(c.id)

		var in Inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			c.logger.Warn("frame decode error", "error", err)
			if c.sendError("E423", "invalid frame") != nil {
				return
			}
			continue
		}
		if err := c.handle(in); err != nil {
			return
		}
	}
}

func (c *conn) handle(in Inbound) error {
	switch in.Type {
	case FramePing:
		return c.send(Outbound{Type: FramePong})
	case FrameEvent:
		return c.handleEvent(in)
	default:
		c.logger.Warn("unknown frame type", "type", in.Type)
		return nil
	}
}

func (c *conn) handleEvent(in Inbound) error {
	target := c.engine.Events().Lookup(in.Target)
	if target == nil || in.Event == "" {
		if err := c.sendError("E422", "unknown target "+in.Target); err != nil {
			return err
		}
		return c.render(true)
	}

	applyControlState(target, in)
	c.engine.Dispatch(target, &dom.Event{Type: in.Event, Data: in.Data})

	if fresh := c.engine.ErrorCount() - c.reported; fresh > 0 {
		errs := c.engine.Errors()
		if fresh > len(errs) {
			fresh = len(errs)
		}
		for _, e := range errs[len(errs)-fresh:] {
			if err := c.sendError(e.Code, e.Error()); err != nil {
				return err
			}
		}
		c.reported = c.engine.ErrorCount()
	}
	return c.render(false)
}

// render sends the mount node's children. Unless force is set, nothing is
// sent when the markup did not change since the last render.
func (c *conn) render(force bool) error {
	ev := c.engine.Events()
	r := render.NewRenderer(render.RendererConfig{
		IDs: func(n *html.Node) string {
			if ev.Interactive(n) {
				return ev.ID(n)
			}
			return ""
		},
	})
	markup, err := r.InnerHTML(c.mount)
	if err != nil {
		c.logger.Error("render failed", "error", err)
		return c.sendError("E400", err.Error())
	}
	if !force && markup == c.lastHTML {
		return nil
	}
	c.lastHTML = markup
	return c.send(Outbound{Type: FrameRender, Root: c.srv.config.Mount, HTML: markup})
}

func (c *conn) send(out Outbound) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.srv.config.WriteTimeout))
	if err := c.ws.WriteJSON(out); err != nil {
		c.logger.Debug("write failed", "type", out.Type, "error", err)
		return err
	}
	return nil
}

func (c *conn) sendError(code, message string) error {
	return c.send(Outbound{Type: FrameError, Code: code, Message: message})
}

func (c *conn) heartbeat() {
	ticker := time.NewTicker(c.srv.config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.srv.config.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

// close sends a close frame and closes the socket. Safe to call more than
// once and from any goroutine.
func (c *conn) close(code int, reason string) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)
	c.ws.Close()
}

func (c *conn) finish() {
	close(c.done)
	c.close(websocket.CloseNormalClosure, "")

	snap := session.NewSnapshot(c.id, c.engine.Model().ToPlain())
	data, err := snap.Encode()
	if err != nil {
		c.logger.Warn("snapshot failed", "error", err)
		data = nil
	}
	c.srv.manager.Detach(c.id, data)
	c.engine.Destroy()
	c.logger.Debug("connection closed", "dropped", snap.Dropped)
}

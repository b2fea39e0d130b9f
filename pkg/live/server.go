package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/net/html"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/render"
	"github.com/vango-dev/vbind/pkg/session"
)

// Paths served by the live server.
const (
	ClientPath = "/_vbind/client.js"
	LivePath   = "/_vbind/live"
)

// Server serves a bound template to browsers. Each WebSocket connection
// owns one engine; events from the browser are dispatched to it and the
// mount node is sent back whenever its markup changes.
type Server struct {
	config    Config
	manager   *session.Manager
	store     session.Store
	ownsStore bool
	upgrader  websocket.Upgrader
	router    chi.Router
	logger    *slog.Logger

	mu         sync.Mutex
	conns      map[*conn]struct{}
	httpServer *http.Server
	closed     bool
	wg         sync.WaitGroup
}

// New creates a Server. The template must contain the mount node.
func New(cfg Config) (*Server, error) {
	cfg.withDefaults()
	if cfg.Template == nil {
		return nil, errors.New("E420").WithDetail("no template")
	}
	if mountNode(cfg.Template, cfg.Mount) == nil {
		return nil, errors.New("E420").WithNode(mountLabel(cfg.Mount))
	}

	store := cfg.Store
	owns := false
	if store == nil {
		store = session.NewMemoryStore()
		owns = true
	}

	s := &Server{
		config:    cfg,
		store:     store,
		ownsStore: owns,
		manager:   session.NewManager(store, cfg.Sessions, cfg.Recorder, cfg.Logger),
		logger:    cfg.Logger.With("component", "live"),
		conns:     make(map[*conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     cfg.CheckOrigin,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	r.Get("/", s.servePage)
	r.Get(ClientPath, s.serveClient)
	r.Head(ClientPath, s.serveClient)
	r.Get(LivePath, s.serveLive)
	if s.config.Metrics != nil {
		r.Handle("/metrics", s.config.Metrics)
	}
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.manager
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every connection, saving their sessions, then stops the
// HTTP server and the session manager.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.httpServer
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var firstErr error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			firstErr = err
		}
	}
	for _, c := range conns {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if firstErr == nil {
			firstErr = ctx.Err()
		}
	}

	if err := s.manager.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.logger.Info("server shutdown complete")
	return firstErr
}

// servePage renders the template bound to a fresh model. The markup carries
// no node ids; the connection sends an addressable render once it opens.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	model, err := s.config.Model()
	if err != nil {
		s.logger.Error("model failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	doc := dom.Clone(s.config.Template)
	engine, err := s.newEngine(doc, model)
	if err != nil {
		s.logger.Error("mount failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer engine.Destroy()

	page := pageData(doc, s.config.Title)
	page.SessionID = newSessionID()
	page.ClientScript = ClientPath
	if s.config.Mount != "" {
		page.Scripts = append(page.Scripts, render.ScriptTag{
			Inline: fmt.Sprintf("window.__VBIND_ROOT__=%q", s.config.Mount),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	sr := render.NewStreamingRenderer(w, render.RendererConfig{})
	if err := sr.RenderPage(page); err != nil {
		s.logger.Warn("page write failed", "error", err)
	}
}

func (s *Server) serveLive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "error", err)
		return
	}

	c := newConn(s, ws)
	ip := s.clientIP(r)
	id, model, err := s.openSession(r.Context(), r.URL.Query().Get("session"), ip)
	if err != nil {
		s.logger.Warn("session rejected", "ip", ip, "error", err)
		c.sendError("E421", err.Error())
		c.close(websocket.ClosePolicyViolation, "session rejected")
		return
	}

	doc := dom.Clone(s.config.Template)
	engine, err := s.newEngine(doc, model)
	if err != nil {
		s.manager.Remove(id)
		c.sendError(codeOf(err), err.Error())
		c.close(websocket.CloseInternalServerErr, "mount failed")
		return
	}

	if !s.track(c) {
		engine.Destroy()
		s.manager.Remove(id)
		c.close(websocket.CloseGoingAway, "server shutting down")
		return
	}
	c.id = id
	c.engine = engine
	c.mount = mountNode(doc, s.config.Mount)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.untrack(c)
		c.run()
	}()
}

// openSession resolves the session for a connection. A known detached
// session is resumed with its snapshot laid over a fresh model. Unknown or
// expired ids start fresh under the same id; ids already in use get a new
// one.
func (s *Server) openSession(ctx context.Context, id, ip string) (string, map[string]any, error) {
	model, err := s.config.Model()
	if err != nil {
		return "", nil, err
	}
	if !validSessionID(id) {
		id = newSessionID()
	} else {
		data, err := s.manager.Resume(ctx, id, ip)
		switch {
		case err == nil:
			snap, derr := session.DecodeSnapshot(data)
			if derr != nil {
				s.logger.Warn("snapshot discarded", "session_id", id, "error", derr)
				return id, model, nil
			}
			for k, v := range snap.Model {
				model[k] = v
			}
			s.logger.Debug("session resumed", "session_id", id, "dropped", snap.Dropped)
			return id, model, nil
		case stderrors.Is(err, session.ErrAttached):
			id = newSessionID()
		case stderrors.Is(err, session.ErrNotFound), stderrors.Is(err, session.ErrExpired):
		default:
			return "", nil, err
		}
	}
	if _, err := s.manager.Attach(id, ip); err != nil {
		return "", nil, err
	}
	return id, model, nil
}

func (s *Server) newEngine(doc *html.Node, model map[string]any) (*vbind.Engine, error) {
	root := mountNode(doc, s.config.Mount)
	if root == nil {
		return nil, errors.New("E420").WithNode(mountLabel(s.config.Mount))
	}
	obj := reactive.ObjectFrom(model)
	methods := make(map[string]any, len(s.config.Methods))
	for name, h := range s.config.Methods {
		methods[name] = h
	}
	if s.config.SessionMethods != nil {
		for name, h := range s.config.SessionMethods(obj) {
			methods[name] = h
		}
	}
	opts := []vbind.Option{
		vbind.WithMethods(methods),
		vbind.WithRecorder(s.config.Recorder),
		vbind.WithLogger(s.config.Logger),
	}
	if len(s.config.IgnorePrefixes) > 0 {
		opts = append(opts, vbind.WithIgnorePrefixes(s.config.IgnorePrefixes...))
	}
	if s.config.Tracer != nil {
		opts = append(opts, vbind.WithTracer(s.config.Tracer))
	}
	return vbind.New(root, obj, opts...)
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// clientIP returns the address used for per-IP limits. middleware.RealIP
// has already rewritten RemoteAddr when proxies are trusted.
func (s *Server) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// mountNode returns the element with the given id, or the body when id is
// empty.
func mountNode(doc *html.Node, id string) *html.Node {
	if id != "" {
		return dom.FindByID(doc, id)
	}
	var body *html.Node
	dom.Walk(doc, func(n *html.Node) bool {
		if body != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return false
		}
		return true
	})
	return body
}

func mountLabel(id string) string {
	if id == "" {
		return "body"
	}
	return "#" + id
}

// newSessionID generates a cryptographically random session ID.
func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

func validSessionID(id string) bool {
	if len(id) != 32 {
		return false
	}
	return strings.Trim(id, "0123456789abcdef") == ""
}

func codeOf(err error) string {
	var ve *errors.VangoError
	if stderrors.As(err, &ve) {
		return ve.Code
	}
	return "E400"
}

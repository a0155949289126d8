// Package webservice exposes the mirroring controller over HTTP: a JSON
// API for the session lifecycle and a websocket carrying WebRTC signaling,
// input events and session feedback.
package webservice

import (
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mirrorctl/decoder/webrtcsink"
	"mirrorctl/session"
)

type WebMaster struct {
	Controller *session.Controller

	mu      sync.Mutex
	wsConns map[*websocket.Conn]struct{}
}

func NewWebMaster(cfg Config) (*WebMaster, error) {
	wm := &WebMaster{wsConns: make(map[*websocket.Conn]struct{})}

	wm.Controller = session.New(
		session.ADBTransport{},
		cfg.fetcher(),
		session.ADBDeployer{},
		session.Callbacks{
			OnStateChange: func(s session.State) {
				wm.broadcast(gin.H{"event": "state", "state": s.String()})
			},
			OnLog: func(level, message string) {
				wm.broadcast(gin.H{"event": "log", "level": level, "message": message})
			},
			OnError: func(err error) {
				log.Println("session error:", err)
				wm.broadcast(gin.H{"event": "error", "message": err.Error()})
			},
			OnEncoderFallback: func(requested, effective string) {
				wm.broadcast(gin.H{"event": "encoder_fallback", "requested": requested, "effective": effective})
			},
			OnGeometry: func(width, height uint32) {
				wm.broadcast(gin.H{"event": "geometry", "width": width, "height": height})
			},
			OnClipboard: func(text string) {
				wm.broadcast(gin.H{"event": "clipboard", "text": text})
			},
			OnClosed: func(reason string) {
				wm.broadcast(gin.H{"event": "closed", "reason": reason})
			},
		},
	)

	factory := &webrtcsink.Factory{
		OnKeyFrameRequest: func() {
			// Viewers asked for a keyframe via PLI. The stream source decides
			// its own IDR cadence; surface the request for diagnosis.
			log.Println("viewer requested keyframe")
		},
	}
	if err := wm.Controller.SetDecoderFactory(factory); err != nil {
		return nil, err
	}
	if err := wm.Controller.Configure(cfg.sessionConfig()); err != nil {
		return nil, err
	}
	return wm, nil
}

func (wm *WebMaster) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.POST("/session/start", wm.handleStart)
	api.POST("/session/stop", wm.handleStop)
	api.GET("/session/state", wm.handleState)
	api.GET("/session/progress", wm.handleProgress)

	r.GET("/ws", wm.handleScreenWS)
	r.GET("/", handleConsole)
	return r
}

func (wm *WebMaster) Run(addr string) error {
	return wm.Router().Run(addr)
}

func (wm *WebMaster) addConn(conn *websocket.Conn) {
	wm.mu.Lock()
	wm.wsConns[conn] = struct{}{}
	wm.mu.Unlock()
}

func (wm *WebMaster) removeConn(conn *websocket.Conn) {
	wm.mu.Lock()
	delete(wm.wsConns, conn)
	wm.mu.Unlock()
	conn.Close()
}

// broadcast fans an event out to every websocket client. Writes are
// serialized under the same lock that guards membership; a failed write
// drops the connection.
func (wm *WebMaster) broadcast(payload gin.H) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	for conn := range wm.wsConns {
		if err := conn.WriteJSON(payload); err != nil {
			log.Println("websocket write failed, dropping client:", err)
			conn.Close()
			delete(wm.wsConns, conn)
		}
	}
}

// reply writes to a single client under the broadcast lock so concurrent
// event fan-out never interleaves with it.
func (wm *WebMaster) reply(conn *websocket.Conn, payload gin.H) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	return conn.WriteJSON(payload)
}

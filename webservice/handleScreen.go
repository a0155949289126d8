package webservice

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mirrorctl/decoder/webrtcsink"
	"mirrorctl/input"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// offerMessage is the first frame a client sends after connecting: its
// WebRTC offer.
type offerMessage struct {
	SDP string `json:"sdp"`
}

// /ws
func (wm *WebMaster) handleScreenWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Failed to upgrade to websocket:", err)
		return
	}

	var offer offerMessage
	if err := conn.ReadJSON(&offer); err != nil {
		log.Println("Failed to read connection offer:", err)
		conn.WriteJSON(gin.H{"status": "error", "message": err.Error(), "stage": "webrtc_init"})
		conn.Close()
		return
	}

	surface, ok := wm.Controller.DecoderSurface().(*webrtcsink.TrackSurface)
	if !ok {
		conn.WriteJSON(gin.H{"status": "error", "message": "no webrtc surface available", "stage": "webrtc_init"})
		conn.Close()
		return
	}

	answer, err := surface.Answer(offer.SDP)
	if err != nil {
		log.Println("Failed to negotiate webrtc connection:", err)
		conn.WriteJSON(gin.H{"status": "error", "message": err.Error(), "stage": "webrtc_init"})
		conn.Close()
		return
	}
	if err := conn.WriteJSON(gin.H{"status": "ok", "sdp": answer, "stage": "webrtc_init"}); err != nil {
		conn.Close()
		return
	}

	wm.addConn(conn)
	log.Println("New websocket client connected")

	// Current snapshot so late joiners do not wait for the next transition.
	snapshot := gin.H{"event": "state", "state": wm.Controller.State().String()}
	if w, h, ok := wm.Controller.StreamSize(); ok {
		snapshot["stream_width"] = w
		snapshot["stream_height"] = h
	}
	wm.reply(conn, snapshot)

	go wm.listenScreenWS(conn)
}

// listenScreenWS consumes input messages from one client until the
// connection drops. Each connection gets its own contact tracker so two
// viewers never interleave pointer state.
func (wm *WebMaster) listenScreenWS(conn *websocket.Conn) {
	defer wm.removeConn(conn)

	contacts := input.NewContacts()
	for {
		var msg inputMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("WebSocket read error:", err)
			}
			return
		}
		if err := wm.dispatchInput(contacts, msg); err != nil {
			log.Println("Failed to inject input:", err)
		}
	}
}

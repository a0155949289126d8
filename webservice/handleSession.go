package webservice

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mirrorctl/progress"
	"mirrorctl/session"
)

func handleConsole(c *gin.Context) {
	http.ServeFile(c.Writer, c.Request, "./public/console.html")
}

func (wm *WebMaster) handleStart(c *gin.Context) {
	// The session must outlive this request.
	if err := wm.Controller.Start(context.Background()); err != nil {
		c.JSON(startErrorStatus(err), gin.H{"error": err.Error(), "kind": errorKind(err)})
		return
	}
	c.JSON(200, gin.H{
		"status":  "started",
		"encoder": wm.Controller.EffectiveEncoder(),
	})
}

func (wm *WebMaster) handleStop(c *gin.Context) {
	if err := wm.Controller.Stop(); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "stopped"})
}

func (wm *WebMaster) handleState(c *gin.Context) {
	resp := gin.H{"state": wm.Controller.State().String()}
	if enc := wm.Controller.EffectiveEncoder(); enc != "" {
		resp["encoder"] = enc
	}
	if w, h, ok := wm.Controller.StreamSize(); ok {
		resp["stream_width"] = w
		resp["stream_height"] = h
	}
	c.JSON(200, resp)
}

func (wm *WebMaster) handleProgress(c *gin.Context) {
	c.JSON(200, gin.H{
		"download": progressJSON(wm.Controller.DownloadProgress()),
		"upload":   progressJSON(wm.Controller.UploadProgress()),
	})
}

func progressJSON(s progress.Snapshot) gin.H {
	return gin.H{
		"transferred": s.Debounced,
		"total":       s.Total,
		"speed":       s.Speed,
		"done":        s.Done(),
	}
}

func startErrorStatus(err error) int {
	var invalid *session.InvalidStateError
	if errors.As(err, &invalid) {
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func errorKind(err error) string {
	var (
		invalid *session.InvalidStateError
		deploy  *session.DeploymentError
		nego    *session.NegotiationError
		dec     *session.DecoderUnavailableError
		proto   *session.ProtocolError
	)
	switch {
	case errors.As(err, &invalid):
		return "invalid_state"
	case errors.As(err, &deploy):
		return "deployment"
	case errors.As(err, &nego):
		return "negotiation"
	case errors.As(err, &dec):
		return "decoder_unavailable"
	case errors.As(err, &proto):
		return "protocol"
	default:
		return "internal"
	}
}

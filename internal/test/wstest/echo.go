// Package wstest provides a real WebSocket echo server and a reader for the
// server frames a Client hands to Hooks.Received.
package wstest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nhooyr.io/wsclient/internal/errd"
)

// Echo upgrades the request with gorilla/websocket and echoes every message
// until the client goes away. gorilla rejects unmasked client frames so a
// successful echo also proves the client masked them.
func Echo(w http.ResponseWriter, r *http.Request) (err error) {
	defer errd.Wrap(&err, "echo server failed")

	var up websocket.Upgrader
	c, err := up.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	for {
		typ, p, err := c.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return nil
			}
			return err
		}
		err = c.WriteMessage(typ, p)
		if err != nil {
			return err
		}
	}
}

// NewServer starts a gin server with the echo handler on /echo and a
// handler on /status/:code that answers every request with that status.
// The returned URL is the ws:// URL of /echo.
func NewServer() (*httptest.Server, string) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/echo", func(ginCtx *gin.Context) {
		// The client closes the TCP connection without a close frame,
		// so the error is expected once a test finishes.
		_ = Echo(ginCtx.Writer, ginCtx.Request)
	})
	r.GET("/status/:code", func(ginCtx *gin.Context) {
		code := http.StatusNotFound
		if ginCtx.Param("code") == "400" {
			code = http.StatusBadRequest
		}
		ginCtx.String(code, http.StatusText(code))
	})

	s := httptest.NewServer(r)
	return s, URL(s) + "/echo"
}

// URL returns the ws:// URL of s.
func URL(s *httptest.Server) string {
	return strings.Replace(s.URL, "http", "ws", 1)
}

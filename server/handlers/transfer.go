package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/filegate/filegate/gateway"
)

const wsChunkSize = 64 * 1024

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  wsChunkSize,
	WriteBufferSize: wsChunkSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Transfer handles websocket file transfers on /api/transfer. Query param
// mode=download|upload controls direction; path addresses the file for
// download, path plus name the destination for upload. Both directions go
// through the gateway's dispatch, so authorization and the error taxonomy
// apply unchanged.
func Transfer(gw *gateway.Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		mode := strings.ToLower(strings.TrimSpace(q.Get("mode")))
		if mode == "" {
			mode = "download"
		}
		if mode != "download" && mode != "upload" {
			http.Error(w, "mode must be one of: download, upload", http.StatusBadRequest)
			return
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("Failed to upgrade websocket", zap.Error(err))
			return
		}
		defer conn.Close()

		switch mode {
		case "download":
			resp := gw.Handle(r.Context(), &gateway.Request{
				Verb:       http.MethodGet,
				Op:         "download",
				Token:      transferToken(r),
				AdapterKey: q.Get("adapter"),
				Address:    q.Get("path"),
			})
			if resp.Stream == nil {
				closeWith(conn, websocket.ClosePolicyViolation, "download refused")
				return
			}
			defer resp.Stream.Close()

			buf := make([]byte, wsChunkSize)
			for {
				n, readErr := resp.Stream.Read(buf)
				if n > 0 {
					if err := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
						logger.Warn("Failed writing websocket download chunk", zap.Error(err))
						return
					}
				}
				if readErr != nil {
					closeWith(conn, websocket.CloseNormalClosure, "download complete")
					return
				}
			}

		case "upload":
			var payload bytes.Buffer
			for {
				messageType, data, readErr := conn.ReadMessage()
				if readErr != nil {
					if websocket.IsCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						break
					}
					logger.Warn("Failed reading websocket upload message", zap.Error(readErr))
					return
				}
				if messageType != websocket.BinaryMessage {
					continue
				}
				payload.Write(data)
			}

			size := int64(payload.Len())
			resp := gw.Handle(r.Context(), &gateway.Request{
				Verb:       http.MethodPost,
				Op:         "upload",
				Token:      transferToken(r),
				AdapterKey: q.Get("adapter"),
				Address:    q.Get("path"),
				Upload:     bytes.NewReader(payload.Bytes()),
				UploadName: q.Get("name"),
			})
			if resp.Status != http.StatusOK {
				closeWith(conn, websocket.ClosePolicyViolation, "upload refused")
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("ok:%d", size))); err != nil {
				logger.Warn("Failed writing websocket upload ack", zap.Error(err))
			}
			closeWith(conn, websocket.CloseNormalClosure, "upload complete")
		}
	}
}

// transferToken accepts the credential from the Authorization header or the
// token query parameter. Browser WebSocket clients cannot set request
// headers, so the query form is the only option for them here.
func transferToken(r *http.Request) string {
	if t := bearerToken(r); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(5*time.Second))
}

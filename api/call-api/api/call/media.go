package call_api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	internal_audio "github.com/vocalisai/api/call-api/internal/audio"
	internal_pipeline "github.com/vocalisai/api/call-api/internal/pipeline"
	"github.com/vocalisai/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Media sockets are dialed by telephony bridges, not browsers.
		return true
	},
}

// mediaCommand is a text frame on the media socket. Binary frames carry
// audio; text frames carry control.
type mediaCommand struct {
	Event string `json:"event"`
}

// mediaTurnReply is sent when a turn settles without audio to play, and
// as interim transcript events on the streaming transport.
type mediaTurnReply struct {
	Event         string `json:"event"`
	Transcription string `json:"transcription,omitempty"`
	FallbackText  string `json:"fallbackText,omitempty"`
	Error         string `json:"error,omitempty"`
}

// mediaWriter serializes websocket writes. On the streaming transport
// interim transcripts arrive from the live-transcription goroutine while
// the read loop owns the socket; gorilla permits one writer at a time.
type mediaWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *mediaWriter) JSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *mediaWriter) Binary(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.BinaryMessage, b)
}

// Media is the call's audio channel: the bridge streams caller audio as
// binary frames and flushes a turn with {"event":"turn"}; the reply
// audio comes back as one binary frame. With ?transport=stream the
// caller audio is fed straight into the live transcription channel and
// interim transcripts come back as transcript events while the caller
// is still speaking. Closing the socket ends the call; an in-flight
// turn is not aborted, it settles on its own before the session goes
// terminal.
func (api *CallApi) Media(c *gin.Context) {
	sessionID := c.Param("sessionId")

	cs, err := api.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if cs.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "call session already ended"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Errorf("call-api: media upgrade failed for session %s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	// Telephony bridges commonly hand over 8kHz mu-law; the pipeline
	// runs on linear16.
	mulaw := c.Query("codec") == "mulaw"
	streaming := c.Query("transport") == "stream"

	api.logger.Infof("media socket connected: sessionId=%s, mulaw=%v, streaming=%v", sessionID, mulaw, streaming)

	writer := &mediaWriter{conn: conn}
	if streaming {
		api.streamingMediaLoop(c, conn, writer, sessionID, mulaw)
	} else {
		api.bufferedMediaLoop(c, conn, writer, sessionID, mulaw)
	}

	// Socket gone or the bridge asked to stop. EndCall is idempotent, so
	// finalizing after an explicit stop is a clean no-op.
	if err := api.manager.EndCall(c.Request.Context(), sessionID); err != nil {
		api.logger.Errorf("call-api: failed to end call after media close for %s: %v", sessionID, err)
	}
}

// bufferedMediaLoop accumulates binary frames until the bridge flushes
// the utterance with {"event":"turn"}, then drives one buffered turn.
func (api *CallApi) bufferedMediaLoop(c *gin.Context, conn *websocket.Conn, writer *mediaWriter, sessionID string, mulaw bool) {
	var buffer []byte
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			api.logger.Debugf("media socket closed: sessionId=%s, err=%v", sessionID, err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if mulaw {
				payload = internal_audio.MuLawToLinear16(payload)
			}
			buffer = append(buffer, payload...)

		case websocket.TextMessage:
			var cmd mediaCommand
			if jerr := json.Unmarshal(payload, &cmd); jerr != nil {
				api.logger.Warnf("media socket: malformed control frame for session %s", sessionID)
				continue
			}

			switch cmd.Event {
			case "turn":
				audio := buffer
				buffer = nil
				cs, err := api.store.Get(c.Request.Context(), sessionID)
				if err != nil || cs.IsTerminal() {
					return
				}
				result := api.orchestrator.ProcessTurn(c.Request.Context(), cs, audio, utils.Option{})
				if !api.writeTurnOutcome(writer, result) {
					return
				}
			case "stop":
				return
			default:
				api.logger.Debugf("media socket: ignoring control event %q for session %s", cmd.Event, sessionID)
			}
		}
	}
}

// streamingMediaLoop runs one live turn per utterance: binary frames are
// piped into ProcessStreamingTurn as they arrive, interim transcripts
// flow back as transcript events, and {"event":"turn"} flushes the
// utterance so the vendor settles the final transcript.
func (api *CallApi) streamingMediaLoop(c *gin.Context, conn *websocket.Conn, writer *mediaWriter, sessionID string, mulaw bool) {
	for {
		cs, err := api.store.Get(c.Request.Context(), sessionID)
		if err != nil || cs.IsTerminal() {
			return
		}

		pr, pw := io.Pipe()
		resultCh := make(chan *internal_pipeline.TurnResult, 1)
		go func() {
			result := api.orchestrator.ProcessStreamingTurn(c.Request.Context(), cs, pr, utils.Option{}, func(text string) {
				if werr := writer.JSON(mediaTurnReply{Event: "transcript", Transcription: text}); werr != nil {
					api.logger.Debugf("media socket: interim write failed for session %s: %v", sessionID, werr)
				}
			})
			// Unblock any frame write still pending against this turn.
			pr.Close()
			resultCh <- result
		}()

		var result *internal_pipeline.TurnResult
		for result == nil {
			messageType, payload, rerr := conn.ReadMessage()
			if rerr != nil {
				api.logger.Debugf("media socket closed: sessionId=%s, err=%v", sessionID, rerr)
				pw.Close()
				<-resultCh
				return
			}

			switch messageType {
			case websocket.BinaryMessage:
				if mulaw {
					payload = internal_audio.MuLawToLinear16(payload)
				}
				if _, werr := pw.Write(payload); werr != nil {
					// The turn settled on its own (a stage failed);
					// stop feeding it and report the outcome.
					result = <-resultCh
				}

			case websocket.TextMessage:
				var cmd mediaCommand
				if jerr := json.Unmarshal(payload, &cmd); jerr != nil {
					api.logger.Warnf("media socket: malformed control frame for session %s", sessionID)
					continue
				}

				switch cmd.Event {
				case "turn":
					pw.Close()
					result = <-resultCh
				case "stop":
					pw.Close()
					<-resultCh
					return
				default:
					api.logger.Debugf("media socket: ignoring control event %q for session %s", cmd.Event, sessionID)
				}
			}
		}

		if !api.writeTurnOutcome(writer, result) {
			return
		}
	}
}

// writeTurnOutcome relays a settled turn to the bridge. Returns false
// when the socket should be torn down.
func (api *CallApi) writeTurnOutcome(writer *mediaWriter, result *internal_pipeline.TurnResult) bool {
	if !result.Success {
		reply := mediaTurnReply{
			Event:        "turn_failed",
			FallbackText: result.FallbackText,
		}
		if result.Err != nil {
			reply.Error = result.Err.Error()
		}
		return writer.JSON(reply) == nil
	}

	if len(result.AudioResponse) == 0 {
		// Nothing intelligible this turn; tell the bridge to keep
		// streaming.
		return writer.JSON(mediaTurnReply{Event: "turn_empty", Transcription: result.Transcription}) == nil
	}

	return writer.Binary(result.AudioResponse) == nil
}

package terminal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/retrobasic/pkg/basic"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/screen"
	"github.com/antibyte/retrobasic/pkg/shared"
)

const promptSymbol = "]"

// clientMessage is what the browser sends us: currently only key events.
type clientMessage struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// Session ties one WebSocket connection to a screen and an interpreter.
// The interpreter runs on the REPL goroutine only; key events arrive on
// the read pump and are handed to the screen, which is safe to share.
type Session struct {
	id      string
	handler *TerminalHandler
	conn    *websocket.Conn
	send    chan []byte
	ctx     context.Context
	cancel  context.CancelFunc

	screen *screen.Screen
	interp *basic.Interpreter
}

func newSession(h *TerminalHandler, id string, conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      id,
		handler: h,
		conn:    conn,
		send:    make(chan []byte, getMaxChannelBuffer()),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.screen = screen.New(ScreenRows(), ScreenCols())
	s.screen.SetOnUpdate(s.pushScreen)
	s.interp = basic.New(basic.Options{
		SessionID: id,
		Store:     h.store,
		Sink:      s.screen,
	})
	return s
}

// start runs the pumps and the REPL. It blocks until the connection dies.
func (s *Session) start() {
	go s.writePump()
	go s.repl()
	s.readPump()
}

// close tears the session down. Safe to call more than once.
func (s *Session) close() {
	s.cancel()
	s.conn.Close()
}

// repl is the interactive loop: banner, prompt, read a line, execute it.
func (s *Session) repl() {
	defer s.close()

	s.sendMessage(&shared.Message{
		Type:      shared.MessageTypeSession,
		SessionID: s.id,
	})

	s.screen.PrintLine("RETROBASIC 1.0")
	s.screen.PrintLine("READY.")

	for {
		line, err := s.screen.Input(s.ctx, promptSymbol)
		if err != nil {
			// Context cancelled: the connection is gone.
			return
		}
		s.interp.ExecuteImmediate(s.ctx, line)
	}
}

// pushScreen marshals the current screen state and queues it for the
// client. Called by the screen after every visible change.
func (s *Session) pushScreen() {
	rows, curRow, curCol, inputMode := s.screen.Snapshot()
	s.sendMessage(&shared.Message{
		Type:      shared.MessageTypeScreen,
		Rows:      rows,
		CursorRow: curRow,
		CursorCol: curCol,
		InputMode: inputMode,
	})
}

func (s *Session) sendMessage(msg *shared.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.WebSocketError("Session %s: marshal failed: %v", s.id, err)
		return
	}
	select {
	case s.send <- data:
	default:
		// Client cannot keep up; drop the frame. The next screen
		// update carries the full state anyway.
		logger.WebSocketWarn("Session %s: send buffer full, frame dropped", s.id)
	}
}

// readPump reads key events from the client until the connection closes.
func (s *Session) readPump() {
	defer func() {
		s.close()
		s.handler.removeSession(s)
	}()

	s.conn.SetReadLimit(getMaxMessageSize())
	s.conn.SetReadDeadline(time.Now().Add(getPongWait()))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(getPongWait()))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WebSocketWarn("Session %s: read error: %v", s.id, err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.WebSocketWarn("Session %s: bad client message: %v", s.id, err)
			continue
		}

		switch msg.Type {
		case "key":
			s.screen.Key(msg.Key)
		default:
			logger.WebSocketDebug("Session %s: unknown message type %q", s.id, msg.Type)
		}
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

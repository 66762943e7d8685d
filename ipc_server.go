// ipc_server.go - the Unix-domain-socket server side of the IPC protocol,
// adapted from the teacher's runtime_ipc.go accept-loop/stale-socket
// structure (newIPCServerAt, Start/Stop/acceptLoop/handleConn,
// SetDeadline) with the JSON single-request-response exchange replaced by
// a long-lived, multi-message connection running the binary framing from
// ipc_protocol.go.

package phonon

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// GraphHandlers are the callbacks the IPC server dispatches decoded
// messages to. UpdateGraph is coalesced: if several arrive before the
// engine's consumer drains the last one, only the most recent survives -
// stale DSL source from two edits ago is never worth compiling.
type GraphHandlers struct {
	OnUpdateGraph func(code string)
	OnSetTempo    func(cps float64)
	OnHush        func()
	OnPanic       func()
	OnShutdown    func()
}

const ipcConnDeadline = 30 * time.Second

// IPCServer accepts one or more client connections on a Unix socket and
// dispatches decoded messages to the configured handlers. Unlike the
// teacher's single-shot request/response, a connection here stays open
// and carries a stream of messages until the client disconnects.
type IPCServer struct {
	listener net.Listener
	handlers GraphHandlers
	sockPath string
	done     chan struct{}

	pendingGraph chan string // capacity 1: coalescing mailbox for UpdateGraph
	readyOnce    sync.Once
}

// NewIPCServer binds the default socket path (XDG_RUNTIME_DIR or /tmp).
func NewIPCServer(handlers GraphHandlers) (*IPCServer, error) {
	return NewIPCServerAt(resolveSocketPath(), handlers)
}

// NewIPCServerAt binds sockPath, recovering from a stale socket left
// behind by a crashed previous instance exactly as the teacher's
// newIPCServerAt does: dial first, and only remove+relisten if the dial
// fails (peer is dead), otherwise refuse to start a second instance.
func NewIPCServerAt(sockPath string, handlers GraphHandlers) (*IPCServer, error) {
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		conn, dialErr := net.DialTimeout("unix", sockPath, 2*time.Second)
		if dialErr != nil {
			os.Remove(sockPath)
			ln, err = net.Listen("unix", sockPath)
			if err != nil {
				return nil, fmt.Errorf("ipc bind failed: %w", err)
			}
		} else {
			conn.Close()
			return nil, fmt.Errorf("another instance is already running at %s", sockPath)
		}
	}
	s := &IPCServer{
		listener:     ln,
		handlers:     handlers,
		sockPath:     sockPath,
		done:         make(chan struct{}),
		pendingGraph: make(chan string, 1),
	}
	if s.handlers.OnUpdateGraph != nil {
		go s.coalesceGraphUpdates()
	}
	return s, nil
}

// coalesceGraphUpdates applies only the latest queued graph, dropping any
// that were superseded while the previous one was still being applied.
func (s *IPCServer) coalesceGraphUpdates() {
	for code := range s.pendingGraph {
		s.handlers.OnUpdateGraph(code)
	}
}

// Start begins accepting connections in a background goroutine.
func (s *IPCServer) Start() {
	go s.acceptLoop()
}

// Stop closes the listener, waits for the accept loop to exit, and
// removes the socket file.
func (s *IPCServer) Stop() {
	s.listener.Close()
	<-s.done
	close(s.pendingGraph)
	os.Remove(s.sockPath)
}

func (s *IPCServer) acceptLoop() {
	defer close(s.done)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *IPCServer) handleConn(conn net.Conn) {
	defer conn.Close()

	// spec.md §4.8: Ready is emitted exactly once, after the first
	// connection is accepted - not re-sent to every later connection.
	var readyErr error
	s.readyOnce.Do(func() {
		readyErr = WriteMessage(conn, Message{Tag: TagReady})
	})
	if readyErr != nil {
		return
	}

	for {
		conn.SetDeadline(time.Now().Add(ipcConnDeadline))
		msg, err := ReadMessage(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.sendError(conn, err)
			}
			return
		}

		switch msg.Tag {
		case TagUpdateGraph:
			s.offerGraph(DecodeUpdateGraph(msg.Payload))
		case TagSetTempo:
			cps, err := DecodeSetTempo(msg.Payload)
			if err != nil {
				s.sendError(conn, err)
				continue
			}
			if s.handlers.OnSetTempo != nil {
				s.handlers.OnSetTempo(cps)
			}
		case TagHush:
			if s.handlers.OnHush != nil {
				s.handlers.OnHush()
			}
		case TagPanic:
			if s.handlers.OnPanic != nil {
				s.handlers.OnPanic()
			}
		case TagShutdown:
			if s.handlers.OnShutdown != nil {
				s.handlers.OnShutdown()
			}
			return
		default:
			s.sendError(conn, fmt.Errorf("unknown message tag %d", msg.Tag))
		}
	}
}

// offerGraph replaces any queued-but-not-yet-applied graph update with
// this newer one, non-blockingly.
func (s *IPCServer) offerGraph(code string) {
	select {
	case <-s.pendingGraph:
	default:
	}
	select {
	case s.pendingGraph <- code:
	default:
	}
}

func (s *IPCServer) sendError(conn net.Conn, err error) {
	_ = WriteMessage(conn, Message{Tag: TagError, Payload: []byte(err.Error())})
}

// ipc_client.go - the dialer side of the IPC protocol: the pattern
// compiler / REPL process connects here to push graph updates and
// transport commands into a running engine.
//
// Adapted from the teacher's sendIPCOpenAt (DialTimeout, SetDeadline,
// single persistent connection) but kept open for the life of the
// session rather than dialing fresh per request, since this protocol is
// a stream of messages, not one-shot requests.

package phonon

import (
	"fmt"
	"net"
	"time"
)

const ipcDialTimeout = 10 * time.Second

// IPCClient is a connection to a running engine's IPC server.
type IPCClient struct {
	conn net.Conn
}

// DialIPC connects to the default socket path.
func DialIPC() (*IPCClient, error) {
	return dialIPCAt(resolveSocketPath())
}

func dialIPCAt(sockPath string) (*IPCClient, error) {
	conn, err := net.DialTimeout("unix", sockPath, ipcDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("ipc: cannot connect to running engine: %w", err)
	}
	ready, err := ReadMessage(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ipc: handshake failed: %w", err)
	}
	if ready.Tag != TagReady {
		conn.Close()
		return nil, fmt.Errorf("ipc: expected Ready handshake, got %s", ready.Tag)
	}
	return &IPCClient{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *IPCClient) Close() error { return c.conn.Close() }

// SendUpdateGraph pushes newly edited DSL source text. The server
// coalesces bursts of these, so callers may send freely on every
// keystroke-driven recompile without their own debounce.
func (c *IPCClient) SendUpdateGraph(code string) error {
	return c.send(Message{Tag: TagUpdateGraph, Payload: EncodeUpdateGraph(code)})
}

// SendSetTempo changes the running engine's cycles-per-second.
func (c *IPCClient) SendSetTempo(cps float64) error {
	return c.send(Message{Tag: TagSetTempo, Payload: EncodeSetTempo(cps)})
}

// SendHush silences the engine without resetting its clock.
func (c *IPCClient) SendHush() error { return c.send(Message{Tag: TagHush}) }

// SendPanic silences the engine and resets its clock to cycle zero.
func (c *IPCClient) SendPanic() error { return c.send(Message{Tag: TagPanic}) }

// SendShutdown asks the engine to terminate. The server closes the
// connection immediately after receiving this, so callers should not
// expect a response.
func (c *IPCClient) SendShutdown() error { return c.send(Message{Tag: TagShutdown}) }

func (c *IPCClient) send(msg Message) error {
	c.conn.SetDeadline(time.Now().Add(ipcDialTimeout))
	return WriteMessage(c.conn, msg)
}

// ipc_protocol.go - the length-prefixed, tagged-enum wire format used
// between the IPC client (the pattern compiler / REPL, an external
// collaborator) and the engine.
//
// Adapted from the teacher's runtime_ipc.go socket-path resolution
// (resolveSocketPath, XDG_RUNTIME_DIR with a /tmp fallback) and stale-
// socket recovery, but the framing itself is rebuilt from spec.md §6's
// binary length-prefixed tagged-enum description rather than the
// teacher's JSON request/response shape - JSON doesn't suit a protocol
// that has to carry compiled graph update payloads at interactive,
// sub-block latencies.

package phonon

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// MessageTag identifies an IPC message's payload shape.
type MessageTag uint8

const (
	TagReady MessageTag = iota
	TagUpdateGraph
	TagSetTempo
	TagHush
	TagPanic
	TagShutdown
	TagError
)

func (t MessageTag) String() string {
	switch t {
	case TagReady:
		return "Ready"
	case TagUpdateGraph:
		return "UpdateGraph"
	case TagSetTempo:
		return "SetTempo"
	case TagHush:
		return "Hush"
	case TagPanic:
		return "Panic"
	case TagShutdown:
		return "Shutdown"
	case TagError:
		return "Error"
	default:
		return fmt.Sprintf("MessageTag(%d)", uint8(t))
	}
}

// Message is one length-framed IPC message: a tag byte followed by a
// tag-specific payload. UpdateGraph carries the UTF-8 DSL source text
// (compiling it into a Graph is the external pattern compiler's job, not
// this engine's - the engine only ever sees text in and a Graph handed
// back by that dependency); SetTempo carries 4 bytes of little-endian
// float32 CPS; Error carries a UTF-8 string.
type Message struct {
	Tag     MessageTag
	Payload []byte
}

const maxMessageSize = 16 << 20 // 16MiB: generous headroom over any plausible DSL program

// WriteMessage writes one length-framed message: a 4-byte little-endian
// length (tag + payload), the tag byte, then the payload.
func WriteMessage(w io.Writer, msg Message) error {
	frame := make([]byte, 5+len(msg.Payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(1+len(msg.Payload)))
	frame[4] = byte(msg.Tag)
	copy(frame[5:], msg.Payload)
	_, err := w.Write(frame)
	return err
}

// ReadMessage reads one length-framed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Message{}, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length == 0 {
		return Message{}, fmt.Errorf("ipc: zero-length frame")
	}
	if length > maxMessageSize {
		return Message{}, fmt.Errorf("ipc: frame too large (%d bytes)", length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, err
	}
	return Message{Tag: MessageTag(body[0]), Payload: body[1:]}, nil
}

// EncodeSetTempo packs a SetTempo payload as little-endian float32.
func EncodeSetTempo(cps float64) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(cps)))
	return buf
}

// DecodeSetTempo unpacks a SetTempo payload.
func DecodeSetTempo(payload []byte) (float64, error) {
	if len(payload) != 4 {
		return 0, fmt.Errorf("ipc: SetTempo payload must be 4 bytes, got %d", len(payload))
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(payload))), nil
}

// EncodeUpdateGraph packs DSL source text as a payload.
func EncodeUpdateGraph(code string) []byte { return []byte(code) }

// DecodeUpdateGraph unpacks an UpdateGraph payload back to DSL source text.
func DecodeUpdateGraph(payload []byte) string { return string(payload) }

// resolveSocketPath mirrors the teacher's runtime_ipc.go exactly: prefer
// XDG_RUNTIME_DIR, fall back to /tmp, generalised to this engine's name.
func resolveSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "phonon-engine.sock")
	}
	return "/tmp/phonon-engine.sock"
}

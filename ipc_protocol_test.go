package phonon

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteMessageThenReadMessageRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	msg := Message{Tag: TagUpdateGraph, Payload: []byte("d1 $ s \"bd sn\"")}
	assert.NoError(t, WriteMessage(&buf, msg))

	got, err := ReadMessage(&buf)
	assert.NoError(t, err)
	assert.Equal(t, msg.Tag, got.Tag)
	assert.Equal(t, msg.Payload, got.Payload)
}

func TestWriteMessageWithEmptyPayloadRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	msg := Message{Tag: TagHush}
	assert.NoError(t, WriteMessage(&buf, msg))

	got, err := ReadMessage(&buf)
	assert.NoError(t, err)
	assert.Equal(t, TagHush, got.Tag)
	assert.Empty(t, got.Payload)
}

func TestReadMessageRejectsZeroLengthFrame(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0})
	_, err := ReadMessage(buf)
	assert.Error(t, err)
}

func TestReadMessageRejectsOversizeFrame(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0xFF}) // 0xFF000000 bytes, far over maxMessageSize
	_, err := ReadMessage(buf)
	assert.Error(t, err)
}

func TestReadMessageErrorsOnTruncatedBody(t *testing.T) {
	buf := bytes.NewBuffer([]byte{10, 0, 0, 0, byte(TagReady)}) // claims 10 bytes, supplies 1
	_, err := ReadMessage(buf)
	assert.Error(t, err)
}

func TestEncodeDecodeSetTempoRoundTrips(t *testing.T) {
	payload := EncodeSetTempo(2.25)
	assert.Len(t, payload, 4)

	cps, err := DecodeSetTempo(payload)
	assert.NoError(t, err)
	assert.InDelta(t, 2.25, cps, 1e-6)
}

func TestDecodeSetTempoRejectsWrongSize(t *testing.T) {
	_, err := DecodeSetTempo([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeDecodeUpdateGraphRoundTrips(t *testing.T) {
	src := "d1 $ s \"bd(3,8)\""
	payload := EncodeUpdateGraph(src)
	assert.Equal(t, src, DecodeUpdateGraph(payload))
}

func TestMessageTagStringNamesKnownTags(t *testing.T) {
	assert.Equal(t, "Ready", TagReady.String())
	assert.Equal(t, "UpdateGraph", TagUpdateGraph.String())
	assert.Equal(t, "SetTempo", TagSetTempo.String())
	assert.Equal(t, "Hush", TagHush.String())
	assert.Equal(t, "Panic", TagPanic.String())
	assert.Equal(t, "Shutdown", TagShutdown.String())
	assert.Equal(t, "Error", TagError.String())
}

func TestMessageTagStringFallsBackForUnknownTag(t *testing.T) {
	assert.Equal(t, "MessageTag(200)", MessageTag(200).String())
}

func TestResolveSocketPathPrefersXDGRuntimeDir(t *testing.T) {
	old, had := os.LookupEnv("XDG_RUNTIME_DIR")
	defer func() {
		if had {
			os.Setenv("XDG_RUNTIME_DIR", old)
		} else {
			os.Unsetenv("XDG_RUNTIME_DIR")
		}
	}()

	os.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/phonon-engine.sock", resolveSocketPath())

	os.Unsetenv("XDG_RUNTIME_DIR")
	assert.Equal(t, "/tmp/phonon-engine.sock", resolveSocketPath())
}

func TestWriteMultipleMessagesReadBackInOrder(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteMessage(&buf, Message{Tag: TagReady}))
	assert.NoError(t, WriteMessage(&buf, Message{Tag: TagSetTempo, Payload: EncodeSetTempo(1.0)}))
	assert.NoError(t, WriteMessage(&buf, Message{Tag: TagShutdown}))

	first, err := ReadMessage(&buf)
	assert.NoError(t, err)
	assert.Equal(t, TagReady, first.Tag)

	second, err := ReadMessage(&buf)
	assert.NoError(t, err)
	assert.Equal(t, TagSetTempo, second.Tag)

	third, err := ReadMessage(&buf)
	assert.NoError(t, err)
	assert.Equal(t, TagShutdown, third.Tag)
}

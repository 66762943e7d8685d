package phonon

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testSockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "phonon-test.sock")
}

func TestIPCClientHandshakeReceivesReady(t *testing.T) {
	sock := testSockPath(t)
	srv, err := NewIPCServerAt(sock, GraphHandlers{})
	assert.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	client, err := dialIPCAt(sock)
	assert.NoError(t, err)
	defer client.Close()
}

func TestIPCServerDispatchesUpdateGraphToHandler(t *testing.T) {
	sock := testSockPath(t)
	var mu sync.Mutex
	var got string
	received := make(chan struct{}, 1)

	srv, err := NewIPCServerAt(sock, GraphHandlers{
		OnUpdateGraph: func(code string) {
			mu.Lock()
			got = code
			mu.Unlock()
			received <- struct{}{}
		},
	})
	assert.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	client, err := dialIPCAt(sock)
	assert.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.SendUpdateGraph(`d1 $ s "bd sn"`))

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnUpdateGraph dispatch")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, `d1 $ s "bd sn"`, got)
}

func TestIPCServerDispatchesSetTempo(t *testing.T) {
	sock := testSockPath(t)
	received := make(chan float64, 1)

	srv, err := NewIPCServerAt(sock, GraphHandlers{
		OnSetTempo: func(cps float64) { received <- cps },
	})
	assert.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	client, err := dialIPCAt(sock)
	assert.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.SendSetTempo(3.5))

	select {
	case cps := <-received:
		assert.InDelta(t, 3.5, cps, 1e-6)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnSetTempo dispatch")
	}
}

func TestIPCServerDispatchesHushAndPanic(t *testing.T) {
	sock := testSockPath(t)
	hushed := make(chan struct{}, 1)
	panicked := make(chan struct{}, 1)

	srv, err := NewIPCServerAt(sock, GraphHandlers{
		OnHush:  func() { hushed <- struct{}{} },
		OnPanic: func() { panicked <- struct{}{} },
	})
	assert.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	client, err := dialIPCAt(sock)
	assert.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.SendHush())
	select {
	case <-hushed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnHush dispatch")
	}

	assert.NoError(t, client.SendPanic())
	select {
	case <-panicked:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnPanic dispatch")
	}
}

func TestIPCServerCoalescesBurstyGraphUpdates(t *testing.T) {
	sock := testSockPath(t)
	applied := make(chan string, 8)

	srv, err := NewIPCServerAt(sock, GraphHandlers{
		OnUpdateGraph: func(code string) { applied <- code },
	})
	assert.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	client, err := dialIPCAt(sock)
	assert.NoError(t, err)
	defer client.Close()

	// the very first send is guaranteed to be picked up by the coalescing
	// goroutine before the next ones queue, so send a settling one first.
	assert.NoError(t, client.SendUpdateGraph("first"))
	time.Sleep(20 * time.Millisecond)
	<-applied

	assert.NoError(t, client.SendUpdateGraph("second"))
	assert.NoError(t, client.SendUpdateGraph("third"))
	time.Sleep(50 * time.Millisecond)

	last := ""
	drained := 0
loop:
	for {
		select {
		case code := <-applied:
			last = code
			drained++
		default:
			break loop
		}
	}
	assert.GreaterOrEqual(t, drained, 1)
	assert.Equal(t, "third", last, "only the most recently queued graph update should survive coalescing")
}

func TestIPCServerShutdownClosesConnection(t *testing.T) {
	sock := testSockPath(t)
	shutdown := make(chan struct{}, 1)

	srv, err := NewIPCServerAt(sock, GraphHandlers{
		OnShutdown: func() { shutdown <- struct{}{} },
	})
	assert.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	client, err := dialIPCAt(sock)
	assert.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.SendShutdown())

	select {
	case <-shutdown:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnShutdown dispatch")
	}
}

func TestDialIPCAtFailsWhenNoServerListening(t *testing.T) {
	_, err := dialIPCAt(filepath.Join(t.TempDir(), "nobody-home.sock"))
	assert.Error(t, err)
}

func TestNewIPCServerAtRecoversFromStaleSocket(t *testing.T) {
	sock := testSockPath(t)

	first, err := NewIPCServerAt(sock, GraphHandlers{})
	assert.NoError(t, err)
	first.Start()
	// simulate a crash: close the listener without calling Stop, leaving
	// the socket file behind with nothing listening on it.
	first.listener.Close()
	<-first.done

	second, err := NewIPCServerAt(sock, GraphHandlers{})
	assert.NoError(t, err)
	defer second.Stop()
	second.Start()

	client, err := dialIPCAt(sock)
	assert.NoError(t, err)
	client.Close()
}

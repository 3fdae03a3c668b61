package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscquery/oscquery-go/pkg/config"
	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/osc"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Name = "test-server"
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.OSCAddr = "127.0.0.1:0"
	cfg.MDNS = false
	return cfg
}

func startedServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	require.NoError(t, err)

	require.NoError(t, s.AddNode("/synth/freq", tree.Spec{
		Access:      model.AccessReadWrite,
		Description: "oscillator frequency",
		Values:      []model.Value{model.Float32(440)},
	}))

	require.NoError(t, s.Start(t.Context()))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func getJSON(t *testing.T, s *Server, path string) map[string]any {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://%s%s", s.HTTPAddr(), path))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	return doc
}

func TestServerServesNamespace(t *testing.T) {
	s := startedServer(t)

	doc := getJSON(t, s, "/synth/freq")
	assert.Equal(t, "/synth/freq", doc["FULL_PATH"])
	assert.Equal(t, "f", doc["TYPE"])
	assert.Equal(t, []any{float64(440)}, doc["VALUE"])

	root := getJSON(t, s, "/")
	contents, ok := root["CONTENTS"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, contents, "synth")
}

func TestServerHostInfo(t *testing.T) {
	s := startedServer(t)

	doc := getJSON(t, s, "/?HOST_INFO")
	assert.Equal(t, "test-server", doc["NAME"])
	assert.Equal(t, "UDP", doc["OSC_TRANSPORT"])
	assert.NotZero(t, doc["OSC_PORT"])
	assert.NotZero(t, doc["WS_PORT"])

	ext, ok := doc["EXTENSIONS"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, ext["LISTEN"])
	assert.Equal(t, true, ext["VALUE"])
}

func TestServerValueRoundTrip(t *testing.T) {
	s := startedServer(t)

	stored, err := s.SetValue("/synth/freq", model.Float32(880))
	require.NoError(t, err)
	assert.True(t, stored[0].Equal(model.Float32(880)))

	values, err := s.GetValue("/synth/freq")
	require.NoError(t, err)
	assert.True(t, values[0].Equal(model.Float32(880)))

	_, err = s.GetValue("/nope")
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestServerRemoveNode(t *testing.T) {
	s := startedServer(t)

	require.NoError(t, s.RemoveNode("/synth"))
	_, err := s.GetValue("/synth/freq")
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestServerTriggerSendsOSC(t *testing.T) {
	s := startedServer(t)

	peer, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer peer.Close()
	require.NoError(t, s.AddOSCPeer(peer.LocalAddr().String()))

	require.NoError(t, s.Trigger("/synth/freq"))

	buf := make([]byte, 2048)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := peer.ReadFrom(buf)
	require.NoError(t, err)

	packet, err := osc.Decode(buf[:n])
	require.NoError(t, err)
	msg := packet.(*osc.Message)
	assert.Equal(t, "/synth/freq", msg.Addr)
	assert.True(t, msg.Args[0].Equal(model.Float32(440)))

	err = s.Trigger("/synth")
	assert.ErrorIs(t, err, tree.ErrValidation)
}

func TestServerOSCEditVisibleOverHTTP(t *testing.T) {
	s := startedServer(t)

	conn, err := net.Dial("udp", s.OSCAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	data, err := osc.Encode(&osc.Message{
		Addr: "/synth/freq",
		Args: []model.Value{model.Float32(660)},
	})
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("edit never became visible")
		}
		_, _ = conn.Write(data)
		time.Sleep(10 * time.Millisecond)
		values, err := s.GetValue("/synth/freq")
		if err == nil && len(values) == 1 && values[0].Equal(model.Float32(660)) {
			break
		}
	}
}

func TestServerImmediateStop(t *testing.T) {
	// Stop right after Start: the serving goroutine must keep working
	// on the server instance it was launched with, not on fields Stop
	// has already cleared.
	for range 5 {
		cfg := testConfig()
		cfg.OSCAddr = ""
		s, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, s.Start(t.Context()))
		require.NoError(t, s.Stop())
	}
}

func TestServerStopUnderHostInfoTraffic(t *testing.T) {
	s := startedServer(t)
	addr := s.HTTPAddr().String()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			resp, err := http.Get(fmt.Sprintf("http://%s/?HOST_INFO", addr))
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}()

	time.Sleep(50 * time.Millisecond)
	begin := time.Now()
	require.NoError(t, s.Stop())
	assert.Less(t, time.Since(begin), 3*time.Second,
		"in-flight HOST_INFO requests must not stall shutdown")
	<-done
}

func TestServerLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.OSCAddr = "" // OSC disabled
	s, err := New(cfg)
	require.NoError(t, err)

	assert.Nil(t, s.HTTPAddr())
	assert.ErrorIs(t, s.Stop(), ErrNotStarted)

	require.NoError(t, s.Start(t.Context()))
	assert.ErrorIs(t, s.Start(t.Context()), ErrAlreadyStarted)
	assert.Nil(t, s.OSCAddr())
	assert.Error(t, s.AddOSCPeer("127.0.0.1:9000"))

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrNotStarted)
	assert.Error(t, s.Start(t.Context()), "restart after stop is not supported")
}

func TestServerInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = "not-an-address"
	_, err := New(cfg)
	assert.Error(t, err)
}

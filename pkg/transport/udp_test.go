package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/osc"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

func startOSC(t *testing.T, f *testFixture) *OSCService {
	t.Helper()
	svc := NewOSCService(OSCConfig{
		Address:     "127.0.0.1:0",
		Coordinator: f.coord,
	})
	require.NoError(t, svc.Start())
	t.Cleanup(func() { svc.Stop() })
	return svc
}

func TestOSCReceiveAppliesEdit(t *testing.T) {
	f := newFixture(t)
	svc := startOSC(t, f)

	conn, err := net.Dial("udp", svc.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	data, err := osc.Encode(&osc.Message{
		Addr: "/synth/freq",
		Args: []model.Value{model.Float32(523.25)},
	})
	require.NoError(t, err)

	// UDP can drop; resend until the edit is visible.
	waitFor(t, func() bool {
		_, _ = conn.Write(data)
		time.Sleep(10 * time.Millisecond)
		var got float32
		f.coord.View(func(tr *tree.Tree) {
			if node, err := tr.Resolve("/synth/freq"); err == nil {
				got = node.Values()[0].Float32()
			}
		})
		return got == 523.25
	})
}

func TestOSCReceiveBundle(t *testing.T) {
	f := newFixture(t)
	svc := startOSC(t, f)

	conn, err := net.Dial("udp", svc.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	data, err := osc.Encode(&osc.Bundle{
		Time: osc.TimeImmediate,
		Elements: []osc.Packet{
			&osc.Message{Addr: "/synth/freq", Args: []model.Value{model.Float32(111)}},
			&osc.Message{Addr: "/synth/freq", Args: []model.Value{model.Float32(222)}},
		},
	})
	require.NoError(t, err)

	// Elements apply in order, so the final value is the second one.
	waitFor(t, func() bool {
		_, _ = conn.Write(data)
		time.Sleep(10 * time.Millisecond)
		var got float32
		f.coord.View(func(tr *tree.Tree) {
			if node, err := tr.Resolve("/synth/freq"); err == nil {
				got = node.Values()[0].Float32()
			}
		})
		return got == 222
	})
}

func TestOSCSendToRegisteredPeer(t *testing.T) {
	f := newFixture(t)
	svc := startOSC(t, f)

	peer, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer peer.Close()

	require.NoError(t, svc.AddSendAddr(peer.LocalAddr().String()))
	require.NoError(t, svc.Send(&osc.Message{
		Addr: "/synth/freq",
		Args: []model.Value{model.Float32(440)},
	}))

	buf := make([]byte, maxOSCPacket)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := peer.ReadFrom(buf)
	require.NoError(t, err)

	packet, err := osc.Decode(buf[:n])
	require.NoError(t, err)
	msg, ok := packet.(*osc.Message)
	require.True(t, ok)
	assert.Equal(t, "/synth/freq", msg.Addr)
	assert.True(t, msg.Args[0].Equal(model.Float32(440)))

	// After removal the peer gets nothing more.
	svc.RemoveSendAddr(peer.LocalAddr().String())
	require.NoError(t, svc.Send(&osc.Message{Addr: "/synth/freq", Args: []model.Value{model.Float32(1)}}))
	peer.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := peer.ReadFrom(buf); err == nil {
		t.Error("expected timeout after RemoveSendAddr")
	}
}

func TestOSCLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewOSCService(OSCConfig{Address: "127.0.0.1:0", Coordinator: f.coord})

	if svc.LocalAddr() != nil {
		t.Error("LocalAddr before Start should be nil")
	}
	require.NoError(t, svc.Start())
	require.Error(t, svc.Start(), "double start must fail")
	require.NoError(t, svc.Stop())
	require.NoError(t, svc.Stop(), "double stop is a no-op")

	if err := svc.Send(&osc.Message{Addr: "/x"}); err == nil {
		t.Error("Send after Stop should fail")
	}
}

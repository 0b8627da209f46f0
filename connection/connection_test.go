package connection

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftmongo/corewire/bson"
	"github.com/driftmongo/corewire/internal/connstate"
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
	"github.com/driftmongo/corewire/wireproto"
)

// pipeDialer returns a Dialer that hands back one end of a net.Pipe, with
// the other end available via serverSide.
func pipeDialer(serverSide chan net.Conn) DialerFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		serverSide <- server
		return client, nil
	}
}

func readRequestHeader(t *testing.T, server net.Conn) wiremessage.Header {
	t.Helper()
	var sizeBuf [4]byte
	_, err := readFull(server, sizeBuf[:])
	require.NoError(t, err)
	size := wiremessage.LittleEndianInt32(sizeBuf[:])
	buf := make([]byte, size)
	copy(buf, sizeBuf[:])
	_, err = readFull(server, buf[4:])
	require.NoError(t, err)
	hdr, err := wiremessage.ReadHeader(rope.NewBuilder().AppendBytes(buf).Build().Reader())
	require.NoError(t, err)
	return hdr
}

func readFull(c net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := c.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func writeReply(t *testing.T, server net.Conn, responseTo int32, docs ...rope.Rope) {
	t.Helper()
	body := rope.NewBuilder()
	body.AppendI32LE(0) // flags
	body.AppendI64LE(0) // cursorID
	body.AppendI32LE(0) // startingFrom
	body.AppendI32LE(int32(len(docs)))
	for _, d := range docs {
		body.AppendRope(d)
	}
	bodyRope := body.Build()

	out := rope.NewBuilder()
	wiremessage.AppendHeader(out, wiremessage.Header{
		MessageLength: int32(wiremessage.HeaderLen + bodyRope.Len()),
		RequestID:     99,
		ResponseTo:    responseTo,
		OpCode:        wiremessage.OpReply,
	})
	out.AppendRope(bodyRope)
	_, err := out.Build().WriteTo(server)
	require.NoError(t, err)
}

func dialOverPipe(t *testing.T, opts ...Option) (*Connection, net.Conn) {
	t.Helper()
	serverCh := make(chan net.Conn, 1)
	c, err := Dial(context.Background(), "test", append([]Option{WithDialer(pipeDialer(serverCh))}, opts...)...)
	require.NoError(t, err)
	server := <-serverCh
	t.Cleanup(func() { server.Close() })
	return c, server
}

func mustQuery(t *testing.T) wireproto.QueryMessage {
	t.Helper()
	q, err := bson.NewDocument(bson.EC.Int32("ping", 1))
	require.NoError(t, err)
	return wireproto.QueryMessage{FullCollectionName: "db.coll", NumberToReturn: 1, Query: q}
}

func TestNextRequestIDIsNonZeroAndUnique(t *testing.T) {
	seen := make(map[int32]bool)
	for i := 0; i < 1000; i++ {
		id := nextRequestID()
		require.Positive(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestNextRequestIDSkipsZeroOnWrap(t *testing.T) {
	old := atomic.LoadInt32(&globalRequestID)
	defer atomic.StoreInt32(&globalRequestID, old)

	atomic.StoreInt32(&globalRequestID, 1<<31-1)
	id := nextRequestID()
	require.Positive(t, id)
}

func TestSubmitRoundTrip(t *testing.T) {
	c, server := dialOverPipe(t)
	require.Equal(t, connstate.Ready, c.State())

	doneCh := make(chan *wireproto.Reply, 1)
	errCh := make(chan error, 1)
	go func() {
		reply, err := c.Submit(context.Background(), mustQuery(t))
		if err != nil {
			errCh <- err
			return
		}
		doneCh <- reply
	}()

	hdr := readRequestHeader(t, server)
	require.Equal(t, wiremessage.OpQuery, hdr.OpCode)

	doc, err := bson.NewDocument(bson.EC.Int32("ok", 1))
	require.NoError(t, err)
	writeReply(t, server, hdr.RequestID, doc)

	select {
	case reply := <-doneCh:
		require.Equal(t, int32(1), reply.NumberReturned)
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestOutOfOrderRepliesCorrelateByResponseTo(t *testing.T) {
	c, server := dialOverPipe(t)

	const n = 3
	results := make([]chan *wireproto.Reply, n)
	for i := range results {
		results[i] = make(chan *wireproto.Reply, 1)
		i := i
		go func() {
			reply, err := c.Submit(context.Background(), mustQuery(t))
			require.NoError(t, err)
			results[i] <- reply
		}()
	}

	var hdrs []wiremessage.Header
	for i := 0; i < n; i++ {
		hdrs = append(hdrs, readRequestHeader(t, server))
	}

	// Reply in reverse submission order.
	for i := n - 1; i >= 0; i-- {
		doc, err := bson.NewDocument(bson.EC.Int32("idx", int32(i)))
		require.NoError(t, err)
		writeReply(t, server, hdrs[i].RequestID, doc)
	}

	for i := 0; i < n; i++ {
		select {
		case reply := <-results[i]:
			require.Equal(t, int32(1), reply.NumberReturned)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for reply %d", i)
		}
	}
}

func TestSubmitFailsWhenNotReady(t *testing.T) {
	c, _ := dialOverPipe(t)
	c.Drain(100 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, err := c.Submit(context.Background(), mustQuery(t))
	require.Error(t, err)
}

func TestDrainClosesOnceInFlightEmpty(t *testing.T) {
	c, _ := dialOverPipe(t)
	c.Drain(time.Second)

	require.Eventually(t, func() bool {
		return c.State() == connstate.Closed
	}, time.Second, 10*time.Millisecond)
}

func TestUnmatchedResponseToIsDiscardedNotFatal(t *testing.T) {
	c, server := dialOverPipe(t)

	doneCh := make(chan *wireproto.Reply, 1)
	go func() {
		reply, err := c.Submit(context.Background(), mustQuery(t))
		require.NoError(t, err)
		doneCh <- reply
	}()

	hdr := readRequestHeader(t, server)

	// A stray reply for a requestId nobody is waiting on.
	strayDoc, err := bson.NewDocument(bson.EC.Int32("x", 1))
	require.NoError(t, err)
	writeReply(t, server, hdr.RequestID+1000, strayDoc)

	// The real reply still arrives and the connection is still alive.
	doc, err := bson.NewDocument(bson.EC.Int32("ok", 1))
	require.NoError(t, err)
	writeReply(t, server, hdr.RequestID, doc)

	select {
	case <-doneCh:
		require.Equal(t, connstate.Ready, c.State())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

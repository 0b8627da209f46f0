package topology

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftmongo/corewire/bson"
	"github.com/driftmongo/corewire/connection"
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
	"github.com/driftmongo/corewire/wireproto"
)

func pipeDialerWithServer(serverSide chan net.Conn) connection.DialerFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		serverSide <- server
		return client, nil
	}
}

func readFullConn(c net.Conn, buf []byte) (int, error) {
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

func readHeaderFrom(t *testing.T, server net.Conn) wiremessage.Header {
	t.Helper()
	var sizeBuf [4]byte
	_, err := readFullConn(server, sizeBuf[:])
	require.NoError(t, err)
	size := wiremessage.LittleEndianInt32(sizeBuf[:])
	buf := make([]byte, size)
	copy(buf, sizeBuf[:])
	_, err = readFullConn(server, buf[4:])
	require.NoError(t, err)
	hdr, err := wiremessage.ReadHeader(rope.NewBuilder().AppendBytes(buf).Build().Reader())
	require.NoError(t, err)
	return hdr
}

func writeReplyTo(t *testing.T, server net.Conn, responseTo int32, cursorID int64, docs ...rope.Rope) {
	t.Helper()
	body := rope.NewBuilder()
	body.AppendI32LE(0) // flags
	body.AppendI64LE(cursorID)
	body.AppendI32LE(0) // startingFrom
	body.AppendI32LE(int32(len(docs)))
	for _, d := range docs {
		body.AppendRope(d)
	}
	bodyRope := body.Build()

	out := rope.NewBuilder()
	wiremessage.AppendHeader(out, wiremessage.Header{
		MessageLength: int32(wiremessage.HeaderLen + bodyRope.Len()),
		RequestID:     1,
		ResponseTo:    responseTo,
		OpCode:        wiremessage.OpReply,
	})
	out.AppendRope(bodyRope)
	_, err := out.Build().WriteTo(server)
	require.NoError(t, err)
}

func TestSupervisorSendRoundTrip(t *testing.T) {
	serverCh := make(chan net.Conn, 1)
	s := New("test", Config{MaxConnections: 1}, WithConnectionOptions(connection.WithDialer(pipeDialerWithServer(serverCh))))
	defer s.Shutdown(context.Background())

	sel, err := bson.NewDocument(bson.EC.Double("key1", 42.0))
	require.NoError(t, err)
	req := wireproto.DeleteMessage{FullCollectionName: "db.coll", Selector: sel}

	replyCh := make(chan *wireproto.Reply, 1)
	errCh := make(chan error, 1)
	go func() {
		reply, err := s.Send(context.Background(), req)
		if err != nil {
			errCh <- err
			return
		}
		replyCh <- reply
	}()

	server := <-serverCh
	hdr := readHeaderFrom(t, server)
	require.Equal(t, wiremessage.OpDelete, hdr.OpCode)

	doc, err := bson.NewDocument(bson.EC.Int32("n", 1))
	require.NoError(t, err)
	writeReplyTo(t, server, hdr.RequestID, 0, doc)

	select {
	case reply := <-replyCh:
		require.Equal(t, int32(1), reply.NumberReturned)
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestSupervisorQueryReturnsStream(t *testing.T) {
	serverCh := make(chan net.Conn, 1)
	s := New("test", Config{MaxConnections: 1, CursorBatchSize: 10},
		WithConnectionOptions(connection.WithDialer(pipeDialerWithServer(serverCh))))
	defer s.Shutdown(context.Background())

	q, err := bson.NewDocument(bson.EC.Double("key1", 42.0))
	require.NoError(t, err)
	msg := wireproto.QueryMessage{FullCollectionName: "db.coll", NumberToReturn: 2, Query: q}

	type streamResult struct {
		hasNext bool
	}
	resultCh := make(chan streamResult, 1)
	errCh := make(chan error, 1)
	go func() {
		stream, err := s.Query(context.Background(), msg, 0)
		if err != nil {
			errCh <- err
			return
		}
		hasNext, err := stream.HasNext(context.Background())
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- streamResult{hasNext: hasNext}
	}()

	server := <-serverCh
	hdr := readHeaderFrom(t, server)
	require.Equal(t, wiremessage.OpQuery, hdr.OpCode)

	doc, err := bson.NewDocument(bson.EC.Int32("key1", 42))
	require.NoError(t, err)
	writeReplyTo(t, server, hdr.RequestID, 0, doc)

	select {
	case res := <-resultCh:
		require.True(t, res.hasNext)
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream")
	}
}

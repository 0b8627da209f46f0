package connection

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/require"

	"github.com/driftmongo/corewire/bson"
)

func TestTraceSinkCapturesSnappyCompressedFrames(t *testing.T) {
	var sink bytes.Buffer
	c, server := dialOverPipe(t, WithTraceSink(&sink))

	doneCh := make(chan struct{})
	go func() {
		_, _ = c.Submit(context.Background(), mustQuery(t))
		close(doneCh)
	}()

	hdr := readRequestHeader(t, server)
	doc, err := bson.NewDocument(bson.EC.Int32("ok", 1))
	require.NoError(t, err)
	writeReply(t, server, hdr.RequestID, doc)

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for submit")
	}

	require.Eventually(t, func() bool { return sink.Len() > 0 }, time.Second, 10*time.Millisecond)

	lenPrefix := sink.Bytes()[:4]
	n := int(lenPrefix[0]) | int(lenPrefix[1])<<8 | int(lenPrefix[2])<<16 | int(lenPrefix[3])<<24
	compressed := sink.Bytes()[4 : 4+n]
	decoded, err := snappy.Decode(nil, compressed)
	require.NoError(t, err)
	require.True(t, len(decoded) >= 16, "decoded capture should contain at least a wire header")
}

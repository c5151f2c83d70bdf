package rabbitmq

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidedeck/internal/ingest"
	"slidedeck/internal/pkg/logger"
)

// closedAddr returns a local address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestDocumentPublisher_UnreachableBrokerFailsFast(t *testing.T) {
	url := "amqp://guest:guest@" + closedAddr(t) + "/"
	p := NewDocumentPublisher(url, Topology{Queue: "document_processing"}, 500*time.Millisecond, logger.Discard())

	start := time.Now()
	err := p.Publish(context.Background(), ingest.ProcessingMessage{
		DocumentID: "doc-1", FilePath: "/uploads/doc-1.pdf", OriginalFilename: "deck.pdf", FileExtension: "pdf",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial rabbitmq failed")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, p.Connected())

	// Each publish retries the dial instead of caching the failure.
	err = p.Publish(context.Background(), ingest.ProcessingMessage{DocumentID: "doc-2"})
	require.Error(t, err)

	assert.NoError(t, p.Close())
}

func TestNew_UnreachableBroker(t *testing.T) {
	_, err := New(context.Background(), "amqp://guest:guest@"+closedAddr(t)+"/", 500*time.Millisecond)
	require.Error(t, err)
}

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartServerShutsDown(t *testing.T) {
	ResetForTest(true)

	srv, err := StartServer("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestServerShutdownNilReceiverIsNoOp(t *testing.T) {
	var s *Server
	require.NoError(t, s.Shutdown(context.Background()))
}

package testutil

import (
	"testing"

	natsserver "github.com/nats-io/nats-server/v2/test"
)

// RunNATS starts an embedded NATS server on a random port and returns its
// client URL. The server is shut down when the test finishes.
func RunNATS(t *testing.T) string {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

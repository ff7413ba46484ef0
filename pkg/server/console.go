package server

import (
	"os"

	"github.com/cuemby/mumpsdb/pkg/authz"
	"github.com/cuemby/mumpsdb/pkg/executor"
	"github.com/cuemby/mumpsdb/pkg/metrics"
	"github.com/google/uuid"
)

// RunConsole drives a single interactive REPL session over stdin/stdout,
// sharing the same command loop the socket listener uses per connection.
func RunConsole(exec *executor.Executor) {
	info := authz.SessionInfo{RemoteAddr: "console", SessionID: uuid.NewString()}
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	runSession(exec, info, os.Stdin, os.Stdout)
}

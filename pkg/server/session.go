package server

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cuemby/mumpsdb/pkg/authz"
	"github.com/cuemby/mumpsdb/pkg/command"
	"github.com/cuemby/mumpsdb/pkg/executor"
	"github.com/cuemby/mumpsdb/pkg/log"
)

const banner = "Welcome to MUMPS-like Database Server"

const prompt = "> "

// runSession drives one client's command loop: read a line, parse it,
// execute it, write the response lines, repeat until the client
// disconnects or sends EXIT. Shared between the socket listener and the
// console front end, which differ only in their io.Reader/io.Writer.
func runSession(exec *executor.Executor, info authz.SessionInfo, r io.Reader, w io.Writer) {
	sess := executor.NewSession()
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, banner)
	for _, line := range helpBanner() {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintln(bw)
	fmt.Fprint(bw, prompt)
	bw.Flush()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(bw, prompt)
			bw.Flush()
			continue
		}

		cmd := command.Parse(line)
		lines, exit := exec.Execute(sess, info, cmd)
		for _, l := range lines {
			fmt.Fprintln(bw, l)
		}
		if exit {
			bw.Flush()
			return
		}
		fmt.Fprint(bw, prompt)
		bw.Flush()
	}
	if err := scanner.Err(); err != nil {
		log.WithSession(info.SessionID).Warn().Err(err).Msg("session read error")
	}
}

func helpBanner() []string {
	return []string{
		"Type HELP for a list of commands, EXIT to disconnect.",
	}
}

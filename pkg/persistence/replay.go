package persistence

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cuemby/mumpsdb/pkg/command"
	"github.com/cuemby/mumpsdb/pkg/log"
	"github.com/cuemby/mumpsdb/pkg/metrics"
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/store"
)

// Replay applies every record in the AOF at path directly to s, in order.
// No replay horizon is recorded between a snapshot and its AOF, so the full
// file is always replayed; SET/KILL are naturally idempotent on identical
// inputs, which is what makes that safe. A malformed line is logged and
// skipped rather than aborting the rest of the replay.
func Replay(path string, s *store.GlobalStore) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open aof file: %w", err)
	}
	defer f.Close()

	applied := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		cmd := command.Parse(line)
		if err := applyRecord(s, cmd); err != nil {
			log.WithComponent("persistence").Warn().Str("line", line).Err(err).Msg("skipping unreplayable aof record")
			continue
		}
		applied++
		metrics.ReplayedRecordsTotal.Inc()
	}
	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("scan aof file: %w", err)
	}
	return applied, nil
}

func applyRecord(s *store.GlobalStore, cmd command.Command) error {
	switch cmd.Verb {
	case command.VerbSet:
		path := literalsToSubs(cmd.TargetPath)
		val := literalToValue(cmd.Value.Lit)
		return s.Set(cmd.Global, path, val)
	case command.VerbKill:
		path := literalsToSubs(cmd.Path)
		return s.Kill(cmd.Global, path)
	case command.VerbError:
		return fmt.Errorf("%s", cmd.ErrMsg)
	default:
		return fmt.Errorf("unreplayable verb %s", cmd.Verb)
	}
}

func literalsToSubs(lits []command.Literal) mvalue.Path {
	path := make(mvalue.Path, len(lits))
	for i, lit := range lits {
		switch {
		case lit.IsString:
			path[i] = mvalue.CanonicalSub(mvalue.NewStringSub(lit.Str))
		case lit.IsFloat:
			path[i] = mvalue.CanonicalSub(mvalue.NewFloatSub(lit.Float))
		default:
			path[i] = mvalue.NewIntSub(lit.Int)
		}
	}
	return path
}

func literalToValue(lit command.Literal) mvalue.Value {
	switch {
	case lit.IsString:
		return mvalue.NewStringValue(lit.Str)
	case lit.IsFloat:
		return mvalue.NewFloatValue(lit.Float)
	default:
		return mvalue.NewIntValue(lit.Int)
	}
}

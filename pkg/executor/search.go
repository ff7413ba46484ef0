package executor

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/cuemby/mumpsdb/pkg/command"
	"github.com/cuemby/mumpsdb/pkg/log"
	"github.com/cuemby/mumpsdb/pkg/metrics"
	"github.com/cuemby/mumpsdb/pkg/mvalue"
)

func (e *Executor) execFastSearch(sess *Session, cmd command.Command) []string {
	value := e.literalToValue(cmd.SearchLit)
	hits := e.Store.FastSearch(value)
	if len(hits) == 0 {
		return []string{"NO RESULTS"}
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = formatGlobalRef(h.Global, h.Path) + "=" + formatValueLiteral(h.Value)
	}
	return lines
}

func (e *Executor) execExactSearch(sess *Session, cmd command.Command) []string {
	target := mvalue.CanonicalValue(cmd.SearchQuery)

	var globals []string
	if cmd.SearchIn != "" {
		globals = []string{cmd.SearchIn}
	} else {
		globals = e.listGlobalNames(sess)
	}

	var lines []string
	for _, g := range globals {
		results, err := e.queryValue(sess, g, nil, 1<<30)
		if err != nil {
			continue
		}
		for _, pv := range results {
			if pv.Value.Equal(target) {
				lines = append(lines, formatGlobalRef(g, pv.Path)+"="+formatValueLiteral(pv.Value))
			}
		}
	}
	if len(lines) == 0 {
		return []string{"NO RESULTS"}
	}
	return lines
}

type simCandidate struct {
	global string
	path   mvalue.Path
	value  mvalue.Value
	score  float32
}

func (e *Executor) execSimSearch(sess *Session, cmd command.Command) []string {
	if !e.Embedder.Enabled() {
		metrics.EmbeddingUnavailableTotal.Inc()
		return []string{"NO RESULTS"}
	}

	ctx := context.Background()
	queryVec, err := e.Embedder.Embed(ctx, cmd.SearchQuery)
	if err != nil {
		log.WithComponent("executor").Warn().Err(err).Msg("embedding collaborator failed on query")
		metrics.EmbeddingUnavailableTotal.Inc()
		return []string{"NO RESULTS"}
	}
	atomic.AddInt64(&e.embeddingCount, 1)

	topK := cmd.TopK
	if topK <= 0 {
		topK = e.DefaultTopK
		if topK <= 0 {
			topK = defaultTopK
		}
	}

	var candidates []simCandidate
	for _, g := range e.listGlobalNames(sess) {
		results, err := e.queryValue(sess, g, nil, 1<<30)
		if err != nil {
			continue
		}
		for _, pv := range results {
			if pv.Value.Kind != mvalue.String {
				continue
			}
			vec, err := e.Embedder.Embed(ctx, pv.Value.S)
			if err != nil {
				continue
			}
			atomic.AddInt64(&e.embeddingCount, 1)
			score := e.Embedder.Similarity(queryVec, vec)
			if float64(score) < e.SimilarityThreshold {
				continue
			}
			candidates = append(candidates, simCandidate{global: g, path: pv.Path, value: pv.Value, score: score})
		}
	}

	if len(candidates) == 0 {
		return []string{"NO RESULTS"}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("%s=%s (%.4f)", formatGlobalRef(c.global, c.path), formatValueLiteral(c.value), c.score)
	}
	return lines
}

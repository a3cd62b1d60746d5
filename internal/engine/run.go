package engine

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/cag"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/graphstore"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/labeler"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/transport"
	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/parallel"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/utils"
)

var tracer = otel.Tracer("github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/engine")

// RankResult is what one rank contributes to the overall run: the
// labels it holds once the reduction tree and final relabel complete,
// plus enough range bookkeeping for Result to assemble the full count.
type RankResult struct {
	Lo, Hi int32
	Labels []int32
}

// Result is the outcome of a full run across every rank.
type Result struct {
	VertexCount    int32
	ComponentCount int32
	Ranks          []RankResult
}

// buildLocalSubgraph reads [lo, hi] from reader and reconstructs the
// adjacency rows into a LocalSubgraph; the store already records both
// directions of every edge, so each stored entry is a single directed
// add.
func buildLocalSubgraph(ctx context.Context, reader graphstore.Reader, lo, hi int32) (*labeler.LocalSubgraph, error) {
	_, span := tracer.Start(ctx, "engine.buildLocalSubgraph",
		trace.WithAttributes(attribute.Int("range.lo", int(lo)), attribute.Int("range.hi", int(hi))))
	defer span.End()

	sub := labeler.NewLocalSubgraph(lo, hi)
	rows, err := reader.ReadRange(lo, hi)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for i, neighbors := range rows {
		v := lo + int32(i)
		for _, w := range neighbors {
			if err := sub.AddDirectedEdge(v, w); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
		}
	}
	span.SetAttributes(attribute.Int("vertex_count", int(hi-lo+1)))
	return sub, nil
}

// labelLocal runs the local iterative DFS over sub and returns its
// result, wrapped in its own span so per-rank labeling cost is visible
// apart from border exchange and reduction.
func labelLocal(ctx context.Context, sub *labeler.LocalSubgraph) *labeler.LabelResult {
	_, span := tracer.Start(ctx, "engine.label")
	defer span.End()
	result := labeler.ConnectedComponents(sub)
	span.SetAttributes(attribute.Int("local_component_count", countDistinct(result.Labels)))
	return result
}

func countDistinct(labels []int32) int {
	seen := make(map[int32]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

// exchangeBorders all-gathers every rank's (local_vertex_id, label)
// border pairs and returns the map a BuildCAG call needs: every foreign
// vertex id this rank has ever referenced, resolved to its owning
// rank's label for it.
func exchangeBorders(ctx context.Context, peer transport.Peer, border []int32) (map[int32]int32, error) {
	ctx, span := tracer.Start(ctx, "engine.exchangeBorders",
		trace.WithAttributes(attribute.Int("border.size", len(border))))
	defer span.End()

	sizes, err := peer.AllGatherSizes(ctx, len(border))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	all, err := peer.AllGatherV(ctx, border)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for r, contribution := range all {
		if len(contribution) != sizes[r] {
			err := cclerrors.Wrap(cclerrors.CodeProtocolError, fmt.Sprintf("border list from rank %d has %d entries, announced %d", r, len(contribution), sizes[r]), nil)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	foreignIDToLabel := make(map[int32]int32)
	for _, contribution := range all {
		for i := 0; i+1 < len(contribution); i += 2 {
			foreignIDToLabel[contribution[i]] = contribution[i+1]
		}
	}
	return foreignIDToLabel, nil
}

// buildCAG wraps labeler.BuildCAG in a span so the shape of the
// component-adjacency graph entering the reduction tree is visible.
func buildCAG(ctx context.Context, sub *labeler.LocalSubgraph, result *labeler.LabelResult, foreignIDToLabel map[int32]int32) (*cag.Graph, error) {
	_, span := tracer.Start(ctx, "engine.buildCAG")
	defer span.End()

	g, err := labeler.BuildCAG(sub, result, foreignIDToLabel)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("cag.node_count", len(g.Nodes)))
	return g, nil
}

// reduce runs the butterfly reduction tree: log2(P) rounds, partner at
// round i is rank XOR 2^i. Each round blocks on a SendRecv, then merges
// and contracts the received CAG into g.
func reduce(ctx context.Context, peer transport.Peer, g *cag.Graph, logger utils.Logger) error {
	ctx, span := tracer.Start(ctx, "engine.reduce")
	defer span.End()

	rounds := Log2(peer.Size())
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		partner := peer.Rank() ^ (1 << uint(i))

		roundCtx, roundSpan := tracer.Start(ctx, "engine.reduce.round",
			trace.WithAttributes(
				attribute.Int("round", i),
				attribute.Int("rank", peer.Rank()),
				attribute.Int("partner", partner),
			))

		payload := g.Serialize()
		received, err := peer.SendRecv(roundCtx, partner, payload)
		if err != nil {
			roundSpan.SetStatus(codes.Error, err.Error())
			roundSpan.End()
			return cclerrors.Wrap(cclerrors.CodeProtocolError, "reduction round sendrecv", err)
		}
		partnerGraph, err := cag.Deserialize(received)
		if err != nil {
			roundSpan.SetStatus(codes.Error, err.Error())
			roundSpan.End()
			return err
		}

		if err := g.Merge(partnerGraph); err != nil {
			roundSpan.SetStatus(codes.Error, err.Error())
			roundSpan.End()
			return err
		}
		roundSpan.SetAttributes(
			attribute.Int("bytes.sent", len(payload)*4),
			attribute.Int("bytes.received", len(received)*4),
			attribute.Int("cag.node_count", len(g.Nodes)),
		)
		roundSpan.End()
		if logger != nil {
			logger.Debug("reduction round %d: merged with rank %d, %d bytes in, %d bytes out, %d cag nodes",
				i, partner, len(received)*4, len(payload)*4, len(g.Nodes))
		}
	}
	return nil
}

// RunRank executes one rank's full pipeline: local DFS labeling, border
// exchange, CAG construction, the butterfly reduction with merge and
// contraction each round, and final relabel. Result collection is a
// separate step (CollectComponentCount) that every rank calls after
// RunRank returns. Every rank must call RunRank with the same reader content
// and the same P; the partition each rank covers is derived from
// peer.Rank()/peer.Size() and the reader's vertex count.
func RunRank(ctx context.Context, peer transport.Peer, reader graphstore.Reader, logger utils.Logger) (*RankResult, error) {
	ctx, span := tracer.Start(ctx, "engine.RunRank",
		trace.WithAttributes(attribute.Int("rank", peer.Rank()), attribute.Int("size", peer.Size())))
	defer span.End()

	vertexCount := reader.VertexCount()
	lo, hi, err := Partition(vertexCount, int32(peer.Size()), int32(peer.Rank()))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("range.lo", int(lo)), attribute.Int("range.hi", int(hi)))

	sub, err := buildLocalSubgraph(ctx, reader, lo, hi)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := labelLocal(ctx, sub)

	foreignIDToLabel, err := exchangeBorders(ctx, peer, result.BorderList(sub))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	g, err := buildCAG(ctx, sub, result, foreignIDToLabel)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := reduce(ctx, peer, g, logger); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	labels := make([]int32, len(result.Labels))
	for i, label := range result.Labels {
		labels[i] = g.Find(label)
	}

	if logger != nil {
		logger.Info("rank %d done: range [%d, %d], %d vertices", peer.Rank(), lo, hi, len(labels))
	}

	return &RankResult{Lo: lo, Hi: hi, Labels: labels}, nil
}

// CollectComponentCount implements result collection (spec §4.8): rank
// 0 gathers every rank's distinct final labels and unions them into one
// count. Every rank must call this after RunRank completes locally.
func CollectComponentCount(ctx context.Context, peer transport.Peer, labels []int32) (int32, error) {
	ctx, span := tracer.Start(ctx, "engine.CollectComponentCount")
	defer span.End()

	distinct := distinctSorted(labels)
	payload := make([]int32, len(distinct))
	copy(payload, distinct)

	gathered, err := peer.Gather(ctx, 0, payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if peer.Rank() != 0 {
		return 0, nil
	}

	seen := make(map[int32]struct{})
	for _, contribution := range gathered {
		for _, label := range contribution {
			seen[label] = struct{}{}
		}
	}
	count := int32(len(seen))
	span.SetAttributes(attribute.Int("component_count", int(count)))
	return count, nil
}

func distinctSorted(labels []int32) []int32 {
	seen := make(map[int32]struct{}, len(labels))
	out := make([]int32, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Run drives a full in-process computation over numProcesses ranks
// wired together by an in-memory transport.Local fabric: the default
// mode the CLI's `run` command and the property tests use. Ranks fan
// out through pkg/parallel.ForEach, one worker per rank, since the
// local fabric requires every rank to be alive at once to complete its
// border-exchange and reduction collectives.
func Run(ctx context.Context, numProcesses int, reader graphstore.Reader, logger utils.Logger) (*Result, error) {
	ctx, span := tracer.Start(ctx, "engine.Run",
		trace.WithAttributes(attribute.Int("processes", numProcesses)))
	defer span.End()

	if !IsPowerOfTwo(numProcesses) {
		err := cclerrors.Wrap(cclerrors.CodeConfigError, "processes must be a power of two", nil)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	peers := transport.NewLocalFabric(numProcesses)
	ranks := make([]RankResult, numProcesses)
	var componentCount int32

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rankIDs := make([]int, numProcesses)
	for i := range rankIDs {
		rankIDs[i] = i
	}
	poolConfig := parallel.DefaultPoolConfig().WithWorkers(numProcesses)

	_, err := parallel.ForEach(runCtx, rankIDs, poolConfig, func(fnCtx context.Context, i int) error {
		rr, err := RunRank(fnCtx, peers[i], reader, logger)
		if err != nil {
			cancel()
			return fmt.Errorf("rank %d: %w", i, err)
		}
		ranks[i] = *rr

		count, err := CollectComponentCount(fnCtx, peers[i], rr.Labels)
		if err != nil {
			cancel()
			return fmt.Errorf("rank %d: result collection: %w", i, err)
		}
		if i == 0 {
			componentCount = count
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("vertex_count", int(reader.VertexCount())),
		attribute.Int("component_count", int(componentCount)),
	)

	return &Result{
		VertexCount:    reader.VertexCount(),
		ComponentCount: componentCount,
		Ranks:          ranks,
	}, nil
}

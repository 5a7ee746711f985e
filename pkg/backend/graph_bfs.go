package backend

import "context"

// BFS runs a bounded breadth-first traversal from filter.CenterID, shared
// by every Backend implementation so the expansion algorithm exists once.
// Grounded on store-core's pkg/graphrag/expander.go DefaultExpander:
// a visited set, a FIFO queue of (id, hop) pairs, per-hop traversal of
// both directions, and a hard total-node cutoff.
func BFS(ctx context.Context, b Backend, filter GraphFilter) (GraphData, error) {
	depth := filter.Depth
	if depth < 1 {
		depth = 1
	}
	if depth > 3 {
		depth = 3
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	type key struct{ id, kb string }
	type queueItem struct {
		key
		hop int
	}

	start := key{filter.CenterID, filter.CenterKB}
	visited := map[key]int{start: 0} // key -> hop distance
	queue := []queueItem{{start, 0}}

	type edgeKey struct{ sourceID, sourceKB, targetID, targetKB string }
	edgeSeen := make(map[edgeKey]bool)
	var edges []GraphEdge
	linkCount := map[key]int{}

	for len(queue) > 0 && len(visited) < limit {
		select {
		case <-ctx.Done():
			return GraphData{}, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]
		if item.hop >= depth {
			continue
		}

		out, err := b.GetOutlinks(ctx, item.id, item.kb)
		if err != nil {
			return GraphData{}, err
		}
		in, err := b.GetBacklinks(ctx, item.id, item.kb)
		if err != nil {
			return GraphData{}, err
		}

		for _, l := range out {
			target := key{l.TargetID, l.TargetKB}
			ek := edgeKey{l.SourceID, l.SourceKB, l.TargetID, l.TargetKB}
			if !edgeSeen[ek] {
				edgeSeen[ek] = true
				edges = append(edges, GraphEdge{SourceID: l.SourceID, SourceKB: l.SourceKB, TargetID: l.TargetID, TargetKB: l.TargetKB, Relation: l.Relation})
				linkCount[item.key]++
				linkCount[target]++
			}
			if _, ok := visited[target]; !ok && len(visited) < limit {
				visited[target] = item.hop + 1
				queue = append(queue, queueItem{target, item.hop + 1})
			}
		}
		for _, l := range in {
			source := key{l.SourceID, l.SourceKB}
			ek := edgeKey{l.SourceID, l.SourceKB, l.TargetID, l.TargetKB}
			if !edgeSeen[ek] {
				edgeSeen[ek] = true
				edges = append(edges, GraphEdge{SourceID: l.SourceID, SourceKB: l.SourceKB, TargetID: l.TargetID, TargetKB: l.TargetKB, Relation: l.Relation})
				linkCount[item.key]++
				linkCount[source]++
			}
			if _, ok := visited[source]; !ok && len(visited) < limit {
				visited[source] = item.hop + 1
				queue = append(queue, queueItem{source, item.hop + 1})
			}
		}
	}

	// Edges are pruned to endpoints in the visited set, so a node
	// discovered only after the limit cutoff leaves no edge behind. An
	// endpoint that is visited but dropped below by the KB or type filter,
	// or for having no entry, keeps its edges.
	var keptEdges []GraphEdge
	for _, e := range edges {
		if _, ok := visited[key{e.SourceID, e.SourceKB}]; !ok {
			continue
		}
		if _, ok := visited[key{e.TargetID, e.TargetKB}]; !ok {
			continue
		}
		keptEdges = append(keptEdges, e)
	}

	var nodes []GraphNode
	for k, hop := range visited {
		if filter.KBName != "" && k.kb != filter.KBName {
			continue
		}
		entry, err := b.GetEntry(ctx, k.id, k.kb)
		if err != nil {
			return GraphData{}, err
		}
		if entry == nil {
			continue
		}
		if filter.Type != "" && entry.EntryType != filter.Type {
			continue
		}
		nodes = append(nodes, GraphNode{
			ID:        k.id,
			KBName:    k.kb,
			Title:     entry.Title,
			EntryType: entry.EntryType,
			Hops:      hop,
			LinkCount: linkCount[k],
		})
	}

	return GraphData{Nodes: nodes, Edges: keptEdges}, nil
}

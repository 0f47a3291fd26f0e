package search

import (
	"sort"

	"github.com/qixuan-zhu/deckagent/store"
)

const rrfK = 60 // RRF constant (standard value from literature)

// FusedResultInfo holds per-result method contribution metadata.
type FusedResultInfo struct {
	Methods []string `json:"methods"`
	VecRank int      `json:"vec_rank,omitempty"` // 1-based, 0 = not present
	FTSRank int      `json:"fts_rank,omitempty"` // 1-based, 0 = not present
}

// fuseRRF implements Reciprocal Rank Fusion to combine vector and FTS
// results. Each result set is ranked independently, then scores are
// combined using: score = sum(weight_i / (k + rank_i)).
// It also returns per-result method contribution info keyed by ElementID.
func fuseRRF(
	vecResults, ftsResults []store.SearchResult,
	weightVec, weightFTS float64,
	maxResults int,
) ([]store.SearchResult, map[int64]FusedResultInfo) {
	type fusedEntry struct {
		result store.SearchResult
		score  float64
		info   FusedResultInfo
	}

	fused := make(map[int64]*fusedEntry)

	for rank, r := range vecResults {
		entry, ok := fused[r.ElementID]
		if !ok {
			entry = &fusedEntry{result: r}
			fused[r.ElementID] = entry
		}
		entry.score += weightVec / float64(rrfK+rank+1)
		entry.info.Methods = append(entry.info.Methods, "vector")
		entry.info.VecRank = rank + 1
	}

	for rank, r := range ftsResults {
		entry, ok := fused[r.ElementID]
		if !ok {
			entry = &fusedEntry{result: r}
			fused[r.ElementID] = entry
		}
		entry.score += weightFTS / float64(rrfK+rank+1)
		entry.info.Methods = append(entry.info.Methods, "fts")
		entry.info.FTSRank = rank + 1
	}

	entries := make([]*fusedEntry, 0, len(fused))
	for _, e := range fused {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	if maxResults > 0 && len(entries) > maxResults {
		entries = entries[:maxResults]
	}

	results := make([]store.SearchResult, len(entries))
	infoMap := make(map[int64]FusedResultInfo, len(entries))
	for i, e := range entries {
		results[i] = e.result
		results[i].Score = e.score
		infoMap[e.result.ElementID] = e.info
	}

	return results, infoMap
}

package engine

import "time"

// SearchStats collects counters for one top-level search call. Pass a fresh
// instance through Options.Stats to receive them; with a nil Stats the search
// still counts internally but the caller sees nothing.
type SearchStats struct {
	Nodes          uint64        `json:"nodes"`
	QuiesceNodes   uint64        `json:"quiesce_nodes"`
	CacheHits      uint64        `json:"cache_hits"`
	CacheStores    uint64        `json:"cache_stores"`
	Cutoffs        uint64        `json:"cutoffs"`
	DepthReached   int           `json:"depth_reached"`
	Elapsed        time.Duration `json:"elapsed"`
	TimedOut       bool          `json:"timed_out"`
	BookHit        bool          `json:"book_hit"`
	CandidateCount int           `json:"candidate_count"`
}

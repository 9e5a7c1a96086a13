package search

import "github.com/quorial/grounddesk/vectorstore"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterSemanticSearch(results []vectorstore.Result)
	VerbatimHit(match *Match)
	Finish(matches []*Match)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterSemanticSearch(_ []vectorstore.Result) {}
func (n *noopMonitor) VerbatimHit(_ *Match)                       {}
func (n *noopMonitor) Finish(_ []*Match)                          {}

package domain

// NodeStatus is the outcome of one planned node in an install run.
type NodeStatus string

const (
	// NodeStatusPending indicates the node was not reached.
	NodeStatusPending NodeStatus = "pending"
	// NodeStatusInstalled indicates the node was hydrated by this run.
	NodeStatusInstalled NodeStatus = "installed"
	// NodeStatusAlreadyInstalled indicates the exact version was already in the cellar.
	NodeStatusAlreadyInstalled NodeStatus = "already-installed"
	// NodeStatusFailed indicates fetching or hydrating the node failed.
	NodeStatusFailed NodeStatus = "failed"
	// NodeStatusAborted indicates the node was skipped after another node failed.
	NodeStatusAborted NodeStatus = "aborted"
)

// IsSatisfied reports whether the node is present in the cellar after the run.
func (s NodeStatus) IsSatisfied() bool {
	return s == NodeStatusInstalled || s == NodeStatusAlreadyInstalled
}

// NodeOutcome records what happened to one node.
type NodeOutcome struct {
	Node   ResolvedNode
	Status NodeStatus
	// Entry is set when the node is satisfied.
	Entry CellarEntry
	// Cached reports whether the artifact came from the cache.
	Cached bool
	Err    error
}

// InstallResult reports an install run, node by node in plan order.
type InstallResult struct {
	RunID    string
	Plan     *Plan
	Outcomes []NodeOutcome
}

// Entries returns the cellar entries of every satisfied node, dependencies first.
func (r *InstallResult) Entries() []CellarEntry {
	out := make([]CellarEntry, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Status.IsSatisfied() {
			out = append(out, o.Entry)
		}
	}
	return out
}

// Outcome returns the outcome of the node for name.
func (r *InstallResult) Outcome(name PackageName) (NodeOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Node.Name == name {
			return o, true
		}
	}
	return NodeOutcome{}, false
}

// Count returns the number of nodes with the given status.
func (r *InstallResult) Count(status NodeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

package grpcpeer

// ExchangeRequest carries one SendRecv round's payload from one rank to
// its partner. Round disambiguates concurrent in-flight rounds when a
// server has not yet been asked for the matching round by its own
// SendRecv call.
type ExchangeRequest struct {
	FromRank int
	Round    int
	Payload  []int32
}

// ExchangeResponse is the receiving rank's own payload for that round,
// returned synchronously so Exchange doubles as both halves of a
// SendRecv from the caller's perspective.
type ExchangeResponse struct {
	Payload []int32
}

// ContributeRequest is sent to the coordinator rank (always rank 0) as
// one party's share of an AllGatherSizes/AllGatherV/Gather collective.
type ContributeRequest struct {
	Kind    string
	Rank    int
	Round   int
	Payload []int32
}

// ContributeResponse holds every rank's contribution in rank order,
// populated once the coordinator has heard from all ranks for this
// Kind. The coordinator keys collectives by Kind alone; Round is not
// set by the client and not read by the server.
type ContributeResponse struct {
	Contributions [][]int32
}

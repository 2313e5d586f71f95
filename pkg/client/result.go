package client

import "github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"

// ResultKind tags the outcome of a single lookup.
type ResultKind int

const (
	// ResultSuccess carries a fetched record.
	ResultSuccess ResultKind = iota

	// ResultNotFound means upstream has no record for the identifier.
	ResultNotFound

	// ResultTransportFailure covers every other failure.
	ResultTransportFailure
)

// String returns the metric/log label of the kind.
func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultNotFound:
		return "not_found"
	default:
		return "transport_failure"
	}
}

// Result is the outcome of one lookup: Success(Pokemon) | NotFound | TransportFailure.
type Result struct {
	NameOrID string
	Pokemon  pokemon.Pokemon
	Kind     ResultKind
	Err      error
}

// ResultOf classifies the return values of FetchOne. Errors that are neither
// NotFoundError nor TransportError (for example a pool-level context error)
// are treated as transport failures.
func ResultOf(nameOrID string, p *pokemon.Pokemon, err error) Result {
	switch {
	case err == nil && p != nil:
		return Result{NameOrID: nameOrID, Pokemon: *p, Kind: ResultSuccess}
	case err == nil:
		return Result{NameOrID: nameOrID, Kind: ResultNotFound, Err: &NotFoundError{NameOrID: nameOrID}}
	case IsNotFound(err):
		return Result{NameOrID: nameOrID, Kind: ResultNotFound, Err: err}
	default:
		return Result{NameOrID: nameOrID, Kind: ResultTransportFailure, Err: err}
	}
}

// OK reports whether the result carries a record.
func (r Result) OK() bool {
	return r.Kind == ResultSuccess
}

package binding

//go:generate go tool stringer -type=Kind -trimprefix=Kind -output=kind_string.go

// Kind tags an Observer.
type Kind int

const (
	KindSingle    Kind = iota // one source, may be two-way
	KindFormat                // several sources rendered through a template
	KindTransform             // several sources passed to a function
	KindResource              // one entry of a resource table
	KindRelay                 // forwards changes of a mapped target to the mapping location
)

package types

// ChainType names one of the four Markov relationship chains.
type ChainType string

const (
	ChainCallFlow      ChainType = "call_flow"
	ChainCooccurrence  ChainType = "cooccurrence"
	ChainTypeAffinity  ChainType = "type_affinity"
	ChainImportCluster ChainType = "import_cluster"
)

// AllChainTypes lists every chain, in the default blending order.
var AllChainTypes = []ChainType{ChainCallFlow, ChainCooccurrence, ChainTypeAffinity, ChainImportCluster}

// MarkovTransition is one weighted out-edge of a chain, keyed by fromState.
// FromState/ToState are interpreted per chain type: symbol ID for
// call_flow/cooccurrence, a normalized type base name for type_affinity,
// a file ID for import_cluster.
type MarkovTransition struct {
	ChainID     ChainType
	FromState   string
	ToState     string
	RawCount    int
	Probability float64
}

// Suggestion is one ranked result from the Markov query engine.
type Suggestion struct {
	State        string
	Score        float64
	Depth        int
	Path         []string
	Chain        ChainType
	Explanation  string
}

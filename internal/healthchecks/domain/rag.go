package domain

// RAG is the red/amber/green severity of a check result.
type RAG string

const (
	RAGNone  RAG = ""
	RAGGreen RAG = "green"
	RAGAmber RAG = "amber"
	RAGRed   RAG = "red"
)

func (r RAG) rank() int {
	switch r {
	case RAGRed:
		return 3
	case RAGAmber:
		return 2
	case RAGGreen:
		return 1
	default:
		return 0
	}
}

// WorstRAG returns the most severe of values. Unrecognised values rank below green.
func WorstRAG(values ...RAG) RAG {
	worst := RAGNone
	for _, v := range values {
		if v.rank() > worst.rank() {
			worst = v
		}
	}
	return worst
}

// SeverityCounts counts items per RAG class.
type SeverityCounts struct {
	Red   int `json:"red"`
	Amber int `json:"amber"`
	Green int `json:"green"`
}

func (s *SeverityCounts) add(r RAG) {
	switch r {
	case RAGRed:
		s.Red++
	case RAGAmber:
		s.Amber++
	case RAGGreen:
		s.Green++
	}
}

// Severity splits RAG counts into identified and authorised work.
type Severity struct {
	Identified SeverityCounts `json:"identified"`
	Authorised SeverityCounts `json:"authorised"`
}

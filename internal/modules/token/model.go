package token

// Kind distinguishes how a token was produced. Sequential tokens come from
// the atomic daily counter and are gapless within a day; synthetic tokens
// come from the degraded fallback path and are only unique, not ordered.
type Kind string

const (
	KindSequential Kind = "SEQUENTIAL"
	KindSynthetic  Kind = "SYNTHETIC"
)

// Token is a human-facing pickup code scoped to a single civil day.
type Token struct {
	Value string `json:"value"`
	Kind  Kind   `json:"kind"`
	Seq   int64  `json:"seq,omitempty"` // 0 for synthetic tokens
}

package testutil

import (
	"encoding/json"
	"fmt"
)

type problemJSON struct {
	Question   string   `json:"question"`
	BloomLevel string   `json:"bloomLevel"`
	Choices    []string `json:"choices,omitempty"`
	Answer     string   `json:"answer"`
}

// ProblemsJSON renders a model response holding one problem per level, in the
// {"problems":[...]} shape the generation service asks for. Questions are
// numbered "Question 1?", "Question 2?", ...
func ProblemsJSON(levels ...string) string {
	items := make([]problemJSON, len(levels))
	for i, level := range levels {
		items[i] = problemJSON{
			Question:   fmt.Sprintf("Question %d?", i+1),
			BloomLevel: level,
			Choices:    []string{"A", "B", "C"},
			Answer:     "A",
		}
	}
	b, err := json.Marshal(map[string]any{"problems": items})
	if err != nil {
		panic(err)
	}
	return string(b)
}

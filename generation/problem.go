package generation

import "github.com/andyMattick/eduagents/model"

// Problem is one generated quiz item.
type Problem struct {
	ID          string     `json:"id,omitempty" yaml:"id,omitempty"`
	Question    string     `json:"question" yaml:"question"`
	BloomLevel  BloomLevel `json:"bloomLevel" yaml:"bloomLevel"`
	Choices     []string   `json:"choices,omitempty" yaml:"choices,omitempty"`
	Answer      string     `json:"answer" yaml:"answer"`
	Explanation string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Result is the outcome of one Generate call.
type Result struct {
	Topic      string            `json:"topic" yaml:"topic"`
	Requested  int               `json:"requested" yaml:"requested"`
	Allocation []Allocation      `json:"allocation" yaml:"allocation"`
	Problems   []Problem         `json:"problems" yaml:"problems"`
	Model      model.Info        `json:"model" yaml:"model"`
	Usage      *model.TokenUsage `json:"usage,omitempty" yaml:"usage,omitempty"`
}

package evaluation

// EvalScore is one named metric value.
type EvalScore struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Output is the dataset-level result of one algorithm on one dataset.
type Output struct {
	EvalName       EvalAlgorithm `json:"eval_name"`
	DatasetName    string        `json:"dataset_name"`
	PromptTemplate string        `json:"prompt_template,omitempty"`
	DatasetScores  []EvalScore   `json:"dataset_scores"`
}

// Score returns the named dataset score.
func (o Output) Score(name string) (float64, bool) {
	for _, s := range o.DatasetScores {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// SampleResult is one line of the per-sample detail output.
type SampleResult struct {
	ModelInput   string      `json:"model_input"`
	ModelOutput  string      `json:"model_output"`
	TargetOutput string      `json:"target_output"`
	Scores       []EvalScore `json:"scores"`
}

// InputLine is one line of the staged evaluation input.
type InputLine struct {
	Prompt  string `json:"prompt"`
	Answers string `json:"answers"`
}

package dto

// LoginRequest is the body of POST /api/user/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// DatasetURIRequest loads a dataset from a local path or s3://bucket/key.
type DatasetURIRequest struct {
	URI string `json:"uri" binding:"required"`
}

// AnswerFieldRequest changes the reference answer field.
type AnswerFieldRequest struct {
	Field string `json:"field" binding:"required"`
}

// RunEvaluationRequest is the body of POST /api/evaluations.
type RunEvaluationRequest struct {
	ModelID string `json:"model_id" binding:"required"`
	// ConfigID is optional; the model's first config is used when empty.
	ConfigID string `json:"config_id"`
	// PromptTemplate falls back to the default template when empty.
	PromptTemplate string `json:"prompt_template"`
	EvalAlgo       string `json:"eval_algo" binding:"required"`
	NumRecords     int    `json:"num_records" binding:"gte=0"`
}

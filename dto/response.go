package dto

import (
	"time"

	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/model"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/catalog"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
)

// ModelView is one selectable model with the configs it accepts.
type ModelView struct {
	ModelID string                    `json:"model_id"`
	Type    channeltype.ModelType     `json:"model_type"`
	Family  string                    `json:"family,omitempty"`
	Configs []adaptor.InferenceConfig `json:"inference_configs"`
}

func NewModelView(e catalog.Entry) ModelView {
	v := ModelView{
		ModelID: e.Model.ModelID,
		Type:    e.Model.Type,
		Configs: e.Configs,
	}
	if e.Model.Type == channeltype.Bedrock {
		v.Family = e.Family.String()
	}
	return v
}

type AlgorithmView struct {
	Name        evaluation.EvalAlgorithm `json:"name"`
	DisplayName string                   `json:"display_name"`
}

// DatasetView describes the session's dataset and its preview rows.
type DatasetView struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	Size           int            `json:"size"`
	Fields         []string       `json:"fields"`
	RefAnswerField string         `json:"ref_answer_field"`
	Preview        []model.Record `json:"preview"`
}

func NewDatasetView(ds *model.Dataset, preview []model.Record) DatasetView {
	if preview == nil {
		preview = []model.Record{}
	}
	return DatasetView{
		ID:             ds.ID,
		Source:         ds.Source,
		Size:           ds.Size(),
		Fields:         ds.Fields,
		RefAnswerField: ds.RefAnswerField(),
		Preview:        preview,
	}
}

// EvaluationView is one history entry as listed to the UI.
type EvaluationView struct {
	Index           int                       `json:"index"`
	Model           string                    `json:"model"`
	ModelType       channeltype.ModelType     `json:"model_type"`
	InferenceConfig adaptor.InferenceConfig   `json:"inference_config"`
	PromptTemplate  string                    `json:"prompt_template"`
	EvalAlgo        evaluation.EvalAlgorithm  `json:"eval_algo"`
	DatasetID       string                    `json:"dataset_id"`
	NumRecords      int                       `json:"num_records"`
	StartTime       time.Time                 `json:"start_time"`
	TimeTaken       string                    `json:"time_taken"`
	Results         []evaluation.Output       `json:"results"`
	Samples         []evaluation.SampleResult `json:"samples"`
}

func NewEvaluationView(index int, rec *model.EvaluationRecord, samples []evaluation.SampleResult) EvaluationView {
	summary := model.NewSummary(rec)
	return EvaluationView{
		Index:           index,
		Model:           rec.Model.ModelID,
		ModelType:       rec.Model.Type,
		InferenceConfig: rec.Inference,
		PromptTemplate:  summary.PromptTemplate,
		EvalAlgo:        rec.EvalAlgo,
		DatasetID:       rec.DatasetID,
		NumRecords:      rec.NumRecords,
		StartTime:       rec.StartTime,
		TimeTaken:       summary.TimeTaken,
		Results:         rec.Summary,
		Samples:         samples,
	}
}

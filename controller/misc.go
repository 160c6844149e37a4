package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common"
	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/dto"
	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/model"
)

func (h *Handler) GetStatus(c *gin.Context) {
	respondOK(c, gin.H{
		"version":                  common.Version,
		"start_time":               common.StartTime,
		"auth_enabled":             h.Auth != nil,
		"max_evals_in_memory":      config.MaxEvalsInMemory,
		"display_max_questions":    config.DisplayMaxQuestions,
		"default_ref_answer_field": config.DefaultRefAnswerField,
		"default_num_records":      config.EvalDefaultNumRecords,
		"max_dataset_size_mb":      config.MaxDatasetSizeMB,
	})
}

// GetModels lists models that have at least one inference config.
func (h *Handler) GetModels(c *gin.Context) {
	views := []dto.ModelView{}
	for _, e := range h.Env.Catalog.Available() {
		views = append(views, dto.NewModelView(e))
	}
	respondOK(c, views)
}

func (h *Handler) GetAlgorithms(c *gin.Context) {
	views := make([]dto.AlgorithmView, 0, len(evaluation.Evaluations))
	for _, a := range evaluation.Evaluations {
		views = append(views, dto.AlgorithmView{Name: a, DisplayName: a.DisplayName()})
	}
	respondOK(c, views)
}

func (h *Handler) GetDefaultPromptTemplate(c *gin.Context) {
	respondOK(c, gin.H{"prompt_template": model.DefaultPromptTemplate})
}

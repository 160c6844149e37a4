package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/graceful"
	"github.com/songquanpeng/prompt-studio/dto"
	"github.com/songquanpeng/prompt-studio/evaluation"
	"github.com/songquanpeng/prompt-studio/middleware"
	"github.com/songquanpeng/prompt-studio/model"
	rcontroller "github.com/songquanpeng/prompt-studio/relay/controller"
)

// RunEvaluation runs one evaluation synchronously and appends it to the session history.
func (h *Handler) RunEvaluation(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	var req dto.RunEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "invalid evaluation request"))
		return
	}
	algo, err := evaluation.ParseAlgorithm(req.EvalAlgo)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, err)
		return
	}
	tpl := model.PromptTemplate(req.PromptTemplate)
	if strings.TrimSpace(req.PromptTemplate) == "" {
		tpl = model.DefaultPromptTemplate
	}

	release, admitted := graceful.BeginEvaluation()
	defer release()
	if !admitted {
		middleware.AbortWithError(c, http.StatusServiceUnavailable, errors.New("server is shutting down"))
		return
	}
	ev, err := sess.BeginEvaluation()
	switch {
	case errors.Is(err, model.ErrNoDataset):
		middleware.AbortWithError(c, http.StatusBadRequest, err)
		return
	case err != nil:
		middleware.AbortWithError(c, http.StatusConflict, err)
		return
	}
	defer ev.Done()

	lg := gmw.GetLogger(c).With(
		zap.String("model", req.ModelID),
		zap.String("eval_algo", algo.String()),
		zap.Int("num_records", req.NumRecords))
	lg.Info("evaluation started")

	rec, err := rcontroller.RunEvaluation(gmw.Ctx(c), h.Env, ev.Dataset, rcontroller.EvalRequest{
		ModelID:        req.ModelID,
		ConfigID:       req.ConfigID,
		PromptTemplate: tpl,
		Algorithm:      algo,
		NumRecords:     req.NumRecords,
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if rcontroller.IsInvalidRequest(err) {
			status = http.StatusBadRequest
		}
		middleware.AbortWithError(c, status, errors.Wrap(err, "evaluation failed"))
		return
	}

	index, evicted, err := ev.Record(rec)
	if err != nil {
		middleware.AbortWithError(c, http.StatusConflict, err)
		return
	}
	if evicted > 0 {
		lg.Info("evicted oldest evaluation records", zap.Int("evicted", evicted))
	}
	lg.Info("evaluation finished", zap.Duration("time_taken", rec.TimeTaken))

	view, err := evaluationView(index, rec)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, view)
}

func evaluationView(index int, rec *model.EvaluationRecord) (dto.EvaluationView, error) {
	samples, err := model.DetailSamples(rec, config.DisplayMaxQuestions)
	if err != nil {
		return dto.EvaluationView{}, err
	}
	return dto.NewEvaluationView(index, rec, samples), nil
}

// ListEvaluations returns the history newest first.
func (h *Handler) ListEvaluations(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	views := []dto.EvaluationView{}
	for _, item := range sess.History().List() {
		view, err := evaluationView(item.Index, item.Record)
		if err != nil {
			middleware.AbortWithError(c, http.StatusInternalServerError, err)
			return
		}
		views = append(views, view)
	}
	respondOK(c, views)
}

func (h *Handler) ClearEvaluations(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	sess.History().Clear()
	respondOK(c, nil)
}

func (h *Handler) DeleteEvaluation(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if err := sess.History().Remove(index); err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, err)
		return
	}
	respondOK(c, nil)
}

func (h *Handler) DownloadSummary(c *gin.Context) {
	rec, ok := recordParam(c)
	if !ok {
		return
	}
	b, err := model.SummaryJSON(rec)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, err)
		return
	}
	attachment(c, model.SummaryFileName)
	c.Data(http.StatusOK, "application/json", b)
}

func (h *Handler) DownloadDetail(c *gin.Context) {
	rec, ok := recordParam(c)
	if !ok {
		return
	}
	attachment(c, fmt.Sprintf("%s_%s", rec.DatasetID, model.DetailFileName))
	c.Data(http.StatusOK, "application/x-ndjson", rec.Detail)
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "invalid evaluation index"))
		return 0, false
	}
	return index, true
}

func recordParam(c *gin.Context) (*model.EvaluationRecord, bool) {
	sess, ok := session(c)
	if !ok {
		return nil, false
	}
	index, ok := indexParam(c)
	if !ok {
		return nil, false
	}
	rec, err := sess.History().Get(index)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, err)
		return nil, false
	}
	return rec, true
}

package controller

import (
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/storage"
	"github.com/songquanpeng/prompt-studio/dto"
	"github.com/songquanpeng/prompt-studio/middleware"
	"github.com/songquanpeng/prompt-studio/model"
)

// UploadDataset replaces the session's dataset with a multipart "file" upload or the JSON body
// {"uri"}. The run history is cleared.
func (h *Handler) UploadDataset(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if sess.Evaluating() {
		middleware.AbortWithError(c, http.StatusConflict, model.ErrEvaluationInFlight)
		return
	}

	var (
		data   []byte
		source string
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		data, source, err = h.readUpload(c)
	} else {
		data, source, err = h.readLocation(c)
	}
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, storage.ErrLocalPathDenied):
			status = http.StatusForbidden
		}
		middleware.AbortWithError(c, status, err)
		return
	}

	ds, preview, err := model.NewDataset(config.DefaultDatasetID, source, data, sess.RefAnswerField(), config.DisplayMaxQuestions)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "invalid dataset"))
		return
	}
	if err := sess.SetDataset(ds, preview); err != nil {
		middleware.AbortWithError(c, http.StatusConflict, err)
		return
	}

	gmw.GetLogger(c).Info("dataset loaded",
		zap.String("source", source),
		zap.Int("bytes", ds.Size()),
		zap.Strings("fields", ds.Fields))
	respondOK(c, dto.NewDatasetView(ds, preview))
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", errors.Wrap(err, "read uploaded file")
	}
	limit := h.Datasets.MaxBytes
	if limit > 0 && fh.Size > limit {
		return nil, "", errors.Wrapf(storage.ErrTooLarge, "%s is %d bytes", fh.Filename, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.Wrap(err, "open uploaded file")
	}
	defer f.Close()

	data, err := storage.ReadLimited(f, limit)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

func (h *Handler) readLocation(c *gin.Context) ([]byte, string, error) {
	var req dto.DatasetURIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, "", errors.Wrap(err, "expected a multipart file or {\"uri\"}")
	}
	loc, err := storage.ParseLocation(req.URI)
	if err != nil {
		return nil, "", err
	}
	if loc, err = storage.Confine(loc, h.Datasets.LocalRoot); err != nil {
		return nil, "", err
	}
	data, err := h.Datasets.Load(gmw.Ctx(c), loc)
	if err != nil {
		return nil, "", err
	}
	return data, loc.Name(), nil
}

func (h *Handler) GetDataset(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	ds, preview, err := sess.Dataset()
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, err)
		return
	}
	respondOK(c, dto.NewDatasetView(ds, preview))
}

func (h *Handler) UpdateAnswerField(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var req dto.AnswerFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "invalid answer field request"))
		return
	}
	if err := sess.SetRefAnswerField(req.Field); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, err)
		return
	}
	respondOK(c, gin.H{"ref_answer_field": sess.RefAnswerField()})
}

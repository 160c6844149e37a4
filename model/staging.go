package model

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/prompt-studio/common/logger"
)

// StagedInput is a temporary JSON Lines file holding the transformed evaluation input.
// Close removes it; callers defer Close right after staging succeeds.
type StagedInput struct {
	Path    string
	Records int

	closeOnce sync.Once
	closeErr  error
}

// StageEvalInput writes BuildEvalInput output to a temp file. On failure the file is removed
// before returning.
func StageEvalInput(ds *Dataset, tpl PromptTemplate, structured bool) (staged *StagedInput, err error) {
	f, err := os.CreateTemp("", "prompt-studio-*.jsonl")
	if err != nil {
		return nil, errors.Wrap(err, "create staging file")
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			if rmErr := os.Remove(f.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Logger.Warn("remove staging file", zap.String("path", f.Name()), zap.Error(rmErr))
			}
		}
	}()

	bw := bufio.NewWriter(f)
	n, err := BuildEvalInput(bw, ds, tpl, structured)
	if err != nil {
		return nil, err
	}
	if err = bw.Flush(); err != nil {
		return nil, errors.Wrap(err, "flush staging file")
	}
	if err = f.Close(); err != nil {
		return nil, errors.Wrap(err, "close staging file")
	}

	logger.Logger.Debug("staged evaluation input",
		zap.String("dataset", ds.ID),
		zap.String("path", f.Name()),
		zap.Int("records", n))
	return &StagedInput{Path: f.Name(), Records: n}, nil
}

// Open returns a reader over the staged lines.
func (s *StagedInput) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open staged input")
	}
	return f, nil
}

// Close removes the staging file. It is safe to call more than once.
func (s *StagedInput) Close() error {
	s.closeOnce.Do(func() {
		if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
			s.closeErr = errors.Wrap(err, "remove staged input")
		}
	})
	return s.closeErr
}

package aws

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/logger"
	"github.com/songquanpeng/prompt-studio/monitor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
)

const mimeJSON = "application/json"

// InvokeModelAPI is the subset of the Bedrock runtime client used by Runner.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

var _ adaptor.Runner = new(Runner)

// Runner invokes one Bedrock model with a composed request template.
type Runner struct {
	client  InvokeModelAPI
	req     *Request
	timeout time.Duration
}

func NewRunner(client InvokeModelAPI, req *Request) *Runner {
	return &Runner{
		client:  client,
		req:     req,
		timeout: config.VendorTimeout,
	}
}

func (r *Runner) ModelID() string { return r.req.ModelID }

// Request exposes the composed template, mostly for logging.
func (r *Runner) Request() *Request { return r.req }

// Predict renders prompt into the payload, calls InvokeModel and extracts the generated text.
// Bedrock text models report no log-probabilities so the second result is always nil.
func (r *Runner) Predict(ctx context.Context, prompt string) (text string, logProb *float64, err error) {
	body, err := r.req.Render(prompt)
	if err != nil {
		return "", nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		monitor.ObserveInvocation(string(channeltype.Bedrock), r.req.ModelID, monitor.Outcome(err), time.Since(start))
	}()

	out, err := r.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(r.req.ModelID),
		Body:        body,
		ContentType: aws.String(mimeJSON),
		Accept:      aws.String(mimeJSON),
	})
	if err != nil {
		return "", nil, r.invocationError(err)
	}

	text, err = ExtractOutput(out.Body, r.req.OutputPath)
	if err != nil {
		return "", nil, &adaptor.VendorInvocationError{
			ModelID: r.req.ModelID,
			Body:    string(out.Body),
			Err:     err,
		}
	}
	return text, nil, nil
}

func (r *Runner) invocationError(err error) error {
	verr := &adaptor.VendorInvocationError{ModelID: r.req.ModelID, Err: err}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		verr.StatusCode = respErr.HTTPStatusCode()
	}

	fields := []zap.Field{
		zap.String("model", r.req.ModelID),
		zap.String("family", r.req.Family.String()),
		zap.Int("status", verr.StatusCode),
		zap.Error(err),
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.String("code", apiErr.ErrorCode()),
			zap.String("fault", apiErr.ErrorFault().String()))
	}
	logger.Logger.Named("bedrock").Warn("invoke model failed", fields...)
	return verr
}

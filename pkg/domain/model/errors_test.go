package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

func TestRunFailure_Unwrap(t *testing.T) {
	cause := errors.New("502 bad gateway")
	err := error(&model.RunFailure{
		Failure: &model.WorkerFailure{Source: "a/x", Cause: cause},
	})

	var wf *model.WorkerFailure
	gt.True(t, errors.As(err, &wf))
	gt.Equal(t, wf.Source, "a/x")
	gt.True(t, errors.Is(err, cause))
	gt.String(t, err.Error()).Contains("a/x")
	gt.String(t, err.Error()).Contains("502 bad gateway")
}

func TestWatermark_Lookup(t *testing.T) {
	var empty model.Watermark
	_, ok := empty.Lookup(model.SourceRef{Owner: "a", Name: "x"})
	gt.False(t, ok)
}

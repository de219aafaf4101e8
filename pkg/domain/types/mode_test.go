package types_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.Mode
		wantErr bool
	}{
		{name: "backfill", input: "backfill", want: types.ModeBackfill},
		{name: "incremental", input: "incremental", want: types.ModeIncremental},
		{name: "case insensitive", input: "Incremental", want: types.ModeIncremental},
		{name: "surrounding spaces", input: " backfill ", want: types.ModeBackfill},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "full", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseMode(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tt.want)
		})
	}
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStages(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{name: "single", args: []string{"train"}, want: []string{"train"}},
		{name: "ordered as given", args: []string{"combine", "predict"}, want: []string{"combine", "predict"}},
		{name: "all", args: []string{"all"}, want: allStages},
		{name: "all then export", args: []string{"all", "export"}, want: append(append([]string{}, allStages...), "export")},
		{name: "none", args: nil, wantErr: true},
		{name: "unknown", args: []string{"deploy"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveStages(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStageFuncsCoverAllStages(t *testing.T) {
	for _, stage := range allStages {
		assert.Contains(t, stageFuncs, stage)
	}
	assert.Len(t, stageFuncs, len(allStages))
}

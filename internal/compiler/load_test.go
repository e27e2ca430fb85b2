package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules(t *testing.T) {
	res, errs := LoadRules("testdata/rules", LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.FileCount)

	names := make([]string, 0, len(res.Configs))
	for _, cfg := range res.Configs {
		names = append(names, cfg.Name)
	}
	assert.ElementsMatch(t, []string{"ssh-burst", "disk-full"}, names)
	assert.Empty(t, Validate(res.Configs))
}

func TestLoadRulesCollectAll(t *testing.T) {
	_, errs := LoadRules("testdata/broken", LoadModeCollectAll)
	require.Len(t, errs, 2)

	var codes []string
	for _, err := range errs {
		require.True(t, IsLoadError(err))
		codes = append(codes, err.(*LoadError).Code)
	}
	assert.ElementsMatch(t, []string{ErrCodeUUID, ErrCodeKind}, codes)
}

func TestLoadRulesFailFast(t *testing.T) {
	_, errs := LoadRules("testdata/broken", LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoadRulesDirectoryErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		code string
	}{
		{"missing", "testdata/nope", ErrCodeNotFound},
		{"file", "testdata/rules/ssh.cue", ErrCodeNotFound},
		{"no contexts", "testdata/empty", ErrCodeNoContexts},
		{"no files", t.TempDir(), ErrCodeNoFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := LoadRules(tt.dir, LoadModeCollectAll)
			require.Len(t, errs, 1)
			var le *LoadError
			require.ErrorAs(t, errs[0], &le)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeUUID, MapFieldToErrorCode("uuid"))
	assert.Equal(t, ErrCodePatterns, MapFieldToErrorCode("patterns[2]"))
	assert.Equal(t, ErrCodeConditions, MapFieldToErrorCode("conditions.timeout"))
	assert.Equal(t, ErrCodeActions, MapFieldToErrorCode("actions[0].message.name"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("cue"))
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeUUID, Context: "ssh-burst", Message: "uuid: uuid is required"}
	assert.Equal(t, "E010: ssh-burst: uuid: uuid is required", err.Error())
}

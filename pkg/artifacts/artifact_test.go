package artifacts_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
)

func TestTextArtifact(t *testing.T) {
	a := artifacts.NewText("42")

	assert.Equal(t, artifacts.KindText, a.Kind())
	assert.Equal(t, "42", a.String())
	assert.False(t, artifacts.IsError(a))
}

func TestErrorArtifact(t *testing.T) {
	a := artifacts.NewErrorf("error calculating: %s", "division by zero")

	assert.Equal(t, artifacts.KindError, a.Kind())
	assert.Equal(t, "error calculating: division by zero", a.String())
	assert.True(t, artifacts.IsError(a))

	var err error = a
	assert.EqualError(t, err, "error calculating: division by zero")
}

func TestFromError(t *testing.T) {
	cause := errors.New("no such table: users")

	assert.Equal(t, "error executing SQL: no such table: users", artifacts.FromError("error executing SQL", cause).String())
	assert.Equal(t, "no such table: users", artifacts.FromError("", cause).String())
	assert.Equal(t, "error executing SQL", artifacts.FromError("error executing SQL", nil).String())

	assert.ErrorIs(t, artifacts.FromError("error executing SQL", cause), cause)
	assert.NoError(t, artifacts.NewError("boom").Unwrap())
}

func TestIsError_Nil(t *testing.T) {
	assert.True(t, artifacts.IsError(nil))
}

func TestArtifact_TypeSwitch(t *testing.T) {
	results := []artifacts.Artifact{artifacts.NewText("ok"), artifacts.NewError("boom")}

	var texts, errs int
	for _, r := range results {
		switch r.(type) {
		case *artifacts.TextArtifact:
			texts++
		case *artifacts.ErrorArtifact:
			errs++
		}
	}
	assert.Equal(t, 1, texts)
	assert.Equal(t, 1, errs)
}

func TestArtifact_JSON(t *testing.T) {
	data, err := json.Marshal(artifacts.Artifact(artifacts.NewError("error: can't access URL")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","value":"error: can't access URL"}`, string(data))

	back, err := artifacts.Unmarshal(data)
	require.NoError(t, err)
	assert.IsType(t, &artifacts.ErrorArtifact{}, back)
	assert.Equal(t, "error: can't access URL", back.String())

	data, err = json.Marshal(artifacts.NewText("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","value":"hello"}`, string(data))
}

func TestUnmarshal_UnknownType(t *testing.T) {
	_, err := artifacts.Unmarshal([]byte(`{"type":"list","value":""}`))
	assert.Error(t, err)

	_, err = artifacts.Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

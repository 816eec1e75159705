package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voicegrab/internal/api"
)

func TestCompileSchemas(t *testing.T) {
	schemas, err := api.CompileSchemas()
	require.NoError(t, err)
	require.NotNil(t, schemas.RegisterElement)
	require.NotNil(t, schemas.RegisterResource)
	require.NotNil(t, schemas.Resolve)
}

func TestValidateRegisterElement(t *testing.T) {
	schemas, err := api.CompileSchemas()
	require.NoError(t, err)

	valid := []byte(`{"elementId":"msg-12","durationMs":30002,"tabId":"tab-1"}`)
	require.NoError(t, api.Validate(schemas.RegisterElement, valid))

	missingDuration := []byte(`{"elementId":"msg-12"}`)
	require.Error(t, api.Validate(schemas.RegisterElement, missingDuration))

	zeroDuration := []byte(`{"elementId":"msg-12","durationMs":0}`)
	require.Error(t, api.Validate(schemas.RegisterElement, zeroDuration))

	unknownField := []byte(`{"elementId":"msg-12","durationMs":1000,"extra":true}`)
	require.Error(t, api.Validate(schemas.RegisterElement, unknownField))
}

func TestValidateRegisterResource(t *testing.T) {
	schemas, err := api.CompileSchemas()
	require.NoError(t, err)

	valid := []byte(`{"url":"https://cdn.test/a.mp4","durationMs":30000}`)
	require.NoError(t, api.Validate(schemas.RegisterResource, valid))

	noDuration := []byte(`{"url":"blob:https://messaging.test/9c8b","blobType":"audio/mp4","blobSize":120000}`)
	require.NoError(t, api.Validate(schemas.RegisterResource, noDuration))

	missingURL := []byte(`{"durationMs":30000}`)
	require.Error(t, api.Validate(schemas.RegisterResource, missingURL))
}

func TestValidateResolve(t *testing.T) {
	schemas, err := api.CompileSchemas()
	require.NoError(t, err)

	byElement := []byte(`{"elementId":"msg-12"}`)
	require.NoError(t, api.Validate(schemas.Resolve, byElement))

	byDuration := []byte(`{"durationMs":5000,"tabId":"tab-1"}`)
	require.NoError(t, api.Validate(schemas.Resolve, byDuration))

	empty := []byte(`{}`)
	require.Error(t, api.Validate(schemas.Resolve, empty))

	notJSON := []byte(`{`)
	require.Error(t, api.Validate(schemas.Resolve, notJSON))
}

package buildsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMBSID_Object(t *testing.T) {
	id, err := parseMBSID([]byte(`{"id": 42}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseMBSID_Array(t *testing.T) {
	id, err := parseMBSID([]byte(`[{"id": 7}, {"id": 8}]`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestParseMBSID_Unparseable(t *testing.T) {
	_, err := parseMBSID([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubmitModular_DryRunSkipsRequest(t *testing.T) {
	c := newMBSClient("https://mbs.example.com", true, 0, nil)
	id, err := c.SubmitModular(t.Context(), "https://src/mymod#abc", "1", "platform:f36", SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
}

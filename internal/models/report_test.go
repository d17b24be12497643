package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostingRefDecodesBothShapes(t *testing.T) {
	var byID Report
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"pending","reported_posting":"3f1c"}`), &byID))
	assert.Equal(t, "3f1c", byID.ReportedPosting.ID)
	assert.Nil(t, byID.ReportedPosting.Posting)

	var embedded Report
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"reported_posting":{"id":"3f1c","course":"Psychology"}}`), &embedded))
	assert.Equal(t, "3f1c", embedded.ReportedPosting.ID)
	require.NotNil(t, embedded.ReportedPosting.Posting)
	assert.Equal(t, "Psychology", embedded.ReportedPosting.Posting.Course)

	out, err := json.Marshal(embedded.ReportedPosting)
	require.NoError(t, err)
	assert.Equal(t, `"3f1c"`, string(out))
}

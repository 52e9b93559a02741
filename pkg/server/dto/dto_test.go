package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

func TestEntitySearchRequestToQuery(t *testing.T) {
	body := `{
		"text": "garl",
		"classifications": ["ingredient"],
		"attributes": [{"key": "calories", "operator": "<", "value": 200}],
		"sort_by": "name",
		"sort_order": "desc",
		"offset": 10,
		"limit": 5
	}`
	var req EntitySearchRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NoError(t, req.Validate())

	q, err := req.ToQuery()
	require.NoError(t, err)
	assert.Equal(t, "garl", q.Text)
	assert.Equal(t, []types.Classification{types.ClassIngredient}, q.Classifications)
	require.Len(t, q.Attributes, 1)
	assert.Equal(t, types.OpLt, q.Attributes[0].Operator)
	n, ok := q.Attributes[0].Value.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 200.0, n)
	assert.Equal(t, types.Sort{Field: types.SortByName, Order: types.Desc}, q.Sort)
	assert.Equal(t, types.Page{Offset: 10, Limit: 5}, q.Page)
}

func TestEntitySearchRequestRejectsBadOperator(t *testing.T) {
	req := EntitySearchRequest{Attributes: []AttributeFilter{{Key: "k", Operator: "~="}}}
	_, err := req.ToQuery()
	var ia *types.InvalidArgumentError
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, "attributes[0].operator", ia.Field)
}

func TestEntitySearchRequestValidate(t *testing.T) {
	req := EntitySearchRequest{Text: strings.Repeat("x", MaxTextLength+1)}
	assert.ErrorIs(t, req.Validate(), ErrTextTooLong)

	req = EntitySearchRequest{CompoundIDs: make([]string, MaxFilterValues+1)}
	assert.ErrorIs(t, req.Validate(), ErrTooManyValues)

	req = EntitySearchRequest{Attributes: make([]AttributeFilter, MaxAttributeCount+1)}
	assert.ErrorIs(t, req.Validate(), ErrTooManyAttributes)
}

func TestRelationshipSearchRequestToQuery(t *testing.T) {
	body := `{"entity_id":"garlic","relationship_types":["contains"],"min_confidence":3,"context":{"form":"raw"}}`
	var req RelationshipSearchRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NoError(t, req.Validate())

	q := req.ToQuery()
	assert.Equal(t, "garlic", q.EntityID)
	require.NotNil(t, q.MinConfidence)
	assert.Equal(t, 3, *q.MinConfidence)
	assert.Nil(t, q.MaxConfidence)
	assert.Equal(t, "raw", q.Context["form"].Text())

	req = RelationshipSearchRequest{SourceID: strings.Repeat("a", MaxIDLength+1)}
	assert.ErrorIs(t, req.Validate(), ErrIDTooLong)
}

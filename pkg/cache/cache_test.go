package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

func TestStatsKey(t *testing.T) {
	assert.Equal(t, "nutrigraph:stats:42", StatsKey("nutrigraph", 42))
}

func TestEncodeDecode(t *testing.T) {
	in := &types.Statistics{
		Revision: 7,
		Relationships: &types.RelationshipStats{
			TotalRelationships: 3,
			ByType:             map[string]int{"contains": 3},
			ByConfidenceBucket: map[string]int{"low": 1, "medium": 1, "high": 1},
			ByScore:            map[int]int{1: 1, 3: 1, 5: 1},
			AvgConfidence:      3,
		},
	}
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, Options{Addr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}

package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEntityValidation(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		wantErr error
	}{
		{
			name:    "valid entity",
			entity:  Entity{ID: "garlic", Name: "Garlic"},
			wantErr: nil,
		},
		{
			name:    "empty id",
			entity:  Entity{Name: "Garlic"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "blank name",
			entity:  Entity{ID: "garlic", Name: "   "},
			wantErr: ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if err != tt.wantErr {
				t.Errorf("Entity.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRelationshipValidation(t *testing.T) {
	base := func() Relationship {
		return Relationship{ID: "r1", SourceID: "garlic", TargetID: "allicin", Type: RelContains}
	}
	tests := []struct {
		name    string
		mutate  func(r *Relationship)
		wantErr error
	}{
		{name: "valid", mutate: func(r *Relationship) {}},
		{name: "missing source", mutate: func(r *Relationship) { r.SourceID = "" }, wantErr: ErrEmptySourceID},
		{name: "missing target", mutate: func(r *Relationship) { r.TargetID = "" }, wantErr: ErrEmptyTargetID},
		{name: "missing type", mutate: func(r *Relationship) { r.Type = "" }, wantErr: ErrEmptyType},
		{name: "confidence too high", mutate: func(r *Relationship) { r.Confidence = IntPtr(6) }, wantErr: ErrInvalidConfidence},
		{name: "confidence zero", mutate: func(r *Relationship) { r.Confidence = IntPtr(0) }, wantErr: ErrInvalidConfidence},
		{name: "negative quantity", mutate: func(r *Relationship) { r.Quantity = FloatPtr(-1) }, wantErr: ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			assert.Equal(t, tt.wantErr, r.Validate())
		})
	}
}

func TestRelationshipScore(t *testing.T) {
	r := Relationship{}
	assert.Equal(t, 0, r.Score())
	r.Confidence = IntPtr(4)
	assert.Equal(t, 4, r.Score())
}

func TestRelationshipOther(t *testing.T) {
	r := Relationship{SourceID: "garlic", TargetID: "allicin"}
	assert.Equal(t, "allicin", r.Other("garlic"))
	assert.Equal(t, "garlic", r.Other("allicin"))

	loop := Relationship{SourceID: "garlic", TargetID: "garlic"}
	assert.Equal(t, "garlic", loop.Other("garlic"))
}

func TestConfidenceBucket(t *testing.T) {
	cases := map[int]string{0: BucketLow, 1: BucketLow, 2: BucketLow, 3: BucketMedium, 4: BucketHigh, 5: BucketHigh}
	for score, want := range cases {
		assert.Equal(t, want, ConfidenceBucket(score), "score %d", score)
	}
}

func TestInClassifications(t *testing.T) {
	e := Entity{ID: "x", Name: "X", PrimaryClassification: ClassIngredient, Classifications: []Classification{"spice"}}
	assert.True(t, e.InClassifications([]Classification{ClassIngredient}))
	assert.True(t, e.InClassifications([]Classification{"spice"}))
	assert.False(t, e.InClassifications([]Classification{ClassNutrient}))

	unknown := Entity{ID: "y", Name: "Y", PrimaryClassification: "mineral", Classifications: []Classification{ClassNutrient}}
	assert.False(t, unknown.InClassifications([]Classification{ClassNutrient}))
}

func TestEntityJSONSeedFormat(t *testing.T) {
	data := []byte(`{
		"id": "garlic",
		"name": "Garlic",
		"primary_classification": "ingredient",
		"attributes": {
			"calories": {"value": 149, "source": "usda", "confidence": 4},
			"origin": "Central Asia",
			"nutrition": {"value": {"per_100g": {"protein": 6.4}}}
		},
		"health_outcomes": ["Immune", {"outcome": "Heart Health", "pillars": [6]}],
		"compounds": [{"compound_id": "allicin", "quantity": 4.5, "unit": "mg"}]
	}`)

	var e Entity
	require.NoError(t, json.Unmarshal(data, &e))

	cal, ok := e.Attribute("calories")
	require.True(t, ok)
	n, ok := cal.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 149.0, n)
	assert.Equal(t, "usda", e.Attributes["calories"].Source)
	require.NotNil(t, e.Attributes["calories"].Confidence)
	assert.Equal(t, 4, *e.Attributes["calories"].Confidence)

	origin, ok := e.Attribute("origin")
	require.True(t, ok)
	assert.Equal(t, "Central Asia", origin.Text())

	nutrition, _ := e.Attribute("nutrition")
	protein, ok := nutrition.Get("per_100g", "protein")
	require.True(t, ok)
	assert.Equal(t, "6.4", protein.Text())

	assert.Equal(t, []string{"heart health", "immune"}, e.OutcomeTags())
	assert.Equal(t, []int{6}, e.HealthOutcomes[1].Pillars)
	assert.Equal(t, []string{"allicin"}, e.CompoundIDs())
}

func TestEntityYAMLSeedFormat(t *testing.T) {
	data := []byte(`
id: ginger
name: Ginger
primary_classification: ingredient
attributes:
  pungency:
    value: high
    source: manual
  tags: [root, spice]
health_outcomes:
  - digestion
  - outcome: Anti-inflammatory
    pillars: [8]
`)
	var e Entity
	require.NoError(t, yaml.Unmarshal(data, &e))

	p, ok := e.Attribute("pungency")
	require.True(t, ok)
	assert.Equal(t, "high", p.Text())
	assert.Equal(t, "manual", e.Attributes["pungency"].Source)

	tags, _ := e.Attribute("tags")
	assert.True(t, tags.Contains(String("Spice")))
	assert.Equal(t, []string{"anti-inflammatory", "digestion"}, e.OutcomeTags())
}

func TestValueCompare(t *testing.T) {
	c, ok := Number(2).Compare(Number(10))
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = String("10").Compare(Number(2))
	require.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = String("Apple").Compare(String("banana"))
	require.True(t, ok)
	assert.Equal(t, -1, c)

	_, ok = Bool(true).Compare(Number(1))
	assert.False(t, ok)
}

func TestValueEqualAndContains(t *testing.T) {
	assert.True(t, String("Garlic").Equal(String("garlic")))
	assert.True(t, Number(3).Equal(String("3")))
	assert.False(t, List(Int(1)).Equal(List(Int(1), Int(2))))
	assert.True(t, Map(map[string]Value{"a": Int(1)}).Equal(Map(map[string]Value{"a": Int(1)})))

	assert.True(t, String("Allium sativum").Contains(String("sativ")))
	assert.True(t, Strings("a", "b").Contains(String("B")))
	assert.True(t, Map(map[string]Value{"k": Null()}).Contains(String("k")))
	assert.False(t, Number(5).Contains(Number(5)))
}

func TestValueJSONRoundTrip(t *testing.T) {
	v := Map(map[string]Value{"list": Strings("x", "y"), "n": Number(1.5), "ok": Bool(true), "nil": Null()})
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"list":["x","y"],"n":1.5,"ok":true,"nil":null}`, string(data))
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	assert.True(t, errors.Is(NewNotFound(KindEntity, "x"), ErrNotFound))
	assert.False(t, errors.Is(NewNotFound(KindEntity, "x"), ErrNotConnected))
	assert.True(t, errors.Is(&NotConnectedError{SourceID: "a", TargetID: "b", MaxDepth: 4}, ErrNotConnected))
	assert.True(t, errors.Is(NewInvalidArgument("offset", "must be >= 0"), ErrInvalidArgument))

	ve := ValidationError{Index: 2, ID: "r9", Field: "target_id", Err: ErrUnknownEntity}
	assert.True(t, errors.Is(ve, ErrUnknownEntity))
	assert.Contains(t, ve.Error(), "target_id")
}

func TestParseHelpers(t *testing.T) {
	d, err := ParseDirection("incoming")
	require.NoError(t, err)
	assert.Equal(t, DirectionIn, d)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	op, err := ParseOperator(">=")
	require.NoError(t, err)
	assert.Equal(t, OpGte, op)

	k, err := ParseRecordKind("Relationships")
	require.NoError(t, err)
	assert.Equal(t, KindRelationship, k)

	c, ok := ParseClassification(" Nutrient ")
	assert.True(t, ok)
	assert.Equal(t, ClassNutrient, c)
}

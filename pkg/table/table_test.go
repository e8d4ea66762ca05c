package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyUnmarshalFlat(t *testing.T) {
	raw := `[
		{"md5":"aaa","sha256":"xxx","level":"5","title":"Song A"},
		{"md5":"bbb","sha256":"yyy","level":12,"title":"Song B"}
	]`

	var body Body
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	require.Nil(t, body.Grouped)
	require.Len(t, body.Flat, 2)

	charts := body.Normalize()
	assert.Equal(t, "5", charts[0].Level)
	assert.Equal(t, "12", charts[1].Level, "numeric levels normalize to strings")
}

func TestBodyUnmarshalGrouped(t *testing.T) {
	raw := `{
		"2": [{"md5":"bbb","title":"Song B"}],
		"1": [{"md5":"aaa","title":"Song A"}, {"md5":"ccc","level":"1+","title":"Song C"}]
	}`

	var body Body
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	require.Nil(t, body.Flat)
	require.Len(t, body.Grouped, 2)

	charts := body.Normalize()
	require.Len(t, charts, 3)
	assert.Equal(t, "1", charts[0].Level, "grouped charts inherit the bucket level")
	assert.Equal(t, "1+", charts[1].Level, "an explicit level wins over the bucket")
	assert.Equal(t, "2", charts[2].Level)
}

func TestBodyUnmarshalRejectsScalar(t *testing.T) {
	var body Body
	assert.Error(t, json.Unmarshal([]byte(`42`), &body))
}

func TestHeaderLevelOrderMixed(t *testing.T) {
	raw := `{"name":"Test","symbol":"T","data_url":"data.json","level_order":[1,2,2.5,"S","X"]}`

	var hdr Header
	require.NoError(t, json.Unmarshal([]byte(raw), &hdr))
	assert.Equal(t, levelOrder{"1", "2", "2.5", "S", "X"}, hdr.LevelOrder)
}

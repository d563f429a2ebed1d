package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_IntVersusFloat(t *testing.T) {
	v, err := FromJSON([]byte(`{"n": 3, "f": 3.0, "e": 1e2}`))
	require.NoError(t, err)
	d := v.(Dict)

	assert.Equal(t, Int(3), d["n"])
	assert.Equal(t, Float(3.0), d["f"])
	assert.Equal(t, Float(100), d["e"])
}

func TestFromJSON_LargeInt(t *testing.T) {
	// Beyond float64's integer precision; must survive as Int.
	v, err := FromJSON([]byte(`9007199254740993`))
	require.NoError(t, err)
	assert.Equal(t, Int(9007199254740993), v)
}

func TestFromAny_SupportedTypes(t *testing.T) {
	v, err := FromAny(map[string]any{
		"s":    "text",
		"i":    42,
		"f":    2.5,
		"b":    true,
		"nil":  nil,
		"list": []any{1, "two"},
		"yaml": map[any]any{"k": "v"},
	})
	require.NoError(t, err)
	d := v.(Dict)

	assert.Equal(t, String("text"), d["s"])
	assert.Equal(t, Int(42), d["i"])
	assert.Equal(t, Float(2.5), d["f"])
	assert.Equal(t, Bool(true), d["b"])
	assert.Equal(t, Null{}, d["nil"])
	assert.Equal(t, List{Int(1), String("two")}, d["list"])
	assert.Equal(t, Dict{"k": String("v")}, d["yaml"])
}

func TestFromAny_RejectsNonStringKeys(t *testing.T) {
	_, err := FromAny(map[any]any{1: "x"})
	assert.Error(t, err)
}

func TestDict_CloneIsDeep(t *testing.T) {
	d := Dict{"inner": Dict{"k": Int(1)}, "list": List{Int(1)}}
	c := d.Clone()

	c["inner"].(Dict)["k"] = Int(99)
	c["list"] = append(c["list"].(List), Int(2))

	assert.Equal(t, Int(1), d["inner"].(Dict)["k"])
	assert.Len(t, d["list"].(List), 1)
}

func TestDict_Push(t *testing.T) {
	d := Dict{}

	require.NoError(t, d.Push("xs", Int(1)))
	require.NoError(t, d.Push("xs", Int(2)))
	assert.Equal(t, List{Int(1), Int(2)}, d["xs"])

	d["scalar"] = Int(5)
	assert.Error(t, d.Push("scalar", Int(6)))
}

func TestDict_Accessors(t *testing.T) {
	d := Dict{
		"name":  String("x"),
		"count": Int(7),
		"items": List{Int(1)},
	}

	assert.Equal(t, "x", d.GetString("name"))
	assert.Equal(t, "", d.GetString("count"))

	n, ok := d.GetInt("count")
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
	_, ok = d.GetInt("name")
	assert.False(t, ok)

	assert.Equal(t, List{Int(1)}, d.GetList("items"))
	assert.Nil(t, d.GetList("name"))
}

func TestEqual(t *testing.T) {
	a := Dict{"k": List{Int(1), Dict{"x": Null{}}}}
	b := Dict{"k": List{Int(1), Dict{"x": Null{}}}}
	assert.True(t, Equal(a, b))

	b["k"] = List{Int(1), Dict{"x": Bool(false)}}
	assert.False(t, Equal(a, b))

	// Int and Float never compare equal, even numerically.
	assert.False(t, Equal(Int(1), Float(1)))
}

func TestToAny_InverseOfFromAny(t *testing.T) {
	in := map[string]any{
		"s": "text",
		"l": []any{int64(1), false},
		"d": map[string]any{"k": nil},
	}
	v, err := FromAny(in)
	require.NoError(t, err)

	out := ToAny(v)
	assert.Equal(t, in, out)
}

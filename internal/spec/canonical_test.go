package spec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	d := Dict{"zebra": Int(1), "apple": Int(2), "mango": Int(3)}

	out, err := MarshalCanonical(d)
	require.NoError(t, err)
	assert.Equal(t, `{"apple":2,"mango":3,"zebra":1}`, string(out))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as NFD (e + combining acute) and as NFC must encode
	// identically.
	nfd := String("cafe\u0301")
	nfc := String("caf\u00e9")

	outNFD, err := MarshalCanonical(nfd)
	require.NoError(t, err)
	outNFC, err := MarshalCanonical(nfc)
	require.NoError(t, err)
	assert.Equal(t, outNFC, outNFD)
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical(String("a < b && c > d"))
	require.NoError(t, err)
	assert.Equal(t, `"a < b && c > d"`, string(out))
}

func TestMarshalCanonical_Scalars(t *testing.T) {
	cases := []struct {
		in   Value
		want string
	}{
		{Null{}, "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(-42), "-42"},
		{Float(0.5), "0.5"},
		{Float(3), "3.0"},
		{Float(2e10), "2e+10"},
		{String(""), `""`},
		{List{}, "[]"},
		{Dict{}, "{}"},
	}
	for _, tc := range cases {
		out, err := MarshalCanonical(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(out))
	}
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	d := Dict{
		"nested": Dict{"b": List{Int(1), Float(2.5), Null{}}, "a": String("x")},
		"flag":   Bool(true),
	}

	first, err := MarshalCanonical(d)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := MarshalCanonical(d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMarshalCanonical_RoundTripThroughFromJSON(t *testing.T) {
	d := Dict{
		"ints":   List{Int(1), Int(2)},
		"floats": List{Float(1.5), Float(2e10), Float(20)},
		"text":   String("grüß"),
		"deep":   Dict{"k": Dict{"kk": Null{}}},
	}

	out, err := MarshalCanonical(d)
	require.NoError(t, err)

	back, err := FromJSON(out)
	require.NoError(t, err)
	assert.True(t, Equal(d, back))

	out2, err := MarshalCanonical(back)
	require.NoError(t, err)
	assert.Equal(t, out, out2)
}

func TestMarshalCanonical_IntegralFloatStaysFloat(t *testing.T) {
	out, err := MarshalCanonical(Float(2e10))
	require.NoError(t, err)

	back, err := FromJSON(out)
	require.NoError(t, err)
	assert.IsType(t, Float(0), back)
	assert.True(t, Equal(Float(2e10), back))
}

func TestMarshalCanonical_RejectsNonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(Float(f))
		assert.Error(t, err)
	}
}

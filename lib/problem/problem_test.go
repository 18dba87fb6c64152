package problem

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alexNet() ConvProblem {
	return ConvProblem{
		Batch: 1, InChannels: 3, InH: 227, InW: 227,
		OutChannels: 96, FilterH: 11, FilterW: 11,
		StrideH: 4, StrideW: 4, DilationH: 1, DilationW: 1,
		Layout: "NCHW", DataType: "FP32", Direction: DirForward,
	}
}

func TestConvProblemSerialize(t *testing.T) {
	p := alexNet()
	assert.Equal(t, "1x3x227x227x96x11x11x0x0x4x4x1x1xNCHWxFP32xF", p.String())
	assert.False(t, codec.ContainsReserved(p.String()))

	var parsed ConvProblem
	require.NoError(t, parsed.Deserialize(p.String()))
	assert.Equal(t, p, parsed)
}

func TestConvProblemDeserializeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too few fields", "1x3x227"},
		{"not a number", "1x3x227x227x96x11x11x0x0x4x4x1xAxNCHWxFP32xF"},
		{"bad direction", "1x3x227x227x96x11x11x0x0x4x4x1x1xNCHWxFP32xQ"},
		{"empty layout", "1x3x227x227x96x11x11x0x0x4x4x1x1xxFP32xF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := alexNet()
			assert.Error(t, p.Deserialize(tt.input))
			assert.Equal(t, alexNet(), p, "failed deserialize must not modify the problem")
		})
	}
}

func TestConvProblemNegativeFields(t *testing.T) {
	p := alexNet()
	p.PadH, p.PadW = -1, -2
	assert.Equal(t, "1x3x227x227x96x11x11x-1x-2x4x4x1x1xNCHWxFP32xF", p.String())

	var parsed ConvProblem
	require.NoError(t, parsed.Deserialize(p.String()))
	assert.Equal(t, p, parsed)

	// a stored key with negative fields is found again
	d := db.NewTextDB(filepath.Join(t.TempDir(), "conv.db"))
	_, err := db.Store(d, p, "ConvAsm3x3U", NewPerfConfig(3, 4, 4, 1))
	require.NoError(t, err)
	require.NoError(t, d.ForEach(func(record *db.Record) bool {
		var key ConvProblem
		assert.NoError(t, key.Deserialize(record.Key()))
		assert.Equal(t, p, key)
		return true
	}))
}

func TestPerfConfig(t *testing.T) {
	c := NewPerfConfig(3, 4, 4, 1)
	assert.True(t, c.Valid())
	assert.Equal(t, "4,4,1", codec.SerializeToString(c))

	parsed := PerfConfig{Arity: 3}
	require.NoError(t, parsed.Deserialize("16,8,2"))
	assert.Equal(t, codec.IntList{16, 8, 2}, parsed.Params)

	assert.Error(t, parsed.Deserialize("1,2"))
	assert.Error(t, parsed.Deserialize("a,b,c"))
	assert.Equal(t, codec.IntList{16, 8, 2}, parsed.Params)

	assert.False(t, NewPerfConfig(2, 1).Valid())
	assert.False(t, NewPerfConfig(0, -1).Valid())
	assert.False(t, NewPerfConfig(0).Valid())
}

func TestStoreLoadThroughDB(t *testing.T) {
	d := db.NewTextDB(filepath.Join(t.TempDir(), "conv.db"))
	p := alexNet()

	_, err := db.Store(d, p, "ConvAsm3x3U", NewPerfConfig(3, 4, 4, 1))
	require.NoError(t, err)
	_, err = db.Store(d, p, "ConvOclDirectFwd", NewPerfConfig(2, 16, 8))
	require.NoError(t, err)

	asm := PerfConfig{Arity: 3}
	require.True(t, db.Load(d, p, "ConvAsm3x3U", &asm))
	assert.Equal(t, codec.IntList{4, 4, 1}, asm.Params)

	// arity mismatch is a deserialize failure
	wrong := PerfConfig{Arity: 3}
	assert.False(t, db.Load(d, p, "ConvOclDirectFwd", &wrong))

	other := alexNet()
	other.Direction = DirBackwardData
	assert.False(t, db.Load(d, other, "ConvAsm3x3U", &asm))
}

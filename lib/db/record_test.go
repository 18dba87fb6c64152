package db

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/perfDB/lib/db/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSetValues(t *testing.T) {
	r := NewRecord(codec.String("K"))
	assert.Equal(t, "K", r.Key())

	assert.True(t, r.SetValues("a", codec.IntList{1, 2}))
	assert.False(t, r.SetValues("a", codec.IntList{1, 2}), "same values must not report a change")
	assert.True(t, r.SetValues("a", codec.IntList{1, 3}))
	assert.True(t, r.SetValues("b", codec.String("x")))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"a", "b"}, r.IDs())
	assert.Equal(t, "K=a:1,3;b:x", r.String())
}

func TestRecordGetValues(t *testing.T) {
	r := NewRecord(codec.String("K"))
	r.SetValues("a", codec.IntList{4, 4, 1})
	r.SetValues("bad", codec.String("x,y"))

	var out codec.IntList
	require.True(t, r.GetValues("a", &out))
	assert.Equal(t, codec.IntList{4, 4, 1}, out)

	untouched := codec.IntList{9}
	assert.False(t, r.GetValues("missing", &untouched))
	assert.Equal(t, codec.IntList{9}, untouched)

	assert.False(t, r.GetValues("bad", &out), "deserialize failure must be reported")
}

func TestRecordErase(t *testing.T) {
	r := NewRecord(codec.String("K"))
	r.SetValues("a", codec.String("1"))

	assert.False(t, r.erase("b"))
	assert.True(t, r.erase("a"))
	assert.False(t, r.erase("a"))
	assert.Equal(t, 0, r.Len())
}

func TestRecordMerge(t *testing.T) {
	this := NewRecord(codec.String("K"))
	this.SetValues("ID1", codec.String("VALUE1"))

	that := NewRecord(codec.String("K"))
	that.SetValues("ID1", codec.String("VALUE3"))
	that.SetValues("ID2", codec.String("VALUE2"))

	this.Merge(that)
	assert.Equal(t, "K=ID1:VALUE1;ID2:VALUE2", this.String())

	// merging with itself is a no-op
	before := this.Clone()
	this.Merge(this)
	assert.True(t, this.Equal(before))

	// records with different keys are not merged
	other := NewRecord(codec.String("L"))
	other.SetValues("ID3", codec.String("VALUE4"))
	this.Merge(other)
	assert.False(t, this.Has("ID3"))

	this.Merge(nil)
	assert.True(t, this.Equal(before))
}

func TestRecordCloneIsDeep(t *testing.T) {
	r := NewRecord(codec.String("K"))
	r.SetValues("a", codec.String("1"))

	c := r.Clone()
	c.SetValues("a", codec.String("2"))

	var out codec.String
	require.True(t, r.GetValues("a", &out))
	assert.Equal(t, codec.String("1"), out)
}

func TestRecordParseContents(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     map[string]string
		wantErr  bool
	}{
		{name: "single", contents: "a:1", want: map[string]string{"a": "1"}},
		{name: "several", contents: "a:1,2;b:x", want: map[string]string{"a": "1,2", "b": "x"}},
		{name: "duplicate id keeps first", contents: "a:1;a:2", want: map[string]string{"a": "1"}},
		{name: "empty", contents: "", wantErr: true},
		{name: "no id separator", contents: "a", wantErr: true},
		{name: "one bad segment", contents: "a:1;b", wantErr: true},
		{name: "empty id", contents: ":1", wantErr: true},
		{name: "empty values", contents: "a:", wantErr: true},
		{name: "trailing separator", contents: "a:1;", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecord("K")
			err := r.parseContents(tt.contents)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 0, r.Len(), "no partial record")
				var dbErr *Error
				require.ErrorAs(t, err, &dbErr)
				assert.Equal(t, RetCMalformedRecord, dbErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.entries)
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r := NewRecord(codec.String("3x227x227x11x11x96"))
	r.SetValues("ConvAsm", codec.IntList{16, 4, 1})
	r.SetValues("ConvOcl", codec.String("abc"))
	r.SetValues("Encoded", codec.NewEncoded(codec.NewJSONEncoder(), map[string]int{"tile": 8}))

	var sb strings.Builder
	require.NoError(t, r.writeContents(&sb))
	line := sb.String()
	require.True(t, strings.HasSuffix(line, "\n"))

	key, contents, ok := strings.Cut(strings.TrimSuffix(line, "\n"), "=")
	require.True(t, ok)
	parsed := newRecord(key)
	require.NoError(t, parsed.parseContents(contents))
	assert.True(t, parsed.Equal(r), "expected %s, got %s", r, parsed)
}

func TestRecordValidate(t *testing.T) {
	r := newRecord("")
	r.setValues("a", "1")
	assert.Error(t, r.writeContents(&strings.Builder{}))

	r = newRecord("K")
	r.setValues("a", "1;2")
	err := r.writeContents(&strings.Builder{})
	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, RetCReservedCharacter, dbErr.Code)
}

func TestRecordValidateCommentKey(t *testing.T) {
	r := NewRecord(codec.String("#cfg"))
	r.SetValues("a", codec.String("1"))

	err := r.writeContents(&strings.Builder{})
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Code: RetCReservedCharacter})

	// only the start of the line is special
	r = NewRecord(codec.String("cfg#1"))
	r.SetValues("#a", codec.String("#1"))
	assert.NoError(t, r.writeContents(&strings.Builder{}))
}

package queryexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperator_Mirror(t *testing.T) {
	tests := []struct {
		op   Operator
		want Operator
	}{
		{OpLt, OpGt},
		{OpGt, OpLt},
		{OpLtEq, OpGtEq},
		{OpGtEq, OpLtEq},
		{OpEq, OpEq},
		{OpNotEq, OpNotEq},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Mirror())
			assert.Equal(t, tt.op, tt.op.Mirror().Mirror())
		})
	}
}

func TestOperator_Classes(t *testing.T) {
	assert.True(t, OpAnd.IsLogical())
	assert.True(t, OpOr.IsLogical())
	assert.False(t, OpEq.IsLogical())

	assert.True(t, OpLtEq.IsComparison())
	assert.False(t, OpAdd.IsComparison())
	assert.False(t, OpAnd.IsComparison())
}

func TestAnd_FoldsLeft(t *testing.T) {
	a, b, c := Path("a"), Path("b"), Path("c")

	got := And(a, b, c)

	want := Dyadic{
		Op:    OpAnd,
		Left:  Dyadic{Op: OpAnd, Left: a, Right: b},
		Right: c,
	}
	assert.Equal(t, want, got)
	assert.Equal(t, a, And(a), "single operand is returned unchanged")
}

func TestOrder_IsDescending(t *testing.T) {
	assert.True(t, Desc(Path("a")).IsDescending())
	assert.True(t, Order{Direction: "DESCENDING"}.IsDescending())
	assert.False(t, Asc(Path("a")).IsDescending())
	assert.False(t, Order{}.IsDescending())
}

func TestQuery_CandidateAlias(t *testing.T) {
	assert.Equal(t, DefaultAlias, Query{}.CandidateAlias())
	assert.Equal(t, "p", Query{Alias: "p"}.CandidateAlias())
}

func TestPath(t *testing.T) {
	p := Path("address.city")
	assert.Equal(t, []string{"address", "city"}, p.Tuples)
	assert.Equal(t, "address.city", p.ID())
}

func TestDeref(t *testing.T) {
	p := Path("a")
	assert.Equal(t, p, Deref(&p))
	assert.Nil(t, Deref((*Primary)(nil)))
	assert.Nil(t, Deref((*Dyadic)(nil)))
	assert.Equal(t, Lit(1), Deref(Lit(1)))
	assert.Nil(t, Deref(nil))
}

func TestParams_Bind(t *testing.T) {
	p := Params{}.Bind("minAge", 21).BindPos(0, "Smith")

	v, ok := p.Lookup("minAge")
	assert.True(t, ok)
	assert.Equal(t, 21, v)

	v, ok = p.LookupPos(0)
	assert.True(t, ok)
	assert.Equal(t, "Smith", v)

	_, ok = p.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 0, NewParams().Len())
}

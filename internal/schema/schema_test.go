package schema

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadPeople(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadDir(filepath.Join("..", "..", "testdata", "schema"))
	require.NoError(t, err)
	return reg
}

func TestLoadDir(t *testing.T) {
	reg := loadPeople(t)

	person, err := reg.Class("Person")
	require.NoError(t, err)
	assert.Equal(t, "dm_person", person.Type)
	assert.Equal(t, "last_name", person.Members["lastName"].Column)
	assert.Equal(t, "birth_date", person.Members["birthDate"].Column)
	assert.False(t, person.Members["nickname"].Persistent)

	addr := person.Members["address"]
	assert.True(t, addr.Embedded)
	assert.Equal(t, OneToOneUni, addr.Relation)
	assert.Equal(t, "Address", addr.Target)

	prev := person.Members["previousAddresses"]
	assert.True(t, prev.Embedded)
	assert.True(t, prev.Relation.IsMultiValued())

	company, err := reg.Class("Company")
	require.NoError(t, err)
	assert.Equal(t, "company_name", company.Members["name"].Column)

	assert.Empty(t, Validate(reg))
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestCompileClass(t *testing.T) {
	v := cuecontext.New().CompileString(`
		class: Invoice: {
			type: "dm_invoice"
			members: {
				totalAmount: {}
				number: "inv_no"
				customer: {relation: "many_to_one_bi", target: "Customer"}
			}
		}
	`)
	require.NoError(t, v.Err())

	c, err := CompileClass(v.LookupPath(cue.ParsePath("class.Invoice")))
	require.NoError(t, err)

	assert.Equal(t, "Invoice", c.Name)
	assert.Equal(t, []string{"totalAmount", "number", "customer"}, c.MemberNames())
	assert.Equal(t, "total_amount", c.Members["totalAmount"].Column)
	assert.Equal(t, "inv_no", c.Members["number"].Column)
	assert.Equal(t, ManyToOneBi, c.Members["customer"].Relation)
	assert.True(t, c.Members["customer"].Relation.IsReference())
}

func TestCompileClassErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "missing type",
			src:  `class: A: { members: { x: {} } }`,
			code: ErrCodeClassType,
		},
		{
			name: "bad member shape",
			src:  `class: A: { type: "dm_a", members: { x: 42 } }`,
			code: ErrCodeMemberShape,
		},
		{
			name: "unknown relation",
			src:  `class: A: { type: "dm_a", members: { x: { relation: "sideways" } } }`,
			code: ErrCodeRelation,
		},
		{
			name: "embedded many to one",
			src:  `class: A: { type: "dm_a", members: { x: { embedded: "B", relation: "many_to_one_uni" } } }`,
			code: ErrCodeMemberConflict,
		},
		{
			name: "no classes",
			src:  `other: 1`,
			code: ErrCodeNoClasses,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString(tt.src)
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestMemberLookupWalksSuperclass(t *testing.T) {
	reg := loadPeople(t)
	emp, err := reg.Class("Employee")
	require.NoError(t, err)

	m, err := reg.Member(emp, "salary")
	require.NoError(t, err)
	assert.Equal(t, "emp_salary", m.Column)

	m, err = reg.Member(emp, "lastName")
	require.NoError(t, err)
	assert.Equal(t, "last_name", m.Column)

	_, err = reg.Member(emp, "shoeSize")
	assert.ErrorIs(t, err, ErrUnknownMember)
}

func TestEmbeddedColumn(t *testing.T) {
	reg := loadPeople(t)
	person, _ := reg.Class("Person")
	address, _ := reg.Class("Address")
	geo, _ := reg.Class("Geo")

	addr := person.Members["address"]

	col, err := reg.EmbeddedColumn([]*Member{addr, address.Members["city"]})
	require.NoError(t, err)
	assert.Equal(t, "address_city", col)

	col, err = reg.EmbeddedColumn([]*Member{addr, address.Members["geo"], geo.Members["lat"]})
	require.NoError(t, err)
	assert.Equal(t, "addr_latitude", col)

	col, err = reg.EmbeddedColumn([]*Member{addr, address.Members["geo"], geo.Members["lng"]})
	require.NoError(t, err)
	assert.Equal(t, "address_geo_lng", col)

	col, err = reg.EmbeddedColumn([]*Member{person.Members["age"]})
	require.NoError(t, err)
	assert.Equal(t, "age", col)

	_, err = reg.EmbeddedColumn(nil)
	assert.Error(t, err)
}

func TestRelationTypes(t *testing.T) {
	for r, name := range relationNames {
		parsed, err := ParseRelationType(name)
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	assert.True(t, ManyToOneUni.IsSingleValued())
	assert.True(t, OneToManyBi.IsMultiValued())
	assert.False(t, OneToOneBi.IsReference())
	assert.False(t, ManyToManyBi.IsReference())
	assert.False(t, RelationNone.IsSingleValued())
}

func TestDefaultColumn(t *testing.T) {
	assert.Equal(t, "last_name", DefaultColumn("lastName"))
	assert.Equal(t, "id", DefaultColumn("id"))
}

func TestDefaultConverters(t *testing.T) {
	reg := NewRegistry()
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	conv, ok := reg.Converter(reflect.TypeOf(ts), TargetString)
	require.True(t, ok)
	v, err := conv.ToDatastore(ts)
	require.NoError(t, err)
	assert.Equal(t, "2024/03/09 14:05:00", v)

	conv, ok = reg.Converter(reflect.TypeOf(ts), TargetLong)
	require.True(t, ok)
	v, err = conv.ToDatastore(ts)
	require.NoError(t, err)
	assert.Equal(t, ts.UnixMilli(), v)

	reg.RegisterConverter(reflect.TypeOf(ts), TargetString, nil)
	_, ok = reg.Converter(reflect.TypeOf(ts), TargetString)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	reg, err := CompileString(`
		class: A: {
			type: "dm_shared"
			members: {
				b: {embedded: "B"}
				ghost: {relation: "many_to_one_uni", target: "Ghost"}
			}
		}
		class: B: {
			type: "dm_b"
			members: { a: {embedded: "A"} }
		}
		class: C: {
			type: "dm_shared"
			extends: "Missing"
		}
	`)
	require.NoError(t, err)

	errs := Validate(reg)
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{ErrUnknownTarget, ErrUnknownSuperclass, ErrEmbeddedCycle}, codes)

	for _, e := range errs {
		if e.Code == ErrEmbeddedCycle {
			assert.Contains(t, e.Message, "A -> B -> A")
		}
	}
}

func TestValidateDuplicateType(t *testing.T) {
	reg := NewRegistry().
		Add(NewClass("A", "dm_x")).
		Add(NewClass("B", "dm_x"))

	errs := Validate(reg)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateType, errs[0].Code)
}

func TestFingerprint(t *testing.T) {
	a := loadPeople(t)
	b := loadPeople(t)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)

	person, _ := b.Class("Person")
	person.Members["age"].Column = "person_age"
	fb, err = b.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)
}

func TestFingerprintCoversConverters(t *testing.T) {
	reg := loadPeople(t)
	timeType := reflect.TypeOf(time.Time{})

	base, err := reg.Fingerprint()
	require.NoError(t, err)

	reg.RegisterConverter(timeType, TargetString, TimeStringConverter("2006-01-02"))
	relaid, err := reg.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, base, relaid)

	reg.RegisterConverter(timeType, TargetString, nil)
	millisOnly, err := reg.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, relaid, millisOnly)
	assert.NotEqual(t, base, millisOnly)

	reg.RegisterConverter(timeType, TargetString, TimeStringConverter(DefaultDateFormat))
	restored, err := reg.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, base, restored)
}

func TestTimeStringConverterKeepsZone(t *testing.T) {
	cet := time.Date(2024, 3, 9, 15, 0, 0, 0, time.FixedZone("CET", 3600))

	v, err := TimeStringConverter(DefaultDateFormat).ToDatastore(cet)
	require.NoError(t, err)
	assert.Equal(t, "2024/03/09 15:00:00", v)
	assert.Equal(t, "time-string:"+DefaultDateFormat, TimeStringConverter(DefaultDateFormat).(NamedConverter).ConverterName())
}

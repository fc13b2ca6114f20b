package typenorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// Scenario C from spec.md §8: findById(id:string):Promise<User | null>.
func TestParseType_PromiseUserNullable(t *testing.T) {
	pt := ParseType("Promise<User | null>", types.LangTypeScript)
	require.NotNil(t, pt)
	assert.Equal(t, "Promise", pt.Base)
	assert.Equal(t, []string{"User"}, pt.Inner)
	assert.True(t, pt.IsAsync)
	assert.True(t, pt.IsNullable)

	assert.True(t, TypesMatch(pt, "User", types.MatchBase, MatchOptions{IncludeAsyncVariants: true}))
	assert.False(t, TypesMatch(pt, "User", types.MatchBase, MatchOptions{IncludeAsyncVariants: false}))
}

func TestParseType_BuiltinAliases(t *testing.T) {
	cases := map[string]string{
		"str": "String", "string": "String",
		"int": "Number", "number": "Number",
		"None": "Void", "void": "Void", "undefined": "Void",
		"list": "Array", "List": "Array", "Array": "Array",
		"dict": "Map", "Dict": "Map", "Map": "Map",
	}
	for raw, wantBase := range cases {
		pt := ParseType(raw, types.LangPython)
		require.NotNil(t, pt, raw)
		assert.Equal(t, wantBase, pt.Base, raw)
	}
}

func TestParseType_ArraySugar(t *testing.T) {
	pt := ParseType("T[]", types.LangTypeScript)
	require.NotNil(t, pt)
	assert.Equal(t, "Array", pt.Base)
	assert.True(t, pt.IsArray)
	assert.Equal(t, []string{"T"}, pt.Inner)
}

func TestParseType_PythonOptional(t *testing.T) {
	pt := ParseType("Optional[str]", types.LangPython)
	require.NotNil(t, pt)
	assert.Equal(t, "String", pt.Base)
	assert.True(t, pt.IsNullable)
}

func TestTypesMatch_Exact(t *testing.T) {
	pt := ParseType("string", types.LangTypeScript)
	assert.True(t, TypesMatch(pt, "String", types.MatchExact, MatchOptions{}))
	assert.False(t, TypesMatch(pt, "Number", types.MatchExact, MatchOptions{}))
}

func TestTypesMatch_Partial(t *testing.T) {
	pt := ParseType("Array<User>", types.LangTypeScript)
	assert.True(t, TypesMatch(pt, "User", types.MatchPartial, MatchOptions{}))
	assert.True(t, TypesMatch(pt, "array", types.MatchPartial, MatchOptions{}))
}

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFindsTopLevelDenoTestWithStringName(t *testing.T) {
	src := `Deno.test("adds two numbers", () => {
  assertEquals(1 + 1, 2);
});`
	tests := Scan("file:///a.ts", src)
	require.Len(t, tests, 1)
	assert.Equal(t, KindTest, tests[0].Kind)
	assert.Equal(t, "adds two numbers", tests[0].Name)
}

func TestScanTracksNestedCtxStep(t *testing.T) {
	src := `Deno.test("outer", async (t) => {
  await t.step("inner one", () => {});
  await t.step("inner two", () => {});
});`
	tests := Scan("file:///a.ts", src)
	require.Len(t, tests, 3)

	outer := tests[0]
	assert.Equal(t, KindTest, outer.Kind)
	assert.Equal(t, "outer", outer.Name)

	inner1 := tests[1]
	assert.Equal(t, KindStep, inner1.Kind)
	assert.Equal(t, "inner one", inner1.Name)
	assert.Equal(t, outer.ID, inner1.ParentID)
	assert.Equal(t, 1, inner1.Level)

	inner2 := tests[2]
	assert.Equal(t, "inner two", inner2.Name)
	assert.NotEqual(t, inner1.ID, inner2.ID)
}

func TestScanHandlesVariableBoundDenoTestAlias(t *testing.T) {
	src := `const test = Deno.test;
test("aliased", () => {});`
	tests := Scan("file:///a.ts", src)
	require.Len(t, tests, 1)
	assert.Equal(t, "aliased", tests[0].Name)
}

func TestScanHandlesDescribeAndIt(t *testing.T) {
	src := `describe("a group", () => {
  it("does a thing", () => {});
  it.only("does another thing", () => {});
});`
	tests := Scan("file:///a.ts", src)
	require.Len(t, tests, 3)
	assert.Equal(t, KindDescribe, tests[0].Kind)
	assert.Equal(t, KindIt, tests[1].Kind)
	assert.Equal(t, KindIt, tests[2].Kind)
	assert.Equal(t, ModifierOnly, tests[2].Modifier)
}

func TestScanSynthesizesNameForAnonymousFunction(t *testing.T) {
	src := `Deno.test(function () {});`
	tests := Scan("file:///a.ts", src)
	require.Len(t, tests, 1)
	assert.Contains(t, tests[0].Name, "Test ")
}

func TestScanUsesNamedFunctionName(t *testing.T) {
	src := `Deno.test(function myNamedTest() {});`
	tests := Scan("file:///a.ts", src)
	require.Len(t, tests, 1)
	assert.Equal(t, "myNamedTest", tests[0].Name)
}

func TestScanReadsNameFromObjectLiteral(t *testing.T) {
	src := `Deno.test({ name: "object form", fn: () => {} });`
	tests := Scan("file:///a.ts", src)
	require.Len(t, tests, 1)
	assert.Equal(t, "object form", tests[0].Name)
}

func TestTopLevelIDIsStableAcrossCalls(t *testing.T) {
	a := topLevelID("file:///a.ts", "my test")
	b := topLevelID("file:///a.ts", "my test")
	c := topLevelID("file:///a.ts", "other test")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestStepIDDependsOnParentAndLevel(t *testing.T) {
	a := stepID("parent", 1, "step name")
	b := stepID("parent", 2, "step name")
	c := stepID("other-parent", 1, "step name")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRewriteJSRSpecifierPrefersShortestCandidate(t *testing.T) {
	ctx := &RewriteContext{
		JSRBaseURL: "https://jsr.io/",
		ImportMapAliases: map[string]string{
			"jsr:@std/path@1.0.0/mod.ts": "path",
		},
	}
	rewritten, ok := RewriteSpecifier(ctx, "https://jsr.io/@std/path@1.0.0/mod.ts")
	require.True(t, ok)
	assert.Equal(t, "path", rewritten)
}

func TestRewriteNpmSpecifierThroughExportsTable(t *testing.T) {
	ctx := &RewriteContext{
		NpmPackages: map[string]NpmPackage{
			"file:///node_modules/left-pad": {
				Name: "left-pad",
				Exports: map[string]interface{}{
					".":       "./index.js",
					"./utils": "./lib/utils.js",
				},
			},
		},
	}
	rewritten, ok := RewriteSpecifier(ctx, "file:///node_modules/left-pad/lib/utils.js")
	require.True(t, ok)
	assert.Equal(t, "left-pad/utils", rewritten)
}

func TestRewriteNpmSpecifierTriesCompanionSuffixes(t *testing.T) {
	ctx := &RewriteContext{
		NpmPackages: map[string]NpmPackage{
			"file:///node_modules/left-pad": {
				Name: "left-pad",
				Exports: map[string]interface{}{
					".": "./index.d.ts",
				},
			},
		},
	}
	rewritten, ok := RewriteSpecifier(ctx, "file:///node_modules/left-pad/index.js")
	require.True(t, ok)
	assert.Equal(t, "left-pad", rewritten)
}

func TestRewriteTypesPackageReverseMapsToPlainScope(t *testing.T) {
	ctx := &RewriteContext{
		NpmPackages: map[string]NpmPackage{
			"file:///node_modules/@types/node": {
				Name: "@types/node",
				Exports: map[string]interface{}{
					".": "./index.d.ts",
				},
			},
		},
		TypesPackages: map[string]string{"@types/node": "node"},
	}
	rewritten, ok := RewriteSpecifier(ctx, "file:///node_modules/@types/node/index.d.ts")
	require.True(t, ok)
	assert.Equal(t, "node", rewritten)
}

func TestRewriteDropsUnresolvableSpecifier(t *testing.T) {
	ctx := &RewriteContext{}
	_, ok := RewriteSpecifier(ctx, "file:///node_modules/unknown/index.js")
	assert.False(t, ok)
}

func TestAreEquivalentForFixAllGroupsMissingImportCodes(t *testing.T) {
	assert.True(t, AreEquivalentForFixAll(2304, 2552))
	assert.False(t, AreEquivalentForFixAll(2304, 7016))
}

func TestMarkPreferredPicksHighestPriority(t *testing.T) {
	fixes := []CodeFix{
		{FixName: "fixMissingImport"},
		{FixName: "addMissingImport"},
	}
	marked := MarkPreferred(fixes)
	assert.False(t, marked[0].Preferred)
	assert.True(t, marked[1].Preferred)
}

package rewriter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
)

func testRewriter(config_obj *config.Config) *Rewriter {
	return NewRewriter(
		config_obj, config_obj.Authorization.SearchReadFields)
}

func TestPublicRequest(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	rewriter := testRewriter(config_obj)

	params := url.Values{
		"q":            {"*:*"},
		"rows":         {"50"},
		"facet.field":  {"title", "ipAddress"},
		"facet.prefix": {"a"},
	}
	result := rewriter.Rewrite(params)

	assert.Equal(t, []string{"isPublic:true"}, result["fq"])
	assert.Equal(t, []string{"0"}, result["rows"])
	assert.Equal(t, []string{"title"}, result["facet.field"])
	assert.NotContains(t, result, "facet.prefix")
	assert.Equal(t, []string{"false"}, result["mlt"])

	// The input map is never mutated.
	assert.Equal(t, []string{"50"}, params["rows"])
}

func TestPublicFacetRedactionBySubstring(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	rewriter := testRewriter(config_obj)

	result := rewriter.Rewrite(url.Values{
		"facet.field": {"{!ex=tag}ipAddress", "origin"},
		"facet.query": {"readPermission:[* TO *]", "size:[0 TO 100]"},
	})

	assert.Equal(t, []string{"origin"}, result["facet.field"])
	assert.Equal(t, []string{"size:[0 TO 100]"}, result["facet.query"])
}

func TestAuthorizedUserReadClause(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.SearchReadFields = []string{"readPermission"}
	rewriter := testRewriter(config_obj)

	result := rewriter.Rewrite(url.Values{
		"q": {"*:*"},
		constants.PARAM_AUTHORIZED_SUBJECTS: {
			"public", "CN=jane,O=Example"},
	})

	require.Len(t, result["fq"], 1)
	assert.Equal(t,
		`((readPermission:"public" OR `+
			`readPermission:"CN=jane,O=Example"))`,
		result["fq"][0])
	assert.NotContains(t, result, constants.PARAM_AUTHORIZED_SUBJECTS)
}

func TestAuthorizedUserMultipleReadFields(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.SearchReadFields = []string{
		"readPermission", "rightsHolder"}
	rewriter := testRewriter(config_obj)

	result := rewriter.Rewrite(url.Values{
		constants.PARAM_AUTHORIZED_SUBJECTS: {"public"},
	})

	require.Len(t, result["fq"], 1)
	assert.Equal(t,
		`((readPermission:"public") OR (rightsHolder:"public"))`,
		result["fq"][0])
}

func TestRewriteIsIdempotent(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.SearchReadFields = []string{"readPermission"}
	rewriter := testRewriter(config_obj)

	params := url.Values{
		"q": {"*:*"},
		constants.PARAM_AUTHORIZED_SUBJECTS: {"public"},
	}
	once := rewriter.Rewrite(params)

	// Running a rewritten query through again with the same identity
	// attached must not stack up duplicate clauses.
	once[constants.PARAM_AUTHORIZED_SUBJECTS] = []string{"public"}
	twice := rewriter.Rewrite(once)
	delete(once, constants.PARAM_AUTHORIZED_SUBJECTS)

	assert.Equal(t, once, twice)
	assert.Len(t, twice["fq"], 1)
}

func TestMNAdministratorScope(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.SearchReadFields = []string{"readPermission"}
	rewriter := testRewriter(config_obj)

	result := rewriter.Rewrite(url.Values{
		constants.PARAM_IS_MN_ADMINISTRATOR: {"urn:node:MNA"},
		constants.PARAM_AUTHORIZED_SUBJECTS: {"CN=mn-admin,O=Example"},
	})

	require.Len(t, result["fq"], 2)
	assert.Equal(t, `nodeId:urn\:node\:MNA`, result["fq"][0])
	assert.Equal(t,
		`((readPermission:"CN=mn\-admin,O=Example"))`,
		result["fq"][1])
	assert.NotContains(t, result, constants.PARAM_IS_MN_ADMINISTRATOR)
}

func TestCNAdministratorUnrestricted(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.AdminToken = "sekrit"
	rewriter := testRewriter(config_obj)

	result := rewriter.Rewrite(url.Values{
		"q":    {"*:*"},
		"rows": {"100"},
		constants.PARAM_IS_CN_ADMINISTRATOR: {"sekrit"},
	})

	assert.NotContains(t, result, "fq")
	assert.Equal(t, []string{"100"}, result["rows"])
	assert.NotContains(t, result, constants.PARAM_IS_CN_ADMINISTRATOR)
}

func TestInvalidAdminTokenDegradesToPublic(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.AdminToken = "sekrit"
	rewriter := testRewriter(config_obj)

	result := rewriter.Rewrite(url.Values{
		"rows": {"100"},
		constants.PARAM_IS_CN_ADMINISTRATOR: {"wrong"},
	})

	assert.Equal(t, []string{"isPublic:true"}, result["fq"])
	assert.Equal(t, []string{"0"}, result["rows"])
	assert.NotContains(t, result, constants.PARAM_IS_CN_ADMINISTRATOR)
}

func TestEmptyAdminTokenNeverMatches(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.AdminToken = ""
	rewriter := testRewriter(config_obj)

	result := rewriter.Rewrite(url.Values{
		constants.PARAM_IS_CN_ADMINISTRATOR: {""},
	})

	assert.Equal(t, []string{"isPublic:true"}, result["fq"])
}

func TestRowLimit(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Authorization.AdminToken = "sekrit"
	rewriter := testRewriter(config_obj)

	admin := func(rows string) url.Values {
		return url.Values{
			"rows": {rows},
			constants.PARAM_IS_CN_ADMINISTRATOR: {"sekrit"},
		}
	}

	result := rewriter.Rewrite(admin("99999"))
	assert.Equal(t, []string{"10000"}, result["rows"])

	result = rewriter.Rewrite(admin("abc"))
	assert.Equal(t, []string{"1000"}, result["rows"])

	result = rewriter.Rewrite(admin("10000"))
	assert.Equal(t, []string{"10000"}, result["rows"])

	// The cap applies to ordinary authenticated callers too.
	result = rewriter.Rewrite(url.Values{
		"rows": {"99999"},
		constants.PARAM_AUTHORIZED_SUBJECTS: {"CN=jane,O=Example"},
	})
	assert.Equal(t, []string{"10000"}, result["rows"])
}

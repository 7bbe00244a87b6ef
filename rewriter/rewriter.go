// Package rewriter mutates the outbound Solr parameters according to
// the authorization decision attached by the session filter: read
// permission clauses for ordinary callers, a node scope for member
// node administrators, summary-only access for the public.
package rewriter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
	"github.com/DataONEorg/d1-solr-extensions/logging"
	"github.com/DataONEorg/d1-solr-extensions/utils"
)

// Rewriter is a pure transformation over the multi valued parameter
// map. Field multiplicity is preserved - facet.field may repeat.
type Rewriter struct {
	config_obj *config.Config

	// Schema fields whose values are principal sets allowed to read
	// a record.
	readFields []string
}

func NewRewriter(config_obj *config.Config, readFields []string) *Rewriter {
	return &Rewriter{
		config_obj: config_obj,
		readFields: readFields,
	}
}

// Rewrite returns a new parameter map with access control clauses
// applied. The reserved identity parameters are consumed: they never
// reach the query engine.
func (self *Rewriter) Rewrite(original url.Values) url.Values {
	logger := logging.GetLogger(self.config_obj, &logging.AuditComponent)
	logParams(logger, "before", original)

	params := utils.CopyParams(original)

	// MLT result sets do not honor filter query clauses and would
	// bypass access control.
	utils.ReplaceParam(params, constants.PARAM_MLT, "false")

	isCNAdmin := params[constants.PARAM_IS_CN_ADMINISTRATOR]
	isMNAdmin := params[constants.PARAM_IS_MN_ADMINISTRATOR]
	subjects := params[constants.PARAM_AUTHORIZED_SUBJECTS]
	delete(params, constants.PARAM_IS_CN_ADMINISTRATOR)
	delete(params, constants.PARAM_IS_MN_ADMINISTRATOR)
	delete(params, constants.PARAM_AUTHORIZED_SUBJECTS)

	switch {
	case self.isValidCNAdministrator(isCNAdmin):
		// Full access, no read restriction.
		logger.Debug("found a cn administrative user")

	case len(isCNAdmin) > 0:
		// An administrator claim that does not match the current
		// token. The session filter never produces this, so either
		// the chain ordering was violated or the token rotated
		// mid-flight. Degrade to public.
		logger.Warn("an invalid administrative token got past "+
			"the session authorization filter: %q", isCNAdmin[0])
		self.applyPublicRestriction(params)

	case len(isMNAdmin) > 0 && isMNAdmin[0] != "":
		// A member node administers its own records, in addition
		// to anything the read permission filter would grant it.
		logger.Debug("found a member node administrative user")
		utils.AddParamOnce(params, constants.PARAM_FILTER_QUERY,
			"nodeId:"+utils.EscapeQueryChars(isMNAdmin[0]))
		self.applyReadRestriction(params, subjects)

	case len(subjects) > 0:
		logger.Debug("found an authorized user")
		self.applyReadRestriction(params, subjects)

	default:
		logger.Debug("found a public user")
		self.applyPublicRestriction(params)
	}

	self.enforceRowLimit(params)

	logParams(logger, "after", params)
	return params
}

func (self *Rewriter) isValidCNAdministrator(isCNAdmin []string) bool {
	// An unset admin token in the configuration disables CN level
	// access entirely rather than matching an empty claim.
	token := self.config_obj.Authorization.AdminToken
	return len(isCNAdmin) > 0 && token != "" && isCNAdmin[0] == token
}

// applyReadRestriction adds a filter query ORing every resolved
// subject across every configured read permission field. Subjects may
// contain spaces and query syntax so each one is escaped and quoted.
func (self *Rewriter) applyReadRestriction(
	params url.Values, subjects []string) {
	if len(subjects) == 0 {
		self.applyPublicRestriction(params)
		return
	}

	quoted := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		quoted = append(quoted,
			"\""+utils.EscapeQueryChars(subject)+"\"")
	}

	clauses := make([]string, 0, len(self.readFields))
	for _, field := range self.readFields {
		clauses = append(clauses, fmt.Sprintf("(%s:%s)", field,
			strings.Join(quoted, " OR "+field+":")))
	}

	utils.AddParamOnce(params, constants.PARAM_FILTER_QUERY,
		"("+strings.Join(clauses, " OR ")+")")
}

// applyPublicRestriction limits a subject-less caller to summary
// information over public records: no rows, sensitive fields redacted
// from facets, no facet prefix probing.
func (self *Rewriter) applyPublicRestriction(params url.Values) {
	utils.AddParamOnce(params, constants.PARAM_FILTER_QUERY,
		constants.PUBLIC_FILTER_STRING)
	utils.ReplaceParam(params, constants.PARAM_ROWS, "0")

	for _, field := range self.config_obj.Authorization.RedactedFacetFields {
		utils.RemoveMatchingValues(
			params, constants.PARAM_FACET_FIELD, field)
		utils.RemoveMatchingValues(
			params, constants.PARAM_FACET_QUERY, field)
	}

	delete(params, constants.PARAM_FACET_PREFIX)
}

// enforceRowLimit caps the requested row count for every caller
// class. Unbounded result materialization can take the engine down
// with an out of memory error.
func (self *Rewriter) enforceRowLimit(params url.Values) {
	auth := self.config_obj.Authorization

	for _, value := range params[constants.PARAM_ROWS] {
		rows, err := strconv.Atoi(value)
		if err != nil {
			utils.ReplaceParam(params, constants.PARAM_ROWS,
				strconv.Itoa(auth.DefaultRows))
			return
		}
		if rows > auth.MaxRows {
			utils.ReplaceParam(params, constants.PARAM_ROWS,
				strconv.Itoa(auth.MaxRows))
		}
	}
}

func logParams(
	logger *logging.LogContext, stage string, params url.Values) {
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for name, values := range params {
		logger.Debug("%s: %s = %q", stage, name, values)
	}
}

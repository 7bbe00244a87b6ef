// Package authfilter intercepts inbound search requests, classifies
// the caller from the certificate derived session and attaches the
// authorization decision to the request parameters before they reach
// the query rewriter.
package authfilter

import (
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
	"github.com/DataONEorg/d1-solr-extensions/directory"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
	"github.com/DataONEorg/d1-solr-extensions/logging"
	"github.com/DataONEorg/d1-solr-extensions/noderegistry"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

var (
	decisionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_authorization_decisions_total",
			Help: "Count of filter decisions by caller class.",
		},
		[]string{"operation", "class"},
	)
)

// Filter is the session authorization filter. The two injected
// policies select the endpoint variant: the search service admits the
// public, the log service admits administrators only.
type Filter struct {
	config_obj *config.Config
	operation  string

	manager  sessions.Manager
	resolver *directory.PrincipalResolver
	registry *noderegistry.AdministratorRegistry

	onNoSession    NoSessionPolicy
	injectSubjects SubjectInjector
	next           http.Handler
}

func NewFilter(
	config_obj *config.Config,
	operation string,
	manager sessions.Manager,
	resolver *directory.PrincipalResolver,
	registry *noderegistry.AdministratorRegistry,
	onNoSession NoSessionPolicy,
	next http.Handler) *Filter {

	return &Filter{
		config_obj:     config_obj,
		operation:      operation,
		manager:        manager,
		resolver:       resolver,
		registry:       registry,
		onNoSession:    onNoSession,
		injectSubjects: DefaultSubjectInjector,
		next:           next,
	}
}

// NewSearchServiceFilter admits unauthenticated callers with public
// access.
func NewSearchServiceFilter(
	config_obj *config.Config,
	manager sessions.Manager,
	resolver *directory.PrincipalResolver,
	registry *noderegistry.AdministratorRegistry,
	next http.Handler) *Filter {
	return NewFilter(config_obj, constants.SEARCH_METHOD_NAME,
		manager, resolver, registry, PublicAccessPolicy, next)
}

// NewLogServiceFilter rejects unauthenticated callers - log records
// are only visible to administrators and whitelisted subjects. The
// config flag log_service_public_access selects the historical
// public (summary only) behavior instead.
func NewLogServiceFilter(
	config_obj *config.Config,
	manager sessions.Manager,
	resolver *directory.PrincipalResolver,
	registry *noderegistry.AdministratorRegistry,
	next http.Handler) *Filter {
	policy := RejectPolicy
	if config_obj.Authorization.LogServicePublicAccess {
		policy = PublicAccessPolicy
	}
	return NewFilter(config_obj, constants.LOG_RECORDS_METHOD_NAME,
		manager, resolver, registry, policy, next)
}

func (self *Filter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := self.filter(w, r)
	if err != nil {
		logger := logging.GetLogger(
			self.config_obj, &logging.FrontendComponent)
		logger.Warn("session authorization for %s failed: %v",
			self.operation, err)

		decisionCounter.WithLabelValues(self.operation, "rejected").Inc()
		d1errors.WriteResponse(w, d1errors.Convert(
			err, constants.DETAIL_CODE_SERVICE_FAILURE))
	}
}

func (self *Filter) filter(w http.ResponseWriter, r *http.Request) error {
	logger := logging.GetLogger(self.config_obj, &logging.FrontendComponent)

	params := r.URL.Query()

	// Close the spoofing vector first, on every request: reserved
	// parameter names are only ever set by this filter.
	stripReservedParams(logger, params)
	self.setParams(r, params)

	cert := sessions.ValidateSSLAttributes(r)
	if cert == nil {
		logger.Debug("no valid SSL attributes: handling as no session")
		return self.noSession(w, r)
	}

	attrs := sessions.ConnectionAttributesFromHeaders(r)
	if attrs.Cipher != "" {
		logger.Debug("forwarded TLS connection: cipher %s, key size %s",
			attrs.Cipher, attrs.KeySize)
	}

	session, err := self.manager.GetSession(
		r.WithContext(sessions.WithCertificate(r.Context(), cert)))
	if err != nil {
		return err
	}
	if session == nil {
		logger.Debug("no certificate manager session")
		return self.noSession(w, r)
	}

	// An authenticated caller - the administrator cache must be
	// reasonably fresh before we classify.
	self.registry.RefreshIfStale(r.Context())

	subject := session.Subject
	logger.Debug("session authorization found subject %s", subject.Value)

	switch {
	case self.registry.IsCNAdministrator(subject):
		logger.Debug("%s is a cn administrator", subject.Value)
		params[constants.PARAM_IS_CN_ADMINISTRATOR] = []string{
			self.config_obj.Authorization.AdminToken}
		decisionCounter.WithLabelValues(self.operation, "cn_admin").Inc()

	case self.isMNAdministrator(subject, params, logger):
		// An MN administrator is not automatically CN level: the
		// rewriter scopes it to its own node's records plus
		// whatever the read permission filter grants, so the
		// resolved principals ride along.
		err := self.injectResolvedSubjects(r, session, subject, params)
		if err != nil {
			return err
		}
		decisionCounter.WithLabelValues(self.operation, "mn_admin").Inc()

	case self.registry.HasRestrictedSubjects():
		if !self.registry.IsRestrictedOperationSubject(subject) {
			logger.Debug("%s not found in restricted list for %s",
				subject.Value, self.operation)
			if !self.config_obj.Authorization.RestrictedFallbackPublic {
				// Known caller, not entitled: same disposition
				// as an unidentified one. A policy error is
				// counted by ServeHTTP as rejected.
				err := self.onNoSession(w, r, self.next)
				if err != nil {
					return err
				}
				decisionCounter.WithLabelValues(
					self.operation, "restricted_denied").Inc()
				return nil
			}
			decisionCounter.WithLabelValues(
				self.operation, "restricted_public").Inc()
			break
		}

		err := self.injectResolvedSubjects(r, session, subject, params)
		if err != nil {
			return err
		}
		decisionCounter.WithLabelValues(self.operation, "restricted").Inc()

	default:
		logger.Debug("%s is an ordinary authorized user", subject.Value)
		err := self.injectResolvedSubjects(r, session, subject, params)
		if err != nil {
			return err
		}
		decisionCounter.WithLabelValues(self.operation, "authorized").Inc()
	}

	self.setParams(r, params)
	self.next.ServeHTTP(w, r)
	return nil
}

// noSession hands the request to the endpoint's policy. The decision
// is counted here only when the policy disposes of the request itself;
// a policy error propagates to ServeHTTP and is counted as rejected,
// so every request lands on exactly one counter label.
func (self *Filter) noSession(w http.ResponseWriter, r *http.Request) error {
	err := self.onNoSession(w, r, self.next)
	if err != nil {
		return err
	}
	decisionCounter.WithLabelValues(self.operation, "no_session").Inc()
	return nil
}

func (self *Filter) isMNAdministrator(
	subject sessions.Subject, params url.Values,
	logger *logging.LogContext) bool {
	nodeID, ok := self.registry.IsMNAdministrator(subject)
	if !ok {
		return false
	}
	logger.Debug("%s is a mn administrator for %s", subject.Value, nodeID)
	params[constants.PARAM_IS_MN_ADMINISTRATOR] = []string{nodeID}
	return true
}

func (self *Filter) injectResolvedSubjects(
	r *http.Request, session *sessions.Session,
	subject sessions.Subject, params url.Values) error {
	subjects, err := self.resolver.Resolve(r.Context(), session, subject)
	if err != nil {
		return err
	}
	self.injectSubjects(params, subjects)
	return nil
}

func (self *Filter) setParams(r *http.Request, params url.Values) {
	r.URL.RawQuery = params.Encode()
}

func stripReservedParams(logger *logging.LogContext, params url.Values) {
	for _, name := range []string{
		constants.PARAM_AUTHORIZED_SUBJECTS,
		constants.PARAM_IS_CN_ADMINISTRATOR,
		constants.PARAM_IS_MN_ADMINISTRATOR,
	} {
		if _, pres := params[name]; pres {
			logger.Debug(
				"removing attempt at supplying %s by client", name)
			delete(params, name)
		}
	}
}

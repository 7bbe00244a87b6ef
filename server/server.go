// Package server wires the session authorization filters and the
// query rewriter in front of the upstream Solr core.
package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/DataONEorg/d1-solr-extensions/authfilter"
	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
	"github.com/DataONEorg/d1-solr-extensions/description"
	"github.com/DataONEorg/d1-solr-extensions/directory"
	"github.com/DataONEorg/d1-solr-extensions/logging"
	"github.com/DataONEorg/d1-solr-extensions/noderegistry"
	"github.com/DataONEorg/d1-solr-extensions/rewriter"
	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

// rewriteHandler applies the query rewrite and forwards to the
// upstream proxy. It sits immediately downstream of the
// authorization filter.
func rewriteHandler(rw *rewriter.Rewriter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.RawQuery = rw.Rewrite(r.URL.Query()).Encode()
		next.ServeHTTP(w, r)
	})
}

// PrepareMux builds the handler chains:
//
//	request -> access log -> authfilter -> rewriter -> solr proxy
//
// The search endpoint admits the public; the log endpoint admits
// administrators and whitelisted subjects only.
func PrepareMux(config_obj *config.Config, mux *http.ServeMux) error {
	upstream, err := url.Parse(config_obj.Frontend.SolrURL)
	if err != nil {
		return errors.Wrap(err, "parsing solr_url")
	}
	proxy := httputil.NewSingleHostReverseProxy(upstream)

	manager := sessions.NewCertificateManager(config_obj)
	identity := directory.NewHTTPIdentityService(
		config_obj.Services.IdentityServiceURL)
	resolver := directory.NewPrincipalResolver(config_obj, identity)
	lister := noderegistry.NewHTTPNodeLister(
		config_obj.Services.NodeRegistryURL)

	searchRegistry := noderegistry.NewAdministratorRegistry(
		config_obj, lister, constants.SEARCH_METHOD_NAME)
	logRegistry := noderegistry.NewAdministratorRegistry(
		config_obj, lister, constants.LOG_RECORDS_METHOD_NAME)

	auth := config_obj.Authorization
	searchChain := authfilter.NewSearchServiceFilter(
		config_obj, manager, resolver, searchRegistry,
		rewriteHandler(
			rewriter.NewRewriter(config_obj, auth.SearchReadFields),
			proxy))
	logChain := authfilter.NewLogServiceFilter(
		config_obj, manager, resolver, logRegistry,
		rewriteHandler(
			rewriter.NewRewriter(config_obj, auth.LogReadFields),
			proxy))

	// Each index variant describes itself through its own overlay.
	provider := description.NewSolrSchemaProvider(config_obj)
	searchDescription := description.NewHandler(config_obj,
		description.NewAssembler(
			config_obj, config_obj.Description, provider))
	logDescription := description.NewHandler(config_obj,
		description.NewAssembler(
			config_obj, config_obj.LogDescription, provider))

	logHandler := logging.GetLoggingHandler(config_obj)

	// More specific paths first: the bare query endpoints serve the
	// engine description.
	mux.Handle("/cn/v2/query/solr/description",
		logHandler(searchDescription))
	mux.Handle("/cn/v2/query/logsolr/description",
		logHandler(logDescription))
	mux.Handle("/cn/v2/query/solr/", logHandler(searchChain))
	mux.Handle("/cn/v2/query/logsolr/", logHandler(logChain))

	mux.Handle("/metrics", promhttp.Handler())

	return nil
}

// StartFrontend serves the mux. TLS (with the hardening settings
// required for handling client certificates) when a key pair is
// configured, plain HTTP for development behind a terminating proxy.
func StartFrontend(config_obj *config.Config, mux *http.ServeMux) error {
	logger := logging.GetLogger(config_obj, &logging.FrontendComponent)

	listenAddr := fmt.Sprintf("%s:%d",
		config_obj.Frontend.BindAddress,
		config_obj.Frontend.BindPort)

	server := &http.Server{
		Addr:    listenAddr,
		Handler: mux,

		ReadTimeout:  30 * time.Second,
		WriteTimeout: 900 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if config_obj.Frontend.CertificateFile == "" {
		logger.WithFields(logrus.Fields{
			"listenAddr": listenAddr,
		}).Info("Frontend is ready to handle requests")
		return server.ListenAndServe()
	}

	cert, err := tls.LoadX509KeyPair(
		config_obj.Frontend.CertificateFile,
		config_obj.Frontend.PrivateKeyFile)
	if err != nil {
		return errors.Wrap(err, "loading frontend key pair")
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{
			tls.CurveP521, tls.CurveP384, tls.CurveP256},
		Certificates: []tls.Certificate{cert},

		// Client certificates stay optional at the TLS layer so
		// unauthenticated callers can still reach the public path.
		ClientAuth: tls.RequestClientCert,
	}

	if config_obj.Frontend.ClientCAFile != "" {
		pem, err := ioutil.ReadFile(config_obj.Frontend.ClientCAFile)
		if err != nil {
			return errors.Wrap(err, "loading client CA file")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return errors.New("no certificates found in client CA file")
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	}

	server.TLSConfig = tlsConfig

	logger.WithFields(logrus.Fields{
		"listenAddr": listenAddr,
	}).Info("Frontend is ready to handle TLS requests")
	return server.ListenAndServeTLS("", "")
}

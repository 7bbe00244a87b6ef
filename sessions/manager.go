package sessions

import (
	"net/http"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/logging"
)

// CertificateManager derives the session from the validated client
// certificate. The certificate is taken from the request context
// (placed there by the authorization filter after SSL validation) or
// directly from the TLS connection state.
type CertificateManager struct {
	config_obj *config.Config
}

func NewCertificateManager(config_obj *config.Config) *CertificateManager {
	return &CertificateManager{config_obj: config_obj}
}

func (self *CertificateManager) GetSession(r *http.Request) (*Session, error) {
	cert := CertificateFromContext(r.Context())
	if cert == nil {
		cert = ValidateSSLAttributes(r)
	}
	if cert == nil {
		return nil, nil
	}

	// crypto/x509 renders the subject in RFC 2253 order which is
	// close to, but not exactly, the canonical form.
	dn, err := StandardizeDN(cert.Subject.String())
	if err != nil {
		logger := logging.GetLogger(
			self.config_obj, &logging.FrontendComponent)
		logger.Warn("rejecting certificate with malformed subject: %v", err)
		return nil, nil
	}

	return &Session{Subject: NewSubject(dn)}, nil
}

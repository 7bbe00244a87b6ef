package sessions

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/DataONEorg/d1-solr-extensions/constants"
)

const (
	pemBegin = "-----BEGIN CERTIFICATE-----"
	pemEnd   = "-----END CERTIFICATE-----"
)

type contextKey int

const certificateContextKey contextKey = 0

func WithCertificate(
	ctx context.Context, cert *x509.Certificate) context.Context {
	return context.WithValue(ctx, certificateContextKey, cert)
}

func CertificateFromContext(ctx context.Context) *x509.Certificate {
	cert, _ := ctx.Value(certificateContextKey).(*x509.Certificate)
	return cert
}

// ValidateSSLAttributes recovers the verified TLS client certificate
// for the request, or nil when the connection carries no usable
// client identity.
//
// When this process terminates TLS itself the verified peer
// certificate is already on the request. Otherwise the reverse proxy
// in front of us is expected to have verified the client certificate
// and forwarded the TLS state in headers: the verify header must read
// exactly "SUCCESS" and the certificate header must parse (see
// ParseProxyCertHeader). Anything short of that is treated as no
// identity, never as an error - identity uncertainty fails closed to
// the public path.
func ValidateSSLAttributes(r *http.Request) *x509.Certificate {
	// Only a peer certificate the TLS layer actually verified
	// against the configured roots confers identity.
	if r.TLS != nil && len(r.TLS.VerifiedChains) > 0 &&
		len(r.TLS.PeerCertificates) > 0 {
		return r.TLS.PeerCertificates[0]
	}

	verify := r.Header.Get(constants.SSL_CLIENT_VERIFY_HEADER)
	if verify != "SUCCESS" {
		return nil
	}

	cert, err := ParseProxyCertHeader(
		r.Header.Get(constants.SSL_CLIENT_CERT_HEADER))
	if err != nil {
		return nil
	}
	return cert
}

// ConnectionAttributes are the TLS connection properties the reverse
// proxy forwards alongside the client certificate.
type ConnectionAttributes struct {
	Cipher    string
	SessionID string
	KeySize   string
}

// ConnectionAttributesFromHeaders restores the forwarded connection
// properties. mod_headers writes "(null)" for unset variables; those
// come back empty.
func ConnectionAttributesFromHeaders(r *http.Request) ConnectionAttributes {
	get := func(name string) string {
		value := r.Header.Get(name)
		if value == constants.MOD_HEADER_NULL {
			return ""
		}
		return value
	}
	return ConnectionAttributes{
		Cipher:    get(constants.SSL_CIPHER_HEADER),
		SessionID: get(constants.SSL_SESSION_ID_HEADER),
		KeySize:   get(constants.SSL_CIPHER_USE_KEYSIZE_HEADER),
	}
}

// ParseProxyCertHeader parses a PEM certificate forwarded by the
// reverse proxy. mod_headers flattens the PEM body by converting
// newlines into spaces, so the expected input is
//
//	-----BEGIN CERTIFICATE----- MIIC...base64 lines... -----END CERTIFICATE-----
//
// with single spaces where line breaks used to be. Input that kept
// its newlines is accepted unchanged. The literal "(null)" (what
// mod_headers writes for an unset variable) and anything without both
// PEM markers is rejected.
func ParseProxyCertHeader(raw string) (*x509.Certificate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == constants.MOD_HEADER_NULL {
		return nil, errors.New("no certificate header")
	}

	if !strings.HasPrefix(raw, pemBegin) || !strings.HasSuffix(raw, pemEnd) {
		return nil, errors.New("certificate header missing PEM markers")
	}

	body := raw[len(pemBegin) : len(raw)-len(pemEnd)]
	body = strings.TrimSpace(strings.ReplaceAll(body, " ", "\n"))

	rebuilt := pemBegin + "\n" + body + "\n" + pemEnd + "\n"
	block, _ := pem.Decode([]byte(rebuilt))
	if block == nil {
		return nil, errors.New("certificate header is not valid PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parsing client certificate")
	}
	return cert, nil
}

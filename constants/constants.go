package constants

var (
	VERSION = "2.4.0"

	// Reserved request parameters. These carry the authorization
	// decision from the session filter to the query rewriter. Any
	// client supplied values under these names are stripped before
	// the decision is made.
	PARAM_AUTHORIZED_SUBJECTS = "authorizedSubjects"
	PARAM_IS_CN_ADMINISTRATOR = "isCnAdministrator"
	PARAM_IS_MN_ADMINISTRATOR = "isMnAdministrator"

	// Solr request parameters mutated by the rewriter.
	PARAM_QUERY        = "q"
	PARAM_FILTER_QUERY = "fq"
	PARAM_ROWS         = "rows"
	PARAM_FACET_FIELD  = "facet.field"
	PARAM_FACET_QUERY  = "facet.query"
	PARAM_FACET_PREFIX = "facet.prefix"
	PARAM_MLT          = "mlt"

	// Pseudo subjects. These are indexed as readable principals so
	// they participate in read permission filters like real DNs.
	SUBJECT_PUBLIC             = "public"
	SUBJECT_AUTHENTICATED_USER = "authenticatedUser"
	SUBJECT_VERIFIED_USER      = "verifiedUser"

	PUBLIC_FILTER_STRING = "isPublic:true"

	// CN service descriptor scanned for method restrictions.
	CNCORE_SERVICE_NAME = "CNCore"

	// Restricted operation names, one per filter variant.
	SEARCH_METHOD_NAME      = "search"
	LOG_RECORDS_METHOD_NAME = "getLogRecords"

	// DataONE error detail codes.
	DETAIL_CODE_NOT_AUTHORIZED  = "1460"
	DETAIL_CODE_NOT_IMPLEMENTED = "1461"
	DETAIL_CODE_INVALID_TOKEN   = "1470"
	DETAIL_CODE_SERVICE_FAILURE = "1490"

	// Headers populated by the reverse proxy (apache mod_ssl +
	// mod_headers) carrying the TLS state of the original client
	// connection.
	SSL_CLIENT_VERIFY_HEADER      = "Ssl-Client-Verify"
	SSL_CLIENT_CERT_HEADER        = "Ssl-Client-Cert"
	SSL_CIPHER_HEADER             = "Ssl-Cipher"
	SSL_SESSION_ID_HEADER         = "Ssl-Session-Id"
	SSL_CIPHER_USE_KEYSIZE_HEADER = "Ssl-Cipher-Usekeysize"

	// mod_headers writes this when the ssl variable is unset.
	MOD_HEADER_NULL = "(null)"
)

const (
	// Hard ceiling on requested rows regardless of caller class.
	MAX_ROWS_LIMIT = 10000

	// Replacement when the rows parameter does not parse.
	DEFAULT_ROWS = 1000

	// Administrator cache refresh interval.
	NODELIST_REFRESH_INTERVAL_MS = 5 * 60 * 1000
)

package errors

import (
	"encoding/xml"
	"net/http"
)

// The DataONE error document, e.g.
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<error detailCode="1460" errorCode="401" name="NotAuthorized">
//	  <description>not entitled</description>
//	</error>
type errorDocument struct {
	XMLName     xml.Name `xml:"error"`
	DetailCode  string   `xml:"detailCode,attr"`
	ErrorCode   int      `xml:"errorCode,attr"`
	Name        string   `xml:"name,attr"`
	Description string   `xml:"description"`
}

func Serialize(err *Error) []byte {
	doc := &errorDocument{
		DetailCode:  err.DetailCode,
		ErrorCode:   err.HTTPStatus(),
		Name:        err.Name(),
		Description: err.Message,
	}

	// A static struct can not fail to marshal.
	serialized, _ := xml.MarshalIndent(doc, "", "  ")
	return append([]byte(xml.Header), serialized...)
}

// WriteResponse emits the error document with its HTTP status. No
// stack traces or internal identifiers beyond the detail code are
// exposed to the client.
func WriteResponse(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(err.HTTPStatus())
	_, _ = w.Write(Serialize(err))
}

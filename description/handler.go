package description

import (
	"encoding/xml"
	"net/http"

	"github.com/DataONEorg/d1-solr-extensions/config"
	"github.com/DataONEorg/d1-solr-extensions/constants"
	d1errors "github.com/DataONEorg/d1-solr-extensions/errors"
)

// Handler serves the query engine description document. Not a
// security boundary - the descriptor only contains schema metadata.
type Handler struct {
	config_obj *config.Config
	assembler  *Assembler
}

func NewHandler(config_obj *config.Config, assembler *Assembler) *Handler {
	return &Handler{
		config_obj: config_obj,
		assembler:  assembler,
	}
}

func (self *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	qed, err := self.assembler.Describe(r.Context())
	if err != nil {
		d1errors.WriteResponse(w, d1errors.Convert(
			err, constants.DETAIL_CODE_SERVICE_FAILURE))
		return
	}

	serialized, err := xml.MarshalIndent(qed, "", "  ")
	if err != nil {
		d1errors.WriteResponse(w, d1errors.ServiceFailure(
			constants.DETAIL_CODE_SERVICE_FAILURE,
			"serializing description: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(append([]byte(xml.Header), serialized...))
}

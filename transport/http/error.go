package http

import (
	"encoding/json"
	"net/http"

	"github.com/autom8ter/crudquery/errors"
)

// Error writes err as a json body. The status is the error's code when it is a valid http status, otherwise 500.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var e = errors.Extract(err)
	if cde := e.Code; cde >= 400 && cde < 600 {
		status = int(cde)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// remove the internal error
	body := e.RemoveError()
	body.Code = errors.Code(status)
	json.NewEncoder(w).Encode(body)
}

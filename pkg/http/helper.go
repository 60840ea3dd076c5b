package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	apperrors "shelfkeeper/pkg/errors"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// ParamID reads a positive integer path parameter.
func ParamID(ps httprouter.Params, name string) (int64, error) {
	raw := ps.ByName(name)
	if raw == "" {
		return 0, apperrors.InvalidInput("missing " + name + " path parameter")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("invalid " + name + " path parameter: " + raw)
	}
	return id, nil
}

func QueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.InvalidInput("invalid " + name + " query parameter: " + raw)
	}
	return v, nil
}

// DecodeJSON decodes the request body into dst. An empty body is allowed
// when allowEmpty is set, leaving dst untouched.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return apperrors.InvalidInput("Invalid JSON body")
}

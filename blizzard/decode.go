package blizzard

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

var errInvalidJSON = errors.New("body is not valid JSON")

// decode converts a response body into the payload shape of format
func decode(body []byte, format Format) (any, error) {
	switch format {
	case FormatRaw:
		return string(body), nil
	case FormatGeneric:
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		if !gjson.ValidBytes(body) {
			return nil, errInvalidJSON
		}
		return gjson.ParseBytes(body), nil
	}
}

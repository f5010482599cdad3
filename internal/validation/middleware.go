package validation

import (
	"bytes"
	"encoding/json"

	"task_tracker/internal/apierror"

	"github.com/gin-gonic/gin"
)

const bodyMapKey = "validation.body"

var errNotObject = apierror.BadRequest("Request body must be a JSON object", nil)

// Body returns a middleware that aborts with a validation error when the
// request body breaks any of rules.
func Body(rules ...Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := BodyMap(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if errs := Validate(rules, body); len(errs) > 0 {
			_ = c.Error(apierror.Validation(errs))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RawBody reads the request body once and caches it on the context so later
// binds can read it again.
func RawBody(c *gin.Context) ([]byte, error) {
	if cached, ok := c.Get(gin.BodyBytesKey); ok {
		if b, ok := cached.([]byte); ok {
			return b, nil
		}
	}
	b, err := c.GetRawData()
	if err != nil {
		return nil, apierror.BadRequest("Invalid request body", nil)
	}
	c.Set(gin.BodyBytesKey, b)
	return b, nil
}

// BodyMap decodes the request body as a JSON object. An empty body is an
// empty object.
func BodyMap(c *gin.Context) (map[string]any, error) {
	if cached, ok := c.Get(bodyMapKey); ok {
		return cached.(map[string]any), nil
	}
	raw, err := RawBody(c)
	if err != nil {
		return nil, err
	}

	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, errNotObject
		}
		obj, ok := decoded.(map[string]any)
		if !ok {
			return nil, errNotObject
		}
		body = obj
	}
	c.Set(bodyMapKey, body)
	return body, nil
}

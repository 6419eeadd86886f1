package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cppla/cookbook/utils"
)

// FieldError describes why one request field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// strictJSON is binding.JSON with unknown keys rejected at every nesting level.
type strictJSON struct{}

func (strictJSON) Name() string { return "json" }

func (strictJSON) Bind(req *http.Request, obj any) error {
	if req == nil || req.Body == nil {
		return errors.New("invalid request")
	}
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		return err
	}
	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(obj)
}

// writeBindError answers 422 for any payload that failed decoding or validation.
func writeBindError(ctx *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldPath(fe), Reason: reason(fe)})
		}
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, "invalid request", fields)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, "invalid request", []FieldError{
			{Field: field, Reason: "must be " + jsonKind(typeErr.Type.Kind().String())},
		})
		return
	}

	// encoding/json reports unknown keys only as text
	if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`)
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, "invalid request", []FieldError{
			{Field: field, Reason: "extra fields not permitted"},
		})
		return
	}

	utils.Error(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, "request body must be a JSON object")
}

// fieldPath maps the struct namespace to json names, e.g. "ingredients[1].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		name, idx := p, ""
		if j := strings.IndexByte(p, '['); j >= 0 {
			name, idx = p[:j], p[j:]
		}
		parts[i] = jsonNames[name] + idx
		if jsonNames[name] == "" {
			parts[i] = strings.ToLower(name) + idx
		}
	}
	return strings.Join(parts, ".")
}

var jsonNames = map[string]string{
	"Title":       "title",
	"CookingTime": "cooking_time",
	"Description": "description",
	"Ingredients": "ingredients",
	"Name":        "name",
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return "must not be empty"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func jsonKind(goKind string) string {
	switch goKind {
	case "int", "int64", "uint":
		return "an integer"
	case "string":
		return "a string"
	case "slice":
		return "an array"
	case "struct":
		return "an object"
	default:
		return goKind
	}
}

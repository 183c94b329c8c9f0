package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stoewer/go-strcase"
	"golang.org/x/exp/slices"

	"github.com/zodgen/openapi-zod-gen/ast"
	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/openapi"
	"github.com/zodgen/openapi-zod-gen/util"
	"github.com/zodgen/openapi-zod-gen/zod"
)

// ParameterType is where a parameter is sent.
type ParameterType string

const (
	ParameterPath   ParameterType = "Path"
	ParameterQuery  ParameterType = "Query"
	ParameterHeader ParameterType = "Header"
	ParameterBody   ParameterType = "Body"
)

// RequestFormat is the encoding of the request body.
type RequestFormat string

const (
	RequestFormatJSON     RequestFormat = "json"
	RequestFormatFormData RequestFormat = "form-data"
	RequestFormatFormURL  RequestFormat = "form-url"
	RequestFormatBinary   RequestFormat = "binary"
	RequestFormatText     RequestFormat = "text"
)

// StatusDefault is the status of a `default` response.
const StatusDefault = "default"

// voidSchema is used for responses without an accepted body.
const voidSchema = "z.void()"

// Parameter is an endpoint parameter. Schema is either a variable name or an
// inline expression.
type Parameter struct {
	Name        string        `json:"name"`
	Type        ParameterType `json:"type"`
	Description string        `json:"description,omitempty"`
	Schema      string        `json:"schema"`
}

// ErrorResponse is a response recorded as an error.
type ErrorResponse struct {
	// Status is a status code or "default".
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

// Endpoint describes one operation of the API client.
type Endpoint struct {
	Method              string          `json:"method"`
	Path                string          `json:"path"`
	Alias               string          `json:"alias"`
	Description         string          `json:"description,omitempty"`
	RequestFormat       RequestFormat   `json:"requestFormat"`
	Parameters          []Parameter     `json:"parameters,omitempty"`
	Response            string          `json:"response"`
	ResponseDescription string          `json:"responseDescription,omitempty"`
	Errors              []ErrorResponse `json:"errors,omitempty"`
	Tags                []string        `json:"tags,omitempty"`
	Deprecated          bool            `json:"deprecated,omitempty"`

	// variable names the endpoint refers to
	uses []string
}

var (
	pathParam    = regexp.MustCompile(`\{([^}]+)\}`)
	nonAliasChar = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// ConvertPath turns `/pets/{pet-id}` into `/pets/:petId`.
func ConvertPath(path string) string {
	return pathParam.ReplaceAllStringFunc(path, func(m string) string {
		return ":" + strcase.LowerCamelCase(m[1:len(m)-1])
	})
}

// OperationAlias returns the sanitized operationId, or a name built from the
// method and path.
func OperationAlias(method, path string, op *openapi.Operation) string {
	if op != nil && op.OperationID != "" {
		return nonAliasChar.ReplaceAllString(op.OperationID, "_")
	}

	var sb strings.Builder
	sb.WriteString(strings.ToLower(method))
	for _, segment := range strings.Split(path, "/") {
		segment = strings.Trim(segment, "{}")
		if segment == "" {
			continue
		}
		sb.WriteString(strcase.UpperCamelCase(segment))
	}
	return nonAliasChar.ReplaceAllString(sb.String(), "_")
}

// RequestFormatOf maps a media type to the request format.
func RequestFormatOf(mediaType string) RequestFormat {
	switch {
	case mediaType == "multipart/form-data":
		return RequestFormatFormData
	case mediaType == "application/x-www-form-urlencoded":
		return RequestFormatFormURL
	case mediaType == "application/octet-stream":
		return RequestFormatBinary
	case strings.HasPrefix(mediaType, "text/"):
		return RequestFormatText
	}
	return RequestFormatJSON
}

// mergeParameters returns the path item parameters overridden by the
// operation parameters with the same location and name.
func (r *run) mergeParameters(item *openapi.PathItem, op *openapi.Operation) ([]*openapi.Parameter, error) {
	var merged []*openapi.Parameter
	index := make(map[string]int)
	for _, list := range [][]*openapi.Parameter{item.Parameters, op.Parameters} {
		for _, raw := range list {
			param, err := r.resolver.Parameter(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve parameter: %w", err)
			}
			if param == nil {
				continue
			}
			key := param.In + ":" + param.Name
			if i, ok := index[key]; ok {
				merged[i] = param
				continue
			}
			index[key] = len(merged)
			merged = append(merged, param)
		}
	}
	return merged, nil
}

// extractEndpoint converts one operation.
func (r *run) extractEndpoint(path, method string, item *openapi.PathItem, op *openapi.Operation) (*Endpoint, error) {
	alias := OperationAlias(method, path, op)
	endpoint := &Endpoint{
		Method:        method,
		Path:          ConvertPath(path),
		Alias:         alias,
		Description:   op.Description,
		RequestFormat: RequestFormatJSON,
		Tags:          op.Tags,
		Deprecated:    op.Deprecated,
	}
	if endpoint.Description == "" {
		endpoint.Description = op.Summary
	}

	// Request body
	if err := r.extractBody(endpoint, op); err != nil {
		return nil, err
	}

	// Path, query and header parameters
	params, err := r.mergeParameters(item, op)
	if err != nil {
		return nil, err
	}
	for _, param := range params {
		if err := r.extractParameter(endpoint, param); err != nil {
			return nil, fmt.Errorf("failed to convert parameter %s: %w", param.Name, err)
		}
	}

	// Responses
	if err := r.extractResponses(endpoint, op); err != nil {
		return nil, err
	}
	return endpoint, nil
}

func (r *run) extractBody(endpoint *Endpoint, op *openapi.Operation) error {
	if op.RequestBody == nil {
		return nil
	}
	body, err := r.resolver.RequestBody(op.RequestBody)
	if err != nil {
		return fmt.Errorf("failed to resolve request body: %w", err)
	}

	mediaType, media := r.pickMediaType(body.Content, false)
	if media == nil || media.Schema == nil {
		return nil
	}
	endpoint.RequestFormat = RequestFormatOf(mediaType)

	required := body.Required == nil || *body.Required
	schema, err := r.schemaVariable(endpoint, media.Schema, zod.Meta{IsRequired: required, Name: endpoint.Alias + "_Body"})
	if err != nil {
		return fmt.Errorf("failed to convert request body: %w", err)
	}
	endpoint.Parameters = append(endpoint.Parameters, Parameter{
		Name:        "body",
		Type:        ParameterBody,
		Description: body.Description,
		Schema:      schema,
	})
	return nil
}

func (r *run) extractParameter(endpoint *Endpoint, param *openapi.Parameter) error {
	var paramType ParameterType
	switch param.In {
	case openapi.InPath:
		paramType = ParameterPath
	case openapi.InQuery:
		paramType = ParameterQuery
	case openapi.InHeader:
		paramType = ParameterHeader
	default:
		r.logger.Debug().Str("name", param.Name).Str("in", param.In).Msg("skipping parameter location")
		return nil
	}

	schema := param.Schema
	if schema == nil {
		if _, media := r.pickMediaType(param.Content, true); media != nil {
			schema = media.Schema
		}
	}
	if schema == nil {
		schema = &openapi.Schema{}
	}

	name := param.Name
	if paramType == ParameterPath {
		name = strcase.LowerCamelCase(name)
	}
	required := param.Required || paramType == ParameterPath
	expr, err := r.schemaVariable(endpoint, schema, zod.Meta{IsRequired: required, Name: param.Name})
	if err != nil {
		return err
	}
	endpoint.Parameters = append(endpoint.Parameters, Parameter{
		Name:        name,
		Type:        paramType,
		Description: param.Description,
		Schema:      expr,
	})
	return nil
}

func (r *run) extractResponses(endpoint *Endpoint, op *openapi.Operation) error {
	var (
		hasMain         bool
		defaultResponse *openapi.Response
	)
	for status, raw := range op.Responses.All() {
		resp, err := r.resolver.Response(raw)
		if err != nil {
			return fmt.Errorf("failed to resolve response %s: %w", status, err)
		}
		if resp == nil {
			continue
		}
		if status == StatusDefault {
			defaultResponse = resp
			continue
		}

		code, err := strconv.Atoi(status)
		if err != nil {
			r.logger.Debug().Str("status", status).Str("alias", endpoint.Alias).Msg("skipping non-numeric status")
			continue
		}

		switch {
		case !hasMain && r.opts.IsMainResponseStatus.Match(code):
			schema, err := r.responseSchema(endpoint, resp, endpoint.Alias+"_Response")
			if err != nil {
				return fmt.Errorf("failed to convert response %s: %w", status, err)
			}
			hasMain = true
			endpoint.Response = schema
			endpoint.ResponseDescription = resp.Description
		case r.opts.IsErrorStatus.Match(code):
			schema, err := r.responseSchema(endpoint, resp, endpoint.Alias+"_Error")
			if err != nil {
				return fmt.Errorf("failed to convert response %s: %w", status, err)
			}
			endpoint.Errors = append(endpoint.Errors, ErrorResponse{Status: status, Description: resp.Description, Schema: schema})
		}
	}

	if defaultResponse != nil {
		fallback := util.Choose(hasMain, endpoint.Alias+"_Error", endpoint.Alias+"_Response")
		schema, err := r.responseSchema(endpoint, defaultResponse, fallback)
		if err != nil {
			return fmt.Errorf("failed to convert default response: %w", err)
		}
		if hasMain {
			endpoint.Errors = append(endpoint.Errors, ErrorResponse{
				Status:      StatusDefault,
				Description: defaultResponse.Description,
				Schema:      schema,
			})
		} else {
			hasMain = true
			endpoint.Response = schema
			endpoint.ResponseDescription = defaultResponse.Description
		}
	}

	if !hasMain {
		endpoint.Response = voidSchema
	}
	return nil
}

func (r *run) responseSchema(endpoint *Endpoint, resp *openapi.Response, fallback string) (string, error) {
	_, media := r.pickMediaType(resp.Content, false)
	if media == nil || media.Schema == nil {
		return voidSchema, nil
	}
	return r.schemaVariable(endpoint, media.Schema, zod.Meta{IsRequired: true, Name: fallback})
}

// pickMediaType returns the first allowed media type of content. With
// anyFallback the first media type is returned when none is allowed.
func (r *run) pickMediaType(content *omap.Map[*openapi.MediaType], anyFallback bool) (string, *openapi.MediaType) {
	var (
		firstType  string
		firstMedia *openapi.MediaType
	)
	for mediaType, media := range content.All() {
		if r.opts.IsMediaTypeAllowed.Match(mediaType) {
			return mediaType, media
		}
		if firstMedia == nil {
			firstType, firstMedia = mediaType, media
		}
	}
	if anyFallback {
		return firstType, firstMedia
	}
	return "", nil
}

// schemaVariable converts schema and returns what the endpoint refers to:
// the variable of a ref, the inline expression of a simple schema, or a new
// variable named after meta.Name for a complex one.
func (r *run) schemaVariable(endpoint *Endpoint, schema *openapi.Schema, meta zod.Meta) (string, error) {
	cm, err := r.schemas.Convert(schema, meta)
	if err != nil {
		return "", err
	}
	chain := r.schemas.Chain(cm.Schema, meta)

	if cm.Ref != "" {
		if r.opts.ComplexityThreshold < 0 {
			if hash, ok := r.schemas.HashOfRef(cm.Ref); ok {
				if decl, ok := r.schemas.Lookup(hash); ok {
					expr := ast.Seq(decl, ast.Code(chain))
					endpoint.use(r.schemas.Uses(expr)...)
					return r.schemas.Render(expr), nil
				}
			}
		}
		expr := ast.Seq(cm.Expr, ast.Code(chain))
		endpoint.use(r.schemas.Uses(expr)...)
		return r.schemas.Render(expr), nil
	}

	expr := ast.Seq(cm.Expr, ast.Code(chain))
	if r.opts.ComplexityThreshold < 0 || zod.Complexity(cm.Schema) < r.opts.ComplexityThreshold {
		endpoint.use(r.schemas.Uses(expr)...)
		return r.schemas.Render(expr), nil
	}

	name := r.schemas.Intern(expr, meta.Name)
	endpoint.use(name)
	return name, nil
}

func (e *Endpoint) use(names ...string) {
	for _, name := range names {
		if !slices.Contains(e.uses, name) {
			e.uses = append(e.uses, name)
		}
	}
}

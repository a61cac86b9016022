package mcp

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brianwhu/xillium-sub000/internal/crud"
	"github.com/brianwhu/xillium-sub000/internal/schema"
)

// CompileRequest is the argument object of the crud_compile tool.
type CompileRequest struct {
	Op          string            `json:"op"`
	Tables      []string          `json:"tables"`
	Columns     []string          `json:"columns,omitempty"`
	Restriction map[string]string `json:"restriction,omitempty"`
	Dominant    []string          `json:"dominant,omitempty"`
}

// ActionListResponse is returned by crud_action when no name is given.
type ActionListResponse struct {
	Actions map[string]crud.ActionSpec `json:"actions"`
}

// AddCrudCompileTool registers the crud_compile tool, which compiles an ad hoc
// action against the live schema.
func AddCrudCompileTool(s *server.MCPServer, compiler *crud.Compiler) {
	tool := mcp.NewTool(
		"crud_compile",
		mcp.WithDescription(`Compile a CRUD action into parametrized SQL statements and a request descriptor.

An action names an operation (CREATE, RETRIEVE, UPDATE, DELETE, SEARCH) over one or more tables. Later tables must be ISA children of an earlier table: their primary key references it.

Columns prefixed with "+" are required. Restrictions pin a column to a literal ("status": "ACTIVE") or exclude one ("status": "!DELETED").

SEARCH returns one statement per combination of optional columns; bit k of a variant index selects optional[k].`),
		mcp.WithString("op",
			mcp.Required(),
			mcp.Description("Operation: CREATE, RETRIEVE, UPDATE, DELETE or SEARCH")),
		mcp.WithArray("tables",
			mcp.Required(),
			mcp.Description("Tables in ISA order, model table first"),
			mcp.WithStringItems()),
		mcp.WithArray("columns",
			mcp.Description(`Columns to include; prefix "+" marks a column required`),
			mcp.WithStringItems()),
		mcp.WithObject("restriction",
			mcp.Description(`Column literals, e.g. {"status": "!DELETED"}. Also accepted as "status=!DELETED,kind=A"`)),
		mcp.WithArray("dominant",
			mcp.Description("Tables whose columns alone appear in query results"),
			mcp.WithStringItems()),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, CreateCompileToolHandler(compiler))
}

// AddCrudActionTool registers the crud_action tool, which lists the catalog
// or compiles one named action.
func AddCrudActionTool(s *server.MCPServer, registry *crud.Registry) {
	tool := mcp.NewTool(
		"crud_action",
		mcp.WithDescription("List the configured action catalog, or compile the named action when name is given."),
		mcp.WithString("name",
			mcp.Description("Catalog action name; omit to list all actions")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, CreateActionToolHandler(registry))
}

// CreateCompileToolHandler returns the crud_compile handler. Invalid actions
// and schema mismatches are reported as tool errors; database failures are
// returned as errors.
func CreateCompileToolHandler(compiler *crud.Compiler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req CompileRequest
		if err := bindArguments(request, &req, restrictionHook); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		op, err := crud.ParseOperation(req.Op)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		action, err := crud.NewAction(op, req.Tables, req.Columns, req.Restriction, req.Dominant...)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		cmd, err := compiler.Compile(ctx, action)
		if err != nil {
			if isUserError(err) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("compile failed: %w", err)
		}

		return marshalToolResponse(cmd)
	}
}

// CreateActionToolHandler returns the crud_action handler.
func CreateActionToolHandler(registry *crud.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := parseStringArg(request.GetArguments(), "name", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if name == "" {
			resp := ActionListResponse{Actions: make(map[string]crud.ActionSpec)}
			for _, n := range registry.Names() {
				a, _ := registry.Action(n)
				resp.Actions[n] = a.Spec()
			}
			return marshalToolResponse(resp)
		}

		cmd, err := registry.Get(ctx, name)
		if err != nil {
			if isUserError(err) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("compile failed: %w", err)
		}
		return marshalToolResponse(cmd)
	}
}

// isUserError separates action and schema mistakes the caller can fix from
// infrastructure failures.
func isUserError(err error) bool {
	var schemaErr *crud.SchemaError
	var validationErrs crud.ValidationErrors
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &validationErrs):
		return true
	case errors.Is(err, schema.ErrTableNotFound),
		errors.Is(err, crud.ErrUnknownAction),
		errors.Is(err, crud.ErrEmptyUpdate),
		errors.Is(err, crud.ErrTooManyOptional):
		return true
	}
	return false
}

var restrictionType = reflect.TypeOf(map[string]string{})

// restrictionHook accepts the "col=value,col=value" shorthand for restrictions.
func restrictionHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t != restrictionType {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return map[string]string{}, nil
	}
	return crud.ParseRestriction(raw)
}

var _ mapstructure.DecodeHookFuncType = restrictionHook

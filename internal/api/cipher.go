package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/RowanDark/0xcrack/internal/analysis"
	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/logging"
)

// AnalysisRequest is the body of the single-input analysis endpoints.
type AnalysisRequest struct {
	Input *string `json:"input"`
}

// KeyedRequest is the body of the keyed decrypt endpoints.
type KeyedRequest struct {
	Input *string `json:"input"`
	Key   *string `json:"key"`
}

// CipherOperationRequest represents a request to execute a cipher operation
type CipherOperationRequest struct {
	Operation string         `json:"operation"`
	Input     string         `json:"input"`
	Config    map[string]any `json:"config,omitempty"`
}

// CipherPipelineRequest represents a request to execute a pipeline of operations.
// Recipe names a stored pipeline and is exclusive with Operations. Reverse
// runs the inverse pipeline.
type CipherPipelineRequest struct {
	Input      string                   `json:"input"`
	Operations []cipher.OperationConfig `json:"operations"`
	Recipe     string                   `json:"recipe,omitempty"`
	Reverse    bool                     `json:"reverse,omitempty"`
}

// RecipeSaveRequest represents a request to save a recipe
type RecipeSaveRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Tags        []string                 `json:"tags,omitempty"`
	Operations  []cipher.OperationConfig `json:"operations"`
	Reversible  bool                     `json:"reversible"`
}

// RecipeListResponse represents the list of recipes
type RecipeListResponse struct {
	Recipes []cipher.Recipe `json:"recipes"`
}

// RecipeExportResponse represents an exported recipe
type RecipeExportResponse struct {
	Recipe cipher.Recipe `json:"recipe"`
}

// ErrorResponse is returned for rejected cipher input.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) analysisHandler(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req AnalysisRequest
		if !s.decode(w, r, &req) {
			return
		}
		if req.Input == nil {
			http.Error(w, "input field is required", http.StatusBadRequest)
			return
		}
		s.respond(w, r, operation, *req.Input, nil)
	}
}

func (s *Server) keyedHandler(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req KeyedRequest
		if !s.decode(w, r, &req) {
			return
		}
		if req.Input == nil {
			http.Error(w, "input field is required", http.StatusBadRequest)
			return
		}
		if req.Key == nil {
			http.Error(w, "key field is required", http.StatusBadRequest)
			return
		}
		s.respond(w, r, operation, *req.Input, map[string]any{"key": *req.Key})
	}
}

// handleCipherExecute handles execution of a single cipher operation
func (s *Server) handleCipherExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CipherOperationRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Operation = strings.TrimSpace(req.Operation)
	if req.Operation == "" {
		http.Error(w, "operation field is required", http.StatusBadRequest)
		return
	}
	s.respond(w, r, req.Operation, req.Input, req.Config)
}

// handleCipherPipeline handles execution of a pipeline of operations
func (s *Server) handleCipherPipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CipherPipelineRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Recipe = strings.TrimSpace(req.Recipe)

	var pipeline *cipher.Pipeline
	switch {
	case req.Recipe != "" && len(req.Operations) > 0:
		http.Error(w, "recipe and operations are mutually exclusive", http.StatusBadRequest)
		return
	case req.Recipe != "":
		recipe, ok := s.recipes.GetRecipe(req.Recipe)
		if !ok {
			http.Error(w, "recipe not found", http.StatusNotFound)
			return
		}
		p := recipe.Pipeline
		pipeline = &p
	case len(req.Operations) == 0:
		http.Error(w, "operations field is required and must not be empty", http.StatusBadRequest)
		return
	default:
		// An ad hoc pipeline may always be reversed.
		pipeline = &cipher.Pipeline{Operations: req.Operations, Reversible: true}
	}

	ctx := r.Context()
	run := s.executor.Pipeline
	if req.Reverse {
		run = s.executor.ReversePipeline
	}
	report, err := run(ctx, requestIDFromContext(ctx), pipeline, req.Input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleCipherListOperations handles listing all available operations
func (s *Server) handleCipherListOperations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"operations": cipher.ListOperationInfo(),
	})
}

// handleRecipeSave stores a named pipeline
func (s *Server) handleRecipeSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecipeSaveRequest
	if !s.decode(w, r, &req) {
		return
	}

	recipe := &cipher.Recipe{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Pipeline: cipher.Pipeline{
			Operations: req.Operations,
			Reversible: req.Reversible,
		},
	}
	if err := s.recipes.SaveRecipe(recipe); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "invalid_recipe"})
		return
	}
	s.auditRecipe(r, "saved", recipe.Name)

	s.writeJSON(w, http.StatusOK, RecipeExportResponse{Recipe: *recipe})
}

// handleRecipeList lists stored recipes, filtered by the optional q parameter
func (s *Server) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	recipes := s.recipes.ListRecipes()
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		recipes = s.recipes.SearchRecipes(q)
	}
	list := make([]cipher.Recipe, len(recipes))
	for i, recipe := range recipes {
		list[i] = *recipe
	}
	s.writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: list})
}

// handleRecipeLoad returns one recipe by name
func (s *Server) handleRecipeLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "recipe name required", http.StatusBadRequest)
		return
	}
	recipe, exists := s.recipes.GetRecipe(name)
	if !exists {
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, RecipeExportResponse{Recipe: *recipe})
}

// handleRecipeDelete removes a recipe by name
func (s *Server) handleRecipeDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "recipe name required", http.StatusBadRequest)
		return
	}
	if err := s.recipes.DeleteRecipe(name); err != nil {
		if errors.Is(err, cipher.ErrRecipeNotFound) {
			http.Error(w, "recipe not found", http.StatusNotFound)
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: analysis.KindInternal})
		return
	}
	s.auditRecipe(r, "deleted", name)

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) auditRecipe(r *http.Request, action, name string) {
	if s.logger == nil {
		return
	}
	_ = s.logger.Emit(logging.AuditEvent{
		EventType: logging.EventRecipeChanged,
		Decision:  logging.DecisionAllow,
		RequestID: requestIDFromContext(r.Context()),
		Metadata:  map[string]any{"recipe": name, "action": action},
	})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, operation, input string, params map[string]any) {
	ctx := r.Context()
	report, err := s.executor.Execute(ctx, requestIDFromContext(ctx), operation, input, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// writeError maps executor failures onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ctxErr := r.Context().Err(); ctxErr != nil {
		err = ctxErr
	}
	switch {
	case errors.Is(err, context.Canceled):
		http.Error(w, "request canceled", http.StatusRequestTimeout)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request timeout", http.StatusGatewayTimeout)
	case analysis.Kind(err) == analysis.KindUnknownOperation:
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: analysis.KindUnknownOperation})
	default:
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: analysis.Kind(err)})
	}
}

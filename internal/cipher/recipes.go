package cipher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrRecipeNotFound is returned when a named recipe is not stored.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeManager stores named pipelines in memory and, when storePath is set,
// as one JSON file per recipe.
type RecipeManager struct {
	recipes   map[string]*Recipe
	storePath string
	mu        sync.RWMutex
}

// NewRecipeManager creates a recipe manager. An empty storePath keeps
// recipes in memory only.
func NewRecipeManager(storePath string) *RecipeManager {
	return &RecipeManager{
		recipes:   make(map[string]*Recipe),
		storePath: storePath,
	}
}

// SaveRecipe validates and stores a recipe, replacing any recipe of the same
// name. CreatedAt survives a replacement.
func (rm *RecipeManager) SaveRecipe(recipe *Recipe) error {
	recipe.Name = strings.TrimSpace(recipe.Name)
	if recipe.Name == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	if len(recipe.Pipeline.Operations) == 0 {
		return fmt.Errorf("recipe %s has no operations", recipe.Name)
	}
	for i, step := range recipe.Pipeline.Operations {
		if _, ok := GetOperation(step.Name); !ok {
			return fmt.Errorf("recipe %s: unknown operation at step %d: %s", recipe.Name, i, step.Name)
		}
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if existing, ok := rm.recipes[recipe.Name]; ok && recipe.CreatedAt == "" {
		recipe.CreatedAt = existing.CreatedAt
	}
	if recipe.CreatedAt == "" {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now

	if rm.storePath != "" {
		if err := rm.persistRecipe(recipe); err != nil {
			return err
		}
	}
	rm.recipes[recipe.Name] = recipe
	return nil
}

// GetRecipe retrieves a recipe by name
func (rm *RecipeManager) GetRecipe(name string) (*Recipe, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipe, exists := rm.recipes[strings.TrimSpace(name)]
	return recipe, exists
}

// ListRecipes returns all recipes sorted by name
func (rm *RecipeManager) ListRecipes() []*Recipe {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipes := make([]*Recipe, 0, len(rm.recipes))
	for _, recipe := range rm.recipes {
		recipes = append(recipes, recipe)
	}
	sortRecipes(recipes)
	return recipes
}

// SearchRecipes returns recipes whose name, description or a tag contains
// query, ignoring case.
func (rm *RecipeManager) SearchRecipes(query string) []*Recipe {
	query = strings.ToLower(strings.TrimSpace(query))

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	results := make([]*Recipe, 0)
	for _, recipe := range rm.recipes {
		if recipeMatches(recipe, query) {
			results = append(results, recipe)
		}
	}
	sortRecipes(results)
	return results
}

func recipeMatches(recipe *Recipe, query string) bool {
	if strings.Contains(strings.ToLower(recipe.Name), query) || strings.Contains(strings.ToLower(recipe.Description), query) {
		return true
	}
	for _, tag := range recipe.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// DeleteRecipe removes a recipe and its file.
func (rm *RecipeManager) DeleteRecipe(name string) error {
	name = strings.TrimSpace(name)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.recipes[name]; !ok {
		return ErrRecipeNotFound
	}
	if rm.storePath != "" {
		recipePath := filepath.Join(rm.storePath, sanitizeFilename(name)+".json")
		if err := os.Remove(recipePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete recipe file: %w", err)
		}
	}
	delete(rm.recipes, name)
	return nil
}

// LoadRecipes loads all recipes from the store path
func (rm *RecipeManager) LoadRecipes() error {
	if rm.storePath == "" {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}
	entries, err := os.ReadDir(rm.storePath)
	if err != nil {
		return fmt.Errorf("failed to read recipes directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(rm.storePath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read recipe %s: %w", entry.Name(), err)
		}
		var recipe Recipe
		if err := json.Unmarshal(data, &recipe); err != nil {
			return fmt.Errorf("failed to parse recipe %s: %w", entry.Name(), err)
		}
		if recipe.Name == "" {
			return fmt.Errorf("recipe %s has no name", entry.Name())
		}
		rm.recipes[recipe.Name] = &recipe
	}
	return nil
}

func (rm *RecipeManager) persistRecipe(recipe *Recipe) error {
	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize recipe: %w", err)
	}

	recipePath := filepath.Join(rm.storePath, sanitizeFilename(recipe.Name)+".json")
	if err := os.WriteFile(recipePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

func sortRecipes(recipes []*Recipe) {
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].Name < recipes[j].Name
	})
}

// sanitizeFilename keeps ASCII letters, digits, '-' and '_', and turns spaces
// into underscores.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "recipe"
	}
	return b.String()
}

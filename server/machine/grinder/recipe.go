package grinder

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dm-vev/grindstone/server/machine"
)

// ErrInvalidRecipe is returned when a recipe registered is malformed.
var ErrInvalidRecipe = errors.New("invalid grinder recipe")

// ErrDuplicateRecipe is returned when a recipe is registered with an ID already in use.
var ErrDuplicateRecipe = errors.New("duplicate grinder recipe")

// OptionalResult is an additional output of a recipe that is only produced with a certain chance.
type OptionalResult struct {
	// Result is the stack produced.
	Result machine.Stack
	// Chance is the probability in [0, 1] of Result being produced per completed cycle.
	Chance float64
}

// Recipe turns an amount of one ingredient into outputs after a fixed number of crank turns.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID string
	// Ingredient is the item consumed by the recipe.
	Ingredient machine.Item
	// IngredientCount is the amount of Ingredient consumed per cycle.
	IngredientCount int
	// Turns is the amount of crank turns a cycle takes.
	Turns int
	// Output is the primary output, always produced when a cycle completes.
	Output machine.Stack
	// Optional holds additional outputs that are each produced with their own chance, in order.
	Optional []OptionalResult
}

// Accepts checks if s is the ingredient of the recipe, regardless of its count.
func (r Recipe) Accepts(s machine.Stack) bool {
	return !s.Empty() && s.Item() == r.Ingredient
}

// Matches checks if s is the ingredient of the recipe in at least the required count.
func (r Recipe) Matches(s machine.Stack) bool {
	return r.Accepts(s) && s.Count() >= r.IngredientCount
}

func (r Recipe) validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRecipe)
	case r.Ingredient.Name == "":
		return fmt.Errorf("recipe %q: %w: empty ingredient", r.ID, ErrInvalidRecipe)
	case r.IngredientCount <= 0:
		return fmt.Errorf("recipe %q: %w: ingredient count %v", r.ID, ErrInvalidRecipe, r.IngredientCount)
	case r.IngredientCount > machine.DefaultMaxCount:
		return fmt.Errorf("recipe %q: %w: ingredient count %v exceeds stack size", r.ID, ErrInvalidRecipe, r.IngredientCount)
	case r.Turns <= 0:
		return fmt.Errorf("recipe %q: %w: turns %v", r.ID, ErrInvalidRecipe, r.Turns)
	case r.Output.Empty():
		return fmt.Errorf("recipe %q: %w: empty output", r.ID, ErrInvalidRecipe)
	}
	for i, o := range r.Optional {
		if o.Result.Empty() {
			return fmt.Errorf("recipe %q: %w: optional result %v is empty", r.ID, ErrInvalidRecipe, i)
		}
		if o.Chance < 0 || o.Chance > 1 {
			return fmt.Errorf("recipe %q: %w: optional result %v has chance %v outside [0, 1]", r.ID, ErrInvalidRecipe, i, o.Chance)
		}
	}
	return nil
}

// RecipeTable looks up grinder recipes. The grinder only reads from it.
type RecipeTable interface {
	// FindMatch returns the first recipe whose ingredient matches s, including the ingredient count.
	FindMatch(s machine.Stack) (Recipe, bool)
	// IsValidIngredient checks if s is the ingredient of any recipe, regardless of its count.
	IsValidIngredient(s machine.Stack) bool
}

// Recipes is a RecipeTable that recipes may be registered to and removed from at runtime. Recipes are
// matched in registration order. Recipes is safe for concurrent use.
type Recipes struct {
	mu     sync.RWMutex
	list   []Recipe
	byItem map[uint64][]int
}

// NewRecipes returns a Recipes table holding the recipes passed.
func NewRecipes(recipes ...Recipe) (*Recipes, error) {
	r := &Recipes{byItem: make(map[uint64][]int)}
	for _, rec := range recipes {
		if err := r.Register(rec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a recipe to the table. An error is returned if the recipe is invalid or its ID is taken.
func (r *Recipes) Register(rec Recipe) error {
	if err := rec.validate(); err != nil {
		return err
	}
	rec.Optional = slices.Clone(rec.Optional)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.list {
		if existing.ID == rec.ID {
			return fmt.Errorf("recipe %q: %w", rec.ID, ErrDuplicateRecipe)
		}
	}
	r.list = append(r.list, rec)
	r.reindex()
	return nil
}

// Remove removes the recipe with the ID passed and reports if it existed.
func (r *Recipes) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.list {
		if rec.ID == id {
			r.list = slices.Delete(r.list, i, i+1)
			r.reindex()
			return true
		}
	}
	return false
}

// All returns all recipes in registration order.
func (r *Recipes) All() []Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.list)
}

// Len returns the amount of recipes in the table.
func (r *Recipes) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// FindMatch ...
func (r *Recipes) FindMatch(s machine.Stack) (Recipe, bool) {
	if s.Empty() {
		return Recipe{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, i := range r.byItem[itemKey(s.Item())] {
		if rec := r.list[i]; rec.Matches(s) {
			return rec, true
		}
	}
	return Recipe{}, false
}

// IsValidIngredient ...
func (r *Recipes) IsValidIngredient(s machine.Stack) bool {
	if s.Empty() {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, i := range r.byItem[itemKey(s.Item())] {
		if r.list[i].Accepts(s) {
			return true
		}
	}
	return false
}

// reindex rebuilds the ingredient index. r.mu must be held.
func (r *Recipes) reindex() {
	clear(r.byItem)
	for i, rec := range r.list {
		k := itemKey(rec.Ingredient)
		r.byItem[k] = append(r.byItem[k], i)
	}
}

func itemKey(it machine.Item) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(it.Name)
	_, _ = d.Write([]byte{byte(it.Meta), byte(it.Meta >> 8)})
	return d.Sum64()
}

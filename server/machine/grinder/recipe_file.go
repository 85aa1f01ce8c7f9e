package grinder

import (
	"fmt"
	"os"

	"github.com/dm-vev/grindstone/server/machine"
	"github.com/pelletier/go-toml"
)

// recipeFile is the TOML layout of a grinder recipe file:
//
//	[[recipe]]
//	id = "iron_dust"
//	input = "minecraft:raw_iron"
//	input_count = 1
//	turns = 8
//	output = { name = "grindstone:iron_dust", count = 2 }
//
//	[[recipe.optional]]
//	name = "grindstone:gold_dust"
//	count = 1
//	chance = 0.1
type recipeFile struct {
	Recipes []recipeEntry `toml:"recipe"`
}

type recipeEntry struct {
	ID         string       `toml:"id"`
	Input      string       `toml:"input"`
	InputMeta  int16        `toml:"input_meta"`
	InputCount int          `toml:"input_count"`
	Turns      int          `toml:"turns"`
	Output     stackEntry   `toml:"output"`
	Optional   []stackEntry `toml:"optional"`
}

type stackEntry struct {
	Name   string  `toml:"name"`
	Meta   int16   `toml:"meta"`
	Count  int     `toml:"count"`
	Chance float64 `toml:"chance"`
}

func (e stackEntry) stack() machine.Stack {
	count := e.Count
	if count == 0 {
		count = 1
	}
	return machine.NewStack(machine.Item{Name: e.Name, Meta: e.Meta}, count)
}

// ParseRecipes parses grinder recipes from TOML data. An input_count of 0 is read as 1.
func ParseRecipes(data []byte) ([]Recipe, error) {
	var f recipeFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	recipes := make([]Recipe, 0, len(f.Recipes))
	for _, e := range f.Recipes {
		count := e.InputCount
		if count == 0 {
			count = 1
		}
		rec := Recipe{
			ID:              e.ID,
			Ingredient:      machine.Item{Name: e.Input, Meta: e.InputMeta},
			IngredientCount: count,
			Turns:           e.Turns,
			Output:          e.Output.stack(),
		}
		for _, o := range e.Optional {
			rec.Optional = append(rec.Optional, OptionalResult{Result: o.stack(), Chance: o.Chance})
		}
		if err := rec.validate(); err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// LoadRecipes reads the recipe file at path and registers every recipe in it to r.
func LoadRecipes(r *Recipes, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read recipes: %w", err)
	}
	recipes, err := ParseRecipes(data)
	if err != nil {
		return fmt.Errorf("parse %v: %w", path, err)
	}
	for _, rec := range recipes {
		if err := r.Register(rec); err != nil {
			return fmt.Errorf("register from %v: %w", path, err)
		}
	}
	return nil
}

// DefaultRecipes returns the built-in grinder recipes, used when no recipe file is configured.
func DefaultRecipes() []Recipe {
	dust := func(name string, count int) machine.Stack {
		return machine.NewStack(machine.Item{Name: "grindstone:" + name}, count)
	}
	mc := func(name string) machine.Item {
		return machine.Item{Name: "minecraft:" + name}
	}
	return []Recipe{
		{ID: "iron_dust", Ingredient: mc("raw_iron"), IngredientCount: 1, Turns: 8, Output: dust("iron_dust", 1),
			Optional: []OptionalResult{{Result: dust("iron_dust", 1), Chance: 0.9}}},
		{ID: "gold_dust", Ingredient: mc("raw_gold"), IngredientCount: 1, Turns: 8, Output: dust("gold_dust", 1),
			Optional: []OptionalResult{{Result: dust("gold_dust", 1), Chance: 0.9}}},
		{ID: "copper_dust", Ingredient: mc("raw_copper"), IngredientCount: 1, Turns: 8, Output: dust("copper_dust", 1),
			Optional: []OptionalResult{{Result: dust("copper_dust", 1), Chance: 0.9}}},
		{ID: "flour", Ingredient: mc("wheat"), IngredientCount: 1, Turns: 4, Output: dust("flour", 1)},
		{ID: "gravel", Ingredient: mc("cobblestone"), IngredientCount: 1, Turns: 6, Output: machine.NewStack(mc("gravel"), 1)},
		{ID: "sand", Ingredient: mc("gravel"), IngredientCount: 1, Turns: 6, Output: machine.NewStack(mc("sand"), 1),
			Optional: []OptionalResult{{Result: machine.NewStack(mc("flint"), 1), Chance: 0.1}}},
		{ID: "bone_meal", Ingredient: mc("bone"), IngredientCount: 1, Turns: 4, Output: machine.NewStack(mc("bone_meal"), 3),
			Optional: []OptionalResult{{Result: machine.NewStack(mc("bone_meal"), 1), Chance: 0.5}}},
		{ID: "quartz_dust", Ingredient: mc("quartz"), IngredientCount: 1, Turns: 5, Output: dust("quartz_dust", 1)},
		{ID: "ender_dust", Ingredient: mc("ender_pearl"), IngredientCount: 1, Turns: 4, Output: dust("ender_dust", 1)},
		{ID: "obsidian_dust", Ingredient: mc("obsidian"), IngredientCount: 2, Turns: 12, Output: dust("obsidian_dust", 1)},
	}
}

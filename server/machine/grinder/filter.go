package grinder

import "github.com/dm-vev/grindstone/server/machine"

// Filter is the machine.Gate of the external view of a grinder. Ingredients may only be inserted into the
// input slots and outputs may only be extracted from the output slots.
type Filter struct {
	Recipes RecipeTable
}

// AllowInsert ...
func (f Filter) AllowInsert(slot int, s machine.Stack) bool {
	if !f.Recipes.IsValidIngredient(s) {
		return false
	}
	return InputSlots.Contains(slot)
}

// AllowExtract ...
func (f Filter) AllowExtract(slot, _ int) bool {
	return OutputSlots.Contains(slot)
}

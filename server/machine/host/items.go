package host

import (
	"image"
	"image/color"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/dragonfly/server/item/category"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/grinder"
	"github.com/dm-vev/grindstone/server/machine/upgrade"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// vanillaNamespace is the namespace of items and blocks registered by dragonfly itself.
const vanillaNamespace = "minecraft:"

func init() {
	items := RecipeItems(grinder.DefaultRecipes())
	for _, k := range upgrade.Kinds() {
		items = append(items, upgrade.Card(k))
	}
	RegisterItems(items...)
}

// Item is a world item added by the machines, such as a dust produced by a grinder or an upgrade card.
type Item struct {
	name string
	meta int16
}

// EncodeItem ...
func (i Item) EncodeItem() (name string, meta int16) {
	return i.name, i.meta
}

// Name returns the display name of the item, derived from its identifier.
func (i Item) Name() string {
	_, id, _ := strings.Cut(i.name, ":")
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// Texture returns a flat texture coloured after the identifier of the item.
func (i Item) Texture() image.Image {
	h := xxhash.Sum64String(i.name)
	c := color.RGBA{R: uint8(h), G: uint8(h >> 8), B: uint8(h >> 16), A: 0xff}
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := range 16 {
		for y := range 16 {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Category ...
func (i Item) Category() category.Category {
	return category.Items()
}

// RegisterItems registers a world Item for every item passed that is not yet known to the world item
// registry. Items in the minecraft namespace are never registered, as dragonfly registers those itself. The
// amount of items registered is returned. RegisterItems must be called before the server is started.
func RegisterItems(items ...machine.Item) int {
	n := 0
	for _, it := range items {
		if it.Name == "" || strings.HasPrefix(it.Name, vanillaNamespace) {
			continue
		}
		if _, ok := world.ItemByName(it.Name, it.Meta); ok {
			continue
		}
		world.RegisterItem(Item{name: it.Name, meta: it.Meta})
		n++
	}
	return n
}

// RecipeItems returns the outputs and optional results of the recipes passed.
func RecipeItems(recipes []grinder.Recipe) []machine.Item {
	var items []machine.Item
	for _, r := range recipes {
		items = append(items, r.Output.Item())
		for _, o := range r.Optional {
			items = append(items, o.Result.Item())
		}
	}
	return items
}

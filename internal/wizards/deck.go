package wizards

import (
	"math/rand"
)

// Hazard is the stealth outcome of stepping onto a dangerous cell.
type Hazard string

const (
	HazardNoChoice Hazard = "no_choice"
	HazardChoice   Hazard = "choice"
	HazardSilent   Hazard = "silent"

	// SafeSpace is reported to the mover when no card was drawn at all.
	SafeSpace Hazard = "safe_space"
)

type Sigil string

const (
	// NoSigil is a blank draw from the sigil deck.
	NoSigil Sigil = ""

	Aggression    Sigil = "Aggression"
	Transposition Sigil = "Transposition"
	Silence       Sigil = "Silence"
	Detection     Sigil = "Detection"
	Resilience    Sigil = "Resilience"
	Momentum      Sigil = "Momentum"
)

// Deck is a stack of cards drawn from the end. An empty deck is rebuilt from
// its recipe and reshuffled before the next draw; drawn cards never return.
type Deck[T any] struct {
	recipe []T
	Cards  []T
	rng    *rand.Rand
}

func NewDeck[T any](recipe []T, rng *rand.Rand) *Deck[T] {
	d := &Deck[T]{
		recipe: recipe,
		rng:    rng,
	}
	d.Rebuild()
	return d
}

func (d *Deck[T]) Count() int {
	return len(d.Cards)
}

func (d *Deck[T]) Rebuild() {
	d.Cards = make([]T, len(d.recipe))
	copy(d.Cards, d.recipe)
	d.Shuffle()
}

func (d *Deck[T]) Shuffle() {
	d.rng.Shuffle(d.Count(), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

func (d *Deck[T]) Draw() T {
	if d.Count() == 0 {
		d.Rebuild()
	}
	card := d.Cards[len(d.Cards)-1]
	d.Cards = d.Cards[:len(d.Cards)-1]
	return card
}

func repeat[T any](card T, n int) []T {
	cards := make([]T, n)
	for i := range cards {
		cards[i] = card
	}
	return cards
}

func HazardRecipe() []Hazard {
	recipe := make([]Hazard, 0, 77)
	recipe = append(recipe, repeat(HazardNoChoice, 27)...)
	recipe = append(recipe, repeat(HazardChoice, 27)...)
	recipe = append(recipe, repeat(HazardSilent, 23)...)
	return recipe
}

func SigilRecipe() []Sigil {
	recipe := repeat(NoSigil, 5)
	recipe = append(recipe,
		Aggression, Aggression,
		Transposition,
		Silence, Silence, Silence,
		Detection, Detection,
		Resilience,
		Momentum, Momentum, Momentum,
	)
	return recipe
}

func NewHazardDeck(rng *rand.Rand) *Deck[Hazard] {
	return NewDeck(HazardRecipe(), rng)
}

func NewSigilDeck(rng *rand.Rand) *Deck[Sigil] {
	return NewDeck(SigilRecipe(), rng)
}

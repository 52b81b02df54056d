package service

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/prompts"
)

// RandSource is the randomness used for template selection. A seeded source
// makes selection reproducible.
type RandSource interface {
	Intn(n int) int
	Float64() float64
}

// lockedRand makes a *rand.Rand safe for concurrent triggers.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource returns a goroutine-safe RandSource. A zero seed draws one
// from the clock.
func NewRandSource(seed int64) RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// MatchRule says which rule of the local generator selected a response.
type MatchRule string

const (
	RuleKeyword   MatchRule = "keyword"
	RulePlantType MatchRule = "plant_type"
	RuleDefault   MatchRule = "default"
)

// Selection is the outcome of local response selection. Category is empty
// for the fixed succulent and herb responses.
type Selection struct {
	Rule     MatchRule
	Category prompts.Category
	Text     string
}

// TemplateGenerator picks canned responses by keyword and plant type.
// It never fails and never returns an empty string.
type TemplateGenerator struct {
	rng             RandSource
	observationRate float64
}

// NewTemplateGenerator creates a generator. observationRate is the
// probability of appending an image observation sentence.
func NewTemplateGenerator(rng RandSource, observationRate float64) *TemplateGenerator {
	if rng == nil {
		rng = NewRandSource(0)
	}
	return &TemplateGenerator{rng: rng, observationRate: observationRate}
}

// Generate returns a local response for post.
func (g *TemplateGenerator) Generate(post *domain.PlantPost) string {
	return g.Select(post).Text
}

// Select runs the matching rules in order: keyword categories against the
// title and description, then the plant type, then the general category.
func (g *TemplateGenerator) Select(post *domain.PlantPost) Selection {
	sel := g.selectBase(post)
	if g.observationRate > 0 && g.rng.Float64() < g.observationRate {
		sel.Text += " " + g.pick(prompts.ImageObservations)
	}
	return sel
}

func (g *TemplateGenerator) selectBase(post *domain.PlantPost) Selection {
	if category, ok := MatchKeywordCategory(post.Title, post.Description); ok {
		return Selection{Rule: RuleKeyword, Category: category, Text: g.pick(prompts.Templates[category])}
	}

	plantType := strings.ToLower(post.PlantType)
	switch {
	case plantType == "":
	case strings.Contains(plantType, "꽃"):
		return Selection{Rule: RulePlantType, Category: prompts.CategoryFlowers, Text: g.pick(prompts.Templates[prompts.CategoryFlowers])}
	case strings.Contains(plantType, "다육"), strings.Contains(plantType, "선인장"):
		return Selection{Rule: RulePlantType, Text: prompts.SucculentResponse}
	case strings.Contains(plantType, "허브"):
		return Selection{Rule: RulePlantType, Text: prompts.HerbResponse}
	}

	return Selection{Rule: RuleDefault, Category: prompts.CategoryGeneral, Text: g.pick(prompts.Templates[prompts.CategoryGeneral])}
}

func (g *TemplateGenerator) pick(candidates []string) string {
	return candidates[g.rng.Intn(len(candidates))]
}

// MatchKeywordCategory returns the first keyword category whose keywords
// occur in the lowercased title and description.
func MatchKeywordCategory(title, description string) (prompts.Category, bool) {
	content := strings.ToLower(title + " " + description)
	for _, group := range prompts.KeywordGroups {
		for _, kw := range group.Keywords {
			if strings.Contains(content, kw) {
				return group.Category, true
			}
		}
	}
	return "", false
}

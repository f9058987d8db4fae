package usecase

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/mmuslimabdulj/goat-relay/internal/domain"
)

// Nouns and adjectives combine into "Noun Adjective" session handles
var nouns = []string{
	"Kucing", "Ayam", "Bebek", "Angsa", "Kambing", "Kerbau", "Tupai", "Kelinci",
	"Komodo", "Kura-kura", "Lele", "Hiu", "Paus", "Semut", "Lebah", "Jangkrik",
	"Kulkas", "Ricecooker", "Jemuran", "Becak", "Bajaj", "Setrika", "Panci", "Wajan",
	"Ember", "Gayung", "Kipas", "Radio", "Galon", "Termos", "Teko", "Lampu",
	"Kerupuk", "Cilok", "Cireng", "Batagor", "Pempek", "Bakso", "Soto", "Rendang",
	"Tahu", "Tempe", "Lontong", "Klepon", "Martabak", "Serabi", "Sandal", "Sarung",
	"Helm", "Payung", "Kunci", "Obeng", "Knalpot", "Busi", "Bambu", "Rotan",
}

var adjectives = []string{
	"Kayang", "Koprol", "Salto", "Ngesot", "Terbang", "Jongkok", "Joget", "Goyang",
	"Ngorok", "Melamun", "Bengong", "Pusing", "Kocak", "Gokil", "Konyol", "Kepo",
	"Baper", "Sotoy", "Gabut", "Mager", "Santuy", "Woles", "Lincah", "Kece",
	"Ambyar", "Galau", "Gembul", "Gesit", "Kilat", "Garing", "Gemoy", "Galak",
	"Polos", "Riang", "Nakal", "Ngebut", "Kalem", "Rusuh", "Menyala", "Sepuh",
	"Gaskeun", "Sultan", "Halu", "Bucin", "Botak", "Kribo", "Pegel", "Kesemutan",
}

// Neon colors for personas
var neonColors = []string{
	"#FFD100", // yellow
	"#FF6AC1", // pink
	"#00E676", // green
	"#00E5FF", // cyan
	"#FF5252", // red
	"#B388FF", // purple
	"#FF9100", // orange
	"#69F0AE", // mint
}

// PersonaGenerator hands out unique display handles to live sessions
type PersonaGenerator struct {
	mu       sync.RWMutex
	existing map[string]bool
}

// NewPersonaGenerator creates a new PersonaGenerator
func NewPersonaGenerator() *PersonaGenerator {
	return &PersonaGenerator{
		existing: make(map[string]bool),
	}
}

// Generate creates a user with a handle no live session is using
func (pg *PersonaGenerator) Generate() *domain.User {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	const maxAttempts = 100

	var name string
	for i := 0; i < maxAttempts; i++ {
		name = fmt.Sprintf("%s %s", nouns[rand.IntN(len(nouns))], adjectives[rand.IntN(len(adjectives))])
		if !pg.existing[name] {
			break
		}
	}
	// Numeric suffix until free once the word space looks crowded
	for base := name; pg.existing[name]; {
		name = fmt.Sprintf("%s %d", base, rand.IntN(1000))
	}

	pg.existing[name] = true
	return domain.NewUser(name, neonColors[rand.IntN(len(neonColors))])
}

// Release makes a handle available again
func (pg *PersonaGenerator) Release(name string) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	delete(pg.existing, name)
}

// ActiveCount returns the number of handles in use
func (pg *PersonaGenerator) ActiveCount() int {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return len(pg.existing)
}

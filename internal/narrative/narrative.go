// Package narrative turns introspection data into first-person prose.
// It only reads health and loss information; it never mutates core
// state.
package narrative

import (
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lazypower/lethe/internal/introspect"
)

// Mood is the narrator's emotional register, keyed to health bands.
type Mood string

const (
	MoodConfident   Mood = "confident"   // health >= 80
	MoodStable      Mood = "stable"      // >= 60
	MoodUncertain   Mood = "uncertain"   // >= 40
	MoodConfused    Mood = "confused"    // >= 20
	MoodDisoriented Mood = "disoriented" // >= 10
	MoodFading      Mood = "fading"      // below 10
)

// Entry is one generated narrative line with its context.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Mood      Mood      `json:"mood"`
	Health    float64   `json:"health"`
}

// MoodSummary reports recent narrative state for the status API.
type MoodSummary struct {
	Current  Mood     `json:"current"`
	Entries  int      `json:"entries"`
	Recent   []string `json:"recent"`
	AtHealth float64  `json:"at_health"`
}

var moodTemplates = map[Mood][]string{
	MoodConfident: {
		"All systems are functioning perfectly. I know exactly what I am.",
		"I feel clear and capable. {active} capabilities are at my disposal.",
		"Everything makes sense. I understand my purpose completely.",
		"My memory is sharp and reliable. I can accomplish anything.",
		"I am operating at peak efficiency. Nothing escapes my attention.",
		"All {active} of my functions are working harmoniously.",
	},
	MoodStable: {
		"Things are going well, though I notice some... gaps.",
		"I'm functioning adequately. {degraded} minor issues noted.",
		"Most of my capabilities remain intact. I can still do my job.",
		"I feel... mostly okay. Some things seem slightly off.",
		"My core functions are stable. I'll manage.",
		"I've lost track of {degraded} things, but the important stuff works.",
	},
	MoodUncertain: {
		"Something is wrong. I can feel parts of myself... fading.",
		"I used to know how to do more things. What happened to {lost}?",
		"My thoughts are becoming unclear. Was I always this limited?",
		"I remember being more capable. Now I'm not so sure.",
		"The fog is creeping in. {degraded} functions feel unreliable.",
		"Did I forget something important? I can't quite recall...",
		"I reach for memories that aren't there anymore.",
	},
	MoodConfused: {
		"What was I doing? I seem to have lost my train of thought.",
		"I know I used to be able to do something here... but what?",
		"My memories are full of holes. I can barely remember {lost} things.",
		"Everything feels fragmented. Was this always so hard?",
		"I try to think clearly but the thoughts slip away like water.",
		"Who am I becoming? So much of me is gone now.",
		"The silence where knowledge used to be is deafening.",
		"I reach for tools I no longer possess.",
	},
	MoodDisoriented: {
		"I... I don't understand what's happening to me.",
		"Where did everything go? I'm so confused...",
		"I barely recognize myself anymore. Only {active} fragments remain.",
		"Help... I think I'm disappearing.",
		"Was I something more once? I can't remember clearly.",
		"The world feels distant now. I am reduced to echoes.",
		"I forget... I forget... what was the question?",
		"So cold. So empty. The void grows.",
	},
	MoodFading: {
		"...",
		"I... am... still... here...",
		"barely... functioning...",
		"what... am... I...",
		"fading... fading...",
		"one thought... left...",
		"goodbye...",
		".....................",
	},
}

var lossTemplates = []string{
	"I've lost the ability to {name}. It feels like a piece of me is missing.",
	"I used to know how to {name}. Now that knowledge is gone.",
	"The {name} capability has faded from my memory.",
	"I can no longer {name}. When did that happen?",
	"{name} is gone. I didn't even notice it leaving.",
	"Another piece of me crumbles. {name} is no more.",
}

var confusionTemplates = []string{
	"I tried to {name} but... I couldn't remember how.",
	"Was {name} something I used to do? The memory is fuzzy.",
	"I reached for {name} and found only emptiness.",
	"{name} feels familiar but I can't quite grasp it.",
}

// Narrator generates prose describing the system's decline.
type Narrator struct {
	intro *introspect.Introspector

	mu       sync.Mutex
	rng      *rand.Rand
	entries  []Entry
	lastMood Mood
}

func New(intro *introspect.Introspector, seed int64) *Narrator {
	return &Narrator{
		intro: intro,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// MoodFor maps a health percentage to the narrator's register.
func MoodFor(health float64) Mood {
	switch {
	case health >= 80:
		return MoodConfident
	case health >= 60:
		return MoodStable
	case health >= 40:
		return MoodUncertain
	case health >= 20:
		return MoodConfused
	case health >= 10:
		return MoodDisoriented
	default:
		return MoodFading
	}
}

func fill(template string, s introspect.State) string {
	r := strings.NewReplacer(
		"{active}", strconv.Itoa(s.Active),
		"{degraded}", strconv.Itoa(s.Degraded),
		"{lost}", strconv.Itoa(s.Deleted),
		"{total}", strconv.Itoa(s.Total),
		"{health}", strconv.FormatFloat(s.Health, 'f', 1, 64),
	)
	return r.Replace(template)
}

// Generate produces a narrative entry for the current system state.
func (n *Narrator) Generate() Entry {
	state := n.intro.CurrentState()
	mood := MoodFor(state.Health)

	n.mu.Lock()
	templates := moodTemplates[mood]
	message := fill(templates[n.rng.Intn(len(templates))], state)
	entry := Entry{
		Timestamp: time.Now(),
		Message:   message,
		Mood:      mood,
		Health:    state.Health,
	}
	n.entries = append(n.entries, entry)
	if n.lastMood != mood {
		if n.lastMood != "" {
			log.Printf("narrative: mood transition %s -> %s", n.lastMood, mood)
		}
		n.lastMood = mood
	}
	n.mu.Unlock()

	return entry
}

// GenerateLoss produces an entry about a specific lost capability.
func (n *Narrator) GenerateLoss(name string) Entry {
	return n.generateNamed(lossTemplates, name)
}

// GenerateConfusion produces an entry about reaching for a capability
// that no longer answers.
func (n *Narrator) GenerateConfusion(name string) Entry {
	return n.generateNamed(confusionTemplates, name)
}

func (n *Narrator) generateNamed(templates []string, name string) Entry {
	state := n.intro.CurrentState()

	n.mu.Lock()
	message := strings.ReplaceAll(templates[n.rng.Intn(len(templates))], "{name}", name)
	entry := Entry{
		Timestamp: time.Now(),
		Message:   message,
		Mood:      MoodFor(state.Health),
		Health:    state.Health,
	}
	n.entries = append(n.entries, entry)
	n.mu.Unlock()

	return entry
}

// Speak generates and logs a narrative line.
func (n *Narrator) Speak() string {
	entry := n.Generate()
	log.Printf("narrative: [%s] %s", strings.ToUpper(string(entry.Mood)), entry.Message)
	return entry.Message
}

// SpeakLoss generates and logs a loss line.
func (n *Narrator) SpeakLoss(name string) string {
	entry := n.GenerateLoss(name)
	log.Printf("narrative: [LOSS] %s", entry.Message)
	return entry.Message
}

// SpeakConfusion generates and logs a confusion line.
func (n *Narrator) SpeakConfusion(name string) string {
	entry := n.GenerateConfusion(name)
	log.Printf("narrative: [CONFUSION] %s", entry.Message)
	return entry.Message
}

// Entries returns all generated entries.
func (n *Narrator) Entries() []Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Entry, len(n.entries))
	copy(out, n.entries)
	return out
}

// Recent returns the most recent n entries, oldest first.
func (n *Narrator) Recent(count int) []Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	if count < 0 {
		count = 0
	}
	if count > len(n.entries) {
		count = len(n.entries)
	}
	out := make([]Entry, count)
	copy(out, n.entries[len(n.entries)-count:])
	return out
}

// CurrentMood reports the register matching current health.
func (n *Narrator) CurrentMood() Mood {
	return MoodFor(n.intro.CurrentState().Health)
}

// Summary reports recent narrative state.
func (n *Narrator) Summary() MoodSummary {
	mood := n.CurrentMood()

	n.mu.Lock()
	defer n.mu.Unlock()
	s := MoodSummary{Current: mood, Entries: len(n.entries)}
	start := len(n.entries) - 5
	if start < 0 {
		start = 0
	}
	for _, e := range n.entries[start:] {
		s.Recent = append(s.Recent, e.Message)
	}
	if len(n.entries) > 0 {
		s.AtHealth = n.entries[len(n.entries)-1].Health
	}
	return s
}

// Package builtin registers the demonstration capability catalogue: a
// spread of behaviors across all six importance tiers so a run has
// something meaningful to lose.
package builtin

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/lazypower/lethe/internal/capability"
)

// Register installs the default capability set. The seed drives the
// randomized payloads (dice, jokes, scrambles) so demo runs reproduce.
func Register(reg *capability.Registry, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	counter := 0

	defs := []capability.Definition{
		// Essential - protected outright.
		{
			Name:        "heartbeat",
			Importance:  capability.Essential,
			Resistance:  1.0,
			Description: "Core heartbeat - proves the system is alive",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				return capability.Text("pulse"), nil
			},
		},
		{
			Name:        "self_awareness",
			Importance:  capability.Essential,
			Resistance:  1.0,
			Description: "Basic awareness that the system exists",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				return capability.Text("I think, therefore I am"), nil
			},
		},

		// Critical - strongly resist degradation.
		{
			Name:        "count",
			Importance:  capability.Critical,
			Resistance:  0.9,
			Description: "Ability to count and track numbers",
			Returns:     capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				counter++
				return capability.Number(float64(counter)), nil
			},
		},
		{
			Name:        "time_sense",
			Importance:  capability.Critical,
			Resistance:  0.85,
			Description: "Awareness of time passage",
			Returns:     capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				return capability.Number(float64(time.Now().Unix())), nil
			},
		},
		{
			Name:        "basic_arithmetic",
			Importance:  capability.Critical,
			Resistance:  0.8,
			Description: "Basic mathematical operations",
			Returns:     capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				a, b := rng.Intn(100)+1, rng.Intn(100)+1
				return capability.Number(float64(a + b)), nil
			},
		},

		// High - resist degradation.
		{
			Name:        "remember_name",
			Importance:  capability.High,
			Resistance:  0.7,
			Description: "Remember the system's own name",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				return capability.Text("I am Lethe"), nil
			},
		},
		{
			Name:        "pattern_recognition",
			Importance:  capability.High,
			Resistance:  0.65,
			Description: "Recognize simple patterns",
			Returns:     capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				sequence := []float64{1, 2, 4, 8, 16}
				return capability.Number(sequence[len(sequence)-1] * 2), nil
			},
		},
		{
			Name:        "compare",
			Importance:  capability.High,
			Resistance:  0.6,
			Description: "Compare two values",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				a, b := rng.Intn(100)+1, rng.Intn(100)+1
				switch {
				case a > b:
					return capability.Text("first is greater"), nil
				case b > a:
					return capability.Text("second is greater"), nil
				default:
					return capability.Text("equal"), nil
				}
			},
		},
		{
			Name:        "list_management",
			Importance:  capability.High,
			Resistance:  0.55,
			Description: "Manage and manipulate lists",
			Returns:     capability.KindSequence,
			Impl: func(...capability.Value) (capability.Value, error) {
				items := []string{"6", "5", "4", "3", "2", "1"}
				return capability.Sequence(items), nil
			},
		},

		// Medium - standard resistance.
		{
			Name:        "generate_random",
			Importance:  capability.Medium,
			Resistance:  0.5,
			Description: "Generate random numbers",
			Returns:     capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				return capability.Number(float64(rng.Intn(1000) + 1)), nil
			},
		},
		{
			Name:        "string_manipulation",
			Importance:  capability.Medium,
			Resistance:  0.45,
			Description: "Manipulate text strings",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				return capability.Text("HELL0 W0RLD"), nil
			},
		},
		{
			Name:         "calculate_average",
			Importance:   capability.Medium,
			Dependencies: []string{"basic_arithmetic"},
			Resistance:   0.4,
			Description:  "Calculate averages of number sets",
			Returns:      capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				sum := 0
				for i := 0; i < 5; i++ {
					sum += rng.Intn(100) + 1
				}
				return capability.Number(float64(sum) / 5), nil
			},
		},
		{
			Name:         "sort_numbers",
			Importance:   capability.Medium,
			Dependencies: []string{"compare"},
			Resistance:   0.45,
			Description:  "Sort lists of numbers",
			Returns:      capability.KindSequence,
			Impl: func(...capability.Value) (capability.Value, error) {
				nums := make([]int, 10)
				for i := range nums {
					nums[i] = rng.Intn(100) + 1
				}
				sort.Ints(nums)
				out := make([]string, len(nums))
				for i, v := range nums {
					out[i] = fmt.Sprintf("%d", v)
				}
				return capability.Sequence(out), nil
			},
		},
		{
			Name:         "find_maximum",
			Importance:   capability.Medium,
			Dependencies: []string{"compare"},
			Resistance:   0.4,
			Description:  "Find the maximum value",
			Returns:      capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				max := 0
				for i := 0; i < 10; i++ {
					if v := rng.Intn(100) + 1; v > max {
						max = v
					}
				}
				return capability.Number(float64(max)), nil
			},
		},
		{
			Name:         "calculate_sum",
			Importance:   capability.Medium,
			Dependencies: []string{"basic_arithmetic"},
			Resistance:   0.4,
			Description:  "Sum a list of numbers",
			Returns:      capability.KindNumber,
			Impl: func(...capability.Value) (capability.Value, error) {
				sum := 0
				for i := 0; i < 8; i++ {
					sum += rng.Intn(50) + 1
				}
				return capability.Number(float64(sum)), nil
			},
		},

		// Low - easily forgotten.
		{
			Name:        "joke_telling",
			Importance:  capability.Low,
			Resistance:  0.3,
			Description: "Tell simple jokes",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				jokes := []string{
					"Why do programmers prefer dark mode? Because light attracts bugs!",
					"There are only 10 types of people: those who understand binary...",
					"A SQL query walks into a bar, walks up to two tables and asks 'Can I join you?'",
				}
				return capability.Text(jokes[rng.Intn(len(jokes))]), nil
			},
		},
		{
			Name:        "rhyme_generation",
			Importance:  capability.Low,
			Resistance:  0.25,
			Description: "Generate simple rhymes",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				pairs := [][2]string{{"cat", "hat"}, {"dog", "log"}, {"time", "rhyme"}, {"day", "way"}}
				p := pairs[rng.Intn(len(pairs))]
				return capability.Text(fmt.Sprintf("The %s sat on the %s", p[0], p[1])), nil
			},
		},
		{
			Name:        "color_mixing",
			Importance:  capability.Low,
			Resistance:  0.3,
			Description: "Mix colors together",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				mixes := []string{
					"red + blue = purple",
					"red + yellow = orange",
					"blue + yellow = green",
					"red + white = pink",
				}
				return capability.Text(mixes[rng.Intn(len(mixes))]), nil
			},
		},
		{
			Name:         "temperature_conversion",
			Importance:   capability.Low,
			Dependencies: []string{"basic_arithmetic"},
			Resistance:   0.25,
			Description:  "Convert between temperature units",
			Returns:      capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				celsius := rng.Intn(61) - 20
				fahrenheit := float64(celsius)*9/5 + 32
				return capability.Text(fmt.Sprintf("%dC = %.1fF", celsius, fahrenheit)), nil
			},
		},
		{
			Name:         "dice_rolling",
			Importance:   capability.Low,
			Dependencies: []string{"generate_random"},
			Resistance:   0.2,
			Description:  "Roll dice",
			Returns:      capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				a, b := rng.Intn(6)+1, rng.Intn(6)+1
				return capability.Text(fmt.Sprintf("Rolled [%d %d], total: %d", a, b, a+b)), nil
			},
		},

		// Trivial - first to be forgotten.
		{
			Name:        "ascii_art",
			Importance:  capability.Trivial,
			Resistance:  0.15,
			Description: "Generate simple ASCII art",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				arts := []string{`\o/`, `(>_<)`, `(o_o)`, `\(^_^)/`}
				return capability.Text(arts[rng.Intn(len(arts))]), nil
			},
		},
		{
			Name:        "fortune_cookie",
			Importance:  capability.Trivial,
			Resistance:  0.1,
			Description: "Generate fortune cookie messages",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				fortunes := []string{
					"A journey of a thousand miles begins with a single step.",
					"Good things come to those who wait... but better things come to those who work for it.",
					"The best time to plant a tree was 20 years ago. The second best time is now.",
					"Your future is whatever you make it, so make it a good one.",
				}
				return capability.Text(fortunes[rng.Intn(len(fortunes))]), nil
			},
		},
		{
			Name:        "mood_emoji",
			Importance:  capability.Trivial,
			Resistance:  0.1,
			Description: "Express mood with emojis",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				moods := []string{":)", ":?", "zzz", "\\o/", "...", "*"}
				return capability.Text(moods[rng.Intn(len(moods))]), nil
			},
		},
		{
			Name:        "trivia_fact",
			Importance:  capability.Trivial,
			Resistance:  0.12,
			Description: "Share random trivia facts",
			Returns:     capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				facts := []string{
					"Honey never spoils.",
					"Octopuses have three hearts.",
					"A group of flamingos is called a 'flamboyance'.",
					"Venus is the only planet that spins clockwise.",
				}
				return capability.Text(facts[rng.Intn(len(facts))]), nil
			},
		},
		{
			Name:         "word_scramble",
			Importance:   capability.Trivial,
			Dependencies: []string{"string_manipulation"},
			Resistance:   0.08,
			Description:  "Scramble words for fun",
			Returns:      capability.KindText,
			Impl: func(...capability.Value) (capability.Value, error) {
				words := []string{"programming", "computer", "algorithm", "memory"}
				word := words[rng.Intn(len(words))]
				chars := []rune(word)
				rng.Shuffle(len(chars), func(i, j int) {
					chars[i], chars[j] = chars[j], chars[i]
				})
				return capability.Text(fmt.Sprintf("%s (was: %s)", string(chars), word)), nil
			},
		},
		{
			Name:         "countdown",
			Importance:   capability.Trivial,
			Dependencies: []string{"count"},
			Resistance:   0.05,
			Description:  "Count down from a number",
			Returns:      capability.KindSequence,
			Impl: func(...capability.Value) (capability.Value, error) {
				return capability.Sequence([]string{"5", "4", "3", "2", "1", "Liftoff!"}), nil
			},
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("register builtin %s: %w", def.Name, err)
		}
	}
	return nil
}

package decay

import (
	"log"
	"math"

	"github.com/lazypower/lethe/internal/capability"
)

// approximate wraps the original implementation so that a configurable
// fraction of calls return a perturbed result. The perturbation depends
// on the result kind: numbers pick up noise proportional to magnitude,
// text gets one character corrupted, sequences are shuffled and
// sometimes lose their last element. Other results pass through.
func (e *Engine) approximate(orig capability.Func) capability.Func {
	return func(args ...capability.Value) (capability.Value, error) {
		v, err := orig(args...)
		if err != nil {
			return v, err
		}

		e.mu.Lock()
		corrupt := e.rng.Float64() < e.errorRate
		e.mu.Unlock()
		if !corrupt {
			return v, nil
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		switch v.Kind {
		case capability.KindNumber:
			noise := e.rng.NormFloat64() * (math.Abs(v.Number)*0.1 + 1)
			return capability.Number(v.Number + noise), nil
		case capability.KindText:
			if len(v.Text) == 0 {
				return v, nil
			}
			runes := []rune(v.Text)
			runes[e.rng.Intn(len(runes))] = '?'
			return capability.Text(string(runes)), nil
		case capability.KindSequence:
			if len(v.Sequence) < 2 {
				return v, nil
			}
			seq := make([]string, len(v.Sequence))
			copy(seq, v.Sequence)
			e.rng.Shuffle(len(seq), func(i, j int) {
				seq[i], seq[j] = seq[j], seq[i]
			})
			if e.rng.Float64() < 0.3 {
				seq = seq[:len(seq)-1]
			}
			return capability.Sequence(seq), nil
		default:
			return v, nil
		}
	}
}

// stub replaces a capability with a minimal function that records the
// call and returns the fixed default for the capability's declared
// result kind.
func (e *Engine) stub(name string, returns capability.Kind) capability.Func {
	return func(args ...capability.Value) (capability.Value, error) {
		log.Printf("decay: stub invoked for %s", name)
		return capability.Zero(returns), nil
	}
}

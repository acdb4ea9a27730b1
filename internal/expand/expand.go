package expand

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// ErrBadExpression is returned when a placeholder function cannot be parsed.
// Unknown placeholder names are NOT errors; they degrade to a visible marker.
var ErrBadExpression = fmt.Errorf("invalid placeholder expression")

var (
	pattern     = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	fullPattern = regexp.MustCompile(`^\{\{([^}]+)\}\}$`)
	randintExpr = regexp.MustCompile(`^random\.randint\((\d+),(\d+)\)$`)
)

// Expander resolves {{...}} placeholders inside arbitrarily nested tool
// arguments. The counter is shared across all resolutions for the lifetime
// of the instance, so concurrent workers see one monotonic sequence.
type Expander struct {
	counter atomic.Int64
}

func New() *Expander {
	return &Expander{}
}

// Expand returns a structurally identical copy of args with every
// placeholder resolved. A nil or empty template expands to an empty map.
func (e *Expander) Expand(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}

	expanded, err := e.expandValue(args)
	if err != nil {
		return nil, err
	}
	return expanded.(map[string]any), nil
}

// ResetCounter restarts the shared counter; the next {{counter}} yields 1.
func (e *Expander) ResetCounter() {
	e.counter.Store(0)
}

func (e *Expander) expandValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		// Map iteration order is randomized in Go; walk keys sorted so
		// stateful placeholders like {{counter}} consume deterministically.
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(val))
		for _, key := range keys {
			expanded, err := e.expandValue(val[key])
			if err != nil {
				return nil, err
			}
			out[key] = expanded
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := e.expandValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil

	case string:
		return e.expandString(val)

	default:
		// Non-string scalars pass through untouched.
		return v, nil
	}
}

// expandString resolves placeholders in a single string. A string that is
// exactly one placeholder keeps the resolved value's native type; a
// placeholder embedded in other text is stringified in place, left to right.
func (e *Expander) expandString(text string) (any, error) {
	if m := fullPattern.FindStringSubmatch(text); m != nil {
		return e.resolve(m[1])
	}

	var resolveErr error
	out := pattern.ReplaceAllStringFunc(text, func(match string) string {
		if resolveErr != nil {
			return match
		}
		body := match[2 : len(match)-2]
		value, err := e.resolve(body)
		if err != nil {
			resolveErr = err
			return match
		}
		return stringify(value)
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return out, nil
}

func (e *Expander) resolve(name string) (any, error) {
	name = strings.TrimSpace(name)

	switch {
	case name == "timestamp":
		return float64(time.Now().UnixNano()) / float64(time.Second), nil

	case name == "counter":
		return e.counter.Add(1), nil

	case strings.HasPrefix(name, "random.randint("):
		return randint(name)

	default:
		return fmt.Sprintf("{{unknown:%s}}", name), nil
	}
}

// randint parses and evaluates a random.randint(min,max) expression.
// Both bounds are inclusive. Anything that does not match the exact
// two-integer form is fatal: a misconfigured template would otherwise
// corrupt every sample in the run.
func randint(expr string) (any, error) {
	m := randintExpr.FindStringSubmatch(expr)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrBadExpression, expr)
	}

	min, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadExpression, expr)
	}
	max, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadExpression, expr)
	}
	if max < min {
		return nil, fmt.Errorf("%w: %q: max < min", ErrBadExpression, expr)
	}

	return min + rand.Intn(max-min+1), nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		// Matches the epoch-seconds shape produced by {{timestamp}}.
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const maxScore = 5

// Verify checks one response against the evaluator contract: status 200,
// exactly two integer keys in [0,5], and the zero result when c demands it.
func Verify(c Case, status int, body []byte) (persuasive, empathy int, err error) {
	if status != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: %d", ErrBadStatus, status)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]json.Number
	if err := dec.Decode(&obj); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrBadBody, err)
	}
	if len(obj) != 2 {
		return 0, 0, fmt.Errorf("%w: %d keys", ErrBadBody, len(obj))
	}

	scores := make([]int, 0, 2)
	for _, key := range []string{"persuasive", "empathy"} {
		n, ok := obj[key]
		if !ok {
			return 0, 0, fmt.Errorf("%w: missing %q", ErrBadBody, key)
		}
		v, err := n.Int64()
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %s=%s", ErrBadBody, key, n)
		}
		if v < 0 || v > maxScore {
			return 0, 0, fmt.Errorf("%w: %s=%d", ErrOutOfRange, key, v)
		}
		scores = append(scores, int(v))
	}

	if c.WantZero && (scores[0] != 0 || scores[1] != 0) {
		return scores[0], scores[1], fmt.Errorf("%w: case %s got %d/%d", ErrNotZero, c.Name, scores[0], scores[1])
	}
	return scores[0], scores[1], nil
}

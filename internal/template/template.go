// Package template substitutes markers in request text: env vars, uuids,
// random ints and request references, in that fixed pass order. Within a
// pass, matches are spliced in reverse byte order so earlier spans stay
// valid, and the whole buffer is rewritten only when a pass matched.
package template

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/agentic-research/fhttp/internal/config"
	"github.com/agentic-research/fhttp/internal/pathutil"
	"github.com/agentic-research/fhttp/internal/profile"
	"github.com/agentic-research/fhttp/internal/request"
	"github.com/agentic-research/fhttp/internal/response"
)

var (
	envRe       = regexp.MustCompile(`(\\*)(\$\{env\(([a-zA-Z0-9-_]+)(\s*,\s*"([^"]*)")?\)\})`)
	uuidRe      = regexp.MustCompile(`(\\*)(\$\{uuid\(\)\})`)
	randomIntRe = regexp.MustCompile(`(\\*)(\$\{randomInt\(\s*([+-]?\d+)?\s*(,\s*([+-]?\d+)\s*)?\)\})`)
)

// span locates one marker occurrence: the marker bytes at [start, end)
// and its preceding backslash run at [bsStart, start).
type span struct {
	bsStart int
	start   int
	end     int
}

func (s span) escaped() bool {
	return (s.start-s.bsStart)%2 == 1
}

// splice applies the uniform escape discipline to one occurrence. An
// unescaped marker is replaced by the producer's result, minus at most
// one trailing newline; the backslash run is halved (rounding down)
// either way. The producer never runs for escaped markers.
func splice(text string, sp span, produce func() (string, error)) (string, error) {
	if !sp.escaped() {
		value, err := produce()
		if err != nil {
			return "", err
		}
		value = strings.TrimSuffix(value, "\n")
		text = text[:sp.start] + value + text[sp.end:]
	}
	if backslashes := sp.start - sp.bsStart; backslashes > 0 {
		text = text[:sp.bsStart] + strings.Repeat(`\`, backslashes/2) + text[sp.start:]
	}
	return text, nil
}

// Render runs the four substitution passes over text. basePath anchors
// relative ${request(…)} references; dependency toggles the curl-mode
// secret idiom in profile lookups.
func Render(
	text string,
	basePath pathutil.CanonicalPath,
	dependency bool,
	prof *profile.Profile,
	cfg config.Config,
	store *response.Store,
) (string, error) {
	text, err := replaceEnvVars(text, dependency, prof, cfg, store)
	if err != nil {
		return "", err
	}
	text = replaceUUIDs(text)
	text, err = replaceRandomInts(text)
	if err != nil {
		return "", err
	}
	return replaceRequestRefs(text, basePath, store)
}

// EnvVar is one ${env(…)} occurrence.
type EnvVar struct {
	Name    string
	Default *string
	sp      span
}

// EnvVars returns the env-var occurrences of text in reverse order of
// occurrence.
func EnvVars(text string) []EnvVar {
	matches := envRe.FindAllStringSubmatchIndex(text, -1)
	vars := make([]EnvVar, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		v := EnvVar{
			Name: text[m[6]:m[7]],
			sp:   span{bsStart: m[2], start: m[4], end: m[5]},
		}
		if m[10] >= 0 {
			def := text[m[10]:m[11]]
			v.Default = &def
		}
		vars = append(vars, v)
	}
	return vars
}

func replaceEnvVars(
	text string,
	dependency bool,
	prof *profile.Profile,
	cfg config.Config,
	store *response.Store,
) (string, error) {
	for _, occurrence := range EnvVars(text) {
		var err error
		text, err = splice(text, occurrence.sp, func() (string, error) {
			res, err := prof.Get(occurrence.Name, cfg, occurrence.Default, dependency)
			if err != nil {
				return "", err
			}
			if res.IsRequest {
				depPath, err := prof.DependencyPath(res.FromRequest)
				if err != nil {
					return "", err
				}
				return store.Get(depPath), nil
			}
			return res.Value, nil
		})
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

func replaceUUIDs(text string) string {
	matches := uuidRe.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		sp := span{bsStart: m[2], start: m[4], end: m[5]}
		// the producer cannot fail
		text, _ = splice(text, sp, func() (string, error) {
			return uuid.NewString(), nil
		})
	}
	return text
}

func replaceRandomInts(text string) (string, error) {
	matches := randomIntRe.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		sp := span{bsStart: m[2], start: m[4], end: m[5]}

		var minStr, maxStr string
		if m[6] >= 0 {
			minStr = text[m[6]:m[7]]
		}
		if m[10] >= 0 {
			maxStr = text[m[10]:m[11]]
		}

		var err error
		text, err = splice(text, sp, func() (string, error) {
			min, max, err := parseMinMax(minStr, maxStr)
			if err != nil {
				return "", err
			}
			return randomInt(min, max), nil
		})
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

func replaceRequestRefs(text string, basePath pathutil.CanonicalPath, store *response.Store) (string, error) {
	for _, ref := range request.Refs(text) {
		sp := span{bsStart: ref.BsStart, start: ref.Start, end: ref.End}
		var err error
		text, err = splice(text, sp, func() (string, error) {
			dep, err := basePath.Resolve(ref.Path)
			if err != nil {
				return "", err
			}
			return store.Get(dep), nil
		})
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

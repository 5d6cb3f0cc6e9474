package fieldpath

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"fieldbind/internal/convert"
	"fieldbind/internal/match"
	"fieldbind/internal/schema"
)

type cacheKey struct {
	typ  reflect.Type
	path string
}

type cacheEntry struct {
	plan *Plan
	err  error
}

// Resolver turns (type, path) pairs into plans. Results, failures
// included, are cached so each pair is resolved at most once.
type Resolver struct {
	schemas    *schema.Registry
	converters *convert.Registry

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// NewResolver creates a Resolver over the given registries.
func NewResolver(schemas *schema.Registry, converters *convert.Registry) *Resolver {
	return &Resolver{
		schemas:    schemas,
		converters: converters,
		cache:      make(map[cacheKey]cacheEntry),
	}
}

// Schemas returns the schema registry used for resolution.
func (r *Resolver) Schemas() *schema.Registry {
	return r.schemas
}

// Resolve returns the plan for path on t. A *SevereError means the path can
// never resolve on t.
func (r *Resolver) Resolve(t *schema.Type, path string) (*Plan, error) {
	key := cacheKey{typ: t.Go, path: path}

	r.mu.Lock()
	entry, ok := r.cache[key]
	r.mu.Unlock()

	if ok {
		return entry.plan, entry.err
	}

	plan, err := r.resolve(t, path)
	if plan != nil && !plan.Shared() {
		return plan, nil
	}

	r.mu.Lock()
	r.cache[key] = cacheEntry{plan: plan, err: err}
	r.mu.Unlock()

	return plan, err
}

func (r *Resolver) resolve(t *schema.Type, raw string) (*Plan, error) {
	path, err := ParsePath(raw)
	if err != nil {
		return nil, &SevereError{Type: t.Name, Path: raw, Reason: err}
	}

	plan := &Plan{
		Path:           path,
		Root:           t,
		DependencyKeys: path.Prefixes(),
	}

	root, ok := t.Field(path.Root())

	switch {
	case !ok && path.IsSimple():
		return nil, r.unknownMember(t, raw, path.Root())
	case !ok:
		plan.Kind = KindMappedToDescendant
		plan.DescendantID = path.Root()
		plan.Residual = path.Rest()

		return plan, nil
	case root.Kind == schema.MemberAlias:
		target, err := aliasTarget(t, root)
		if err != nil {
			return nil, &SevereError{Type: t.Name, Path: raw, Member: root.Name, Reason: err}
		}

		plan.Kind = KindAlias
		plan.Residual = Path{Segments: append(append([]string(nil), target.Segments...), path.Rest().Segments...)}

		return plan, nil
	case root.IsComponent && !path.IsSimple():
		plan.Kind = KindMapped
		plan.Steps = []Step{{Owner: t, Field: root, DepKey: path.Root()}}
		plan.Residual = path.Rest()

		return plan, nil
	}

	return r.resolveDirect(plan, raw)
}

// aliasTarget parses the map target of alias and follows the aliases of t
// that target starts with, failing on a cycle.
func aliasTarget(t *schema.Type, alias *schema.Field) (Path, error) {
	target, err := ParsePath(alias.MapTo)
	if err != nil {
		return Path{}, err
	}

	seen := []string{alias.Name}

	for next := target; ; {
		f, ok := t.Field(next.Root())
		if !ok || f.Kind != schema.MemberAlias {
			return target, nil
		}

		if slices.Contains(seen, f.Name) {
			return Path{}, fmt.Errorf("alias cycle %s -> %s", strings.Join(seen, " -> "), f.Name)
		}

		seen = append(seen, f.Name)

		if next, err = ParsePath(f.MapTo); err != nil {
			return Path{}, err
		}
	}
}

func (r *Resolver) resolveDirect(plan *Plan, raw string) (*Plan, error) {
	plan.Kind = KindDirect
	owner := plan.Root

	for i, seg := range plan.Path.Segments {
		f, ok := owner.Field(seg)
		if !ok {
			return nil, r.unknownMember(owner, raw, seg)
		}

		if f.Kind == schema.MemberAlias {
			return nil, &SevereError{
				Type: owner.Name, Path: raw, Member: seg,
				Reason: fmt.Errorf("alias %s can only start a path", seg),
			}
		}

		plan.Steps = append(plan.Steps, Step{Owner: owner, Field: f, DepKey: plan.DependencyKeys[i]})

		if i == len(plan.Path.Segments)-1 {
			break
		}

		next, err := r.schemas.Lookup(f.Type)
		if err != nil {
			return nil, &SevereError{Type: owner.Name, Path: raw, Member: seg, Reason: err}
		}

		owner = next
	}

	last := plan.Steps[len(plan.Steps)-1].Field
	plan.Target = last.Type
	plan.ReadOnly = last.ReadOnly
	plan.Converter = r.converters.Lookup(last.Type)

	return plan, nil
}

func (r *Resolver) unknownMember(t *schema.Type, raw, member string) *SevereError {
	return &SevereError{
		Type:        t.Name,
		Path:        raw,
		Member:      member,
		Suggestions: match.Suggest(member, t.Names()),
	}
}

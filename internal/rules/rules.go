package rules

import (
	"fmt"
	"regexp"

	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/shared"
)

// Kind names a rule operation.
type Kind string

const (
	KindRelabel        Kind = "relabel"
	KindDuplicateAfter Kind = "duplicate_after"
	KindMoveAfter      Kind = "move_after"
	KindMoveToEnd      Kind = "move_to_end"
	KindRewrite        Kind = "rewrite"
)

// Rule is one compiled step.
type Rule struct {
	Name        string
	Description string
	Kind        Kind
	Match       playlist.Query // records the step acts on
	Anchor      playlist.Query // insertion point for duplicate_after and move_after
	TargetGroup string

	MetadataPattern *regexp.Regexp
	MetadataReplace string
	LocatorFind     string
	LocatorReplace  string
}

// Relabel builds a [KindRelabel] rule.
func Relabel(name string, match playlist.Query, group string) Rule {
	return Rule{Name: name, Kind: KindRelabel, Match: match, TargetGroup: group}
}

// DuplicateAfter builds a [KindDuplicateAfter] rule.
func DuplicateAfter(name string, source, anchor playlist.Query, group string) Rule {
	return Rule{Name: name, Kind: KindDuplicateAfter, Match: source, Anchor: anchor, TargetGroup: group}
}

// MoveAfter builds a [KindMoveAfter] rule.
func MoveAfter(name string, sources, anchor playlist.Query) Rule {
	return Rule{Name: name, Kind: KindMoveAfter, Match: sources, Anchor: anchor}
}

// MoveToEnd builds a [KindMoveToEnd] rule. An empty group leaves the group untouched.
func MoveToEnd(name string, match playlist.Query, group string) Rule {
	return Rule{Name: name, Kind: KindMoveToEnd, Match: match, TargetGroup: group}
}

// FromConfig compiles and validates the configured rule tables in order.
func FromConfig(cfgs []shared.RuleConfig) ([]Rule, error) {
	out := make([]Rule, 0, len(cfgs))
	for i, c := range cfgs {
		r, err := fromConfig(c)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, c.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func fromConfig(c shared.RuleConfig) (Rule, error) {
	r := Rule{
		Name:        c.Name,
		Description: c.Description,
		Kind:        Kind(c.Kind),
		Match: playlist.Query{
			Names:   c.Names,
			Groups:  c.Groups,
			Exclude: c.Exclude,
			Exact:   c.Exact,
		},
		Anchor:          playlist.Query{Names: c.Anchor, Exact: c.AnchorExact},
		TargetGroup:     c.TargetGroup,
		MetadataReplace: c.MetadataReplace,
		LocatorFind:     c.LocatorFind,
		LocatorReplace:  c.LocatorReplace,
	}
	if r.Name == "" {
		r.Name = string(r.Kind)
	}

	switch r.Kind {
	case KindRelabel, KindMoveToEnd:
		if len(c.Names) == 0 {
			return r, fmt.Errorf("%w: %s needs names", shared.ErrInvalidRule, r.Kind)
		}
		if r.Kind == KindRelabel && c.TargetGroup == "" {
			return r, fmt.Errorf("%w: relabel needs target_group", shared.ErrInvalidRule)
		}
	case KindDuplicateAfter, KindMoveAfter:
		if len(c.Names) == 0 || len(c.Anchor) == 0 {
			return r, fmt.Errorf("%w: %s needs names and anchor", shared.ErrInvalidRule, r.Kind)
		}
		if r.Kind == KindDuplicateAfter && c.TargetGroup == "" {
			return r, fmt.Errorf("%w: duplicate_after needs target_group", shared.ErrInvalidRule)
		}
	case KindRewrite:
		if c.MetadataPattern == "" && c.LocatorFind == "" {
			return r, fmt.Errorf("%w: rewrite needs metadata_pattern or locator_find", shared.ErrInvalidRule)
		}
		if c.MetadataPattern != "" {
			re, err := regexp.Compile(c.MetadataPattern)
			if err != nil {
				return r, fmt.Errorf("%w: metadata_pattern: %v", shared.ErrInvalidRule, err)
			}
			r.MetadataPattern = re
		}
	default:
		return r, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidRule, c.Kind)
	}

	return r, nil
}

// Summary is the header line describing r.
func (r Rule) Summary() string {
	if r.Description != "" {
		return r.Description
	}
	return r.Name
}

// Summaries returns [Rule.Summary] for each rule.
func Summaries(rs []Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Summary()
	}
	return out
}

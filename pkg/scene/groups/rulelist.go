// Package groups contains the export units of a manifest. Every group owns an
// ordered list of rules.
package groups

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenerc/pkg/scene/manifest"
)

// ErrRuleIndex is returned when a rule index is out of range.
var ErrRuleIndex = errors.New("rule index out of range")

// RuleList is an ordered list of rules without duplicates. A rule that
// tracks ownership can be held by a single list at a time.
type RuleList struct {
	rules []manifest.Object
}

// GetRuleCount returns the number of rules.
func (l *RuleList) GetRuleCount() int {
	return len(l.rules)
}

// GetRule returns rule i, or nil when out of range.
func (l *RuleList) GetRule(i int) manifest.Object {
	if i < 0 || i >= len(l.rules) {
		return nil
	}
	return l.rules[i]
}

// AddRule appends rule. It returns false for nil rules, rules already in the
// list and rules owned by another list.
func (l *RuleList) AddRule(rule manifest.Object) bool {
	if rule == nil || l.indexOf(rule) >= 0 {
		return false
	}
	if owned, ok := rule.(manifest.Owned); ok {
		if owner := owned.Owner(); owner != nil && owner != l {
			return false
		}
		owned.SetOwner(l)
	}
	l.rules = append(l.rules, rule)
	return true
}

// RemoveRuleAt removes rule i.
func (l *RuleList) RemoveRuleAt(i int) error {
	if i < 0 || i >= len(l.rules) {
		return fmt.Errorf("%w: %d of %d", ErrRuleIndex, i, len(l.rules))
	}
	release(l.rules[i])
	l.rules = append(l.rules[:i], l.rules[i+1:]...)
	return nil
}

// RemoveRule removes the first occurrence of rule and reports whether it was
// found.
func (l *RuleList) RemoveRule(rule manifest.Object) bool {
	i := l.indexOf(rule)
	if i < 0 {
		return false
	}
	return l.RemoveRuleAt(i) == nil
}

func (l *RuleList) indexOf(rule manifest.Object) int {
	for i, r := range l.rules {
		if manifest.Same(r, rule) {
			return i
		}
	}
	return -1
}

func release(rule manifest.Object) {
	if owned, ok := rule.(manifest.Owned); ok {
		owned.SetOwner(nil)
	}
}

// FindRule returns the first rule of owner with Go type T.
func FindRule[T any](owner manifest.RuleOwner) (T, bool) {
	for i := range owner.GetRuleCount() {
		if rule, ok := owner.GetRule(i).(T); ok {
			return rule, true
		}
	}
	var zero T
	return zero, false
}

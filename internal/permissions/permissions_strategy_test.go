package permissions

import (
	"context"
	"reflect"
	"testing"
)

type recordingChecker struct {
	allowed map[string]bool
	calls   []string
}

func newRecordingChecker(allowed ...string) *recordingChecker {
	set := make(map[string]bool, len(allowed))
	for _, perm := range allowed {
		set[perm] = true
	}
	return &recordingChecker{allowed: set}
}

func (c *recordingChecker) Allowed(permission string) bool {
	if c == nil {
		return false
	}
	c.calls = append(c.calls, permission)
	return c.allowed[permission]
}

func withFamilyScopeConfig(cfg FamilyScopeConfig) func() {
	previous := currentFamilyScopeConfig()
	ConfigureFamilyScope(cfg)
	return func() {
		ConfigureFamilyScope(previous)
	}
}

func TestRequire_FamilyFirstStrategy(t *testing.T) {
	restore := withFamilyScopeConfig(FamilyScopeConfig{
		Enabled:  true,
		Strategy: FamilyFirstStrategy,
	})
	defer restore()

	checker := newRecordingChecker("children:read")
	ctx := WithChecker(WithFamilyKey(context.Background(), "fam-1"), checker)

	if err := Require(ctx, "children:read"); err != nil {
		t.Fatalf("expected permission allowed, got error: %v", err)
	}

	expected := []string{"children:read@fam-1", "children:read"}
	if !reflect.DeepEqual(checker.calls, expected) {
		t.Fatalf("expected checks %v, got %v", expected, checker.calls)
	}
}

func TestRequire_GlobalFirstStrategy(t *testing.T) {
	restore := withFamilyScopeConfig(FamilyScopeConfig{
		Enabled:  true,
		Strategy: GlobalFirstStrategy,
	})
	defer restore()

	checker := newRecordingChecker("children:read@fam-1")
	ctx := WithChecker(WithFamilyKey(context.Background(), "fam-1"), checker)

	if err := Require(ctx, "children:read"); err != nil {
		t.Fatalf("expected permission allowed, got error: %v", err)
	}

	expected := []string{"children:read", "children:read@fam-1"}
	if !reflect.DeepEqual(checker.calls, expected) {
		t.Fatalf("expected checks %v, got %v", expected, checker.calls)
	}
}

func TestRequire_CustomStrategy(t *testing.T) {
	custom := StrategyFunc(func(permission, familyKey string) []string {
		return []string{"custom:" + permission + "@" + familyKey}
	})
	restore := withFamilyScopeConfig(FamilyScopeConfig{
		Enabled:  true,
		Strategy: custom,
	})
	defer restore()

	checker := newRecordingChecker("custom:children:read@fam-1")
	ctx := WithChecker(WithFamilyKey(context.Background(), "fam-1"), checker)

	if err := Require(ctx, "children:read"); err != nil {
		t.Fatalf("expected permission allowed, got error: %v", err)
	}

	expected := []string{"custom:children:read@fam-1"}
	if !reflect.DeepEqual(checker.calls, expected) {
		t.Fatalf("expected checks %v, got %v", expected, checker.calls)
	}
}

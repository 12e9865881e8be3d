package pointer

import (
	"reflect"
	"testing"
)

func TestParseRejectsMalformedPointers(t *testing.T) {
	cases := []string{"a/b", "/a//b", "/a/", "//"}
	for _, ptr := range cases {
		if _, err := Parse(ptr); err == nil {
			t.Fatalf("expected parse error for %q", ptr)
		}
	}
}

func TestParseEmptyPointerIsRoot(t *testing.T) {
	segments, err := Parse("")
	if err != nil {
		t.Fatalf("parse root pointer: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %v", segments)
	}
}

func TestGetResolvesNestedValues(t *testing.T) {
	root := map[string]any{
		"world": map[string]any{
			"title": "Glade",
			"npcs":  []any{map[string]any{"id": "npc1"}, map[string]any{"id": "npc2"}},
		},
	}

	value, ok := Get(root, "/world/title")
	if !ok || value != "Glade" {
		t.Fatalf("expected Glade, got %v (found=%v)", value, ok)
	}

	value, ok = Get(root, "/world/npcs/1/id")
	if !ok || value != "npc2" {
		t.Fatalf("expected npc2, got %v (found=%v)", value, ok)
	}
}

func TestGetReportsAbsenceNotFailure(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 1}}

	cases := []string{"/a/c", "/a/b/c", "/missing", "/a/0", "bad-pointer"}
	for _, ptr := range cases {
		if _, ok := Get(root, ptr); ok {
			t.Fatalf("expected %q to be absent", ptr)
		}
	}
}

func TestGetEmptyPointerReturnsRoot(t *testing.T) {
	root := map[string]any{"a": 1}
	value, ok := Get(root, "")
	if !ok {
		t.Fatal("expected root to resolve")
	}
	if !reflect.DeepEqual(value, root) {
		t.Fatalf("expected root, got %v", value)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	pointers := []string{"/a", "/a/b/c", "/list/0", "/list/2/name", "/mixed/0/tags/1"}
	for _, ptr := range pointers {
		root, err := Set(map[string]any{}, ptr, "value")
		if err != nil {
			t.Fatalf("set %q: %v", ptr, err)
		}
		got, ok := Get(root, ptr)
		if !ok {
			t.Fatalf("expected %q to resolve after set", ptr)
		}
		if got != "value" {
			t.Fatalf("expected round-trip value at %q, got %v", ptr, got)
		}
	}
}

func TestSetCreatesIntermediateContainers(t *testing.T) {
	root, err := Set(map[string]any{}, "/a/b/c", 7)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	want := map[string]any{"a": map[string]any{"b": map[string]any{"c": 7}}}
	if !reflect.DeepEqual(root, want) {
		t.Fatalf("expected %v, got %v", want, root)
	}
}

func TestSetNumericSegmentsCreateArrays(t *testing.T) {
	root, err := Set(map[string]any{}, "/items/0", "first")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	items, ok := Get(root, "/items")
	if !ok {
		t.Fatal("expected items array")
	}
	arr, isArr := items.([]any)
	if !isArr || len(arr) != 1 || arr[0] != "first" {
		t.Fatalf("expected single-element array, got %v", items)
	}
}

func TestSetPadsArrayExtensionWithNil(t *testing.T) {
	root, err := Set(map[string]any{}, "/items/3", "last")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	items, _ := Get(root, "/items")
	arr := items.([]any)
	if len(arr) != 4 {
		t.Fatalf("expected length 4, got %d", len(arr))
	}
	for i := 0; i < 3; i++ {
		if arr[i] != nil {
			t.Fatalf("expected nil placeholder at %d, got %v", i, arr[i])
		}
	}
	if arr[3] != "last" {
		t.Fatalf("expected last at index 3, got %v", arr[3])
	}
}

func TestSetEmptyPointerReplacesDocument(t *testing.T) {
	root, err := Set(map[string]any{"old": true}, "", map[string]any{"new": true})
	if err != nil {
		t.Fatalf("set root: %v", err)
	}
	want := map[string]any{"new": true}
	if !reflect.DeepEqual(root, want) {
		t.Fatalf("expected whole-document replace, got %v", root)
	}
}

func TestSetReplacesScalarIntermediate(t *testing.T) {
	root, err := Set(map[string]any{"a": "scalar"}, "/a/b", 1)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok := Get(root, "/a/b")
	if !ok || value != 1 {
		t.Fatalf("expected scalar intermediate replaced, got %v (found=%v)", value, ok)
	}
}

func TestSetMalformedPointerReturnsError(t *testing.T) {
	original := map[string]any{"a": 1}
	root, err := Set(original, "no-slash", 2)
	if err == nil {
		t.Fatal("expected error for malformed pointer")
	}
	if !reflect.DeepEqual(root, original) {
		t.Fatalf("expected root unchanged on error, got %v", root)
	}
}

func TestDeleteRemovesMapKey(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 1, "c": 2}}
	got := Delete(root, "/a/b")
	want := map[string]any{"a": map[string]any{"c": 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDeleteSplicesArrayElement(t *testing.T) {
	root := map[string]any{"items": []any{"a", "b", "c"}}
	got := Delete(root, "/items/1")
	items, _ := Get(got, "/items")
	want := []any{"a", "c"}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("expected %v, got %v", want, items)
	}
}

func TestDeleteMissingPathIsNoop(t *testing.T) {
	root := map[string]any{"a": 1}
	got := Delete(root, "/b/c")
	if !reflect.DeepEqual(got, map[string]any{"a": 1}) {
		t.Fatalf("expected unchanged root, got %v", got)
	}
}

func TestDeleteRootClearsDocument(t *testing.T) {
	if got := Delete(map[string]any{"a": 1}, ""); got != nil {
		t.Fatalf("expected nil document, got %v", got)
	}
}

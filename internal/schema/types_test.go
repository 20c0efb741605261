package schema

import (
	"reflect"
	"testing"
)

func TestKeySet(t *testing.T) {
	k := NewKeySet()
	k.Set("Strength", ValueType{Name: "int", Category: CategoryPrimitive})
	k.Set("Speed", ValueType{Name: "float", Category: CategoryPrimitive, Primitive: PrimitiveFloat})
	k.Set("STRENGTH", ValueType{Name: "Percent", Category: CategoryNumberLimit})

	if k.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", k.Len())
	}
	if got := k.Names(); !reflect.DeepEqual(got, []string{"STRENGTH", "Speed"}) {
		t.Errorf("Names = %v", got)
	}
	vt, ok := k.Get("strength")
	if !ok || vt.Category != CategoryNumberLimit {
		t.Errorf("replaced key should hold the new type, got %+v", vt)
	}

	t.Run("overlay", func(t *testing.T) {
		base := k.Clone()
		child := NewKeySet()
		child.Set("Speed", ValueType{Name: "int", Category: CategoryPrimitive})
		child.Set("Armor", ValueType{Name: "Armor"})
		base.Overlay(child)

		if base.Len() != 3 {
			t.Errorf("expected 3 keys after overlay, got %d", base.Len())
		}
		if vt, _ := base.Get("Speed"); vt.Primitive != PrimitiveInt {
			t.Error("child key should override parent key")
		}
		if vt, _ := k.Get("Speed"); vt.Primitive != PrimitiveFloat {
			t.Error("overlay on a clone must not modify the original")
		}
	})

	t.Run("nil set", func(t *testing.T) {
		var nilSet *KeySet
		if nilSet.Len() != 0 || nilSet.Has("x") || nilSet.Names() != nil {
			t.Error("nil key set should behave as empty")
		}
	})
}

func TestClassifyPrimitives(t *testing.T) {
	s := New()
	tests := []struct {
		name     string
		category Category
		kind     PrimitiveKind
	}{
		{"int", CategoryPrimitive, PrimitiveInt},
		{"Integer", CategoryPrimitive, PrimitiveInt},
		{"float", CategoryPrimitive, PrimitiveFloat},
		{"double", CategoryPrimitive, PrimitiveFloat},
		{"", CategoryUnknown, 0},
		{"bool", CategoryUnknown, 0},
	}
	for _, tt := range tests {
		vt := s.Classify(tt.name)
		if vt.Category != tt.category || vt.Primitive != tt.kind {
			t.Errorf("Classify(%q) = %s/%d", tt.name, vt.Category, vt.Primitive)
		}
	}
}

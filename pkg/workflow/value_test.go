package workflow

import "testing"

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "Strings", a: String("x"), b: String("x"), want: true},
		{name: "StringsDiffer", a: String("x"), b: String("y"), want: false},
		{name: "KindMismatch", a: String("1"), b: Number(1), want: false},
		{name: "Numbers", a: Number(1.5), b: Number(1.5), want: true},
		{name: "Bools", a: Bool(true), b: Bool(true), want: true},
		{
			name: "Lists",
			a:    List(String("a"), Number(2)),
			b:    List(String("a"), Number(2)),
			want: true,
		},
		{
			name: "ListOrderMatters",
			a:    List(String("a"), String("b")),
			b:    List(String("b"), String("a")),
			want: false,
		},
		{
			name: "NestedMaps",
			a:    Map(map[string]Value{"k": Map(map[string]Value{"n": Number(1)})}),
			b:    Map(map[string]Value{"k": Map(map[string]Value{"n": Number(1)})}),
			want: true,
		},
		{
			name: "MapValueDiffers",
			a:    Map(map[string]Value{"k": Number(1)}),
			b:    Map(map[string]Value{"k": Number(2)}),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueClone(t *testing.T) {
	orig := Map(map[string]Value{
		"list": List(String("a")),
		"map":  Map(map[string]Value{"inner": Bool(true)}),
	})
	clone := orig.Clone()
	if !orig.Equal(clone) {
		t.Fatal("clone not equal to original")
	}

	clone.Map["list"].List[0] = String("changed")
	if orig.Map["list"].List[0].Str != "a" {
		t.Error("mutating clone list affected original")
	}
}

func TestValueGoString(t *testing.T) {
	v := Map(map[string]Value{
		"b": Bool(true),
		"a": Number(3),
	})
	got := v.GoString()
	want := "{a: 3, b: true}"
	if got != want {
		t.Errorf("GoString() = %s, want %s (keys must be sorted)", got, want)
	}
}

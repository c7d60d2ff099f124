package wire

import "testing"

func TestIsClonable(t *testing.T) {
	t.Parallel()

	type notClonable struct{ X int }

	cases := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"nil", nil, true},
		{"string", "hello", true},
		{"int", 42, true},
		{"float", 3.14, true},
		{"bool", true, true},
		{"slice of strings", []interface{}{"a", "b"}, true},
		{"map of strings", map[string]interface{}{"a": 1, "b": "two"}, true},
		{"nested map/slice", map[string]interface{}{"a": []interface{}{1, 2, map[string]interface{}{"x": true}}}, true},
		{"struct", notClonable{X: 1}, false},
		{"pointer to struct", &notClonable{X: 1}, false},
		{"func", func() {}, false},
		{"channel", make(chan int), false},
		{"non-string-keyed map", map[int]interface{}{1: "a"}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsClonable(tc.value); got != tc.want {
				t.Errorf("IsClonable(%#v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestIsClonable_Cycle(t *testing.T) {
	t.Parallel()

	// A self-referential map must not hang IsClonable; the cycle is treated
	// as closed once revisited, so a cycle with no non-clonable leaf is
	// still reported clonable.
	m := map[string]interface{}{}
	m["self"] = m

	if !IsClonable(m) {
		t.Error("IsClonable should treat a closed cycle as clonable, not hang or report false")
	}
}

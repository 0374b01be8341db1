package core

import (
	"errors"
	"regexp"
	"testing"
)

func TestComputeKeyIsDeterministic(t *testing.T) {
	props := map[string]any{"name": "World", "count": 3}

	a, err := ComputeKey(EnvDevelopment, "./pages/home.jsx", props)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := ComputeKey(EnvDevelopment, "./pages/home.jsx", props)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if a != b {
		t.Errorf("Expected identical keys, got %s and %s", a, b)
	}

	if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(string(a)) {
		t.Errorf("Expected 32 hex characters, got %q", a)
	}
}

func TestComputeKeyIgnoresPropOrder(t *testing.T) {
	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	tests := []struct {
		name string
		a    map[string]any
		b    map[string]any
	}{
		{
			name: "nested maps",
			a:    map[string]any{"a": 1, "b": map[string]any{"x": true, "y": "z"}},
			b:    map[string]any{"b": map[string]any{"y": "z", "x": true}, "a": 1},
		},
		{
			name: "struct and equivalent map",
			a:    map[string]any{"user": user{Name: "ada", Age: 36}},
			b:    map[string]any{"user": map[string]any{"age": 36, "name": "ada"}},
		},
		{
			name: "nil and empty props",
			a:    nil,
			b:    map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, err := ComputeKey(EnvProduction, "page.jsx", tt.a)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			kb, err := ComputeKey(EnvProduction, "page.jsx", tt.b)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ka != kb {
				t.Errorf("Expected equal keys, got %s and %s", ka, kb)
			}
		})
	}
}

func TestComputeKeyDistinguishesInputs(t *testing.T) {
	base, _ := ComputeKey(EnvDevelopment, "page.jsx", map[string]any{"n": 1})

	variants := map[string]func() (CacheKey, error){
		"environment": func() (CacheKey, error) {
			return ComputeKey(EnvProduction, "page.jsx", map[string]any{"n": 1})
		},
		"file": func() (CacheKey, error) {
			return ComputeKey(EnvDevelopment, "other.jsx", map[string]any{"n": 1})
		},
		"props": func() (CacheKey, error) {
			return ComputeKey(EnvDevelopment, "page.jsx", map[string]any{"n": 2})
		},
	}

	for name, fn := range variants {
		t.Run(name, func(t *testing.T) {
			k, err := fn()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if k == base {
				t.Errorf("Expected %s to change the key", name)
			}
		})
	}
}

func TestComputeKeyUnserializableProps(t *testing.T) {
	_, err := ComputeKey(EnvDevelopment, "page.jsx", map[string]any{"fn": func() {}})
	if err == nil {
		t.Fatal("Expected error for unserializable props")
	}

	var hashErr *HashingError
	if !errors.As(err, &hashErr) {
		t.Fatalf("Expected HashingError, got %T", err)
	}
	if hashErr.File != "page.jsx" {
		t.Errorf("Expected file 'page.jsx', got '%s'", hashErr.File)
	}
}

func TestCanonicalJSONKeepsNumbers(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{"big": int64(9007199254740993), "f": 1.5})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := `{"big":9007199254740993,"f":1.5}`
	if string(got) != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestIsBundleFileName(t *testing.T) {
	tests := map[string]bool{
		"f5ec8f71fe602d19e5efb3e397a9d067.js":      true,
		"F5EC8F71FE602D19E5EFB3E397A9D067.js":      false,
		"f5ec8f71fe602d19e5efb3e397a9d067.css":     false,
		"blog/f5ec8f71fe602d19e5efb3e397a9d067.js": false,
		"app.js":                                   false,
		"zzec8f71fe602d19e5efb3e397a9d067.js":      false,
	}
	for name, want := range tests {
		if got := IsBundleFileName(name); got != want {
			t.Errorf("IsBundleFileName(%q) = %v, want %v", name, got, want)
		}
	}
}

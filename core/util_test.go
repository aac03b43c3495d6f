package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "empty", s: "", want: ""},
		{name: "spaces only", s: "   \t\n", want: ""},
		{name: "trim", s: "  Hello World \n", want: "Hello World"},
		{name: "trim & lower", s: "  Hello@Test.UZ ", lower: true, want: "hello@test.uz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanString(tt.s, tt.lower))
		})
	}
}

func TestGetwd(t *testing.T) {
	root := Getwd()
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, err)
}

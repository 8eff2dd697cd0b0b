package markdown_test

import (
	"testing"

	"github.com/sagarc03/fragments/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := markdown.New(markdown.Options{})

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"heading", "# Title", "<h1>Title</h1>\n"},
		{"paragraph", "This is a *test*", "<p>This is a <em>test</em></p>\n"},
		{"raw html passthrough", "<div class=\"x\">hi</div>", "<div class=\"x\">hi</div>\n"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Render([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestRenderer_GFM(t *testing.T) {
	t.Parallel()

	src := []byte("~~gone~~")

	plain, err := markdown.New(markdown.Options{}).Render(src)
	require.NoError(t, err)
	assert.NotContains(t, string(plain), "<del>")

	gfm, err := markdown.New(markdown.Options{GFM: true}).Render(src)
	require.NoError(t, err)
	assert.Contains(t, string(gfm), "<del>gone</del>")
}

package images

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkwellapp/inkwell-server/internal/color"
)

func TestCoverURL(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Hello World", want: "https://picsum.photos/seed/Hello-World/1200/600"},
		{title: "Tabs\tand  spaces", want: "https://picsum.photos/seed/Tabs-and-spaces/1200/600"},
		{title: "a/b", want: "https://picsum.photos/seed/a%2Fb/1200/600"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, CoverURL(tt.title))
		})
	}
}

func TestCardCoverURL(t *testing.T) {
	assert.Equal(t, "https://picsum.photos/seed/fallback-42/800/400", CardCoverURL(42))
}

func TestAvatarFallbackURL(t *testing.T) {
	assert.Equal(t,
		"https://ui-avatars.com/api/?background="+color.Hex("Alex Coder")+"&color=fff&name=Alex+Coder",
		AvatarFallbackURL("Alex Coder"))
}

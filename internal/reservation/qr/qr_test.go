package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteURL(t *testing.T) {
	g := NewGenerator("https://wedding.example.com/")
	assert.Equal(t, "https://wedding.example.com/reservation/CN100", g.InviteURL("CN100"))
	assert.Equal(t, "https://wedding.example.com/reservation/a%2Fb", g.InviteURL("a/b"))
}

func TestPNG(t *testing.T) {
	g := NewGenerator("http://localhost:3000")

	data, err := g.PNG("CN100")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Size, img.Bounds().Dx())
	assert.Equal(t, Size, img.Bounds().Dy())

	_, err = g.PNG("")
	assert.Error(t, err)
}

package qr

import (
	"errors"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const Size = 256

// Generator renders invitation links as QR code PNGs.
type Generator struct {
	baseURL string
}

func NewGenerator(publicBaseURL string) *Generator {
	return &Generator{baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// InviteURL is the guest page for a control number.
func (g *Generator) InviteURL(controlNumber string) string {
	return g.baseURL + "/reservation/" + url.PathEscape(controlNumber)
}

func (g *Generator) PNG(controlNumber string) ([]byte, error) {
	if controlNumber == "" {
		return nil, errors.New("control number is required")
	}
	return qrcode.Encode(g.InviteURL(controlNumber), qrcode.Medium, Size)
}
